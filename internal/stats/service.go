package stats

import (
	"log/slog"

	"github.com/frahmantamala/school-administration/pkg/logger"
)

type Repository interface {
	Collect() (*Statistics, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository) *Service {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Service{
		repo:   repo,
		logger: lg,
	}
}

func (s *Service) Collect() (*Statistics, error) {
	stats, err := s.repo.Collect()
	if err != nil {
		s.logger.Error("failed to collect statistics", "error", err)
		return nil, err
	}
	return stats, nil
}
