package department

import (
	"log/slog"

	"github.com/frahmantamala/school-administration/internal"
)

// Repository defines the data access methods for departments.
type Repository interface {
	Create(d *Department) error
	GetByID(id int64) (*Department, error)
	GetByName(name string) (*Department, error)
	List() ([]*Department, error)
	CountCourses(id int64) (int64, error)
	Members(id int64) ([]Member, error)
	CourseSummaries(id int64) ([]CourseSummary, error)
	Delete(id int64) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create makes a new department. Gated at the router by the global-admin
// capability; name is the uniqueness key.
func (s *Service) Create(dto CreateDepartmentDTO) (*Department, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetByName(dto.Name); err == nil && existing != nil {
		return nil, internal.NewConflictError("a department with that name already exists", internal.ErrCodeDuplicateIdentity)
	}

	d := &Department{Name: dto.Name}
	if err := s.repo.Create(d); err != nil {
		s.logger.Error("failed to create department", "error", err, "name", dto.Name)
		return nil, err
	}

	s.logger.Info("department created", "department_id", d.ID, "name", d.Name)
	return d, nil
}

func (s *Service) List() ([]*Department, error) {
	return s.repo.List()
}

// Get returns the department with its member and course rosters.
func (s *Service) Get(id int64) (*Detail, error) {
	d, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	members, err := s.repo.Members(id)
	if err != nil {
		return nil, err
	}

	courses, err := s.repo.CourseSummaries(id)
	if err != nil {
		return nil, err
	}

	return &Detail{Department: *d, Members: members, Courses: courses}, nil
}

// Delete removes a department, refusing while any course still belongs to
// it. Memberships do not block deletion; they are detached with the row.
func (s *Service) Delete(id int64) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return err
	}

	count, err := s.repo.CountCourses(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return internal.ErrDepartmentNotEmpty
	}

	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete department", "error", err, "department_id", id)
		return err
	}

	s.logger.Info("department deleted", "department_id", id)
	return nil
}
