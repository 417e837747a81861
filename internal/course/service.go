package course

import (
	"log/slog"

	"github.com/frahmantamala/school-administration/internal"
	"github.com/frahmantamala/school-administration/internal/auth"
)

// Repository defines the data access methods for courses.
type Repository interface {
	Create(c *Course) error
	GetByID(id int64) (*Course, error)
	List() ([]*Course, error)
	Roster(courseID int64) ([]RosterEntry, error)
	Update(c *Course) error
	// DeleteCascade removes the course and withdraws its active enrollments
	// in one transaction.
	DeleteCascade(id int64) error
	DepartmentExists(id int64) (bool, error)
}

// StandingProvider reports a user's membership standing in a department.
// Satisfied by the membership repository.
type StandingProvider interface {
	StandingFor(userID, departmentID int64) (auth.Standing, error)
}

type Service struct {
	repo      Repository
	standings StandingProvider
	logger    *slog.Logger
}

func NewService(repo Repository, standings StandingProvider, logger *slog.Logger) *Service {
	return &Service{repo: repo, standings: standings, logger: logger}
}

// authorizeMutation gates course writes: admins always, teachers only with
// an active membership in the course's department.
func (s *Service) authorizeMutation(actor *auth.User, departmentID int64) error {
	standing, err := s.standings.StandingFor(actor.ID, departmentID)
	if err != nil {
		return err
	}

	decision := auth.Authorize(actor.Role, standing, auth.CapabilityDepartmentAdminOrTeacher)
	if !decision.Allowed {
		s.logger.Warn("course mutation denied",
			"actor_id", actor.ID,
			"role", actor.Role,
			"department_id", departmentID,
			"reason", decision.Reason)
		return internal.ErrForbidden
	}
	return nil
}

func (s *Service) Create(actor *auth.User, dto CreateCourseDTO) (*Course, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.DepartmentExists(dto.DepartmentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, internal.ErrDepartmentNotFound
	}

	if err := s.authorizeMutation(actor, dto.DepartmentID); err != nil {
		return nil, err
	}

	if dto.TeacherID != nil {
		standing, err := s.standings.StandingFor(*dto.TeacherID, dto.DepartmentID)
		if err != nil {
			return nil, err
		}
		if standing != auth.StandingActive {
			return nil, internal.ErrNotDeptMember
		}
	}

	c := &Course{
		DepartmentID: dto.DepartmentID,
		TeacherID:    dto.TeacherID,
		Name:         dto.Name,
		CourseNr:     dto.CourseNr,
		Description:  dto.Description,
		CreditCost:   dto.CreditCost,
		Timeslots:    dto.Timeslots,
	}

	if err := s.repo.Create(c); err != nil {
		s.logger.Error("failed to create course", "error", err, "department_id", dto.DepartmentID)
		return nil, err
	}

	s.logger.Info("course created", "course_id", c.ID, "department_id", c.DepartmentID, "actor_id", actor.ID)
	return c, nil
}

func (s *Service) List() ([]*Course, error) {
	return s.repo.List()
}

// Get returns the course with its active-enrollment roster.
func (s *Service) Get(id int64) (*Detail, error) {
	c, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	roster, err := s.repo.Roster(id)
	if err != nil {
		return nil, err
	}

	return &Detail{Course: *c, Roster: roster}, nil
}

func (s *Service) Update(actor *auth.User, id int64, dto UpdateCourseDTO) (*Course, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	c, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeMutation(actor, c.DepartmentID); err != nil {
		return nil, err
	}

	if dto.TeacherID != nil {
		standing, err := s.standings.StandingFor(*dto.TeacherID, c.DepartmentID)
		if err != nil {
			return nil, err
		}
		if standing != auth.StandingActive {
			return nil, internal.ErrNotDeptMember
		}
		c.TeacherID = dto.TeacherID
	}
	if dto.Name != nil {
		c.Name = *dto.Name
	}
	if dto.CourseNr != nil {
		c.CourseNr = *dto.CourseNr
	}
	if dto.Description != nil {
		c.Description = *dto.Description
	}
	if dto.CreditCost != nil {
		c.CreditCost = *dto.CreditCost
	}
	if dto.Timeslots != nil {
		c.Timeslots = *dto.Timeslots
	}

	if err := s.repo.Update(c); err != nil {
		s.logger.Error("failed to update course", "error", err, "course_id", id)
		return nil, err
	}
	return c, nil
}

// Delete removes a course and withdraws every active enrollment with it.
func (s *Service) Delete(actor *auth.User, id int64) error {
	c, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}

	if err := s.authorizeMutation(actor, c.DepartmentID); err != nil {
		return err
	}

	if err := s.repo.DeleteCascade(id); err != nil {
		s.logger.Error("failed to delete course", "error", err, "course_id", id)
		return err
	}

	s.logger.Info("course deleted", "course_id", id, "actor_id", actor.ID)
	return nil
}
