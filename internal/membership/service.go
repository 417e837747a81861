package membership

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/school-administration/internal"
	"github.com/frahmantamala/school-administration/internal/auth"
	"github.com/frahmantamala/school-administration/internal/core/events"
)

// Repository defines the data access methods for memberships and
// enrollments. KickCascade must run as one transaction: the membership
// transition and every enrollment withdrawal commit together or not at all.
type Repository interface {
	GetMembership(userID, departmentID int64) (*Membership, error)
	CreateMembership(m *Membership) error
	UpdateMembership(m *Membership) error
	StandingFor(userID, departmentID int64) (auth.Standing, error)
	KickCascade(userID, departmentID int64) (withdrawn int64, err error)

	// CreateEnrollment and ReactivateEnrollment carry the active-membership
	// guard inside the write itself and return ErrNotDeptMember when the
	// membership is no longer active at commit time. The service's standing
	// check alone is not enough: a kick may commit between the check and
	// the write.
	GetEnrollment(userID, courseID int64) (*Enrollment, error)
	CreateEnrollment(e *Enrollment, departmentID int64) error
	ReactivateEnrollment(e *Enrollment, departmentID int64) error
	UpdateEnrollment(e *Enrollment) error

	CourseDepartment(courseID int64) (int64, error)
	DepartmentExists(id int64) (bool, error)
	UserExists(id int64) (bool, error)
}

// Service is the membership engine: it owns the invite/kick and
// enroll/unenroll state machines and consults the authorization gate before
// every mutation.
type Service struct {
	repo   Repository
	bus    *events.EventBus
	logger *slog.Logger
}

func NewService(repo Repository, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{repo: repo, bus: bus, logger: logger}
}

// authorizeRosterChange gates invite and kick. Department-scoped admin
// standing is not modeled separately from the global role, so the gate
// requires the global-admin capability here.
func (s *Service) authorizeRosterChange(actor *auth.User, departmentID int64) error {
	standing, err := s.repo.StandingFor(actor.ID, departmentID)
	if err != nil {
		return err
	}

	decision := auth.Authorize(actor.Role, standing, auth.CapabilityGlobalAdmin)
	if !decision.Allowed {
		s.logger.Warn("roster change denied",
			"actor_id", actor.ID,
			"role", actor.Role,
			"department_id", departmentID,
			"reason", decision.Reason)
		return internal.ErrForbidden
	}
	return nil
}

// Invite creates a pending membership for the target. A removed membership
// is explicitly re-invited rather than resurrected silently; invited and
// active rows are conflicts, never no-ops.
func (s *Service) Invite(actor *auth.User, departmentID, targetID int64) (*Membership, error) {
	if err := s.authorizeRosterChange(actor, departmentID); err != nil {
		return nil, err
	}

	exists, err := s.repo.DepartmentExists(departmentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, internal.ErrDepartmentNotFound
	}

	targetExists, err := s.repo.UserExists(targetID)
	if err != nil {
		return nil, err
	}
	if !targetExists {
		return nil, internal.ErrUserNotFound
	}

	existing, err := s.repo.GetMembership(targetID, departmentID)
	if err == nil && existing != nil {
		switch existing.State {
		case StateInvited:
			return nil, internal.ErrAlreadyInvited
		case StateActive:
			return nil, internal.ErrAlreadyMember
		case StateRemoved:
			existing.State = StateInvited
			existing.InvitedAt = time.Now()
			existing.ActivatedAt = nil
			existing.RemovedAt = nil
			if err := s.repo.UpdateMembership(existing); err != nil {
				return nil, err
			}
			s.publishMembership(events.EventMembershipInvited, targetID, departmentID, actor.ID)
			return existing, nil
		}
	}

	m := &Membership{
		UserID:       targetID,
		DepartmentID: departmentID,
		State:        StateInvited,
		InvitedAt:    time.Now(),
	}
	if err := s.repo.CreateMembership(m); err != nil {
		s.logger.Error("failed to create membership", "error", err, "user_id", targetID, "department_id", departmentID)
		return nil, err
	}

	s.publishMembership(events.EventMembershipInvited, targetID, departmentID, actor.ID)
	s.logger.Info("user invited to department", "user_id", targetID, "department_id", departmentID, "actor_id", actor.ID)
	return m, nil
}

// Accept transitions the caller's own invite to active membership.
func (s *Service) Accept(actor *auth.User, departmentID int64) (*Membership, error) {
	m, err := s.repo.GetMembership(actor.ID, departmentID)
	if err != nil || m == nil {
		return nil, internal.ErrNotMember
	}

	switch m.State {
	case StateActive:
		return nil, internal.ErrAlreadyMember
	case StateRemoved:
		return nil, internal.ErrNotInvited
	}

	now := time.Now()
	m.State = StateActive
	m.ActivatedAt = &now
	if err := s.repo.UpdateMembership(m); err != nil {
		s.logger.Error("failed to activate membership", "error", err, "user_id", actor.ID, "department_id", departmentID)
		return nil, err
	}

	s.publishMembership(events.EventMembershipActivated, actor.ID, departmentID, actor.ID)
	s.logger.Info("invite accepted", "user_id", actor.ID, "department_id", departmentID)
	return m, nil
}

// Kick removes the target's membership whatever its live state (invited or
// active) and withdraws every active enrollment the target holds in the
// department's courses, atomically. After the commit there is no window in
// which the membership is gone but an enrollment survives.
func (s *Service) Kick(actor *auth.User, departmentID, targetID int64) error {
	if err := s.authorizeRosterChange(actor, departmentID); err != nil {
		return err
	}

	m, err := s.repo.GetMembership(targetID, departmentID)
	if err != nil || m == nil {
		return internal.ErrNotMember
	}
	if m.State == StateRemoved {
		return internal.ErrNotMember
	}

	withdrawn, err := s.repo.KickCascade(targetID, departmentID)
	if err != nil {
		s.logger.Error("kick cascade failed", "error", err, "user_id", targetID, "department_id", departmentID)
		return err
	}

	s.publishMembership(events.EventMembershipKicked, targetID, departmentID, actor.ID)
	s.logger.Info("user kicked from department",
		"user_id", targetID,
		"department_id", departmentID,
		"actor_id", actor.ID,
		"enrollments_withdrawn", withdrawn)
	return nil
}

// Enroll adds the caller to a course. Active membership in the course's
// department is an invariant, not a capability: admins without membership
// are refused like anyone else.
func (s *Service) Enroll(actor *auth.User, courseID int64) (*Enrollment, error) {
	departmentID, err := s.repo.CourseDepartment(courseID)
	if err != nil {
		return nil, err
	}

	standing, err := s.repo.StandingFor(actor.ID, departmentID)
	if err != nil {
		return nil, err
	}
	if standing != auth.StandingActive {
		return nil, internal.ErrNotDeptMember
	}

	existing, err := s.repo.GetEnrollment(actor.ID, courseID)
	if err == nil && existing != nil {
		switch existing.State {
		case EnrollmentActive:
			return nil, internal.ErrAlreadyEnrolled
		case EnrollmentWithdrawn:
			existing.EnrolledAt = time.Now()
			if err := s.repo.ReactivateEnrollment(existing, departmentID); err != nil {
				return nil, err
			}
			s.publishEnrollment(events.EventEnrollmentCreated, actor.ID, courseID)
			return existing, nil
		}
	}

	e := &Enrollment{
		UserID:     actor.ID,
		CourseID:   courseID,
		State:      EnrollmentActive,
		EnrolledAt: time.Now(),
	}
	if err := s.repo.CreateEnrollment(e, departmentID); err != nil {
		if errors.Is(err, internal.ErrNotDeptMember) || errors.Is(err, internal.ErrAlreadyEnrolled) {
			return nil, err
		}
		s.logger.Error("failed to create enrollment", "error", err, "user_id", actor.ID, "course_id", courseID)
		return nil, err
	}

	s.publishEnrollment(events.EventEnrollmentCreated, actor.ID, courseID)
	s.logger.Info("user enrolled", "user_id", actor.ID, "course_id", courseID)
	return e, nil
}

// Unenroll withdraws an enrollment. Self-service needs no extra authority;
// withdrawing someone else requires admin-or-teacher standing in the
// course's department. Both paths are the same state transition.
func (s *Service) Unenroll(actor *auth.User, targetID, courseID int64) error {
	if actor.ID != targetID {
		departmentID, err := s.repo.CourseDepartment(courseID)
		if err != nil {
			return err
		}
		standing, err := s.repo.StandingFor(actor.ID, departmentID)
		if err != nil {
			return err
		}
		decision := auth.Authorize(actor.Role, standing, auth.CapabilityDepartmentAdminOrTeacher)
		if !decision.Allowed {
			return internal.ErrForbidden
		}
	}

	e, err := s.repo.GetEnrollment(targetID, courseID)
	if err != nil || e == nil {
		return internal.ErrNotEnrolled
	}
	if e.State != EnrollmentActive {
		return internal.ErrNotEnrolled
	}

	now := time.Now()
	e.State = EnrollmentWithdrawn
	e.WithdrawnAt = &now
	if err := s.repo.UpdateEnrollment(e); err != nil {
		s.logger.Error("failed to withdraw enrollment", "error", err, "user_id", targetID, "course_id", courseID)
		return err
	}

	s.publishEnrollment(events.EventEnrollmentWithdrawn, targetID, courseID)
	s.logger.Info("user unenrolled", "user_id", targetID, "course_id", courseID, "actor_id", actor.ID)
	return nil
}

// StandingFor exposes membership standing for other services' gate calls.
func (s *Service) StandingFor(userID, departmentID int64) (auth.Standing, error) {
	return s.repo.StandingFor(userID, departmentID)
}

func (s *Service) publishMembership(eventType string, userID, departmentID, actorID int64) {
	s.bus.Publish(context.Background(), events.NewMembershipEvent(eventType, userID, departmentID, actorID))
}

func (s *Service) publishEnrollment(eventType string, userID, courseID int64) {
	s.bus.Publish(context.Background(), events.NewEnrollmentEvent(eventType, userID, courseID))
}
