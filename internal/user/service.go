package user

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/school-administration/internal"
	"github.com/frahmantamala/school-administration/internal/auth"
	"github.com/frahmantamala/school-administration/internal/core/events"
)

// Repository defines the data access methods for users. DeleteCascade must
// detach memberships and enrollments and revoke sessions in one transaction
// with the identity removal.
type Repository interface {
	Create(u *User) error
	GetByID(id int64) (*User, error)
	GetByEmail(email string) (*User, error)
	List(role *auth.Role) ([]*User, error)
	Update(u *User) error
	UpdateRole(id int64, role auth.Role) error
	DeleteCascade(id int64) error
}

// PasswordHasher is satisfied by the auth service; registration never sees a
// raw bcrypt call.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type Service struct {
	repo            Repository
	hasher          PasswordHasher
	bus             *events.EventBus
	adminAccessCode string
	logger          *slog.Logger
}

func NewService(repo Repository, hasher PasswordHasher, bus *events.EventBus, adminAccessCode string, logger *slog.Logger) *Service {
	return &Service{
		repo:            repo,
		hasher:          hasher,
		bus:             bus,
		adminAccessCode: adminAccessCode,
		logger:          logger,
	}
}

// Register creates a student or teacher account. Email is the uniqueness key;
// a collision surfaces as a conflict, never a silent overwrite.
func (s *Service) Register(dto RegisterDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	role, _ := auth.ParseRole(dto.Role)
	return s.create(dto.Username, dto.Email, dto.Phone, dto.Password, role)
}

// RegisterAdmin creates an admin account behind the bootstrap access code.
// With no code configured the path is closed entirely.
func (s *Service) RegisterAdmin(dto RegisterAdminDTO) (*User, error) {
	if s.adminAccessCode == "" {
		s.logger.Warn("admin registration attempted while disabled")
		return nil, internal.ErrForbidden
	}
	if dto.AccessCode != s.adminAccessCode {
		s.logger.Warn("admin registration with wrong access code", "email", dto.Email)
		return nil, internal.ErrInvalidAccessCode
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	return s.create(dto.Username, dto.Email, dto.Phone, dto.Password, auth.RoleAdmin)
}

func (s *Service) create(username, email, phone, password string, role auth.Role) (*User, error) {
	if existing, err := s.repo.GetByEmail(email); err == nil && existing != nil {
		return nil, internal.ErrDuplicateIdentity
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &User{
		Username:     username,
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Role:         role,
	}

	if err := s.repo.Create(u); err != nil {
		s.logger.Error("failed to create user", "error", err, "email", email)
		return nil, err
	}

	s.bus.Publish(context.Background(), events.NewUserRegisteredEvent(u.ID, u.Email, string(u.Role)))

	s.logger.Info("user registered", "user_id", u.ID, "role", u.Role)
	return u, nil
}

func (s *Service) GetByID(id int64) (*User, error) {
	return s.repo.GetByID(id)
}

func (s *Service) List(role *auth.Role) ([]*User, error) {
	return s.repo.List(role)
}

// UpdateSelf applies profile changes for the calling user.
func (s *Service) UpdateSelf(userID int64, dto UpdateSelfDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	if dto.Username != nil {
		u.Username = *dto.Username
	}
	if dto.Phone != nil {
		u.Phone = *dto.Phone
	}

	if err := s.repo.Update(u); err != nil {
		s.logger.Error("failed to update user", "error", err, "user_id", userID)
		return nil, err
	}
	return u, nil
}

// AdminUpdate applies a privileged update to any user, including role changes
// and the verified/suspended moderation flags.
func (s *Service) AdminUpdate(targetID int64, dto AdminUpdateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(targetID)
	if err != nil {
		return nil, err
	}

	if dto.Username != nil {
		u.Username = *dto.Username
	}
	if dto.Email != nil {
		if existing, err := s.repo.GetByEmail(*dto.Email); err == nil && existing != nil && existing.ID != targetID {
			return nil, internal.ErrDuplicateIdentity
		}
		u.Email = *dto.Email
	}
	if dto.Phone != nil {
		u.Phone = *dto.Phone
	}
	if dto.Role != nil {
		role, _ := auth.ParseRole(*dto.Role)
		u.Role = role
	}
	if dto.Verified != nil {
		u.Verified = *dto.Verified
	}
	if dto.Suspended != nil {
		u.Suspended = *dto.Suspended
	}

	if err := s.repo.Update(u); err != nil {
		s.logger.Error("failed to update user", "error", err, "user_id", targetID)
		return nil, err
	}
	return u, nil
}

// Promote escalates a user to admin. This is the only path that can change a
// role to admin outside the full admin update, and it is always gated at the
// router by the global-admin capability.
func (s *Service) Promote(actorID, targetID int64) (*User, error) {
	u, err := s.repo.GetByID(targetID)
	if err != nil {
		return nil, err
	}

	if u.Role == auth.RoleAdmin {
		return u, nil
	}

	if err := s.repo.UpdateRole(targetID, auth.RoleAdmin); err != nil {
		s.logger.Error("failed to promote user", "error", err, "user_id", targetID)
		return nil, err
	}
	u.Role = auth.RoleAdmin

	s.bus.Publish(context.Background(), events.NewUserPromotedEvent(targetID, actorID))

	s.logger.Info("user promoted to admin", "user_id", targetID, "actor_id", actorID)
	return u, nil
}

// Delete removes a user and cascades: memberships detached, enrollments
// withdrawn, sessions revoked, all in one transaction. Observers either see
// the user fully present or fully gone.
func (s *Service) Delete(actorID, targetID int64) error {
	if err := s.repo.DeleteCascade(targetID); err != nil {
		return err
	}

	s.bus.Publish(context.Background(), events.NewUserDeletedEvent(targetID, actorID))

	s.logger.Info("user deleted", "user_id", targetID, "actor_id", actorID)
	return nil
}
