package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/school-administration/internal/auth"
)

// Repository backs the session manager: credential lookup against the users
// table and session persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetCredentialByEmail(email string) (*auth.Credential, error) {
	var cred auth.Credential
	var role string
	query := `SELECT id, password_hash, role, suspended FROM users WHERE email = ?`

	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&cred.UserID, &cred.PasswordHash, &role, &cred.Suspended); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}

	parsed, ok := auth.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("corrupt role value %q for user %d", role, cred.UserID)
	}
	cred.Role = parsed

	return &cred, nil
}

func (r *Repository) GetAuthUser(userID int64) (*auth.User, error) {
	var user auth.User
	var role string
	var suspended bool
	query := `SELECT id, email, role, suspended FROM users WHERE id = ?`

	row := r.db.Raw(query, userID).Row()
	if err := row.Scan(&user.ID, &user.Email, &role, &suspended); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}

	if suspended {
		return nil, fmt.Errorf("user is suspended")
	}

	parsed, ok := auth.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("corrupt role value %q for user %d", role, user.ID)
	}
	user.Role = parsed

	return &user, nil
}

func (r *Repository) CreateSession(session *auth.Session) error {
	return r.db.Create(session).Error
}

func (r *Repository) GetSession(sessionID string) (*auth.Session, error) {
	var session auth.Session
	err := r.db.Where("id = ?", sessionID).First(&session).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("session not found")
		}
		return nil, err
	}
	return &session, nil
}

// RevokeSession is idempotent: revoking a missing or already revoked session
// is a no-op at this layer.
func (r *Repository) RevokeSession(sessionID string) error {
	return r.db.Model(&auth.Session{}).
		Where("id = ?", sessionID).
		Update("state", auth.SessionStateRevoked).Error
}

// RevokeAllForUser is used by the delete-user cascade. It runs inside the
// caller's transaction so session revocation and identity removal commit
// together.
func RevokeAllForUser(tx *gorm.DB, userID int64) error {
	return tx.Model(&auth.Session{}).
		Where("user_id = ? AND state = ?", userID, auth.SessionStateActive).
		Update("state", auth.SessionStateRevoked).Error
}

// DeleteExpiredBefore prunes sessions whose window closed before the cutoff.
func (r *Repository) DeleteExpiredBefore(cutoff time.Time) (int64, error) {
	res := r.db.Where("expires_at < ?", cutoff).Delete(&auth.Session{})
	return res.RowsAffected, res.Error
}
