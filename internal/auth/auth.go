package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the closed set of user roles. Everything the authorization gate
// decides is keyed on this plus department standing, so it stays a tagged
// variant rather than a free-form string.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// Session states. Expiry is also checked against the clock on every resolve,
// so a stale "active" row past its window is still rejected.
const (
	SessionStateActive  = "active"
	SessionStateRevoked = "revoked"
)

type Session struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    int64     `json:"user_id" gorm:"column:user_id;not null;index"`
	State     string    `json:"state" gorm:"column:state;default:active"`
	IssuedAt  time.Time `json:"issued_at" gorm:"column:issued_at"`
	ExpiresAt time.Time `json:"expires_at" gorm:"column:expires_at"`
}

func (Session) TableName() string {
	return "sessions"
}

// User is the authenticated principal attached to the request context. It
// carries only what the gate and handlers need to make decisions.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	SessionID string `json:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsTeacher() bool {
	return u.Role == RoleTeacher
}

type AuthResponse struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Claims are the JWT claims for a session token. The registered ID (jti) is
// the session row ID; revocation is checked against that row on resolve.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

type TokenGeneratorAPI interface {
	GenerateSessionToken(sessionID string, userID int64, expiresAt time.Time) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Credential is the minimal identity-store projection the session manager
// needs to verify a login.
type Credential struct {
	UserID       int64
	PasswordHash string
	Role         Role
	Suspended    bool
}

type RepositoryAPI interface {
	GetCredentialByEmail(email string) (*Credential, error)
	GetAuthUser(userID int64) (*User, error)
	CreateSession(session *Session) error
	GetSession(sessionID string) (*Session, error)
	RevokeSession(sessionID string) error
	DeleteExpiredBefore(cutoff time.Time) (int64, error)
}

type ServiceAPI interface {
	Login(dto LoginDTO) (*AuthResponse, error)
	Logout(token string) error
	Resolve(token string) (*User, error)
	HashPassword(password string) (string, error)
}

type userCtxKey struct{}

func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, user)
}

func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userCtxKey{}).(*User)
	return user, ok
}
