package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/school-administration/internal"
)

// dummyHash is compared against when the email does not resolve to a user,
// so the failure path costs the same as a wrong password.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// Service is the session manager: it verifies credentials, issues session
// tokens, and resolves them back to a principal for every guarded request.
type Service struct {
	repo           RepositoryAPI
	tokenGenerator TokenGeneratorAPI
	sessionTTL     time.Duration
	bcryptCost     int
	logger         *slog.Logger
}

func NewService(repo RepositoryAPI, tokenGen TokenGeneratorAPI, sessionTTL time.Duration, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		sessionTTL:     sessionTTL,
		bcryptCost:     bcryptCost,
		logger:         logger,
	}
}

// Login verifies the credential and issues a fresh session bound to the
// resolved user. Suspended accounts are rejected after the password check so
// the response does not reveal whether the credential was valid first.
func (s *Service) Login(dto LoginDTO) (*AuthResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	cred, err := s.repo.GetCredentialByEmail(dto.Email)
	if err != nil {
		// burn a comparison anyway: "no such user" and "wrong password"
		// must be indistinguishable to the caller
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(dto.Password))
		return nil, internal.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(dto.Password)); err != nil {
		return nil, internal.ErrInvalidCredentials
	}

	if cred.Suspended {
		return nil, internal.ErrUserSuspended
	}

	now := time.Now()
	session := &Session{
		ID:        uuid.NewString(),
		UserID:    cred.UserID,
		State:     SessionStateActive,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	if err := s.repo.CreateSession(session); err != nil {
		s.logger.Error("failed to create session", "error", err, "user_id", cred.UserID)
		return nil, internal.NewInternalError("failed to create session", err)
	}

	token, err := s.tokenGenerator.GenerateSessionToken(session.ID, cred.UserID, session.ExpiresAt)
	if err != nil {
		s.logger.Error("failed to sign session token", "error", err, "user_id", cred.UserID)
		return nil, internal.NewInternalError("failed to sign session token", err)
	}

	return &AuthResponse{
		Token:     token,
		UserID:    cred.UserID,
		Role:      cred.Role,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// Logout revokes the session named by the token. It is idempotent: revoking
// an expired, unknown, or already revoked session succeeds without effect.
func (s *Service) Logout(token string) error {
	claims, err := s.tokenGenerator.ValidateToken(token)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.Code == internal.ErrCodeTokenExpired {
			return nil
		}
		return err
	}

	if err := s.repo.RevokeSession(claims.ID); err != nil {
		s.logger.Error("failed to revoke session", "error", err, "session_id", claims.ID)
		return internal.NewInternalError("failed to revoke session", err)
	}

	return nil
}

// PruneExpiredSessions deletes session rows whose expiry passed before the
// cutoff. Expired sessions are already unusable through Resolve; pruning only
// keeps the table from growing without bound.
func (s *Service) PruneExpiredSessions(cutoff time.Time) (int64, error) {
	pruned, err := s.repo.DeleteExpiredBefore(cutoff)
	if err != nil {
		s.logger.Error("failed to prune expired sessions", "error", err)
		return 0, err
	}
	if pruned > 0 {
		s.logger.Info("pruned expired sessions", "count", pruned)
	}
	return pruned, nil
}

// Resolve is the single choke point every guarded operation goes through:
// token signature and expiry, then the session row, then the user record.
// A revoked or expired session is rejected with no grace window.
func (s *Service) Resolve(token string) (*User, error) {
	claims, err := s.tokenGenerator.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	session, err := s.repo.GetSession(claims.ID)
	if err != nil {
		return nil, internal.ErrInvalidToken
	}

	if session.State != SessionStateActive {
		return nil, internal.ErrSessionRevoked
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, internal.ErrTokenExpired
	}

	user, err := s.repo.GetAuthUser(session.UserID)
	if err != nil {
		// user deleted after the session was issued
		return nil, internal.ErrInvalidToken
	}
	user.SessionID = session.ID

	return user, nil
}

// HashPassword creates a bcrypt hash of the password.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

type JWTTokenGenerator struct {
	Secret []byte
}

func NewJWTTokenGenerator(secret string) *JWTTokenGenerator {
	return &JWTTokenGenerator{Secret: []byte(secret)}
}

// GenerateSessionToken signs a token whose jti is the session row ID.
func (j *JWTTokenGenerator) GenerateSessionToken(sessionID string, userID int64, expiresAt time.Time) (string, error) {
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   fmt.Sprintf("%d", userID),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

// ValidateToken checks signature and registered expiry and returns the claims.
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, internal.ErrInvalidToken
}
