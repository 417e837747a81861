package auth

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/school-administration/internal"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

type mockAuthRepository struct {
	credentials map[string]*Credential
	users       map[int64]*User
	sessions    map[string]*Session

	returnError   bool
	errorToReturn error
}

func newMockAuthRepository() *mockAuthRepository {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.MinCost)

	return &mockAuthRepository{
		credentials: map[string]*Credential{
			"student@school.example": {UserID: 1, PasswordHash: string(hash), Role: RoleStudent},
			"admin@school.example":   {UserID: 2, PasswordHash: string(hash), Role: RoleAdmin},
			"frozen@school.example":  {UserID: 3, PasswordHash: string(hash), Role: RoleStudent, Suspended: true},
		},
		users: map[int64]*User{
			1: {ID: 1, Email: "student@school.example", Role: RoleStudent},
			2: {ID: 2, Email: "admin@school.example", Role: RoleAdmin},
			3: {ID: 3, Email: "frozen@school.example", Role: RoleStudent},
		},
		sessions: make(map[string]*Session),
	}
}

func (m *mockAuthRepository) GetCredentialByEmail(email string) (*Credential, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	if cred, ok := m.credentials[email]; ok {
		return cred, nil
	}
	return nil, errors.New("user not found")
}

func (m *mockAuthRepository) GetAuthUser(userID int64) (*User, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	if user, ok := m.users[userID]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, errors.New("user not found")
}

func (m *mockAuthRepository) CreateSession(session *Session) error {
	if m.returnError {
		return m.errorToReturn
	}
	m.sessions[session.ID] = session
	return nil
}

func (m *mockAuthRepository) GetSession(sessionID string) (*Session, error) {
	if session, ok := m.sessions[sessionID]; ok {
		return session, nil
	}
	return nil, errors.New("session not found")
}

func (m *mockAuthRepository) RevokeSession(sessionID string) error {
	if session, ok := m.sessions[sessionID]; ok {
		session.State = SessionStateRevoked
	}
	return nil
}

func (m *mockAuthRepository) DeleteExpiredBefore(cutoff time.Time) (int64, error) {
	if m.returnError {
		return 0, m.errorToReturn
	}
	var deleted int64
	for id, session := range m.sessions {
		if session.ExpiresAt.Before(cutoff) {
			delete(m.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

var _ = ginkgo.Describe("AuthService", func() {
	var (
		service  *Service
		mockRepo *mockAuthRepository
		tokenGen *JWTTokenGenerator
	)

	ginkgo.BeforeEach(func() {
		mockRepo = newMockAuthRepository()
		tokenGen = NewJWTTokenGenerator("test-secret-must-be-long-enough-0000")
		service = NewService(mockRepo, tokenGen, time.Hour, bcrypt.MinCost, slog.Default())
	})

	ginkgo.Describe("Login", func() {
		ginkgo.Context("when credentials are valid", func() {
			ginkgo.It("should return a signed session token", func() {
				resp, err := service.Login(LoginDTO{
					Email:    "student@school.example",
					Password: "correct_password",
				})

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(resp.Token).ToNot(gomega.BeEmpty())
				gomega.Expect(resp.UserID).To(gomega.Equal(int64(1)))
				gomega.Expect(resp.Role).To(gomega.Equal(RoleStudent))
			})

			ginkgo.It("should persist an active session bound to the user", func() {
				resp, err := service.Login(LoginDTO{
					Email:    "student@school.example",
					Password: "correct_password",
				})
				gomega.Expect(err).ToNot(gomega.HaveOccurred())

				claims, err := tokenGen.ValidateToken(resp.Token)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())

				session, ok := mockRepo.sessions[claims.ID]
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(session.State).To(gomega.Equal(SessionStateActive))
				gomega.Expect(session.UserID).To(gomega.Equal(int64(1)))
			})
		})

		ginkgo.Context("when the password is wrong", func() {
			ginkgo.It("should return invalid credentials", func() {
				_, err := service.Login(LoginDTO{
					Email:    "student@school.example",
					Password: "wrong_password",
				})

				gomega.Expect(err).To(gomega.Equal(internal.ErrInvalidCredentials))
			})
		})

		ginkgo.Context("when the user does not exist", func() {
			ginkgo.It("should return the same invalid credentials error", func() {
				_, err := service.Login(LoginDTO{
					Email:    "nobody@school.example",
					Password: "correct_password",
				})

				gomega.Expect(err).To(gomega.Equal(internal.ErrInvalidCredentials))
			})
		})

		ginkgo.Context("when the account is suspended", func() {
			ginkgo.It("should reject even with the correct password", func() {
				_, err := service.Login(LoginDTO{
					Email:    "frozen@school.example",
					Password: "correct_password",
				})

				gomega.Expect(err).To(gomega.Equal(internal.ErrUserSuspended))
			})

			ginkgo.It("should report invalid credentials over suspension on a wrong password", func() {
				_, err := service.Login(LoginDTO{
					Email:    "frozen@school.example",
					Password: "wrong_password",
				})

				gomega.Expect(err).To(gomega.Equal(internal.ErrInvalidCredentials))
			})
		})

		ginkgo.Context("when the body fails validation", func() {
			ginkgo.It("should reject an empty email", func() {
				_, err := service.Login(LoginDTO{Password: "correct_password"})
				gomega.Expect(err).To(gomega.HaveOccurred())
			})
		})
	})

	ginkgo.Describe("Resolve", func() {
		var token string

		ginkgo.BeforeEach(func() {
			resp, err := service.Login(LoginDTO{
				Email:    "student@school.example",
				Password: "correct_password",
			})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			token = resp.Token
		})

		ginkgo.It("should resolve an active session to its principal", func() {
			user, err := service.Resolve(token)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(user.ID).To(gomega.Equal(int64(1)))
			gomega.Expect(user.Role).To(gomega.Equal(RoleStudent))
			gomega.Expect(user.SessionID).ToNot(gomega.BeEmpty())
		})

		ginkgo.It("should reject a revoked session with no grace window", func() {
			gomega.Expect(service.Logout(token)).To(gomega.Succeed())

			_, err := service.Resolve(token)
			gomega.Expect(err).To(gomega.Equal(internal.ErrSessionRevoked))
		})

		ginkgo.It("should reject a garbage token", func() {
			_, err := service.Resolve("not-a-token")
			gomega.Expect(err).To(gomega.Equal(internal.ErrInvalidToken))
		})

		ginkgo.It("should reject a token signed with a different secret", func() {
			otherGen := NewJWTTokenGenerator("another-secret-entirely-1111111111")
			forged, err := otherGen.GenerateSessionToken("some-session", 1, time.Now().Add(time.Hour))
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.Resolve(forged)
			gomega.Expect(err).To(gomega.Equal(internal.ErrInvalidToken))
		})

		ginkgo.It("should reject a session whose row has expired", func() {
			claims, err := tokenGen.ValidateToken(token)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			mockRepo.sessions[claims.ID].ExpiresAt = time.Now().Add(-time.Minute)

			_, err = service.Resolve(token)
			gomega.Expect(err).To(gomega.Equal(internal.ErrTokenExpired))
		})

		ginkgo.It("should reject when the user was deleted after the session was issued", func() {
			delete(mockRepo.users, 1)

			_, err := service.Resolve(token)
			gomega.Expect(err).To(gomega.Equal(internal.ErrInvalidToken))
		})
	})

	ginkgo.Describe("Logout", func() {
		ginkgo.It("should revoke the session named by the token", func() {
			resp, err := service.Login(LoginDTO{
				Email:    "student@school.example",
				Password: "correct_password",
			})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			gomega.Expect(service.Logout(resp.Token)).To(gomega.Succeed())

			claims, err := tokenGen.ValidateToken(resp.Token)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(mockRepo.sessions[claims.ID].State).To(gomega.Equal(SessionStateRevoked))
		})

		ginkgo.It("should be idempotent", func() {
			resp, err := service.Login(LoginDTO{
				Email:    "student@school.example",
				Password: "correct_password",
			})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			gomega.Expect(service.Logout(resp.Token)).To(gomega.Succeed())
			gomega.Expect(service.Logout(resp.Token)).To(gomega.Succeed())
		})

		ginkgo.It("should treat an expired token as already logged out", func() {
			expired, err := tokenGen.GenerateSessionToken("gone", 1, time.Now().Add(-time.Hour))
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			gomega.Expect(service.Logout(expired)).To(gomega.Succeed())
		})
	})

	ginkgo.Describe("PruneExpiredSessions", func() {
		ginkgo.It("should delete only sessions past the cutoff", func() {
			now := time.Now()
			mockRepo.sessions["stale"] = &Session{
				ID:        "stale",
				UserID:    1,
				State:     SessionStateActive,
				IssuedAt:  now.Add(-2 * time.Hour),
				ExpiresAt: now.Add(-time.Hour),
			}
			mockRepo.sessions["live"] = &Session{
				ID:        "live",
				UserID:    1,
				State:     SessionStateActive,
				IssuedAt:  now,
				ExpiresAt: now.Add(time.Hour),
			}

			pruned, err := service.PruneExpiredSessions(now)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(pruned).To(gomega.Equal(int64(1)))
			gomega.Expect(mockRepo.sessions).To(gomega.HaveKey("live"))
			gomega.Expect(mockRepo.sessions).ToNot(gomega.HaveKey("stale"))
		})

		ginkgo.It("should surface repository failures", func() {
			mockRepo.returnError = true
			mockRepo.errorToReturn = errors.New("connection lost")

			_, err := service.PruneExpiredSessions(time.Now())
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("HashPassword", func() {
		ginkgo.It("should produce a verifiable bcrypt hash", func() {
			hash, err := service.HashPassword("some_password")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(bcrypt.CompareHashAndPassword([]byte(hash), []byte("some_password"))).To(gomega.Succeed())
		})
	})
})
