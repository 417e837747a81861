package auth

import (
	"log/slog"
	"net/http"
)

// Capability is the minimum standing an operation requires. Every route maps
// to exactly one capability check.
type Capability string

const (
	CapabilityAny                      Capability = "any"
	CapabilityDepartmentMember         Capability = "department_member"
	CapabilityDepartmentAdminOrTeacher Capability = "department_admin_or_teacher"
	CapabilityGlobalAdmin              Capability = "global_admin"
)

// Standing is the caller's membership state in the department a resource
// belongs to. StandingNone covers both "no row" and "removed".
type Standing string

const (
	StandingNone    Standing = "none"
	StandingInvited Standing = "invited"
	StandingActive  Standing = "active"
)

type Decision struct {
	Allowed bool
	Reason  string
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Authorize decides whether a caller with the given role and department
// standing may perform an operation requiring the given capability. It is
// pure and total: no state is read or written, and every (role, standing,
// capability) combination maps to exactly one decision.
func Authorize(role Role, standing Standing, capability Capability) Decision {
	switch capability {
	case CapabilityAny:
		return Allow()

	case CapabilityDepartmentMember:
		if role == RoleAdmin {
			return Allow()
		}
		if standing == StandingActive {
			return Allow()
		}
		return Deny("requires active department membership")

	case CapabilityDepartmentAdminOrTeacher:
		if role == RoleAdmin {
			return Allow()
		}
		if role == RoleTeacher && standing == StandingActive {
			return Allow()
		}
		return Deny("requires admin role or teaching membership in the department")

	case CapabilityGlobalAdmin:
		if role == RoleAdmin {
			return Allow()
		}
		return Deny("requires admin role")

	default:
		return Deny("unknown capability")
	}
}

// Gate wraps Authorize for route-level checks that do not depend on
// membership state. Membership-scoped checks run inside the services, which
// fetch the caller's standing before calling Authorize.
type Gate struct {
	logger *slog.Logger
}

func NewGate(logger *slog.Logger) *Gate {
	return &Gate{logger: logger}
}

func (g *Gate) RequireAdmin(next http.Handler) http.Handler {
	return g.require(next, CapabilityGlobalAdmin)
}

func (g *Gate) require(next http.Handler, capability Capability) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok || user == nil {
			g.logger.Warn("authorization check failed: user not found in context")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		decision := Authorize(user.Role, StandingNone, capability)
		if !decision.Allowed {
			g.logger.WarnContext(r.Context(), "access denied",
				"user_id", user.ID,
				"role", user.Role,
				"capability", capability,
				"reason", decision.Reason)
			http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (g *Gate) Middleware(capability Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return g.require(next, capability)
	}
}
