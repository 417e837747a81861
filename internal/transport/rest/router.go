package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/school-administration/internal/auth"
	"github.com/frahmantamala/school-administration/internal/course"
	"github.com/frahmantamala/school-administration/internal/department"
	"github.com/frahmantamala/school-administration/internal/membership"
	"github.com/frahmantamala/school-administration/internal/stats"
	"github.com/frahmantamala/school-administration/internal/transport/middleware"
	"github.com/frahmantamala/school-administration/internal/transport/swagger"
	"github.com/frahmantamala/school-administration/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Handlers bundles every REST handler the router mounts.
type Handlers struct {
	Auth       *auth.Handler
	User       *user.Handler
	Department *department.Handler
	Course     *course.Handler
	Membership *membership.Handler
	Stats      *stats.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)
	gate := auth.NewGate(logger)

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Get("/health", healthHandler.healthCheckHandler)
	router.Get("/ping", healthHandler.pingHandler)

	// Public routes
	router.Post("/login", h.Auth.Login)
	router.Post("/register", h.User.Register)
	router.Post("/admin/register", h.User.RegisterAdmin)

	// Logout validates the bearer token itself so revoking an already dead
	// session still succeeds instead of bouncing off the auth middleware.
	router.Post("/logout", h.Auth.Logout)

	// Authenticated routes
	router.Group(func(r chi.Router) {
		r.Use(h.Auth.AuthMiddleware)

		r.Get("/self", h.User.GetSelf)
		r.Patch("/self", h.User.UpdateSelf)
		r.Get("/users", h.User.ListUsers)
		r.Get("/students", h.User.ListStudents)
		r.Get("/teachers", h.User.ListTeachers)

		r.Get("/departments", h.Department.List)
		r.Get("/departments/{id}", h.Department.Get)
		r.Post("/departments/{id}/accept", h.Membership.Accept)

		r.Get("/courses", h.Course.List)
		r.Get("/courses/{id}", h.Course.Get)
		r.Post("/courses", h.Course.Create)
		r.Patch("/courses/{id}", h.Course.Update)
		r.Delete("/courses/{id}", h.Course.Delete)

		r.Post("/enroll/{id}", h.Membership.Enroll)
		r.Delete("/unenroll/{id}", h.Membership.Unenroll)

		// Admin-only routes
		r.Group(func(ar chi.Router) {
			ar.Use(gate.RequireAdmin)

			ar.Patch("/admin/users/{id}", h.User.UpdateUser)
			ar.Delete("/admin/users/{id}", h.User.DeleteUser)
			ar.Post("/admin/users/{id}/promote", h.User.Promote)

			ar.Post("/departments", h.Department.Create)
			ar.Delete("/departments/{id}", h.Department.Delete)

			ar.Post("/admin/department/{id}", h.Membership.Invite)
			ar.Delete("/admin/department/{id}", h.Membership.Kick)

			ar.Get("/admin/stats", h.Stats.GetStats)
		})
	})
}
