package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/school-administration/internal"
	"github.com/frahmantamala/school-administration/internal/auth"
	authPostgres "github.com/frahmantamala/school-administration/internal/auth/postgres"
	"github.com/frahmantamala/school-administration/internal/core/events"
	"github.com/frahmantamala/school-administration/internal/course"
	coursePostgres "github.com/frahmantamala/school-administration/internal/course/postgres"
	"github.com/frahmantamala/school-administration/internal/department"
	departmentPostgres "github.com/frahmantamala/school-administration/internal/department/postgres"
	"github.com/frahmantamala/school-administration/internal/membership"
	membershipPostgres "github.com/frahmantamala/school-administration/internal/membership/postgres"
	"github.com/frahmantamala/school-administration/internal/stats"
	statsPostgres "github.com/frahmantamala/school-administration/internal/stats/postgres"
	"github.com/frahmantamala/school-administration/internal/transport/rest"
	"github.com/frahmantamala/school-administration/internal/user"
	userPostgres "github.com/frahmantamala/school-administration/internal/user/postgres"
	"github.com/frahmantamala/school-administration/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	gormSqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	GormDB *gorm.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	authService := setupRoutes(deps)

	pruneCtx, pruneCancel := context.WithCancel(context.Background())
	defer pruneCancel()
	go runSessionPruner(pruneCtx, authService)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

// runSessionPruner deletes expired session rows once an hour until the
// context is cancelled.
func runSessionPruner(ctx context.Context, svc *auth.Service) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.PruneExpiredSessions(time.Now())
		}
	}
}

func setupRoutes(deps *Dependencies) *auth.Service {
	cfg := deps.Config

	bus := events.NewEventBus(deps.Logger)
	registerAuditSubscribers(bus, deps.Logger)

	authRepo := authPostgres.NewRepository(deps.GormDB)
	userRepo := userPostgres.NewUserRepository(deps.GormDB)
	departmentRepo := departmentPostgres.NewDepartmentRepository(deps.GormDB)
	courseRepo := coursePostgres.NewCourseRepository(deps.GormDB)
	membershipRepo := membershipPostgres.NewMembershipRepository(deps.GormDB)
	statsRepo := statsPostgres.NewStatsRepository(deps.GormDB)

	tokenGen := auth.NewJWTTokenGenerator(cfg.Security.SessionSecret)
	authService := auth.NewService(authRepo, tokenGen, cfg.Security.SessionDuration, cfg.Security.BCryptCost, deps.Logger)
	userService := user.NewService(userRepo, authService, bus, cfg.Security.AdminAccessCode, deps.Logger)
	departmentService := department.NewService(departmentRepo, deps.Logger)
	membershipService := membership.NewService(membershipRepo, bus, deps.Logger)
	courseService := course.NewService(courseRepo, membershipRepo, deps.Logger)
	statsService := stats.NewService(statsRepo)

	handlers := rest.Handlers{
		Auth:       auth.NewHandler(authService),
		User:       user.NewHandler(userService),
		Department: department.NewHandler(departmentService),
		Course:     course.NewHandler(courseService),
		Membership: membership.NewHandler(membershipService),
		Stats:      stats.NewHandler(statsService),
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, handlers, deps.Logger)

	return authService
}

// registerAuditSubscribers logs every domain event. The bus is observational
// only, so a slow or failing subscriber never affects request handling.
func registerAuditSubscribers(bus *events.EventBus, log *slog.Logger) {
	auditTypes := []string{
		events.EventUserRegistered,
		events.EventUserDeleted,
		events.EventUserPromoted,
		events.EventMembershipInvited,
		events.EventMembershipActivated,
		events.EventMembershipKicked,
		events.EventEnrollmentCreated,
		events.EventEnrollmentWithdrawn,
	}

	for _, eventType := range auditTypes {
		bus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
			log.Info("audit event",
				"event_id", event.EventID(),
				"event_type", event.EventType(),
				"payload", event.Payload())
			return nil
		})
	}
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	log := logger.LoggerWrapper()

	db, gormDB, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &Dependencies{
		Config: config,
		Logger: log,
		DB:     db,
		GormDB: gormDB,
		Router: chi.NewRouter(),
	}, nil
}

// initDB opens the configured database and layers gorm over the same
// connection pool. Postgres is the production driver; sqlite serves local
// development and tests.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, *gorm.DB, error) {
	if cfg.Driver == "sqlite" {
		gormDB, err := gorm.Open(gormSqlite.Open(cfg.Source), &gorm.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			return nil, nil, err
		}
		return sqlx.NewDb(sqlDB, "sqlite"), gormDB, nil
	}

	dbConn, err := sqlx.Connect("pgx", cfg.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: dbConn.DB}), &gorm.Config{})
	if err != nil {
		_ = dbConn.Close()
		return nil, nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	return dbConn, gormDB, nil
}
