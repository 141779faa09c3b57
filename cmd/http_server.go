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

	"github.com/ngtlab/attendance-dashboard/internal"
	"github.com/ngtlab/attendance-dashboard/internal/attendance"
	attendancePostgres "github.com/ngtlab/attendance-dashboard/internal/attendance/postgres"
	"github.com/ngtlab/attendance-dashboard/internal/auth"
	authPostgres "github.com/ngtlab/attendance-dashboard/internal/auth/postgres"
	"github.com/ngtlab/attendance-dashboard/internal/core/events"
	"github.com/ngtlab/attendance-dashboard/internal/ingest"
	"github.com/ngtlab/attendance-dashboard/internal/transport"
	"github.com/ngtlab/attendance-dashboard/internal/transport/metrics"
	"github.com/ngtlab/attendance-dashboard/internal/transport/rest"
	"github.com/ngtlab/attendance-dashboard/internal/user"
	userPostgres "github.com/ngtlab/attendance-dashboard/internal/user/postgres"
	"github.com/ngtlab/attendance-dashboard/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
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
	Config            *internal.Config
	DB                *sqlx.DB
	GormDB            *gorm.DB
	Router            *chi.Mux
	Logger            *slog.Logger
	EventBus          *events.EventBus
	AuthHandler       *auth.Handler
	UserHandler       *user.Handler
	AttendanceHandler *attendance.Handler
	WebhookHandler    *ingest.WebhookHandler
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	rest.RegisterAllRoutes(
		deps.Router,
		deps.DB.DB,
		deps.Config,
		deps.AuthHandler,
		deps.UserHandler,
		deps.AttendanceHandler,
		deps.WebhookHandler,
		deps.Logger,
	)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.InitWithConfig(config.Observability.Logging.Level, config.Observability.Logging.Format)
	appLogger := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	if config.Observability.Metrics.Enabled {
		metrics.Init()
	}

	eventBus := events.NewEventBus(appLogger)
	baseHandler := transport.NewBaseHandler(appLogger)

	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authRepo := authPostgres.NewRepository(gormDB)
	authService := auth.NewService(authRepo, tokenGen)
	authHandler := auth.NewHandler(authService)

	userRepo := userPostgres.NewUserRepository(gormDB)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService)

	attendanceRepo := attendancePostgres.NewAttendanceRepository(gormDB)
	attendanceService := attendance.NewService(attendanceRepo, eventBus, appLogger)
	attendanceHandler := attendance.NewHandler(attendanceService)

	// Audit trail for deletions and device pushes.
	eventBus.Subscribe(events.EventTypeRecordDeleted, func(ctx context.Context, ev events.Event) error {
		appLogger.Info("audit: attendance record deleted", "event_id", ev.EventID(), "payload", ev.Payload())
		return nil
	})
	eventBus.Subscribe(events.EventTypeAttendanceReceived, func(ctx context.Context, ev events.Event) error {
		appLogger.Debug("audit: attendance event received", "event_id", ev.EventID())
		return nil
	})

	ingestService := ingest.NewService(attendanceRepo, eventBus, appLogger)
	webhookHandler := ingest.NewWebhookHandler(baseHandler, ingestService, config.Ingest.WebhookSecret, appLogger)

	router := chi.NewRouter()

	return &Dependencies{
		Config:            config,
		Logger:            appLogger,
		DB:                db,
		GormDB:            gormDB,
		Router:            router,
		EventBus:          eventBus,
		AuthHandler:       authHandler,
		UserHandler:       userHandler,
		AttendanceHandler: attendanceHandler,
		WebhookHandler:    webhookHandler,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm layers GORM over the already-open pgx connection so both share
// one pool.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormPostgres.New(gormPostgres.Config{
		Conn: db.DB,
	}), &gorm.Config{})
}
