package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/campuslink/campuslink/internal"
	"github.com/campuslink/campuslink/internal/auth"
	authpg "github.com/campuslink/campuslink/internal/auth/postgres"
	"github.com/campuslink/campuslink/internal/job"
	jobpg "github.com/campuslink/campuslink/internal/job/postgres"
	"github.com/campuslink/campuslink/internal/news"
	newspg "github.com/campuslink/campuslink/internal/news/postgres"
	"github.com/campuslink/campuslink/internal/rbac"
	rbacpg "github.com/campuslink/campuslink/internal/rbac/postgres"
	"github.com/campuslink/campuslink/internal/scholarship"
	scholarshippg "github.com/campuslink/campuslink/internal/scholarship/postgres"
	"github.com/campuslink/campuslink/internal/transport/rest"
	"github.com/campuslink/campuslink/internal/university"
	universitypg "github.com/campuslink/campuslink/internal/university/postgres"
	"github.com/campuslink/campuslink/internal/user"
	userpg "github.com/campuslink/campuslink/internal/user/postgres"
	"github.com/campuslink/campuslink/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
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
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

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

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.App.Env, config.Logging.Level)
	lg := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	// Repositories
	rbacRepo := rbacpg.NewRBACRepository(gormDB)
	universityRepo := universitypg.NewUniversityRepository(gormDB)
	userRepo := userpg.NewUserRepository(gormDB)
	authRepo := authpg.NewRepository(gormDB)
	jobRepo := jobpg.NewJobRepository(gormDB)
	scholarshipRepo := scholarshippg.NewScholarshipRepository(gormDB)
	newsRepo := newspg.NewNewsRepository(gormDB)

	// Access control core. The university repository doubles as the
	// department-to-university resolver and the scope directory.
	resolver := rbac.NewResolver(rbacRepo, universityRepo, lg)
	rbacService := rbac.NewService(rbacRepo, universityRepo, lg)

	// Services
	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authRepo, resolver, tokenGen, config.Security.BCryptCost)
	userService := user.NewService(userRepo, rbacService, resolver, config.Security.BCryptCost, lg)
	universityService := university.NewService(universityRepo, resolver, lg)
	jobService := job.NewService(jobRepo, resolver, lg)
	scholarshipService := scholarship.NewService(scholarshipRepo, resolver, lg)
	newsService := news.NewService(newsRepo, resolver, lg)

	router := chi.NewRouter()
	handlers := rest.Handlers{
		Auth:        auth.NewHandler(authService),
		User:        user.NewHandler(userService),
		University:  university.NewHandler(universityService),
		Job:         job.NewHandler(jobService),
		Scholarship: scholarship.NewHandler(scholarshipService),
		News:        news.NewHandler(newsService),
		RBAC:        rbac.NewHandler(rbacService, resolver),
	}

	origins := strings.Split(config.Server.AllowedOrigins, ",")
	if config.Server.AllowedOrigins == "" || config.Server.AllowedOrigins == "*" {
		origins = nil
	}
	rest.RegisterAllRoutes(router, db, handlers, origins, lg)

	return &Dependencies{
		Config: config,
		Logger: lg,
		DB:     db,
		Router: router,
	}, nil
}

// initDB opens the pgx-backed connection pool.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	dbConn, err := sqlx.Connect("pgx", cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm layers GORM over the shared *sql.DB so both see the same
// pool limits.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
}
