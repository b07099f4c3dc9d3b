package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpapi "github.com/opencourse/tarpaulin/internal/tarpaulin/http"
	"github.com/opencourse/tarpaulin/internal/tarpaulin/service"
	"github.com/opencourse/tarpaulin/internal/tarpaulin/store"
	"github.com/opencourse/tarpaulin/internal/tarpaulin/store/drivers/sqlite"
	"github.com/opencourse/tarpaulin/pkg/cryptox"
	"github.com/opencourse/tarpaulin/pkg/jwtx"
	"github.com/opencourse/tarpaulin/pkg/ratelimit"
	"github.com/opencourse/tarpaulin/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the API server with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db      store.Store
	limiter ratelimit.Limiter
	rdb     *redis.Client

	identityService   *service.IdentityService
	authorizeService  *service.AuthorizeService
	userService       *service.UserService
	courseService     *service.CourseService
	assignmentService *service.AssignmentService
	submissionService *service.SubmissionService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "tarpaulin",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("TARPAULIN_JWT_SECRET must be set")
	}

	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initLimiter()

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("tarpaulin starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down tarpaulin...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.rdb != nil {
		if err := app.rdb.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("tarpaulin stopped")
	return nil
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initLimiter selects the Redis-backed limiter when an address is
// configured, otherwise the in-process one. The Redis limiter is the
// right choice as soon as more than one replica serves traffic.
func (app *Application) initLimiter() {
	cfg := ratelimit.Config{
		Capacity:   app.cfg.RateLimitCapacity,
		RefillRate: app.cfg.RateLimitRefill,
	}

	if app.cfg.RedisAddr != "" {
		app.rdb = redis.NewClient(&redis.Options{Addr: app.cfg.RedisAddr})
		app.limiter = ratelimit.NewRedisLimiter(app.rdb, cfg)
		app.logger.Info("rate limiter using redis", "addr", app.cfg.RedisAddr)
		return
	}

	app.limiter = ratelimit.NewMemoryLimiter(cfg, app.cfg.RateLimitMaxKeys)
	app.logger.Info("rate limiter using in-process buckets")
}

// initServices initializes all business logic services.
func (app *Application) initServices() error {
	signer, err := jwtx.NewHS256([]byte(app.cfg.JWTSecret), app.cfg.Issuer)
	if err != nil {
		return fmt.Errorf("failed to initialize credential signer: %w", err)
	}

	app.identityService = &service.IdentityService{
		Signer:   signer,
		Verifier: signer,
		Store:    app.db,
		Issuer:   app.cfg.Issuer,
		TTL:      app.cfg.CredentialTTL,
	}

	app.authorizeService = service.NewAuthorizeService(app.db)
	app.userService = &service.UserService{Store: app.db}
	app.courseService = &service.CourseService{Store: app.db}
	app.assignmentService = &service.AssignmentService{Store: app.db}
	app.submissionService = &service.SubmissionService{Store: app.db}

	return nil
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.db, app.limiter, BuildVersion, app.logger)

	router.Redis = app.rdb
	router.IdentityService = app.identityService
	router.AuthorizeService = app.authorizeService
	router.UserService = app.userService
	router.CourseService = app.courseService
	router.AssignmentService = app.assignmentService
	router.SubmissionService = app.submissionService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
