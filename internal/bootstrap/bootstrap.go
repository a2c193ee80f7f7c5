package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-authgate/login/internal/auth"
	"github.com/go-authgate/login/internal/config"
	"github.com/go-authgate/login/internal/core"
	"github.com/go-authgate/login/internal/services"
	"github.com/go-authgate/login/internal/store"
	"github.com/go-authgate/login/internal/version"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config
	Logger *zap.SugaredLogger

	// Core infrastructure
	DB                   *store.Store
	MetricsRecorder      core.Recorder
	RateLimitRedisClient *redis.Client

	// Login
	Providers    *auth.ProviderSet
	LoginService *services.LoginService

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the application
func Run(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) error {
	app := &Application{
		Config: cfg,
		Logger: logger,
	}

	logger.Infow("Starting login service",
		"version", version.Short(),
		"environment", cfg.Environment,
	)

	// Phase 1: Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(ctx); err != nil {
		return err
	}

	// Phase 3: Initialize business layer
	if err := app.initializeBusinessLayer(); err != nil {
		app.closeInfrastructure()
		return err
	}

	// Phase 4: Initialize HTTP layer
	if err := app.initializeHTTPLayer(); err != nil {
		app.closeInfrastructure()
		return err
	}

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up database, metrics and Redis
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	var err error

	app.DB, err = initializeDatabase(ctx, app.Config)
	if err != nil {
		return err
	}

	app.MetricsRecorder = initializeMetrics(app.Config)

	// Redis (for rate limiting)
	app.RateLimitRedisClient, err = initializeRateLimitRedisClient(ctx, app.Config, app.Logger)
	if err != nil {
		_ = app.DB.Close()
		return err
	}

	return nil
}

// initializeBusinessLayer sets up identity providers and the login service
func (app *Application) initializeBusinessLayer() error {
	var err error

	app.Providers, err = initializeIdentityProviders(app.Config, app.DB, app.Logger)
	if err != nil {
		return err
	}

	app.LoginService, err = initializeLoginService(
		app.Config,
		app.DB,
		app.Providers,
		app.Logger,
		app.MetricsRecorder,
	)
	return err
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() error {
	oauthProviders := initializeOAuthProviders(app.Config, app.Logger)
	oauthHTTPClient, err := createOAuthHTTPClient(app.Config)
	if err != nil {
		return err
	}

	app.HandlerSet = initializeHandlers(
		app.DB,
		app.LoginService,
		oauthProviders,
		oauthHTTPClient,
		app.Logger,
		app.MetricsRecorder,
	)

	loginLimiter, err := setupLoginRateLimiter(app.Config, app.RateLimitRedisClient, app.Logger)
	if err != nil {
		return err
	}

	app.Router = setupRouter(
		app.Config,
		app.HandlerSet,
		app.MetricsRecorder,
		loginLimiter,
		app.Logger,
	)
	app.Server = createHTTPServer(app.Config, app.Router)
	return nil
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	addServerRunningJob(m, app.Server, app.Logger)
	addServerShutdownJob(m, app.Server, app.Logger)
	addRedisClientShutdownJob(m, app.RateLimitRedisClient, app.Logger)
	addDatabaseShutdownJob(m, app.DB, app.Logger)

	<-m.Done()
}

// closeInfrastructure releases connections when startup fails part way
func (app *Application) closeInfrastructure() {
	if app.RateLimitRedisClient != nil {
		_ = app.RateLimitRedisClient.Close()
	}
	if app.DB != nil {
		_ = app.DB.Close()
	}
}
