package bootstrap

import (
	"context"
	"net/http"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/config"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/metrics"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/services"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/store"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB                   *store.Store
	MetricsRecorder      metrics.Recorder
	Caches               *cacheSet
	RateLimitRedisClient *redis.Client

	// Services
	AuditService *services.AuditService
	Services     *serviceSet

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes the application and serves until a shutdown signal arrives.
func Run(ctx context.Context, cfg *config.Config) error {
	app := &Application{Config: cfg}

	// Phase 1: Validate configuration
	if err := validateAllConfiguration(cfg); err != nil {
		return err
	}

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(ctx); err != nil {
		app.closeInfrastructure()
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

// initializeInfrastructure sets up database, metrics, caches, and Redis
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	var err error

	app.DB, err = initializeDatabase(ctx, app.Config)
	if err != nil {
		return err
	}

	app.MetricsRecorder = initializeMetrics(app.Config)

	app.Caches, err = initializeCaches(ctx, app.Config)
	if err != nil {
		return err
	}

	app.RateLimitRedisClient, err = initializeRateLimitRedisClient(ctx, app.Config)
	if err != nil {
		return err
	}

	return nil
}

// initializeBusinessLayer sets up services
func (app *Application) initializeBusinessLayer() error {
	// Audit service (required by other services)
	app.AuditService = services.NewAuditService(
		app.DB,
		app.Config.EnableAuditLogging,
		app.Config.AuditLogBufferSize,
	)

	httpAPIProvider, err := initializeHTTPAPIAuthProvider(app.Config)
	if err != nil {
		return err
	}
	mail, err := initializeMailer(app.Config)
	if err != nil {
		return err
	}

	app.Services, err = initializeServices(
		app.Config,
		app.DB,
		app.Caches,
		app.AuditService,
		app.MetricsRecorder,
		httpAPIProvider,
		mail,
	)
	return err
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() error {
	app.HandlerSet = initializeHandlers(app.Config, app.Services, app.AuditService)

	rateLimiters, err := setupRateLimiting(app.Config, app.AuditService, app.RateLimitRedisClient)
	if err != nil {
		return err
	}

	app.Router = setupRouter(
		app.Config,
		app.HandlerSet,
		app.Services,
		app.MetricsRecorder,
		rateLimiters,
		app.DB.Health,
		app.Caches.health,
	)
	app.Server = createHTTPServer(app.Config, app.Router)
	return nil
}

// closeInfrastructure releases whatever a failed startup managed to open.
func (app *Application) closeInfrastructure() {
	if app.RateLimitRedisClient != nil {
		_ = app.RateLimitRedisClient.Close()
	}
	if app.Caches != nil {
		_ = app.Caches.Close()
	}
	if app.DB != nil {
		_ = app.DB.Close()
	}
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Config, app.Server)
	addRedisClientShutdownJob(m, app.RateLimitRedisClient)
	addAuditServiceShutdownJob(m, app.Config, app.AuditService)
	addAuditLogCleanupJob(m, app.Config, app.AuditService)
	addExpiredRowPurgeJob(m, app.Config, app.DB, app.Caches)
	addMetricsGaugeUpdateJob(m, app.Config, app.DB, app.MetricsRecorder, app.Caches)
	addCacheCleanupJob(m, app.Caches)

	<-m.Done()
}
