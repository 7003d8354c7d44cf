package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/config"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/metrics"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/services"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/store"

	"github.com/appleboy/graceful"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("Failed to start server")
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, cfg *config.Config, srv *http.Server) {
	m.AddShutdownJob(func() error {
		log.Info().Msg("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}

		log.Info().Msg("Server exited")
		return nil
	})
}

// addRedisClientShutdownJob adds Redis client shutdown handler
func addRedisClientShutdownJob(m *graceful.Manager, redisClient *redis.Client) {
	if redisClient == nil {
		return
	}

	m.AddShutdownJob(func() error {
		log.Info().Msg("Closing Redis connection...")
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing Redis client")
			return err
		}
		log.Info().Msg("Redis connection closed")
		return nil
	})
}

// addAuditServiceShutdownJob flushes buffered audit entries on shutdown
func addAuditServiceShutdownJob(
	m *graceful.Manager,
	cfg *config.Config,
	auditService *services.AuditService,
) {
	m.AddShutdownJob(func() error {
		log.Info().Msg("Shutting down audit service...")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.AuditShutdownTimeout)
		defer cancel()

		if err := auditService.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Error shutting down audit service")
			return err
		}
		return nil
	})
}

// addAuditLogCleanupJob adds periodic audit log cleanup job
func addAuditLogCleanupJob(
	m *graceful.Manager,
	cfg *config.Config,
	auditService *services.AuditService,
) {
	if !cfg.EnableAuditLogging || cfg.AuditLogRetention <= 0 {
		return
	}

	cleanup := func(ctx context.Context) {
		deleted, err := auditService.CleanupOldLogs(ctx, cfg.AuditLogRetention)
		switch {
		case err != nil:
			log.Error().Err(err).Msg("Failed to cleanup old audit logs")
		case deleted > 0:
			log.Info().Int64("deleted", deleted).Msg("Cleaned up old audit logs")
		}
	}

	m.AddRunningJob(func(ctx context.Context) error {
		runPeriodically(ctx, 24*time.Hour, cleanup)
		return nil
	})
}

// addExpiredRowPurgeJob deletes pending second-factor tokens and magic links
// past their expiry and sweeps the in-process caches. Expired entries are
// already rejected on read, so the purge only bounds growth.
func addExpiredRowPurgeJob(m *graceful.Manager, cfg *config.Config, db *store.Store, caches *cacheSet) {
	if cfg.PurgeInterval <= 0 {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		runPeriodically(ctx, cfg.PurgeInterval, func(ctx context.Context) {
			purgeExpiredRows(ctx, db, time.Now())
			if n := caches.Sweep(); n > 0 {
				log.Debug().Int("evicted", n).Msg("Swept expired cache entries")
			}
		})
		return nil
	})
}

// abandonedTOTPSetupAge is how long an unconfirmed TOTP secret is kept.
const abandonedTOTPSetupAge = 24 * time.Hour

func purgeExpiredRows(ctx context.Context, db *store.Store, now time.Time) {
	if n, err := db.DeleteExpiredPendingTokens(ctx, now); err != nil {
		backgroundErrorLogger.logIfNeeded("purge_pending_tokens", err)
	} else if n > 0 {
		log.Info().Int64("deleted", n).Msg("Purged expired pending second-factor tokens")
	}
	if n, err := db.DeleteExpiredMagicLinks(ctx, now); err != nil {
		backgroundErrorLogger.logIfNeeded("purge_magic_links", err)
	} else if n > 0 {
		log.Info().Int64("deleted", n).Msg("Purged expired magic links")
	}
	if n, err := db.DeleteAbandonedTOTPSecrets(ctx, now.Add(-abandonedTOTPSetupAge)); err != nil {
		backgroundErrorLogger.logIfNeeded("purge_totp_secrets", err)
	} else if n > 0 {
		log.Info().Int64("deleted", n).Msg("Purged abandoned TOTP setups")
	}
}

// addMetricsGaugeUpdateJob adds periodic metrics gauge update job
func addMetricsGaugeUpdateJob(
	m *graceful.Manager,
	cfg *config.Config,
	db *store.Store,
	recorder metrics.Recorder,
	caches *cacheSet,
) {
	if !cfg.MetricsEnabled || !cfg.MetricsGaugeUpdateEnabled || caches.metrics == nil {
		return
	}

	wrapper := metrics.NewCacheWrapper(db, caches.metrics)
	m.AddRunningJob(func(ctx context.Context) error {
		runPeriodically(ctx, cfg.MetricsGaugeUpdateInterval, func(ctx context.Context) {
			metrics.UpdateGauges(ctx, recorder, wrapper, cfg.MetricsGaugeUpdateInterval)
		})
		return nil
	})
}

// addCacheCleanupJob closes every cache on shutdown
func addCacheCleanupJob(m *graceful.Manager, caches *cacheSet) {
	m.AddShutdownJob(func() error {
		if err := caches.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing caches")
		} else {
			log.Info().Msg("Caches closed")
		}
		return nil
	})
}

// runPeriodically runs fn once immediately and then on every tick until ctx ends.
func runPeriodically(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fn(ctx)
	for {
		select {
		case <-ticker.C:
			fn(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// errorLogger handles rate-limited error logging
type errorLogger struct {
	mu              sync.Mutex
	lastErrorTimes  map[string]time.Time
	rateLimitWindow time.Duration
}

// newErrorLogger creates a new error logger with rate limiting
func newErrorLogger(window time.Duration) *errorLogger {
	return &errorLogger{
		lastErrorTimes:  make(map[string]time.Time),
		rateLimitWindow: window,
	}
}

// logIfNeeded logs an error only if the operation has been quiet for a window.
// It reports whether the error was logged.
func (e *errorLogger) logIfNeeded(operation string, err error) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	if last, ok := e.lastErrorTimes[operation]; ok && now.Sub(last) < e.rateLimitWindow {
		return false
	}
	log.Error().
		Err(err).
		Str("operation", operation).
		Dur("suppressed_for", e.rateLimitWindow).
		Msg("Background database operation failed")
	e.lastErrorTimes[operation] = now
	return true
}

var backgroundErrorLogger = newErrorLogger(5 * time.Minute)
