package bootstrap

import (
	"fmt"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/config"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/middleware"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// rateLimitMiddlewares holds rate limiting middlewares for different endpoints
type rateLimitMiddlewares struct {
	login     gin.HandlerFunc
	twoFactor gin.HandlerFunc
	magicLink gin.HandlerFunc
	token     gin.HandlerFunc
}

// setupRateLimiting configures rate limiting middlewares based on configuration.
// redisClient is nil unless RATE_LIMIT_STORE=redis.
func setupRateLimiting(
	cfg *config.Config,
	auditService *services.AuditService,
	redisClient *redis.Client,
) (rateLimitMiddlewares, error) {
	if !cfg.EnableRateLimit {
		noOp := func(c *gin.Context) { c.Next() }
		log.Info().Msg("Rate limiting disabled")
		return rateLimitMiddlewares{
			login:     noOp,
			twoFactor: noOp,
			magicLink: noOp,
			token:     noOp,
		}, nil
	}
	return createRateLimiters(cfg, auditService, redisClient)
}

// createRateLimiters creates one limiter per endpoint family. Each gets its own
// key prefix so the counters never share a bucket.
func createRateLimiters(
	cfg *config.Config,
	auditService *services.AuditService,
	redisClient *redis.Client,
) (rateLimitMiddlewares, error) {
	storeType := middleware.RateLimitStoreType(cfg.RateLimitStore)
	log.Info().Str("store", cfg.RateLimitStore).Msg("Rate limiting enabled")

	var firstErr error
	createLimiter := func(name string, requestsPerMinute int) gin.HandlerFunc {
		limiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
			Name:              name,
			RequestsPerMinute: requestsPerMinute,
			StoreType:         storeType,
			RedisClient:       redisClient,
			CleanupInterval:   cfg.RateLimitCleanupInterval,
			AuditService:      auditService,
		})
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to create rate limiter for %s: %w", name, err)
		}
		return limiter
	}

	limiters := rateLimitMiddlewares{
		login:     createLimiter("login", cfg.LoginRateLimit),
		twoFactor: createLimiter("two_factor", cfg.TwoFactorRateLimit),
		magicLink: createLimiter("magic_link", cfg.MagicLinkRateLimit),
		token:     createLimiter("token", cfg.TokenRateLimit),
	}
	if firstErr != nil {
		return rateLimitMiddlewares{}, firstErr
	}
	return limiters, nil
}
