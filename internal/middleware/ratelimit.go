package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterRedis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// RateLimitStoreType defines the type of rate limit store
type RateLimitStoreType string

const (
	// RateLimitStoreMemory uses in-memory storage (single instance only)
	RateLimitStoreMemory RateLimitStoreType = "memory"
	// RateLimitStoreRedis uses Redis storage (distributed, multi-pod support)
	RateLimitStoreRedis RateLimitStoreType = "redis"
)

// RateLimitConfig holds the configuration for one rate-limited endpoint.
type RateLimitConfig struct {
	// Name identifies the endpoint; it separates counters in a shared Redis.
	Name              string
	RequestsPerMinute int
	CleanupInterval   time.Duration // memory store only

	StoreType   RateLimitStoreType
	RedisClient *redis.Client // required when StoreType is redis

	// AuditService, when set, records every rejected request.
	AuditService *services.AuditService
}

// NewRateLimiter creates a per-client-IP limiter with the configured store.
func NewRateLimiter(config RateLimitConfig) (gin.HandlerFunc, error) {
	if config.RequestsPerMinute <= 0 {
		return nil, fmt.Errorf("rate limit for %q must be positive", config.Name)
	}
	rate := limiter.Rate{
		Period: 1 * time.Minute,
		Limit:  int64(config.RequestsPerMinute),
	}

	prefix := "ratelimit"
	if config.Name != "" {
		prefix += ":" + config.Name
	}

	var store limiter.Store
	switch config.StoreType {
	case RateLimitStoreRedis:
		if config.RedisClient == nil {
			return nil, fmt.Errorf("redis rate limit store for %q requires a redis client", config.Name)
		}
		var err error
		store, err = limiterRedis.NewStoreWithOptions(config.RedisClient, limiter.StoreOptions{
			Prefix: prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
	default:
		store = memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          prefix,
			CleanUpInterval: config.CleanupInterval,
		})
	}

	instance := limiter.New(store, rate)

	return mgin.NewMiddleware(instance, mgin.WithLimitReachedHandler(func(c *gin.Context) {
		if config.AuditService != nil {
			config.AuditService.Log(c, services.AuditLogEntry{
				EventType:     models.EventRateLimitExceeded,
				Severity:      models.SeverityWarning,
				ActorIP:       c.ClientIP(),
				Action:        "Rate limit exceeded on " + config.Name,
				Success:       false,
				RequestPath:   c.Request.URL.Path,
				RequestMethod: c.Request.Method,
				Details: models.AuditDetails{
					"limit_per_minute": config.RequestsPerMinute,
				},
			})
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"success": false,
			"message": "Too many requests. Please try again later.",
		})
	})), nil
}

// NewMemoryRateLimiter creates an in-memory rate limiter (single instance)
func NewMemoryRateLimiter(name string, requestsPerMinute int) (gin.HandlerFunc, error) {
	return NewRateLimiter(RateLimitConfig{
		Name:              name,
		RequestsPerMinute: requestsPerMinute,
		StoreType:         RateLimitStoreMemory,
		CleanupInterval:   5 * time.Minute,
	})
}
