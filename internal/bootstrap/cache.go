package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/cache"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/config"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/metrics"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/rs/zerolog/log"
)

// initializeMetrics initializes Prometheus metrics
func initializeMetrics(cfg *config.Config) metrics.Recorder {
	recorder := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		log.Info().Msg("Prometheus metrics initialized")
	} else {
		log.Info().Msg("Metrics disabled (using noop implementation)")
	}
	return recorder
}

// newCache builds one namespaced cache on the configured backend. Every
// cache gets its own key prefix so a shared Redis keeps them apart.
func newCache[T any](ctx context.Context, cfg *config.Config, name string) (cache.Cache[T], error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.CacheInitTimeout)
	defer cancel()

	prefix := cfg.CacheKeyPrefix + name + ":"

	switch cfg.CacheType {
	case config.CacheTypeRedisAside:
		c, err := cache.NewRueidisAsideCache[T](
			ctx,
			cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			prefix,
			cfg.CacheClientTTL,
			cfg.CacheSizePerConn,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis-aside %s cache: %w", name, err)
		}
		return c, nil

	case config.CacheTypeRedis:
		c, err := cache.NewRueidisCache[T](
			ctx,
			cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			prefix,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis %s cache: %w", name, err)
		}
		return c, nil

	default: // memory
		return cache.NewMemoryCache[T](), nil
	}
}

// cacheSet holds every cache the services read through or park state in.
type cacheSet struct {
	users        cache.Cache[models.User]
	metrics      cache.Cache[int64] // nil when gauges are not refreshed
	webauthn     cache.Cache[webauthn.SessionData]
	qrBindings   cache.Cache[models.QRDeviceBinding]
	qrResults    cache.Cache[models.QRLoginResult]
	qrSessions   cache.Cache[string]
	oidcRequests cache.Cache[models.OIDCRequest]
	authCodes    cache.Cache[models.AuthorizationCodeGrant]

	closers []func() error
	purgers []cache.Purger
	health  func(ctx context.Context) error
}

// initializeCaches opens every cache. On failure the caches opened so far are
// closed before the error is returned.
func initializeCaches(ctx context.Context, cfg *config.Config) (*cacheSet, error) {
	set := &cacheSet{}

	if err := openCache(ctx, cfg, set, "users", &set.users); err != nil {
		return nil, err
	}
	if cfg.MetricsEnabled && cfg.MetricsGaugeUpdateEnabled {
		if err := openCache(ctx, cfg, set, "metrics", &set.metrics); err != nil {
			return nil, err
		}
	}
	if err := openCache(ctx, cfg, set, "webauthn", &set.webauthn); err != nil {
		return nil, err
	}
	if err := openCache(ctx, cfg, set, "qr_bindings", &set.qrBindings); err != nil {
		return nil, err
	}
	if err := openCache(ctx, cfg, set, "qr_results", &set.qrResults); err != nil {
		return nil, err
	}
	if err := openCache(ctx, cfg, set, "qr_sessions", &set.qrSessions); err != nil {
		return nil, err
	}
	if err := openCache(ctx, cfg, set, "oidc_requests", &set.oidcRequests); err != nil {
		return nil, err
	}
	if err := openCache(ctx, cfg, set, "auth_codes", &set.authCodes); err != nil {
		return nil, err
	}

	// The auth code cache sits on the same backend as the rest, so its
	// health stands in for all of them.
	set.health = set.authCodes.Health

	switch cfg.CacheType {
	case config.CacheTypeRedisAside:
		log.Info().
			Str("addr", cfg.RedisAddr).
			Int("db", cfg.RedisDB).
			Dur("client_ttl", cfg.CacheClientTTL).
			Int("cache_size_per_conn_mb", cfg.CacheSizePerConn).
			Msg("Cache: redis-aside")
	case config.CacheTypeRedis:
		log.Info().Str("addr", cfg.RedisAddr).Int("db", cfg.RedisDB).Msg("Cache: redis")
	default:
		log.Info().Msg("Cache: memory (single instance only)")
	}

	return set, nil
}

func openCache[T any](
	ctx context.Context,
	cfg *config.Config,
	set *cacheSet,
	name string,
	dst *cache.Cache[T],
) error {
	c, err := newCache[T](ctx, cfg, name)
	if err != nil {
		_ = set.Close()
		return err
	}
	*dst = c
	set.closers = append(set.closers, c.Close)
	if p, ok := c.(cache.Purger); ok {
		set.purgers = append(set.purgers, p)
	}
	return nil
}

// Sweep reclaims expired entries from in-process caches. Redis expires keys
// on its own, so this is a no-op for the redis backends.
func (s *cacheSet) Sweep() int {
	n := 0
	for _, p := range s.purgers {
		n += p.Purge()
	}
	return n
}

// Close closes every opened cache and joins the errors.
func (s *cacheSet) Close() error {
	var errs []error
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
