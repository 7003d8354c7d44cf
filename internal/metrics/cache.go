package metrics

import (
	"context"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/cache"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/core"
)

// CacheWrapper provides a read-through cache for gauge counts so that several
// replicas refreshing gauges do not all hit the database.
type CacheWrapper struct {
	store core.MetricsStore
	cache cache.Cache[int64]
}

// NewCacheWrapper creates a new cache wrapper for metrics.
func NewCacheWrapper(store core.MetricsStore, cache cache.Cache[int64]) *CacheWrapper {
	return &CacheWrapper{
		store: store,
		cache: cache,
	}
}

// getCountWithCache retrieves a count using the cache-aside pattern.
func (m *CacheWrapper) getCountWithCache(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fetchFunc func() (int64, error),
) (int64, error) {
	return m.cache.GetWithFetch(
		ctx,
		key,
		ttl,
		func(ctx context.Context, key string) (int64, error) {
			return fetchFunc()
		},
	)
}

func (m *CacheWrapper) GetActiveClientsCount(ctx context.Context, ttl time.Duration) (int64, error) {
	return m.getCountWithCache(ctx, "gauge:clients", ttl, m.store.CountActiveClients)
}

func (m *CacheWrapper) GetTOTPEnabledCount(ctx context.Context, ttl time.Duration) (int64, error) {
	return m.getCountWithCache(ctx, "gauge:totp", ttl, m.store.CountTOTPEnabledUsers)
}

func (m *CacheWrapper) GetWebAuthnCredentialCount(
	ctx context.Context,
	ttl time.Duration,
) (int64, error) {
	return m.getCountWithCache(ctx, "gauge:webauthn", ttl, m.store.CountActiveWebAuthnCredentials)
}

// UpdateGauges refreshes every gauge from the (cached) counts. A failed count
// is recorded and the previous gauge value is kept.
func UpdateGauges(ctx context.Context, r Recorder, w *CacheWrapper, ttl time.Duration) {
	if n, err := w.GetActiveClientsCount(ctx, ttl); err != nil {
		r.RecordDatabaseQueryError("count_clients")
	} else {
		r.SetActiveOIDCClients(int(n))
	}
	if n, err := w.GetTOTPEnabledCount(ctx, ttl); err != nil {
		r.RecordDatabaseQueryError("count_totp_users")
	} else {
		r.SetTwoFactorEnrollment("totp", int(n))
	}
	if n, err := w.GetWebAuthnCredentialCount(ctx, ttl); err != nil {
		r.RecordDatabaseQueryError("count_webauthn_credentials")
	} else {
		r.SetTwoFactorEnrollment("webauthn", int(n))
	}
}
