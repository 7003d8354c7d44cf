package core

import (
	"context"
	"time"
)

// FetchFunc loads the value for key from the source of truth on a cache miss.
type FetchFunc[T any] func(ctx context.Context, key string) (T, error)

// Cache is a TTL key-value store. Missing, expired and already-taken keys
// all surface as cache.ErrCacheMiss.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (T, error)
	Set(ctx context.Context, key string, value T, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// Take reads and removes key in one step. When several callers race on
	// the same key exactly one of them gets the value.
	Take(ctx context.Context, key string) (T, error)

	// GetWithFetch is read-through: on a miss fetch runs and its result is
	// stored for ttl. Backends may collapse concurrent fetches of one key.
	GetWithFetch(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc[T]) (T, error)

	Health(ctx context.Context) error
	Close() error
}
