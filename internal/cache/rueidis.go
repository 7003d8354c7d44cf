package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

var _ Cache[struct{}] = (*RueidisCache[struct{}])(nil)

// RueidisCache stores entries in a shared Redis without client-side caching.
type RueidisCache[T any] struct {
	redisOps[T]
}

func NewRueidisCache[T any](
	ctx context.Context,
	addr, password string,
	db int,
	keyPrefix string,
) (*RueidisCache[T], error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{addr},
		Password:     password,
		SelectDB:     db,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	if err := ping(ctx, client); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return &RueidisCache[T]{redisOps[T]{client: client, prefix: keyPrefix}}, nil
}

func (r *RueidisCache[T]) Get(ctx context.Context, key string) (T, error) {
	return decodeResult[T](r.client.Do(ctx, r.client.B().Get().Key(r.prefix+key).Build()))
}

// GetWithFetch is a plain read-through; concurrent misses each call fetch.
func (r *RueidisCache[T]) GetWithFetch(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fetch FetchFunc[T],
) (T, error) {
	if v, err := r.Get(ctx, key); err == nil {
		return v, nil
	}
	v, err := fetch(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}
	_ = r.Set(ctx, key, v, ttl)
	return v, nil
}

func (r *RueidisCache[T]) Close() error {
	r.client.Close()
	return nil
}
