package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/rueidisaside"
)

var _ Cache[struct{}] = (*RueidisAsideCache[struct{}])(nil)

// RueidisAsideCache serves reads from rueidis' client-side cache. Redis pushes
// RESP3 invalidations when any instance overwrites or takes a key, so a
// consumed single-use entry disappears from every local copy.
type RueidisAsideCache[T any] struct {
	redisOps[T]
	aside     rueidisaside.CacheAsideClient
	clientTTL time.Duration
}

// NewRueidisAsideCache connects with a per-connection local cache of
// cacheSizePerConnMB megabytes whose entries live at most clientTTL.
func NewRueidisAsideCache[T any](
	ctx context.Context,
	addr, password string,
	db int,
	keyPrefix string,
	clientTTL time.Duration,
	cacheSizePerConnMB int,
) (*RueidisAsideCache[T], error) {
	aside, err := rueidisaside.NewClient(rueidisaside.ClientOption{
		ClientOption: rueidis.ClientOption{
			InitAddress:       []string{addr},
			Password:          password,
			SelectDB:          db,
			CacheSizeEachConn: cacheSizePerConnMB << 20,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create rueidisaside client: %w", err)
	}
	if err := ping(ctx, aside.Client()); err != nil {
		aside.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return &RueidisAsideCache[T]{
		redisOps:  redisOps[T]{client: aside.Client(), prefix: keyPrefix},
		aside:     aside,
		clientTTL: clientTTL,
	}, nil
}

func (r *RueidisAsideCache[T]) Get(ctx context.Context, key string) (T, error) {
	cmd := r.client.B().Get().Key(r.prefix + key).Cache()
	return decodeResult[T](r.client.DoCache(ctx, cmd, r.clientTTL))
}

// GetWithFetch lets rueidisaside take a distributed lock on the key so fetch
// runs once across every instance that misses at the same time.
func (r *RueidisAsideCache[T]) GetWithFetch(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fetch FetchFunc[T],
) (T, error) {
	var zero T
	raw, err := r.aside.Get(ctx, ttl, r.prefix+key, func(ctx context.Context, _ string) (string, error) {
		v, err := fetch(ctx, key)
		if err != nil {
			return "", err
		}
		b, err := json.Marshal(v)
		if err != nil {
			return "", invalid(err)
		}
		return string(b), nil
	})
	if err != nil {
		return zero, fmt.Errorf("failed to get with fetch: %w", err)
	}
	return decodeJSON[T]([]byte(raw))
}

func (r *RueidisAsideCache[T]) Close() error {
	r.aside.Close()
	return nil
}
