package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/rueidis"
)

// redisOps holds the commands both Redis backends issue straight to the
// server. Values are stored as JSON under prefix+key.
type redisOps[T any] struct {
	client rueidis.Client
	prefix string
}

func (o redisOps[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return invalid(err)
	}
	cmd := o.client.B().Set().Key(o.prefix + key).Value(rueidis.BinaryString(raw)).Ex(ttl).Build()
	if err := o.client.Do(ctx, cmd).Error(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Take uses GETDEL, so the read and the delete are a single server step and
// any client-side copies are invalidated with it.
func (o redisOps[T]) Take(ctx context.Context, key string) (T, error) {
	return decodeResult[T](o.client.Do(ctx, o.client.B().Getdel().Key(o.prefix+key).Build()))
}

func (o redisOps[T]) Delete(ctx context.Context, key string) error {
	if err := o.client.Do(ctx, o.client.B().Del().Key(o.prefix+key).Build()).Error(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (o redisOps[T]) Health(ctx context.Context) error {
	if err := o.client.Do(ctx, o.client.B().Ping().Build()).Error(); err != nil {
		return unavailable(err)
	}
	return nil
}

func ping(ctx context.Context, client rueidis.Client) error {
	return client.Do(ctx, client.B().Ping().Build()).Error()
}

// decodeResult maps a GET-style reply onto T. A nil reply is a miss.
func decodeResult[T any](resp rueidis.RedisResult) (T, error) {
	var v T
	if err := resp.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return v, ErrCacheMiss
		}
		return v, unavailable(err)
	}
	raw, err := resp.AsBytes()
	if err != nil {
		return v, invalid(err)
	}
	return decodeJSON[T](raw)
}

func decodeJSON[T any](raw []byte) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, invalid(err)
	}
	return v, nil
}
