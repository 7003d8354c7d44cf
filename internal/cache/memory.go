package cache

import (
	"context"
	"sync"
	"time"
)

var _ Cache[struct{}] = (*MemoryCache[struct{}])(nil)

type entry[T any] struct {
	value    T
	deadline time.Time
}

func (e entry[T]) live(now time.Time) bool { return now.Before(e.deadline) }

// MemoryCache keeps entries in process. Expired entries are invisible to
// readers immediately and are reclaimed by Purge. Only valid for a single
// instance since nothing is shared.
type MemoryCache[T any] struct {
	mu      sync.Mutex
	entries map[string]entry[T]
	clock   func() time.Time
}

func NewMemoryCache[T any]() *MemoryCache[T] {
	return &MemoryCache[T]{entries: map[string]entry[T]{}, clock: time.Now}
}

// WithClock swaps the time source; tests use it to step past deadlines.
func (m *MemoryCache[T]) WithClock(clock func() time.Time) *MemoryCache[T] {
	m.mu.Lock()
	m.clock = clock
	m.mu.Unlock()
	return m
}

func (m *MemoryCache[T]) lookup(key string, remove bool) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if ok && remove {
		delete(m.entries, key)
	}
	if !ok || !e.live(m.clock()) {
		var zero T
		return zero, ErrCacheMiss
	}
	return e.value, nil
}

func (m *MemoryCache[T]) Get(_ context.Context, key string) (T, error) {
	return m.lookup(key, false)
}

func (m *MemoryCache[T]) Take(_ context.Context, key string) (T, error) {
	return m.lookup(key, true)
}

func (m *MemoryCache[T]) Set(_ context.Context, key string, value T, ttl time.Duration) error {
	m.mu.Lock()
	m.entries[key] = entry[T]{value: value, deadline: m.clock().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[T]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Purge drops expired entries and returns how many it removed.
func (m *MemoryCache[T]) Purge() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	n := 0
	for key, e := range m.entries {
		if !e.live(now) {
			delete(m.entries, key)
			n++
		}
	}
	return n
}

// GetWithFetch does not deduplicate concurrent fetches.
func (m *MemoryCache[T]) GetWithFetch(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fetch FetchFunc[T],
) (T, error) {
	if v, err := m.Get(ctx, key); err == nil {
		return v, nil
	}
	v, err := fetch(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}
	_ = m.Set(ctx, key, v, ttl)
	return v, nil
}

func (m *MemoryCache[T]) Health(context.Context) error { return nil }

func (m *MemoryCache[T]) Close() error {
	m.mu.Lock()
	clear(m.entries)
	m.mu.Unlock()
	return nil
}
