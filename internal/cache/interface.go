package cache

import "github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/core"

// Cache is the key-value contract shared by every backend in this package.
type Cache[T any] = core.Cache[T]

// FetchFunc loads a value on a read-through miss.
type FetchFunc[T any] = core.FetchFunc[T]

// Purger is implemented by backends that reclaim expired entries themselves
// instead of relying on server-side expiry.
type Purger interface {
	Purge() int
}
