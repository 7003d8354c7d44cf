package cache

import (
	"errors"
	"fmt"
)

var (
	ErrCacheMiss        = errors.New("cache: key not found")
	ErrCacheUnavailable = errors.New("cache: backend unavailable")
	ErrInvalidValue     = errors.New("cache: invalid value")
)

// IsMiss reports whether err means the key was absent, expired or already consumed.
func IsMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

func unavailable(err error) error { return fmt.Errorf("%w: %v", ErrCacheUnavailable, err) }

func invalid(err error) error { return fmt.Errorf("%w: %v", ErrInvalidValue, err) }
