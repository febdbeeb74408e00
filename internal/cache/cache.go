package cache

import (
	"context"
	"errors"
	"time"
)

var ErrMiss = errors.New("cache miss")

type Cache interface {
	Set(ctx context.Context, key, val string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

// Locker grants a short lived exclusive claim on a key. TryLock returns false
// when another holder owns the key.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// Store is what the engine needs from a cache backend.
type Store interface {
	Cache
	Locker
}
