// Package memory is an in-process cache.Store used when no redis address is
// configured and in tests. Locks only exclude holders inside one process.
package memory

import (
	"context"
	"errors"
	"time"

	"github.com/aniladanir/mailing-campaign-service/internal/cache"
	"github.com/coocood/freecache"
)

const defaultSize = 16 * 1024 * 1024

var lockValue = []byte{1}

type Cache struct {
	entries *freecache.Cache
	locks   *freecache.Cache
	now     func() time.Time
}

// clockTimer feeds freecache expiry from the cache clock.
type clockTimer struct {
	c *Cache
}

func (t clockTimer) Now() uint32 {
	return uint32(t.c.now().Unix())
}

func New() *Cache {
	c := &Cache{now: time.Now}
	c.entries = freecache.NewCacheCustomTimer(defaultSize, clockTimer{c: c})
	c.locks = freecache.NewCacheCustomTimer(defaultSize/16, clockTimer{c: c})
	return c
}

func (c *Cache) Set(_ context.Context, key, val string, ttl time.Duration) error {
	return c.entries.Set([]byte(key), []byte(val), expireSeconds(ttl))
}

func (c *Cache) Get(_ context.Context, key string) (string, error) {
	val, err := c.entries.Get([]byte(key))
	if errors.Is(err, freecache.ErrNotFound) {
		return "", cache.ErrMiss
	}
	if err != nil {
		return "", err
	}
	return string(val), nil
}

// TryLock claims key unless a live claim exists. Claims expire after ttl,
// rounded up to whole seconds.
func (c *Cache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	held, err := c.locks.GetOrSet([]byte(key), lockValue, expireSeconds(ttl))
	if err != nil {
		return false, err
	}
	return held == nil, nil
}

func (c *Cache) Unlock(_ context.Context, key string) error {
	c.locks.Del([]byte(key))
	return nil
}

// expireSeconds converts ttl for freecache, where 0 means no expiry.
func expireSeconds(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	secs := int((ttl + time.Second - 1) / time.Second)
	return max(secs, 1)
}
