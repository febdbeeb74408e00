package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aniladanir/mailing-campaign-service/internal/cache"
	"github.com/go-redis/redis/v8"
)

type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new redis cache that complies with cache.Store
func NewRedisCache(ctx context.Context, addr string) (*RedisCache, error) {
	rClient := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	retryTicker := time.NewTicker(time.Second * 2)
	defer retryTicker.Stop()

	// retry ping
	var pingErr error
	for range 5 {
		if pingErr = rClient.Ping(ctx).Err(); pingErr == nil {
			break
		}
		<-retryTicker.C
	}
	if pingErr != nil {
		return nil, fmt.Errorf("failed to ping redis instance: %w", pingErr)
	}

	return NewFromClient(rClient), nil
}

func NewFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", cache.ErrMiss
	}
	return val, err
}

// TryLock claims key with SETNX. The ttl releases the claim if the holder dies.
func (r *RedisCache) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, lockKey(key), 1, ttl).Result()
}

func (r *RedisCache) Unlock(ctx context.Context, key string) error {
	return r.client.Del(ctx, lockKey(key)).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func lockKey(key string) string {
	return "lock:" + key
}
