package cache

import (
	"context"
	"time"

	"github.com/myuon/flowit-sub001/common/redis"
)

// keyPrefix namespaces cache entries away from rate-limit and event keys.
const keyPrefix = "cache:"

// RedisCache is a Cache backed by Redis, shared by every worker on the same
// instance. Entry TTLs are enforced server-side.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps an already-connected client
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get retrieves a value from cache
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, found, err := c.client.Get(ctx, keyPrefix+key)
	if err != nil || !found {
		return nil, false, err
	}
	return []byte(val), true, nil
}

// Set stores a value in cache with TTL
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, keyPrefix+key, string(value), ttl)
}

// Delete removes a value from cache
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Delete(ctx, keyPrefix+key)
}

// Close is a no-op; the underlying connection belongs to bootstrap
func (c *RedisCache) Close() error {
	return nil
}
