package tokens

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avealov/rulehub/internal/server/metrics"
)

const cacheKeyPrefix = "rulehub:access:"

// Cache is a redis-backed validation cache for access tokens. It maps a
// token's lookup hash to the owning user ID so hot validation paths can skip
// the token-row read. Entries are TTL-bounded and every revocation path
// purges the affected hashes, so a revoked token is never served from cache.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache connects to redis and verifies the connection.
func NewCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Cache{client: client, ttl: ttl}, nil
}

// NewCacheWithClient wraps an existing client; used by tests.
func NewCacheWithClient(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached user ID for a token hash, or "" on a miss. Cache
// errors degrade to a miss; the store remains the source of truth.
func (c *Cache) Get(ctx context.Context, hash string) string {
	userID, err := c.client.Get(ctx, cacheKeyPrefix+hash).Result()
	if err != nil {
		metrics.TokenCacheEvents.WithLabelValues("miss").Inc()
		return ""
	}
	metrics.TokenCacheEvents.WithLabelValues("hit").Inc()
	return userID
}

// Put caches hash→userID. The entry lives for the configured cache TTL,
// capped at the token's remaining life so the cache can never outlive the
// credential.
func (c *Cache) Put(ctx context.Context, hash, userID string, expiresAt time.Time, now time.Time) {
	ttl := c.ttl
	if remaining := expiresAt.Sub(now); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return
	}
	_ = c.client.Set(ctx, cacheKeyPrefix+hash, userID, ttl).Err()
}

// Invalidate removes cached entries for the given hashes.
func (c *Cache) Invalidate(ctx context.Context, hashes ...string) {
	if len(hashes) == 0 {
		return
	}
	keys := make([]string, len(hashes))
	for i, h := range hashes {
		keys[i] = cacheKeyPrefix + h
	}
	if err := c.client.Del(ctx, keys...).Err(); err == nil {
		metrics.TokenCacheEvents.WithLabelValues("purge").Inc()
	}
}

// Close releases the redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
