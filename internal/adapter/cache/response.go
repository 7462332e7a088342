package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResponseCache caches serialized API responses for hot read endpoints. A
// nil Redis client or a Redis outage turns every lookup into a miss, never
// an error.
type ResponseCache struct {
	rdb    *redis.Client
	logger *slog.Logger
}

func NewResponseCache(rdb *redis.Client, logger *slog.Logger) *ResponseCache {
	return &ResponseCache{rdb: rdb, logger: logger}
}

// Get unmarshals the cached value into dest, reporting whether the key hit.
func (c *ResponseCache) Get(ctx context.Context, key string, dest any) bool {
	if c.rdb == nil {
		return false
	}
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		c.logger.Warn("response cache read failed", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		c.logger.Warn("response cache entry malformed", "key", key, "error", err)
		return false
	}
	return true
}

// Set stores the value best-effort.
func (c *ResponseCache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Warn("response cache write failed", "key", key, "error", err)
	}
}
