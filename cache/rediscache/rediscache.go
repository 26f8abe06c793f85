// Package rediscache is a Redis-backed implementation of the content-
// addressed cache, for deployments where tool-call stubs must be shared
// across multiple capture/replay processes.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kurral/kurral/cache"
)

// Config configures a Cache. Redis is required; the rest default on zero
// value, mirroring the defaults-on-zero pattern used for wiring shared
// infrastructure clients elsewhere in this codebase.
type Config struct {
	// Redis is the client used for all cache operations. Required.
	Redis *redis.Client
	// KeyPrefix namespaces cache keys in a shared Redis instance. Defaults
	// to "kurral:cache:".
	KeyPrefix string
	// DefaultTTL is used when Put is called with a zero ttl. Defaults to
	// cache.DefaultTTL.
	DefaultTTL time.Duration
}

// Cache is a Redis-backed tool-call stub cache with the same semantics as
// cache.Cache: Get on a missing or expired key returns absence, not an
// error; Put overwrites.
type Cache struct {
	redis      *redis.Client
	keyPrefix  string
	defaultTTL time.Duration
}

// New constructs a Cache from cfg. Panics if cfg.Redis is nil.
func New(cfg Config) *Cache {
	if cfg.Redis == nil {
		panic("rediscache: Config.Redis is required")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "kurral:cache:"
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = cache.DefaultTTL
	}
	return &Cache{redis: cfg.Redis, keyPrefix: cfg.KeyPrefix, defaultTTL: cfg.DefaultTTL}
}

func (c *Cache) fullKey(key string) string {
	return c.keyPrefix + key
}

// Put inserts or overwrites the stub under key with the given TTL (ttl <= 0
// uses the configured default).
func (c *Cache) Put(ctx context.Context, key string, stub cache.Stub, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	payload, err := json.Marshal(stub)
	if err != nil {
		return fmt.Errorf("rediscache: put: marshal: %w", err)
	}
	if err := c.redis.Set(ctx, c.fullKey(key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("rediscache: put: %w", err)
	}
	return nil
}

// Get returns the stub for key and true, or a zero Stub, false, and a nil
// error if the key is absent or expired (Redis enforces the TTL itself).
// A Redis failure or a stored payload that fails to decode returns a zero
// Stub, false, and a non-nil error.
func (c *Cache) Get(ctx context.Context, key string) (cache.Stub, bool, error) {
	raw, err := c.redis.Get(ctx, c.fullKey(key)).Bytes()
	if err == redis.Nil {
		return cache.Stub{}, false, nil
	}
	if err != nil {
		return cache.Stub{}, false, fmt.Errorf("rediscache: get: %w", err)
	}
	var stub cache.Stub
	if err := json.Unmarshal(raw, &stub); err != nil {
		return cache.Stub{}, false, fmt.Errorf("rediscache: get: decode: %w", err)
	}
	return stub, true, nil
}

// Delete removes key unconditionally.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.redis.Del(ctx, c.fullKey(key)).Err(); err != nil {
		return fmt.Errorf("rediscache: delete: %w", err)
	}
	return nil
}
