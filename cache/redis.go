package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config configures a RedisCache.
type Config struct {
	Addr string
	TTL  time.Duration
}

// DefaultConfig returns a 24-hour TTL — optimization results are expensive
// to recompute and cheap to go stale against an unchanged dataset hash.
func DefaultConfig(addr string) Config {
	return Config{Addr: addr, TTL: 24 * time.Hour}
}

// RedisCache is a ResultCache backed by Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache dials addr and verifies connectivity with a Ping before
// returning, so a bad address fails at construction rather than at the
// first Get deep inside a harness run.
func NewRedisCache(cfg Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, DB: 0})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

// Get decodes the cached value for key into dest (a pointer). Returns
// ErrMiss if the key is absent.
func (c *RedisCache) Get(ctx context.Context, key Key, dest any) error {
	data, err := c.client.Get(ctx, key.String()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrMiss
		}
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrCacheUnavailable, err)
	}
	return nil
}

// Set stores value under key with the cache's configured TTL.
func (c *RedisCache) Set(ctx context.Context, key Key, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrCacheUnavailable, err)
	}
	if err := c.client.Set(ctx, key.String(), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
