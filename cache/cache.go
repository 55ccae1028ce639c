package cache

import "context"

// ResultCache memoizes an optimization result under a Key. Implementations
// must treat a miss as ErrMiss specifically, so callers can distinguish
// "not cached, go compute it" from "cache backend errored."
type ResultCache interface {
	Get(ctx context.Context, key Key, dest any) error
	Set(ctx context.Context, key Key, value any) error
	Close() error
}

// NullCache is a no-op ResultCache: every Get misses, every Set succeeds
// silently. Used when cache.redis_addr is unset — callers that always go
// through a ResultCache do not need a separate "caching disabled" branch.
type NullCache struct{}

func (NullCache) Get(_ context.Context, _ Key, _ any) error { return ErrMiss }
func (NullCache) Set(_ context.Context, _ Key, _ any) error { return nil }
func (NullCache) Close() error                              { return nil }
