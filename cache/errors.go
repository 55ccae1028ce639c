package cache

import "errors"

// ErrMiss is returned by ResultCache.Get when no entry exists for the key.
var ErrMiss = errors.New("cache: no entry for key")

// ErrCacheUnavailable wraps any underlying Redis error, distinguishing a
// cold cache (ErrMiss) from a cache the caller cannot currently reach — a
// robustness run should treat the latter as "compute it" rather than fail.
var ErrCacheUnavailable = errors.New("cache: backend unavailable")
