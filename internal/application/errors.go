package application

import "errors"

var ErrNotFound = errors.New("not found")

// ErrCacheMiss is returned by CacheStore implementations when a key is
// absent or expired. Callers treat any other cache error the same way
// after logging it.
var ErrCacheMiss = errors.New("cache miss")
