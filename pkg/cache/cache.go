// Package cache stores rebuild results and rendered artifacts.
//
// Backends implement [Cache]: [FileCache] for the CLI, [RedisCache] for the
// HTTP server, and [NullCache] when caching is disabled. Keys are produced by
// a [Keyer] so callers never build key strings by hand.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// Clear drops every entry in c if the backend supports it and reports how
// many were removed.
func Clear(ctx context.Context, c Cache) (int, error) {
	cl, ok := c.(Clearer)
	if !ok {
		return 0, ErrUnsupported
	}
	return cl.Clear(ctx)
}
