// Package cache holds the terminal's restart-survival snapshots (last
// known merchant balance and similar). Cached data is display material
// only; the ledger backend stays the source of truth.
package cache

import (
	"context"
	"time"
)

// Cache is a small TTL'd byte store. MemoryCache serves terminals
// without Redis; RedisCache lets several registers in one venue share a
// warm snapshot.
type Cache interface {
	// Get retrieves a value by key. Returns ErrCacheMiss if absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error
}

// CacheError is a sentinel error type for cache operations.
type CacheError string

func (e CacheError) Error() string { return string(e) }

// ErrCacheMiss indicates the key was not found.
const ErrCacheMiss CacheError = "cache miss"
