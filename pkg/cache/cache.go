// Package cache stores analysis results keyed by the content they were
// computed from.
//
// Two implementations are provided: [FileCache] keeps entries as files below
// a directory and is used by the CLI; [NullCache] stores nothing and is used
// when caching is disabled. Keys are built by a [Keyer] from a content hash
// of the input treebank and the options that influence the result, so
// changing either produces a new key.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// TTLAnalysis is how long analysis results stay valid. Keys already change
// with the input and options, so the expiry only bounds disk use.
const TTLAnalysis = 30 * 24 * time.Hour
