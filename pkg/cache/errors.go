package cache

import "errors"

// ErrEmptyKey is returned by [FileCache.Set] for an empty key.
var ErrEmptyKey = errors.New("empty cache key")
