package cache

import (
	"context"
	"time"
)

// Store is a key/value side-cache with TTL. Values are opaque
// structured data, serialized on write and deserialized on read.
//
// Implementations are responsible for per-key atomicity of
// Get/Set/Delete; callers treat any store error on a read path as a
// miss and fall back to authoritative storage.
type Store interface {
	// Get loads the value under key into dest. The second return is
	// false when the key is absent or expired.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set stores value under key for ttl. A ttl of zero means no
	// expiry.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// DeleteByPattern removes every key matching a glob pattern with a
	// trailing wildcard, e.g. "station:*".
	DeleteByPattern(ctx context.Context, pattern string) error
}
