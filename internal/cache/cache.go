package cache

import (
	"context"
	"time"
)

// Store is a generic TTL-capable key-value store. Values are serialized
// transparently: a structured value goes in, the same structure comes out.
//
// Failure policy: Set, Get, Delete and Exists degrade gracefully. When the
// backend is unavailable they report a miss or failure instead of returning
// an error, so callers keep working in reduced (uncached) form. Increment is
// the exception: it backs rate-limit counters, so its failure propagates
// rather than silently under-counting.
type Store interface {
	// Set stores value under key with the given TTL. A zero ttl means no
	// expiry. Returns false when the write could not be performed.
	Set(ctx context.Context, key string, value any, ttl time.Duration) bool

	// Get loads the value under key into dest. Returns false on a missing
	// key, an undecodable value, or backend failure; never an error.
	Get(ctx context.Context, key string, dest any) bool

	// Delete removes key. Returns false when the delete could not be
	// performed; deleting an absent key is a success.
	Delete(ctx context.Context, key string) bool

	// Exists reports whether key is present. Backend failure reads as absent.
	Exists(ctx context.Context, key string) bool

	// Increment atomically increments the integer at key and returns the new
	// count. When the key is created by this call its TTL is set to ttl.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
