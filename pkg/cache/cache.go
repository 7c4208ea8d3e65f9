package cache

import (
	"context"
	"time"
)

// Cache is a best-effort read-through cache keyed by opaque strings. It is an
// optimization, never a source of truth: every operation must be safe to
// no-op when the backend is unreachable, and no method ever returns an error.
// Callers that read the cache must always have a correct repository fallback.
type Cache interface {
	// Get unmarshals the value for key into dest and reports whether it was
	// found. A missing key, an unreadable value and an unreachable backend
	// all degrade to a miss.
	Get(ctx context.Context, key string, dest any) bool
	// Set stores the value under key with the given TTL. ttl <= 0 means no
	// expiration. Errors are swallowed.
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	// Remove deletes a single key. Errors are swallowed.
	Remove(ctx context.Context, key string)
	// RemoveByPattern deletes every key matching a glob-style pattern, e.g.
	// "products:*". Used for coarse invalidation of whole key families.
	// Idempotent; errors are swallowed.
	RemoveByPattern(ctx context.Context, pattern string)
	// Exists reports whether the key is present; false on any error.
	Exists(ctx context.Context, key string) bool
}
