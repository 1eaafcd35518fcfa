// Package cache implements the cache-aside store fronting every expensive
// call. Caching is an optimization, not a correctness requirement: a
// failed read is a miss, a failed write is logged and swallowed, and
// neither ever surfaces an error to the caller.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Store is a TTL'd key/value store over opaque JSON values. Keys are
// opaque strings constructed by the orchestrator; the store does no
// interpretation of key structure.
type Store interface {
	// Get returns the cached value for key, or ok=false on a miss,
	// expiry, or backing-store failure.
	Get(ctx context.Context, key string) (json.RawMessage, bool)

	// Set writes value under key with the given TTL, superseding any
	// existing entry. Failures are logged, never returned.
	Set(ctx context.Context, key string, value any, ttl time.Duration)
}
