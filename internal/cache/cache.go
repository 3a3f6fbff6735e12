package cache

import (
	"context"
	"time"
)

// Cache is a content-agnostic key/value store with per-entry expiry. Every
// Set fully replaces any prior content for the key. Expiry is advisory
// staleness control: a write racing an expiry may be lost.
type Cache interface {
	// Get returns the value stored under key, or ok=false if the key is
	// absent or expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key. The entry expires after ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
