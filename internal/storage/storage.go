package storage

import (
	"context"
	"time"
)

// ObjectStore defines the interface for blob storage. Keys are opaque
// strings and may contain slashes.
type ObjectStore interface {
	// Put writes data under key, replacing any prior content.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get returns the full content stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// SignURL returns a time-limited URL granting read access to key
	// without credentials.
	SignURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
