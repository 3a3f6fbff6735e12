package transform

import "errors"

// Error kinds returned by the orchestrator. The HTTP layer maps these to
// status codes; nothing in this package retries or swallows them.
var (
	// ErrNotFound means the image does not exist or is owned by a
	// different user. The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("image not found")

	// ErrInvalidTransformation means the spec failed validation, for
	// example a crop out of bounds or an unsupported format. No storage
	// writes happen when this is returned.
	ErrInvalidTransformation = errors.New("invalid transformation")

	// ErrUpstreamUnavailable means an object store or cache store call
	// failed. The caller may retry.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
