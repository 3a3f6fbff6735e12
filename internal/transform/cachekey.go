package transform

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/avasile/snapvault/internal/model"
)

// canonicalSpec serializes a spec in a fixed field order including only the
// fields that are set, so two structurally equal specs produce the same
// string no matter how the request body ordered them. The output format is
// always included in its normalized (defaulted) form.
func canonicalSpec(spec model.TransformSpec) string {
	var b strings.Builder
	if spec.Resize != nil {
		fmt.Fprintf(&b, "resize=%dx%d;", spec.Resize.Width, spec.Resize.Height)
	}
	if spec.Crop != nil {
		fmt.Fprintf(&b, "crop=%d,%d,%dx%d;", spec.Crop.X, spec.Crop.Y, spec.Crop.Width, spec.Crop.Height)
	}
	if spec.Rotate != nil {
		fmt.Fprintf(&b, "rotate=%d;", *spec.Rotate)
	}
	if spec.Filters != nil && (spec.Filters.Grayscale || spec.Filters.Sepia) {
		fmt.Fprintf(&b, "filters=grayscale:%t,sepia:%t;", spec.Filters.Grayscale, spec.Filters.Sepia)
	}
	fmt.Fprintf(&b, "format=%s", spec.OutputFormat())
	return b.String()
}

// SpecHash returns the hex SHA-256 of the canonical spec serialization. It
// names the derived blob, so identical specs always address the same blob.
func SpecHash(spec model.TransformSpec) string {
	sum := sha256.Sum256([]byte(canonicalSpec(spec)))
	return hex.EncodeToString(sum[:])
}

// CacheKey derives the cache key for a transformation request. Keys are
// scoped by owner and image so equal specs for different images never
// collide.
func CacheKey(userID, imageID string, spec model.TransformSpec) string {
	return fmt.Sprintf("transform:%s:%s:%s", userID, imageID, SpecHash(spec))
}

// DerivedBlobKey names the stored derived blob for originalKey under spec.
// Repeated identical requests overwrite this one key instead of
// accumulating blobs.
func DerivedBlobKey(originalKey string, spec model.TransformSpec) string {
	return fmt.Sprintf("%s-transformed-%s", originalKey, SpecHash(spec))
}
