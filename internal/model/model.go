package model

import "time"

// User is a registered account that owns images.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Image is the metadata record for an uploaded original.
// BlobKey and UserID are immutable once the record is created.
type Image struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	Title       string    `json:"title"`
	BlobKey     string    `json:"-"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TransformSpec describes a requested transformation. All sub-fields are
// optional; a request must set at least one. Operations always apply in the
// order resize, crop, rotate, filters, format regardless of field order in
// the request body.
type TransformSpec struct {
	Resize  *ResizeSpec `json:"resize,omitempty"`
	Crop    *CropSpec   `json:"crop,omitempty"`
	Rotate  *int        `json:"rotate,omitempty"`
	Filters *FilterSpec `json:"filters,omitempty"`
	Format  string      `json:"format,omitempty"`
}

// ResizeSpec resizes to exactly Width x Height with cover fit:
// scale preserving aspect ratio, then center-crop to the target box.
type ResizeSpec struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CropSpec extracts the rectangle at (X, Y) of Width x Height.
// Bounds are checked against the image dimensions at the point the crop
// runs, i.e. after any resize.
type CropSpec struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FilterSpec holds the color filter toggles.
type FilterSpec struct {
	Grayscale bool `json:"grayscale"`
	Sepia     bool `json:"sepia"`
}

// DefaultFormat is the output encoding used when the spec does not name one.
const DefaultFormat = "jpeg"

// OutputFormat returns the requested output format, defaulting to jpeg.
func (s TransformSpec) OutputFormat() string {
	if s.Format == "" {
		return DefaultFormat
	}
	return s.Format
}

// IsEmpty reports whether the spec requests no work at all. A filters block
// with both flags false counts as absent.
func (s TransformSpec) IsEmpty() bool {
	if s.Resize != nil || s.Crop != nil || s.Rotate != nil || s.Format != "" {
		return false
	}
	if s.Filters != nil && (s.Filters.Grayscale || s.Filters.Sepia) {
		return false
	}
	return true
}

// TransformMetadata describes the derived image that a transformation
// produced.
type TransformMetadata struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Size   int64  `json:"size"`
}

// TransformResult is what the orchestrator returns and what gets memoized in
// the cache: a signed URL for the derived blob plus its metadata.
type TransformResult struct {
	URL      string            `json:"url"`
	Metadata TransformMetadata `json:"metadata"`
}
