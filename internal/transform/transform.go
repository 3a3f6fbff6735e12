// Package transform implements the transformation pipeline orchestrator:
// cache-key derivation, cache hit/miss handling, source fetch, engine
// invocation, derived blob persistence and URL signing.
package transform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avasile/snapvault/internal/cache"
	"github.com/avasile/snapvault/internal/database"
	"github.com/avasile/snapvault/internal/imageproc"
	"github.com/avasile/snapvault/internal/model"
	"github.com/avasile/snapvault/internal/storage"
)

// ImageFinder resolves an image record scoped by its owning user.
type ImageFinder interface {
	GetImage(imageID, userID string) (*model.Image, error)
}

// Service orchestrates transformations. It holds no mutable state beyond
// the injected client handles and is safe for concurrent use. Two
// concurrent identical misses race benignly: both write the same derived
// blob key and cache key, last writer wins.
type Service struct {
	db       ImageFinder
	store    storage.ObjectStore
	cache    cache.Cache
	cacheTTL time.Duration
	urlTTL   time.Duration
}

// New creates a Service over the given stores.
func New(db ImageFinder, store storage.ObjectStore, c cache.Cache, cacheTTL, urlTTL time.Duration) *Service {
	return &Service{
		db:       db,
		store:    store,
		cache:    c,
		cacheTTL: cacheTTL,
		urlTTL:   urlTTL,
	}
}

// Transform returns a signed URL and metadata for the derived image
// described by spec, computing and persisting it on a cache miss. On any
// failure nothing is written to the cache, so a failed run can never pin a
// stale entry.
func (s *Service) Transform(ctx context.Context, userID, imageID string, spec model.TransformSpec) (*model.TransformResult, error) {
	if err := ValidateSpec(spec); err != nil {
		return nil, err
	}

	key := CacheKey(userID, imageID, spec)

	if cached, ok := s.cacheLookup(ctx, key); ok {
		return cached, nil
	}

	img, err := s.db.GetImage(imageID, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: resolve image: %v", ErrUpstreamUnavailable, err)
	}

	src, err := s.store.Get(ctx, img.BlobKey)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch source blob: %v", ErrUpstreamUnavailable, err)
	}

	format := spec.OutputFormat()
	ops := imageproc.BuildPipeline(spec)
	encoded, meta, err := imageproc.Apply(src, ops, format)
	if err != nil {
		if errors.Is(err, imageproc.ErrCropBounds) || errors.Is(err, imageproc.ErrUnsupportedFormat) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTransformation, err)
		}
		return nil, fmt.Errorf("transform image %s: %w", imageID, err)
	}

	derivedKey := DerivedBlobKey(img.BlobKey, spec)
	if err := s.store.Put(ctx, derivedKey, encoded, imageproc.ContentType(format)); err != nil {
		return nil, fmt.Errorf("%w: store derived blob: %v", ErrUpstreamUnavailable, err)
	}

	url, err := s.store.SignURL(ctx, derivedKey, s.urlTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: sign url: %v", ErrUpstreamUnavailable, err)
	}

	result := &model.TransformResult{URL: url, Metadata: meta}

	if err := s.cacheStore(ctx, key, result); err != nil {
		// The derived blob is already durable; a cache write failure only
		// costs a recomputation on the next request.
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}

	return result, nil
}

// ValidateSpec checks the static field constraints. Crop bounds depend on
// the post-resize image dimensions and are checked by the engine when the
// crop runs.
func ValidateSpec(spec model.TransformSpec) error {
	if spec.IsEmpty() {
		return fmt.Errorf("%w: no transformations requested", ErrInvalidTransformation)
	}
	if r := spec.Resize; r != nil {
		if r.Width < 1 || r.Height < 1 {
			return fmt.Errorf("%w: resize dimensions must be positive", ErrInvalidTransformation)
		}
	}
	if c := spec.Crop; c != nil {
		if c.X < 0 || c.Y < 0 {
			return fmt.Errorf("%w: crop origin must be non-negative", ErrInvalidTransformation)
		}
		if c.Width < 1 || c.Height < 1 {
			return fmt.Errorf("%w: crop dimensions must be positive", ErrInvalidTransformation)
		}
	}
	if !imageproc.FormatSupported(spec.OutputFormat()) {
		return fmt.Errorf("%w: format must be jpeg, png or webp", ErrInvalidTransformation)
	}
	return nil
}

// cacheLookup returns a previously memoized result. Cache read failures and
// undecodable entries are treated as misses.
func (s *Service) cacheLookup(ctx context.Context, key string) (*model.TransformResult, bool) {
	value, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var result model.TransformResult
	if err := json.Unmarshal(value, &result); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		return nil, false
	}
	return &result, true
}

func (s *Service) cacheStore(ctx context.Context, key string, result *model.TransformResult) error {
	value, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	return s.cache.Set(ctx, key, value, s.cacheTTL)
}
