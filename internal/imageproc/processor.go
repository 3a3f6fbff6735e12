package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"

	// Registers the webp decoder; jpeg, png and gif register through the
	// encoder imports above.
	_ "golang.org/x/image/webp"

	"github.com/avasile/snapvault/internal/model"
)

// ErrCropBounds is returned when a crop rectangle does not fit within the
// image dimensions at the point the crop runs.
var ErrCropBounds = errors.New("crop exceeds image bounds")

// ErrUnsupportedFormat is returned for an output format outside the
// supported set.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// ErrDecode is returned when the source bytes cannot be decoded as an image.
var ErrDecode = errors.New("decoding image")

const jpegQuality = 85

// Operation is one step of a transformation pipeline.
type Operation interface {
	apply(img image.Image) (image.Image, error)
}

// BuildPipeline turns a spec into the ordered operation list. The order is
// fixed: resize, crop, rotate, grayscale, sepia. Absent fields contribute
// nothing.
func BuildPipeline(spec model.TransformSpec) []Operation {
	var ops []Operation
	if spec.Resize != nil {
		ops = append(ops, resizeOp{width: spec.Resize.Width, height: spec.Resize.Height})
	}
	if spec.Crop != nil {
		ops = append(ops, cropOp{
			x:      spec.Crop.X,
			y:      spec.Crop.Y,
			width:  spec.Crop.Width,
			height: spec.Crop.Height,
		})
	}
	if spec.Rotate != nil {
		ops = append(ops, rotateOp{degrees: *spec.Rotate})
	}
	if spec.Filters != nil {
		if spec.Filters.Grayscale {
			ops = append(ops, grayscaleOp{})
		}
		if spec.Filters.Sepia {
			ops = append(ops, sepiaOp{})
		}
	}
	return ops
}

// Apply decodes src, folds the operations over it in order, and encodes the
// result in the requested format ("jpeg", "png" or "webp"). It is a pure
// function with no shared state and is safe to call concurrently.
func Apply(src []byte, ops []Operation, format string) ([]byte, model.TransformMetadata, error) {
	var meta model.TransformMetadata

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, meta, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	for _, op := range ops {
		img, err = op.apply(img)
		if err != nil {
			return nil, meta, err
		}
	}

	out, err := encode(img, format)
	if err != nil {
		return nil, meta, err
	}

	meta = model.TransformMetadata{
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Format: format,
		Size:   int64(len(out)),
	}
	return out, meta, nil
}

// FormatSupported reports whether format is a valid output encoding.
func FormatSupported(format string) bool {
	switch format {
	case "jpeg", "png", "webp":
		return true
	}
	return false
}

// ContentType maps an output format to its MIME type.
func ContentType(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	case "gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

// resizeOp resizes to exactly width x height with cover fit: scale
// preserving aspect ratio, then center-crop to fill the target box.
type resizeOp struct {
	width, height int
}

func (op resizeOp) apply(img image.Image) (image.Image, error) {
	return imaging.Fill(img, op.width, op.height, imaging.Center, imaging.Lanczos), nil
}

// cropOp extracts a rectangle. The bounds check runs against the image as it
// is when the crop executes, so a preceding resize shrinks the valid region.
type cropOp struct {
	x, y, width, height int
}

func (op cropOp) apply(img image.Image) (image.Image, error) {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	if op.x+op.width > w || op.y+op.height > h {
		return nil, fmt.Errorf("%w: rect (%d,%d) %dx%d against %dx%d image",
			ErrCropBounds, op.x, op.y, op.width, op.height, w, h)
	}
	return imaging.Crop(img, image.Rect(op.x, op.y, op.x+op.width, op.y+op.height)), nil
}

// rotateOp rotates clockwise by an arbitrary number of degrees. For
// non-90-degree multiples the canvas grows and the exposed corners are
// filled with transparent pixels, which become black after JPEG encoding.
type rotateOp struct {
	degrees int
}

func (op rotateOp) apply(img image.Image) (image.Image, error) {
	// imaging rotates counter-clockwise for positive angles.
	return imaging.Rotate(img, -float64(op.degrees), color.Transparent), nil
}

type grayscaleOp struct{}

func (op grayscaleOp) apply(img image.Image) (image.Image, error) {
	return imaging.Grayscale(img), nil
}

// sepiaOp approximates a sepia tone by scaling saturation to roughly 0.3 of
// the original and shifting hue by 30 degrees. This is deliberately not a
// true sepia color matrix.
type sepiaOp struct{}

func (op sepiaOp) apply(img image.Image) (image.Image, error) {
	g := gift.New(
		gift.Saturation(-70),
		gift.Hue(30),
	)
	dst := image.NewRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst, nil
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

func encode(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case "webp":
		if err := webp.Encode(&buf, img, &webp.Options{Quality: 85}); err != nil {
			return nil, fmt.Errorf("encode webp: %w", err)
		}
	case "gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, fmt.Errorf("encode gif: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return buf.Bytes(), nil
}
