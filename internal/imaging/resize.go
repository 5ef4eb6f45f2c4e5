// Package imaging normalizes uploaded avatar images.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoder
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"

	"github.com/dtroode/accounts-server/internal/model"
)

// DefaultMaxPixels caps the declared dimensions of an upload.
const DefaultMaxPixels = 16_000_000

var (
	// ErrEmptyImage is returned when the upload has no bytes.
	ErrEmptyImage = errors.New("empty image")
	// ErrImageTooLarge is returned when the declared dimensions exceed the pixel limit.
	ErrImageTooLarge = errors.New("image dimensions too large")
)

var _ model.ImageProcessor = (*Resizer)(nil)

// Resizer scales images to a fixed square size.
type Resizer struct {
	size      int
	maxPixels int64
}

// Option configures a Resizer.
type Option func(*Resizer)

// WithMaxPixels sets the largest width*height accepted for decoding.
func WithMaxPixels(n int64) Option {
	return func(r *Resizer) {
		if n > 0 {
			r.maxPixels = n
		}
	}
}

// NewResizer creates a Resizer producing size x size images.
func NewResizer(size int, opts ...Option) *Resizer {
	r := &Resizer{size: size, maxPixels: DefaultMaxPixels}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Normalize decodes reader, scales it and re-encodes it.
// JPEG input stays JPEG; everything else is written as PNG.
func (r *Resizer) Normalize(reader io.Reader) (model.Image, error) {
	raw, err := io.ReadAll(reader)
	if err != nil {
		return model.Image{}, fmt.Errorf("failed to read image: %w", err)
	}
	if len(raw) == 0 {
		return model.Image{}, ErrEmptyImage
	}

	// The header is enough to size the pixel buffer Decode would allocate.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return model.Image{}, fmt.Errorf("failed to decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > r.maxPixels {
		return model.Image{}, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return model.Image{}, fmt.Errorf("failed to decode image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.size, r.size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if format == "jpeg" {
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90}); err != nil {
			return model.Image{}, fmt.Errorf("failed to encode jpeg: %w", err)
		}
		return model.Image{Data: buf.Bytes(), ContentType: "image/jpeg"}, nil
	}

	if err := png.Encode(&buf, dst); err != nil {
		return model.Image{}, fmt.Errorf("failed to encode png: %w", err)
	}
	return model.Image{Data: buf.Bytes(), ContentType: "image/png"}, nil
}
