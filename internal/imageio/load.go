// Package imageio decodes source images, encodes patches and overlays,
// and reads the EXIF tags recorded in run reports.
package imageio

import (
	"bytes"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
)

// ImageLoadError is returned when a source image cannot be read or decoded.
type ImageLoadError struct {
	Path string
	Err  error
}

// Error implements error.
func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("failed to load image %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ImageLoadError) Unwrap() error {
	return e.Err
}

// Source is a decoded image together with the bytes it was decoded from.
type Source struct {
	Path  string
	Data  []byte
	Image image.Image
}

// Width returns the image width in pixels.
func (s *Source) Width() int {
	return s.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (s *Source) Height() int {
	return s.Image.Bounds().Dy()
}

// Load reads and decodes the image at path. Any failure is reported as
// an *ImageLoadError.
func Load(path string) (*Source, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, &ImageLoadError{Path: path, Err: err}
	}

	img, err := Decode(data)
	if err != nil {
		return nil, &ImageLoadError{Path: path, Err: err}
	}
	return &Source{Path: path, Data: data, Image: img}, nil
}

// Decode decodes image bytes in any registered format. The stored pixel
// grid is kept as is; EXIF orientation is not applied.
func Decode(data []byte) (*image.NRGBA, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	// Normalize to an origin-anchored NRGBA so crop coordinates are pixel indices.
	return imaging.Clone(img), nil
}
