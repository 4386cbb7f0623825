package imageio

import (
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/tiff"

	"github.com/nao1215/roipatch/internal/fsutil"
)

// ErrUnsupportedCompression is returned for an unknown TIFF compression name.
var ErrUnsupportedCompression = errors.New("unsupported TIFF compression")

// Compression names accepted by ParseCompression.
const (
	CompressionNone    = "none"
	CompressionDeflate = "deflate"
)

// EncodeOptions controls how images are written.
type EncodeOptions struct {
	// TIFFCompression applies to .tif and .tiff outputs only.
	TIFFCompression tiff.CompressionType
}

// DefaultEncodeOptions returns options using deflate for TIFF.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{TIFFCompression: tiff.Deflate}
}

// ParseCompression maps a configuration value to a TIFF compression type.
func ParseCompression(name string) (tiff.CompressionType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", CompressionDeflate:
		return tiff.Deflate, nil
	case CompressionNone:
		return tiff.Uncompressed, nil
	default:
		return tiff.Uncompressed, fmt.Errorf("%w: %q", ErrUnsupportedCompression, name)
	}
}

// Encode writes img to w in the format implied by ext (".png", ".tiff", ...).
func Encode(w io.Writer, img image.Image, ext string, opts EncodeOptions) error {
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return fmt.Errorf("failed to select encoder for %q: %w", ext, err)
	}

	if format == imaging.TIFF {
		return tiff.Encode(w, img, &tiff.Options{
			Compression: opts.TIFFCompression,
			Predictor:   opts.TIFFCompression == tiff.Deflate,
		})
	}
	return imaging.Encode(w, img, format)
}

// WriteFile encodes img to path, choosing the format from the extension of path.
// The file is replaced atomically.
func WriteFile(path string, img image.Image, opts EncodeOptions) error {
	ext := filepath.Ext(path)
	if err := fsutil.WriteAtomic(path, func(w io.Writer) error {
		return Encode(w, img, ext, opts)
	}); err != nil {
		return fmt.Errorf("failed to write image %s: %w", path, err)
	}
	return nil
}

// Crop returns a copy of the pixels of img inside r.
func Crop(img image.Image, r image.Rectangle) *image.NRGBA {
	return imaging.Crop(img, r)
}
