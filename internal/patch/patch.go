// Package patch holds the crop geometry and naming rules for extracted patches.
package patch

import (
	"fmt"
	"image"
)

// DefaultCropSize is the side length of a patch when none is configured.
const DefaultCropSize = 640

// Box describes the crop region of one center.
type Box struct {
	// Rect is the region to crop, already clamped to the image.
	Rect image.Rectangle

	// Clamped reports whether an image edge cut the full square.
	Clamped bool
}

// Empty reports whether the box covers no pixels.
func (b Box) Empty() bool {
	return b.Rect.Empty()
}

// CropBox returns the crop rectangle for center c in a w x h image.
//
// The full box spans c +/- cropSize/2 and is clamped to [0,w] x [0,h].
// A center close to an edge yields a smaller, off-center patch; a center
// entirely outside the image yields an empty rectangle.
func CropBox(c image.Point, cropSize, w, h int) image.Rectangle {
	return Compute(c, cropSize, w, h).Rect
}

// Compute is CropBox with the clamped flag.
func Compute(c image.Point, cropSize, w, h int) Box {
	half := cropSize / 2
	full := image.Rect(c.X-half, c.Y-half, c.X+half, c.Y+half)

	r := image.Rectangle{
		Min: image.Point{X: max(0, full.Min.X), Y: max(0, full.Min.Y)},
		Max: image.Point{X: min(w, full.Max.X), Y: min(h, full.Max.Y)},
	}
	if r.Min.X >= r.Max.X || r.Min.Y >= r.Max.Y {
		return Box{Rect: image.Rectangle{}, Clamped: true}
	}
	return Box{Rect: r, Clamped: r != full}
}

// Name returns the file name of the patch at zero-based index idx,
// e.g. Name("img1", 0, ".tiff") == "img1_patch_1.tiff".
func Name(base string, idx int, ext string) string {
	return fmt.Sprintf("%s_patch_%d%s", base, idx+1, ext)
}
