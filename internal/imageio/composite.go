package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/nao1215/roipatch/internal/model"
)

// ErrInvalidColor is returned by ParseColor for malformed input.
var ErrInvalidColor = errors.New("invalid color")

// DefaultColor is the outline color of overlay squares (blue).
var DefaultColor = color.NRGBA{R: 0, G: 0, B: 255, A: 255}

// DefaultThickness is the outline width of overlay squares in pixels.
const DefaultThickness = 2

// ParseColor parses "#rrggbb" or "rrggbb".
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil //nolint:gosec // masked by shift
}

// Composite draws every square of overlay on a fresh copy of base.
// base is never modified, so calling Composite again with a smaller
// overlay leaves no trace of removed squares.
func Composite(base image.Image, overlay model.Overlay, c color.Color, thickness int) *image.NRGBA {
	dst := imaging.Clone(base)
	if thickness < 1 {
		thickness = 1
	}
	for _, sq := range overlay.Squares {
		drawSquare(dst, sq.TopLeft, sq.BottomRight, c, thickness)
	}
	return dst
}

// drawSquare outlines the rectangle with corners a and b. The stroke is
// centered on the edge; pixels outside dst are dropped.
func drawSquare(dst draw.Image, a, b image.Point, c color.Color, thickness int) {
	lo := -(thickness / 2)
	hi := lo + thickness - 1
	for d := lo; d <= hi; d++ {
		hLine(dst, a.X+lo, a.Y+d, b.X+hi, c)
		hLine(dst, a.X+lo, b.Y+d, b.X+hi, c)
		vLine(dst, a.X+d, a.Y+lo, b.Y+hi, c)
		vLine(dst, b.X+d, a.Y+lo, b.Y+hi, c)
	}
}

func hLine(img draw.Image, x1, y, x2 int, c color.Color) {
	bounds := img.Bounds()
	if y < bounds.Min.Y || y >= bounds.Max.Y {
		return
	}
	x1 = max(x1, bounds.Min.X)
	x2 = min(x2, bounds.Max.X-1)
	for ; x1 <= x2; x1++ {
		img.Set(x1, y, c)
	}
}

func vLine(img draw.Image, x, y1, y2 int, c color.Color) {
	bounds := img.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X {
		return
	}
	y1 = max(y1, bounds.Min.Y)
	y2 = min(y2, bounds.Max.Y-1)
	for ; y1 <= y2; y1++ {
		img.Set(x, y1, c)
	}
}
