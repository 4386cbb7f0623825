package main

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/nao1215/roipatch/internal/imageio"
	"github.com/nao1215/roipatch/internal/model"
)

// imageCanvas is the display side of an annotate session. It keeps the
// latest composited frame in memory and writes it on save.
type imageCanvas struct {
	base       image.Image
	color      color.Color
	thickness  int
	out        io.Writer
	encodeOpts imageio.EncodeOptions

	frame   *image.NRGBA
	redraws int
}

func newImageCanvas(base image.Image, c color.Color, thickness int, out io.Writer) *imageCanvas {
	return &imageCanvas{
		base:       base,
		color:      c,
		thickness:  thickness,
		out:        out,
		encodeOpts: imageio.DefaultEncodeOptions(),
	}
}

// Redraw composites the whole overlay on a clean copy of the base image.
func (c *imageCanvas) Redraw(overlay model.Overlay) {
	c.frame = imageio.Composite(c.base, overlay, c.color, c.thickness)
	c.redraws++
}

// NothingToRemove tells the operator that an undo found no square.
func (c *imageCanvas) NothingToRemove() {
	fmt.Fprintln(c.out, "No squares to remove.")
}

// SaveImage writes the current frame to path. The session redraws after
// every change, so the frame already shows overlay; it is only composited
// here when nothing has been drawn yet.
func (c *imageCanvas) SaveImage(path string, overlay model.Overlay) error {
	if c.frame == nil {
		c.Redraw(overlay)
	}
	return imageio.WriteFile(path, c.frame, c.encodeOpts)
}
