package roi

import (
	"image"

	"github.com/nao1215/roipatch/internal/model"
)

// Render builds the overlay for every center in store using squares of
// side size. Corners are c - size/2 and c + size/2 with integer division,
// so an odd size loses one pixel on each side relative to the nominal size.
//
// Render is a pure function of the store contents and size. Callers redraw
// the whole overlay on a clean copy of the image after every change.
func Render(store *Store, size int) model.Overlay {
	half := size / 2
	centers := store.List()

	squares := make([]model.Square, len(centers))
	for i, c := range centers {
		squares[i] = model.Square{
			Center:      c,
			TopLeft:     image.Pt(c.X-half, c.Y-half),
			BottomRight: image.Pt(c.X+half, c.Y+half),
		}
	}

	return model.Overlay{
		Size:    size,
		Squares: squares,
	}
}
