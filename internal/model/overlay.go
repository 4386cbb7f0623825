package model

import "image"

// Square is one overlay square drawn around an ROI center.
// TopLeft and BottomRight are both inclusive corners and may lie outside
// the image; the overlay is never clipped.
type Square struct {
	Center      image.Point `json:"center"`
	TopLeft     image.Point `json:"top_left"`
	BottomRight image.Point `json:"bottom_right"`
}

// Overlay is the full set of squares for one annotation session.
// It is derived data: it is rebuilt from the coordinate store on every
// change and never edited in place.
type Overlay struct {
	// Size is the side length used for every square.
	Size int `json:"size"`

	// Squares holds one square per ROI center, in store order.
	Squares []Square `json:"squares"`
}

// Len returns the number of squares in the overlay.
func (o Overlay) Len() int {
	return len(o.Squares)
}
