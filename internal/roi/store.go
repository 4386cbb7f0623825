package roi

import (
	"image"
	"slices"
)

// Store is the ordered list of ROI centers for one image.
// The only mutations are appending to the end and removing from the end,
// so existing entries are never reordered.
//
// A Store is not safe for concurrent use; the annotation loop handles one
// event at a time.
type Store struct {
	centers []image.Point
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{centers: make([]image.Point, 0)}
}

// NewStoreFrom creates a Store seeded with points in the given order.
// It is used to resume editing an existing annotation file.
func NewStoreFrom(points []image.Point) *Store {
	return &Store{centers: slices.Clone(points)}
}

// Add appends p. Points are not checked against image bounds here; crop
// boxes are clamped at extraction time.
func (s *Store) Add(p image.Point) {
	s.centers = append(s.centers, p)
}

// RemoveLast removes the most recently added center and returns it.
// On an empty store it changes nothing and returns false.
func (s *Store) RemoveLast() (image.Point, bool) {
	if len(s.centers) == 0 {
		return image.Point{}, false
	}
	last := s.centers[len(s.centers)-1]
	s.centers = s.centers[:len(s.centers)-1]
	return last, true
}

// List returns a copy of the centers in insertion order.
func (s *Store) List() []image.Point {
	return slices.Clone(s.centers)
}

// Len returns the number of centers.
func (s *Store) Len() int {
	return len(s.centers)
}
