// Package roi implements the annotation side of roipatch: the ordered store
// of ROI centers, the overlay renderer and the click-driven session that
// ties them to one image.
//
// A session never patches its display incrementally. Every add or undo
// re-renders the full overlay from the store and hands it to the Canvas,
// which draws it on a clean copy of the image.
package roi
