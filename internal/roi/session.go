package roi

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/roipatch/internal/annotation"
	"github.com/nao1215/roipatch/internal/model"
)

// DefaultOverlayExt is the extension of the saved overlay image.
const DefaultOverlayExt = ".png"

var (
	// ErrNoData is returned for a primary click that did not land on the
	// image. The click is ignored.
	ErrNoData = errors.New("click has no image coordinates")

	// ErrInvalidSquareSize is returned when the square size is not positive.
	ErrInvalidSquareSize = errors.New("invalid square size: must be positive")

	// ErrNoCanvas is returned when a session is created without a canvas.
	ErrNoCanvas = errors.New("annotation session requires a canvas")

	// ErrUnknownEvent is returned by Handle for an event kind it does not know.
	ErrUnknownEvent = errors.New("unknown event kind")
)

// Canvas is the display side of an annotation session. It owns the pixels;
// the session only tells it what to show.
type Canvas interface {
	// Redraw replaces whatever is drawn with overlay, drawn in one pass on a
	// clean copy of the image.
	Redraw(overlay model.Overlay)

	// NothingToRemove tells the operator that an undo found no square.
	NothingToRemove()

	// SaveImage persists the image composited with overlay to path.
	SaveImage(path string, overlay model.Overlay) error
}

// EventKind tags a click event.
type EventKind int

const (
	// EventPrimary adds a center (left click).
	EventPrimary EventKind = iota + 1

	// EventSecondary removes the last center (right click).
	EventSecondary
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventPrimary:
		return "primary"
	case EventSecondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// Event is one click delivered by the input collaborator.
type Event struct {
	Kind EventKind

	// Point is the click position in image pixel coordinates.
	Point image.Point

	// HasData is false when the click did not land on the image canvas.
	HasData bool
}

// State is the session state.
type State int

const (
	// StateEditing is the initial state; clicks mutate the store.
	StateEditing State = iota

	// StateSaved means the current store contents are on disk. Further
	// clicks move the session back to StateEditing.
	StateSaved
)

// String returns the state name.
func (s State) String() string {
	if s == StateSaved {
		return "saved"
	}
	return "editing"
}

// SessionOptions configures a Session.
type SessionOptions struct {
	// Bounds are the image bounds; clicks outside them are ignored.
	Bounds image.Rectangle

	// SquareSize is the overlay square side, fixed for the session.
	SquareSize int

	// OutputDir receives the annotation file and the overlay image.
	OutputDir string

	// BaseName is the image file name without extension.
	BaseName string

	// OverlayExt is the overlay image extension. Defaults to ".png".
	OverlayExt string

	// Canvas receives redraw requests. Required.
	Canvas Canvas

	// Store holds the initial centers. A new empty store is used if nil.
	Store *Store

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Session binds one image to one Store and one square size.
type Session struct {
	bounds     image.Rectangle
	squareSize int
	outputDir  string
	baseName   string
	overlayExt string
	canvas     Canvas
	store      *Store
	logger     *slog.Logger
	state      State
	dirty      bool
}

// NewSession creates a session and draws the initial overlay, which is
// empty unless opts.Store was seeded.
func NewSession(opts SessionOptions) (*Session, error) {
	if opts.SquareSize <= 0 {
		return nil, ErrInvalidSquareSize
	}
	if opts.Canvas == nil {
		return nil, ErrNoCanvas
	}

	s := &Session{
		bounds:     opts.Bounds,
		squareSize: opts.SquareSize,
		outputDir:  opts.OutputDir,
		baseName:   opts.BaseName,
		overlayExt: opts.OverlayExt,
		canvas:     opts.Canvas,
		store:      opts.Store,
		logger:     opts.Logger,
		state:      StateEditing,
	}
	if s.overlayExt == "" {
		s.overlayExt = DefaultOverlayExt
	}
	if s.store == nil {
		s.store = NewStore()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.redraw()
	return s, nil
}

// Handle dispatches one event. It is the single entry point used by the
// input loop.
func (s *Session) Handle(ev Event) error {
	switch ev.Kind {
	case EventPrimary:
		if !ev.HasData {
			s.logger.Debug("ignoring click outside the image")
			return ErrNoData
		}
		return s.HandlePrimaryClick(ev.Point)
	case EventSecondary:
		s.HandleSecondaryClick()
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnknownEvent, ev.Kind)
	}
}

// HandlePrimaryClick adds p as a new center and redraws. Points outside the
// image bounds return ErrNoData and change nothing.
func (s *Session) HandlePrimaryClick(p image.Point) error {
	if !p.In(s.bounds) {
		s.logger.Debug("ignoring click outside the image", "x", p.X, "y", p.Y)
		return ErrNoData
	}

	s.store.Add(p)
	s.touch()
	s.logger.Debug("square added", "x", p.X, "y", p.Y, "count", s.store.Len())
	s.redraw()
	return nil
}

// HandleSecondaryClick removes the last center and redraws. It returns
// false, and notifies the canvas, when there was nothing to remove.
func (s *Session) HandleSecondaryClick() bool {
	removed, ok := s.store.RemoveLast()
	if !ok {
		s.logger.Warn("no squares to remove")
		s.canvas.NothingToRemove()
		return false
	}

	s.touch()
	s.logger.Debug("square removed", "x", removed.X, "y", removed.Y, "count", s.store.Len())
	s.redraw()
	return true
}

// Save writes the annotation file and asks the canvas to write the
// composited image next to it. Calling Save again overwrites both files.
func (s *Session) Save() error {
	if s.outputDir != "" {
		if err := os.MkdirAll(s.outputDir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	textPath := s.TextPath()
	if err := annotation.WriteFile(textPath, s.store.List()); err != nil {
		return fmt.Errorf("failed to save centers: %w", err)
	}
	s.logger.Info("centroid data saved", "path", textPath, "count", s.store.Len())

	imagePath := s.ImagePath()
	if err := s.canvas.SaveImage(imagePath, s.Overlay()); err != nil {
		return fmt.Errorf("failed to save annotated image: %w", err)
	}
	s.logger.Info("annotated image saved", "path", imagePath)

	s.state = StateSaved
	s.dirty = false
	return nil
}

// Overlay returns the overlay for the current store contents.
func (s *Session) Overlay() model.Overlay {
	return Render(s.store, s.squareSize)
}

// Centers returns the current centers in insertion order.
func (s *Session) Centers() []image.Point {
	return s.store.List()
}

// State returns the current session state.
func (s *Session) State() State {
	return s.state
}

// Dirty reports whether there are edits that have not been saved.
func (s *Session) Dirty() bool {
	return s.dirty
}

// TextPath returns the annotation file path.
func (s *Session) TextPath() string {
	return filepath.Join(s.outputDir, s.baseName+annotation.FileExt)
}

// ImagePath returns the overlay image path.
func (s *Session) ImagePath() string {
	return filepath.Join(s.outputDir, s.baseName+s.overlayExt)
}

func (s *Session) touch() {
	s.state = StateEditing
	s.dirty = true
}

// redraw always renders from the store so the display cannot drift from it.
func (s *Session) redraw() {
	s.canvas.Redraw(s.Overlay())
}
