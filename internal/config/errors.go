package config

import (
	"errors"
	"fmt"
)

// ErrInputSelection is wrapped by every error caused by missing or invalid
// operator input. It is reported before any file is read or written.
var ErrInputSelection = errors.New("invalid input selection")

// Validation errors returned by ValidateAnnotate and ValidateExtract.
// All of them wrap ErrInputSelection.
var (
	// ErrNoImage is returned when annotate has no --image.
	ErrNoImage = fmt.Errorf("%w: no image selected (use --image)", ErrInputSelection)

	// ErrNoOutputDir is returned when no --output directory is given.
	ErrNoOutputDir = fmt.Errorf("%w: no output directory selected (use --output)", ErrInputSelection)

	// ErrInvalidSquareSize is returned when the square size is missing or not positive.
	ErrInvalidSquareSize = fmt.Errorf("%w: square size must be a positive integer (use --size)", ErrInputSelection)

	// ErrInvalidThickness is returned when the outline thickness is not positive.
	ErrInvalidThickness = fmt.Errorf("%w: thickness must be positive", ErrInputSelection)

	// ErrInvalidColor is returned for an overlay color that is not "#rrggbb".
	ErrInvalidColor = fmt.Errorf("%w: invalid overlay color", ErrInputSelection)

	// ErrNoAnnotationDir is returned when extract has no --annotations.
	ErrNoAnnotationDir = fmt.Errorf("%w: no annotation directory selected (use --annotations)", ErrInputSelection)

	// ErrNoImageDir is returned when extract has no --images.
	ErrNoImageDir = fmt.Errorf("%w: no image directory selected (use --images)", ErrInputSelection)

	// ErrDirNotFound is returned when an input directory does not exist.
	ErrDirNotFound = fmt.Errorf("%w: directory not found", ErrInputSelection)

	// ErrNotDirectory is returned when an input directory is a file.
	ErrNotDirectory = fmt.Errorf("%w: not a directory", ErrInputSelection)

	// ErrInvalidCropSize is returned when the crop size is not positive.
	ErrInvalidCropSize = fmt.Errorf("%w: crop size must be positive", ErrInputSelection)

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = fmt.Errorf("%w: batch size must be positive", ErrInputSelection)

	// ErrNoImageExt is returned when no image extension is configured.
	ErrNoImageExt = fmt.Errorf("%w: at least one image extension is required", ErrInputSelection)

	// ErrInvalidCompression is returned for an unknown TIFF compression.
	ErrInvalidCompression = fmt.Errorf("%w: invalid TIFF compression", ErrInputSelection)

	// ErrConflictingReportFormats is returned when both --json and --markdown are set.
	ErrConflictingReportFormats = fmt.Errorf("%w: --json and --markdown cannot be used together", ErrInputSelection)
)
