// Package annotation reads and writes ROI center files.
//
// The format is plain UTF-8 text: a fixed header line followed by one
// "x, y" line per center, in the order the centers were added.
//
//	centers (x, y):
//	120, 45
//	300, 610
package annotation

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
)

// Header is the first line of every annotation file.
const Header = "centers (x, y):"

// FileExt is the extension of annotation files.
const FileExt = ".txt"

// ErrFieldCount is wrapped by MalformedRecordError when a line does not
// split into exactly two fields.
var ErrFieldCount = errors.New("expected exactly two comma-separated values")

// MalformedRecordError reports a coordinate line that could not be parsed.
type MalformedRecordError struct {
	// Path is the file the line came from. Empty when decoding plain text.
	Path string

	// Line is the 1-based line number, counting the header as line 1.
	Line int

	// Text is the offending line as read.
	Text string

	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *MalformedRecordError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("malformed record at %s:%d %q: %v", e.Path, e.Line, e.Text, e.Err)
	}
	return fmt.Sprintf("malformed record at line %d %q: %v", e.Line, e.Text, e.Err)
}

// Unwrap returns the underlying cause.
func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// Encode renders centers in the annotation file format.
func Encode(centers []image.Point) string {
	var sb strings.Builder
	sb.WriteString(Header)
	sb.WriteByte('\n')
	for _, c := range centers {
		sb.WriteString(strconv.Itoa(c.X))
		sb.WriteString(", ")
		sb.WriteString(strconv.Itoa(c.Y))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Decode parses annotation text. The first line is always dropped as the
// header, whatever it contains; a file written without a header therefore
// loses its first center. Existing files depend on this, so it is kept.
//
// Every following line must hold two integers separated by a comma,
// surrounding spaces allowed. On the first bad line Decode returns a
// *MalformedRecordError and no centers.
func Decode(text string) ([]image.Point, error) {
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if len(lines) <= 1 {
		return []image.Point{}, nil
	}

	centers := make([]image.Point, 0, len(lines)-1)
	for i, line := range lines[1:] {
		p, err := parseLine(line)
		if err != nil {
			return nil, &MalformedRecordError{
				Line: i + 2,
				Text: line,
				Err:  err,
			}
		}
		centers = append(centers, p)
	}
	return centers, nil
}

// parseLine parses one "x, y" record.
func parseLine(line string) (image.Point, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != 2 {
		return image.Point{}, ErrFieldCount
	}

	x, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return image.Point{}, fmt.Errorf("invalid x: %w", err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return image.Point{}, fmt.Errorf("invalid y: %w", err)
	}
	return image.Pt(x, y), nil
}
