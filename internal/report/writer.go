package report

import (
	"io"

	"github.com/nao1215/roipatch/internal/model"
)

// Writer defines the interface for run report output.
// Implementations write extraction results in various formats.
type Writer interface {
	// Write outputs the run report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(run *model.RunReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(run *model.RunReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(run)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// reportStatuses lists the final pair statuses in display order.
var reportStatuses = []model.PairStatus{
	model.StatusExtracted,
	model.StatusSkipped,
	model.StatusFailed,
	model.StatusCancelled,
}
