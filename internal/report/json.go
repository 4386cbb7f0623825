package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/roipatch/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run report wrapped with summary counters.
func (w *JSONWriter) Write(run *model.RunReport) (int, error) {
	return w.writeJSON(NewJSONReport(run))
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}

// JSONSummary holds the run counters.
type JSONSummary struct {
	Pairs     int `json:"pairs"`
	Extracted int `json:"extracted"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
	Patches   int `json:"patches"`
}

// JSONReport is the document written by JSONWriter.
type JSONReport struct {
	// Summary is the counters for quick access.
	Summary JSONSummary `json:"summary"`

	// Run is the full run report.
	Run *model.RunReport `json:"run"`
}

// NewJSONReport builds the JSON document for run.
func NewJSONReport(run *model.RunReport) *JSONReport {
	return &JSONReport{
		Summary: JSONSummary{
			Pairs:     len(run.Pairs),
			Extracted: run.CountByStatus(model.StatusExtracted),
			Skipped:   run.CountByStatus(model.StatusSkipped),
			Failed:    run.CountByStatus(model.StatusFailed),
			Cancelled: run.CountByStatus(model.StatusCancelled),
			Patches:   run.TotalPatches(),
		},
		Run: run,
	}
}
