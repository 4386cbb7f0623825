package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/roipatch/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section formatting.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose lists every patch of every pair.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run report in human-readable format.
func (w *SimpleWriter) Write(run *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, run)
	w.writeSummary(&sb, run)
	w.writePairs(&sb, run)
	w.writeProblems(&sb, run)
	w.writeFooter(&sb, run)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, run *model.RunReport) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("ROIPATCH EXTRACTION REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	if run.ID != 0 {
		sb.WriteString(fmt.Sprintf("Run:         #%d\n", run.ID))
	}
	sb.WriteString(fmt.Sprintf("Annotations: %s\n", run.AnnotationDir))
	sb.WriteString(fmt.Sprintf("Images:      %s\n", run.ImageDir))
	sb.WriteString(fmt.Sprintf("Output:      %s\n", run.OutputDir))
	sb.WriteString(fmt.Sprintf("Crop size:   %d\n", run.CropSize))
	sb.WriteString(fmt.Sprintf("Batch:       %d\n", run.Concurrency))
	sb.WriteString(fmt.Sprintf("Started:     %s\n", run.StartedAt.Format(time.RFC3339)))
	if elapsed := run.Elapsed(); elapsed > 0 {
		sb.WriteString(fmt.Sprintf("Duration:    %s\n", elapsed.Round(time.Millisecond)))
	}

	if run.Cancelled {
		sb.WriteString("\n[!] Run was cancelled - results are partial\n")
	}
	sb.WriteString("\n")
}

// writeSummary writes the status summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, run *model.RunReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	title := cases.Title(language.English)
	for _, status := range reportStatuses {
		label := title.String(status.String()) + ":"
		sb.WriteString(fmt.Sprintf("  %-11s %d\n", label, run.CountByStatus(status)))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  PAIRS:      %d\n", len(run.Pairs)))
	sb.WriteString(fmt.Sprintf("  PATCHES:    %d written\n", run.TotalPatches()))
	sb.WriteString("\n")
}

// writePairs writes one line per pair.
func (w *SimpleWriter) writePairs(sb *strings.Builder, run *model.RunReport) {
	if len(run.Pairs) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PAIRS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(run.Pairs) == 0 {
		sb.WriteString("  No pairs processed\n\n")
		return
	}

	for _, pair := range run.Pairs {
		sb.WriteString(fmt.Sprintf("  [%s] %-30s %d patch(es)\n",
			statusIndicator(pair.Status), pair.BaseName, pair.WrittenPatches()))
		if !w.verbose {
			continue
		}
		if pair.Width > 0 {
			sb.WriteString(fmt.Sprintf("      Image: %s (%dx%d)\n", pair.ImagePath, pair.Width, pair.Height))
		}
		for _, p := range pair.Patches {
			switch {
			case p.Empty:
				sb.WriteString(fmt.Sprintf("      #%d (%d,%d) outside image, skipped\n", p.Index, p.Center.X, p.Center.Y))
			case p.Clamped:
				sb.WriteString(fmt.Sprintf("      #%d %s %v clamped\n", p.Index, p.Name, p.Box))
			default:
				sb.WriteString(fmt.Sprintf("      #%d %s %v\n", p.Index, p.Name, p.Box))
			}
		}
	}
	sb.WriteString("\n")
}

// writeProblems lists pairs that did not end as extracted.
func (w *SimpleWriter) writeProblems(sb *strings.Builder, run *model.RunReport) {
	if !run.HasFailures() && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PROBLEMS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if !run.HasFailures() {
		sb.WriteString("  No problems\n\n")
		return
	}

	for _, pair := range run.Pairs {
		if pair.Status == model.StatusExtracted {
			continue
		}
		sb.WriteString(fmt.Sprintf("  * %s (%s)\n", pair.BaseName, pair.Status))
		if pair.ErrorMessage != "" {
			sb.WriteString(fmt.Sprintf("    Error: %s\n", pair.ErrorMessage))
		}
	}
	sb.WriteString("\n")
}

// statusIndicator returns a short marker for a pair status.
func statusIndicator(status model.PairStatus) string {
	switch status {
	case model.StatusExtracted:
		return "+"
	case model.StatusSkipped:
		return "-"
	case model.StatusFailed:
		return "!"
	case model.StatusCancelled:
		return "x"
	default:
		return "?"
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder, _ *model.RunReport) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by roipatch\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
