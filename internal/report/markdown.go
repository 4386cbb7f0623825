package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/roipatch/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run report in Markdown format.
func (w *MarkdownWriter) Write(run *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeSummary(md, run)
	w.writePairs(md, run)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.RunReport) {
	md.H1("roipatch Extraction Report")
	md.PlainText("")

	rows := [][]string{
		{"Annotations", "`" + run.AnnotationDir + "`"},
		{"Images", "`" + run.ImageDir + "`"},
		{"Output", "`" + run.OutputDir + "`"},
		{"Crop Size", strconv.Itoa(run.CropSize)},
		{"Batch", strconv.Itoa(run.Concurrency)},
		{"Started", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Duration", run.Elapsed().Round(time.Millisecond).String()},
		{"Status", w.getStatusText(run)},
	}
	if run.ID != 0 {
		rows = append([][]string{{"Run", "#" + strconv.FormatInt(run.ID, 10)}}, rows...)
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(run *model.RunReport) string {
	switch {
	case run.Cancelled:
		return "⚠️ Cancelled (partial results)"
	case run.HasFailures():
		return "❌ Completed with problems"
	default:
		return "✅ Complete"
	}
}

// writeSummary writes the status summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, run *model.RunReport) {
	md.H2("Summary")
	md.PlainText("")

	title := cases.Title(language.English)
	rows := make([][]string, 0, len(reportStatuses)+1)
	for _, status := range reportStatuses {
		rows = append(rows, []string{title.String(status.String()), strconv.Itoa(run.CountByStatus(status))})
	}
	rows = append(rows, []string{"**Patches**", "**" + strconv.Itoa(run.TotalPatches()) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Status", "Pairs"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(run.Pairs) > 0 {
		w.writePieChart(md, run)
	}
	w.writeAlert(md, run)
}

// writePieChart writes a mermaid pie chart for the status distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, run *model.RunReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Pair Status Distribution"),
		piechart.WithShowData(true),
	)

	title := cases.Title(language.English)
	for _, status := range reportStatuses {
		if n := run.CountByStatus(status); n > 0 {
			chart.LabelAndIntValue(title.String(status.String()), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert that matches the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, run *model.RunReport) {
	failed := run.CountByStatus(model.StatusFailed)
	skipped := run.CountByStatus(model.StatusSkipped)

	switch {
	case run.Cancelled:
		md.Cautionf(
			"Run was cancelled. %d pair(s) were not committed.",
			run.CountByStatus(model.StatusCancelled),
		)
	case failed > 0:
		md.Warningf("%d pair(s) failed. Their patches were not written.", failed)
	case skipped > 0:
		md.Importantf("%d pair(s) were skipped because the image could not be loaded.", skipped)
	case len(run.Pairs) == 0:
		md.Note("No pairs were found.")
	default:
		md.Tip("Every pair was extracted.")
	}
	md.PlainText("")
}

// writePairs writes the per-pair table and error details.
func (w *MarkdownWriter) writePairs(md *markdown.Markdown, run *model.RunReport) {
	md.H2("Pairs")
	md.PlainText("")

	if len(run.Pairs) == 0 {
		md.PlainText("No pairs processed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(run.Pairs))
	for i, p := range run.Pairs {
		size := "-"
		if p.Width > 0 {
			size = fmt.Sprintf("%dx%d", p.Width, p.Height)
		}
		rows[i] = []string{
			"`" + p.BaseName + "`",
			p.Status.String(),
			size,
			strconv.Itoa(len(p.Centers)),
			strconv.Itoa(p.WrittenPatches()),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Pair", "Status", "Size", "Centers", "Patches"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, p := range run.Pairs {
		if p.ErrorMessage != "" {
			md.Details(p.BaseName, truncateString(p.ErrorMessage, 500))
		}
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by roipatch*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
