package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/roipatch/internal/model"
)

// createTestReport creates a run report with one pair of each outcome.
func createTestReport() *model.RunReport {
	run := model.NewRunReport("/data/ann", "/data/img", "/data/out", 640, 2)
	run.FinishedAt = run.StartedAt.Add(1500 * time.Millisecond)

	ok := model.NewPairReport("img1", "/data/ann/img1.txt", "/data/img/img1.tiff")
	ok.Status = model.StatusExtracted
	ok.Width, ok.Height = 1000, 800
	ok.Centers = []image.Point{{X: 10, Y: 10}, {X: 500, Y: 400}, {X: 5000, Y: 5000}}
	ok.Patches = []model.PatchRecord{
		{Index: 1, Center: image.Pt(10, 10), Name: "img1_patch_1.tiff", Box: image.Rect(0, 0, 330, 330), Clamped: true},
		{Index: 2, Center: image.Pt(500, 400), Name: "img1_patch_2.tiff", Box: image.Rect(180, 80, 820, 720)},
		{Index: 3, Center: image.Pt(5000, 5000), Name: "img1_patch_3.tiff", Clamped: true, Empty: true},
	}

	skipped := model.NewPairReport("img2", "/data/ann/img2.txt", "/data/img/img2.tiff")
	skipped.Fail(model.StatusSkipped, errors.New("failed to load image /data/img/img2.tiff: unexpected EOF"))

	failed := model.NewPairReport("img3", "/data/ann/img3.txt", "/data/img/img3.tiff")
	failed.Fail(model.StatusFailed, errors.New("/data/ann/img3.txt:3: malformed record \"1\""))

	run.Pairs = []*model.PairReport{ok, skipped, failed}
	return run
}

// createCleanReport creates a report where every pair was extracted.
func createCleanReport() *model.RunReport {
	run := model.NewRunReport("ann", "img", "out", 64, 1)
	run.FinishedAt = run.StartedAt.Add(time.Second)

	p := model.NewPairReport("a", "ann/a.txt", "img/a.tiff")
	p.Status = model.StatusExtracted
	p.Centers = []image.Point{{X: 1, Y: 1}}
	p.Patches = []model.PatchRecord{{Index: 1, Name: "a_patch_1.tiff", Box: image.Rect(0, 0, 33, 33), Clamped: true}}
	run.Pairs = []*model.PairReport{p}
	return run
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "ROIPATCH EXTRACTION REPORT") {
			t.Error("expected output to contain header")
		}
		if !strings.Contains(output, "/data/out") {
			t.Error("expected output to contain output directory")
		}
		if !strings.Contains(output, "Duration:    1.5s") {
			t.Errorf("expected duration line, got:\n%s", output)
		}
	})

	t.Run("writes status summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"Extracted:  1", "Skipped:    1", "Failed:     1", "Cancelled:  0", "PATCHES:    2 written"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected %q in output, got:\n%s", want, output)
			}
		}
	})

	t.Run("writes pairs and problems", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[+] img1") {
			t.Error("expected extracted pair marker")
		}
		if !strings.Contains(output, "* img3 (failed)") {
			t.Error("expected failed pair in problems")
		}
		if !strings.Contains(output, "malformed record") {
			t.Error("expected error text in problems")
		}
		if strings.Contains(output, "img1_patch_2.tiff") {
			t.Error("patch names should only be listed in verbose mode")
		}
	})

	t.Run("verbose mode lists patches", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "img1_patch_2.tiff") {
			t.Error("expected patch name in verbose output")
		}
		if !strings.Contains(output, "#3 (5000,5000) outside image, skipped") {
			t.Errorf("expected empty patch line, got:\n%s", output)
		}
		if !strings.Contains(output, "(1000x800)") {
			t.Error("expected image size in verbose output")
		}
	})

	t.Run("handles cancelled run", func(t *testing.T) {
		t.Parallel()

		run := createTestReport()
		run.Cancelled = true

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "cancelled") {
			t.Error("expected cancellation note")
		}
	})

	t.Run("hides problems section for clean run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createCleanReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "PROBLEMS") {
			t.Error("did not expect problems section")
		}
	})

	t.Run("shows empty sections with showEmpty", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithShowEmpty(true))
		if _, err := w.Write(model.NewRunReport("a", "b", "c", 640, 1)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "No pairs processed") {
			t.Error("expected empty pairs section")
		}
		if !strings.Contains(output, "No problems") {
			t.Error("expected empty problems section")
		}
	})

	t.Run("returns bytes written", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("expected %d bytes, got %d", buf.Len(), n)
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs valid JSON with summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got JSONReport
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		want := JSONSummary{Pairs: 3, Extracted: 1, Skipped: 1, Failed: 1, Patches: 2}
		if got.Summary != want {
			t.Errorf("summary = %+v, want %+v", got.Summary, want)
		}
		if len(got.Run.Pairs) != 3 || got.Run.Pairs[2].Status != model.StatusFailed {
			t.Errorf("unexpected pairs %+v", got.Run.Pairs)
		}
		if got.Run.Pairs[1].ErrorMessage == "" {
			t.Error("expected error message to be serialized")
		}
	})

	t.Run("compact output by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createCleanReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Errorf("expected single line output, got:\n%s", buf.String())
		}
	})

	t.Run("pretty print with indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createCleanReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"summary\"") {
			t.Errorf("expected indented output, got:\n%s", buf.String())
		}
	})

	t.Run("uses custom prefix and indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithIndent(">", "\t")).Write(createCleanReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n>\t\"summary\"") {
			t.Errorf("expected custom indentation, got:\n%s", buf.String())
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	write := func(t *testing.T, run *model.RunReport) string {
		t.Helper()
		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return buf.String()
	}

	t.Run("writes header and tables", func(t *testing.T) {
		t.Parallel()

		output := write(t, createTestReport())
		for _, want := range []string{
			"# roipatch Extraction Report",
			"## Summary",
			"## Pairs",
			"`/data/out`",
			"`img1`",
			"1000x800",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected %q in output", want)
			}
		}
	})

	t.Run("includes pie chart", func(t *testing.T) {
		t.Parallel()

		output := write(t, createTestReport())
		if !strings.Contains(output, "pie") {
			t.Error("expected output to contain mermaid pie chart")
		}
	})

	t.Run("warns about failed pairs", func(t *testing.T) {
		t.Parallel()

		output := write(t, createTestReport())
		if !strings.Contains(output, "[!WARNING]") {
			t.Errorf("expected warning alert, got:\n%s", output)
		}
		if !strings.Contains(output, "<details>") {
			t.Error("expected error details")
		}
	})

	t.Run("cautions about cancelled run", func(t *testing.T) {
		t.Parallel()

		run := createTestReport()
		run.Cancelled = true
		output := write(t, run)
		if !strings.Contains(output, "[!CAUTION]") {
			t.Error("expected caution alert")
		}
		if !strings.Contains(output, "Cancelled (partial results)") {
			t.Error("expected cancelled status")
		}
	})

	t.Run("tip for clean run", func(t *testing.T) {
		t.Parallel()

		output := write(t, createCleanReport())
		if !strings.Contains(output, "[!TIP]") {
			t.Error("expected tip alert")
		}
		if !strings.Contains(output, "✅ Complete") {
			t.Error("expected complete status")
		}
	})

	t.Run("handles run without pairs", func(t *testing.T) {
		t.Parallel()

		output := write(t, model.NewRunReport("a", "b", "c", 640, 1))
		if !strings.Contains(output, "No pairs processed.") {
			t.Error("expected empty pairs text")
		}
		if strings.Contains(output, "Pair Status Distribution") {
			t.Error("did not expect pie chart without pairs")
		}
	})
}

// TestMultiWriter tests fan-out to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

		n, err := mw.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text.Len() == 0 || js.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
		if n != text.Len()+js.Len() {
			t.Errorf("expected total %d, got %d", text.Len()+js.Len(), n)
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var after bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(failingOutput{}), NewSimpleWriter(&after))

		if _, err := mw.Write(createTestReport()); err == nil {
			t.Error("expected error")
		}
		if after.Len() != 0 {
			t.Error("expected later writers to be skipped")
		}
	})

	t.Run("handles empty writers list", func(t *testing.T) {
		t.Parallel()

		n, err := NewMultiWriter().Write(createTestReport())
		if err != nil || n != 0 {
			t.Errorf("expected (0, nil), got (%d, %v)", n, err)
		}
	})
}

type failingOutput struct{}

func (failingOutput) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

// TestTruncateString tests string truncation.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 3, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := truncateString(tt.input, tt.maxLen); got != tt.expected {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.expected)
			}
		})
	}
}
