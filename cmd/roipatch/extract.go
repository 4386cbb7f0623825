package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/roipatch/internal/config"
	"github.com/nao1215/roipatch/internal/database"
	"github.com/nao1215/roipatch/internal/extract"
	"github.com/nao1215/roipatch/internal/model"
	"github.com/nao1215/roipatch/internal/report"
)

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Cut square patches around annotated ROI centers",
		Long: `Extract pairs every coordinate file in --annotations with the image of the
same base name in --images and writes one square patch per center to
--output as <name>_patch_<n><image extension>.

The two directories must contain exactly the same base names; otherwise
nothing is written and both sides of the difference are listed.

A pair whose image cannot be loaded is skipped and a pair with a malformed
coordinate file fails. Both are reported and the run continues. Patches
near the image border are cut short rather than padded.

Examples:
  # Extract 640x640 patches
  roipatch extract --annotations ann --images scans --output patches

  # Smaller patches, four images at a time, Markdown report to a file
  roipatch extract -a ann -i scans -o patches --crop-size 256 -b 4 \
    --markdown --report report.md

  # List the pairs without writing anything
  roipatch extract -a ann -i scans -o patches --dry-run`,
		Args: cobra.NoArgs,
		RunE: runExtractCmd,
	}

	cmd.Flags().StringP("annotations", "a", "", "Directory of coordinate files")
	cmd.Flags().StringP("images", "i", "", "Directory of source images")
	cmd.Flags().StringP("output", "o", "", "Directory for extracted patches")
	cmd.Flags().IntP("crop-size", "s", config.DefaultCropSize, "Side length of each patch in pixels")
	cmd.Flags().StringSlice("image-ext", []string{config.DefaultImageExt},
		"Source image extensions (repeatable, case-insensitive)")
	cmd.Flags().String("annotation-ext", config.DefaultAnnotationExt, "Extension of coordinate files")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize, "Number of image pairs processed concurrently")
	cmd.Flags().String("compression", config.DefaultTIFFCompression, "TIFF patch compression (deflate or none)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("report", "r", "",
		"Write report to specified file path (creates directories if needed)")

	cmd.Flags().Bool("no-history", false, "Do not store this run in the history database")
	cmd.Flags().String("db-dir", "", "History database directory (default: XDG data directory)")
	cmd.Flags().Bool("dry-run", false, "Pair the directories and list the pairs without extracting")

	return cmd
}

// runExtractCmd executes the extract command.
func runExtractCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildExtractConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := setupLogger(cmd, cfg.Verbose)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}

	// Set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var mu sync.Mutex
	progress := func(pair *model.PairReport, done, total int) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] %s: %s\n", done, total, pair.BaseName, pair.Status)
	}
	ex := extract.New(cfg, extract.WithLogger(logger), extract.WithProgress(progress))

	if dryRun {
		return printPlan(cmd.OutOrStdout(), ex)
	}

	run, runErr := ex.Run(ctx)
	if run == nil {
		if runErr != nil {
			return fmt.Errorf("extraction aborted: %w", runErr)
		}
		return nil
	}

	if cfg.SaveHistory {
		// The run is recorded even when cancelled; use a fresh context so the
		// insert is not aborted by the same signal.
		if err := saveRun(context.WithoutCancel(ctx), cfg, run, logger); err != nil {
			logger.Error("failed to save run", "error", err)
		}
	}

	if err := outputReport(cmd.OutOrStdout(), cfg, run); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return runErr
}

// buildExtractConfig creates a Config from the configuration file and
// explicitly set flags.
func buildExtractConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	f := &flagSetter{cmd: cmd}
	f.String("annotations", &cfg.AnnotationDir)
	f.String("images", &cfg.ImageDir)
	f.String("output", &cfg.OutputDir)
	f.Int("crop-size", &cfg.CropSize)
	f.StringSlice("image-ext", &cfg.ImageExts)
	f.String("annotation-ext", &cfg.AnnotationExt)
	f.Int("batch", &cfg.BatchSize)
	f.String("compression", &cfg.TIFFCompression)
	f.Bool("json", &cfg.JSONReport)
	f.Bool("markdown", &cfg.MarkdownReport)
	f.String("report", &cfg.ReportFile)
	f.String("db-dir", &cfg.DBDir)
	if f.err != nil {
		return nil, f.err
	}

	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}
	if noHistory {
		cfg.SaveHistory = false
	}
	return cfg, nil
}

// printPlan lists the pairs a run would process.
func printPlan(w io.Writer, ex *extract.Extractor) error {
	jobs, err := ex.Plan()
	if err != nil {
		return fmt.Errorf("extraction aborted: %w", err)
	}
	for _, job := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", job.Report.BaseName, job.Report.AnnotationPath, job.Report.ImagePath)
	}
	fmt.Fprintf(w, "%d pair(s)\n", len(jobs))
	return nil
}

// saveRun stores run in the history database.
func saveRun(ctx context.Context, cfg *config.Config, run *model.RunReport, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	id, err := db.SaveRun(ctx, run)
	if err != nil {
		return err
	}
	logger.Info("run saved to history", "run", id, "db", db.Path())
	return nil
}

// outputReport writes the run report in the requested format. With a
// report file the report goes to the file and the text report is also
// printed to stdout.
func outputReport(stdout io.Writer, cfg *config.Config, run *model.RunReport) error {
	text := report.NewSimpleWriter(stdout, report.WithVerbose(cfg.Verbose), report.WithShowEmpty(true))
	if cfg.ReportFile == "" {
		_, err := formatWriter(stdout, cfg, text).Write(run)
		return err
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	fileText := report.NewSimpleWriter(f, report.WithVerbose(cfg.Verbose), report.WithShowEmpty(true))
	_, err = report.NewMultiWriter(formatWriter(f, cfg, fileText), text).Write(run)
	return err
}

// formatWriter returns the JSON or Markdown writer selected in cfg, or
// text when neither is.
func formatWriter(output io.Writer, cfg *config.Config, text report.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return text
	}
}
