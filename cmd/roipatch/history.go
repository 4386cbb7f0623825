package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/roipatch/internal/config"
	"github.com/nao1215/roipatch/internal/database"
	"github.com/nao1215/roipatch/internal/report"
)

// defaultHistoryLimit is the number of runs listed without --limit.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previous extract runs",
		Long: `History lists extract runs stored in the history database, newest first.

Examples:
  # List the last 20 runs
  roipatch history

  # Show every pair of run 7
  roipatch history --run 7

  # Same, preceded by the full stored report
  roipatch -v history --run 7

  # Same, as JSON
  roipatch history --run 7 --json

  # Find the runs that used a coordinate file with this SHA3-256 digest
  roipatch history --digest 3a7bd3e2...`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64("run", 0, "Show the full report of one run")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Number of runs to list (0 lists all)")
	cmd.Flags().String("digest", "", "List pairs whose coordinate file had this digest")
	cmd.Flags().BoolP("json", "j", false, "Print the run report as JSON (with --run)")
	cmd.Flags().String("db-dir", "", "History database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	runID, err := cmd.Flags().GetInt64("run")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	digest, err := cmd.Flags().GetString("digest")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case runID != 0:
		return showRun(ctx, out, db, runID, asJSON, getVerboseFlag(cmd))
	case digest != "":
		return showDigest(ctx, out, db, digest)
	default:
		return listRuns(ctx, out, db, limit)
	}
}

// digestPrefixLen is the number of digest characters shown in tables.
const digestPrefixLen = 12

// showRun prints one run. JSON output is the stored report; text output
// is the pair table, preceded by the full stored report when verbose.
func showRun(ctx context.Context, w io.Writer, db *database.HistoryDB, id int64, asJSON, verbose bool) error {
	if asJSON || verbose {
		run, err := db.GetRunReport(ctx, id)
		if err != nil {
			return err
		}
		var rw report.Writer = report.NewSimpleWriter(w, report.WithVerbose(true), report.WithShowEmpty(true))
		if asJSON {
			rw = report.NewJSONWriter(w, report.WithPrettyPrint())
		}
		if _, err := rw.Write(run); err != nil {
			return err
		}
		if asJSON {
			return nil
		}
	}

	pairs, err := db.GetRunPairs(ctx, id)
	if err != nil {
		return err
	}
	writePairTable(w, id, pairs)
	return nil
}

// writePairTable prints the stored pair rows of one run.
func writePairTable(w io.Writer, id int64, pairs []database.PairRecord) {
	fmt.Fprintf(w, "Run #%d: %d pair(s)\n\n", id, len(pairs))
	if len(pairs) == 0 {
		return
	}

	fmt.Fprintf(w, "%-30s %-10s %7s  %s\n", "PAIR", "STATUS", "PATCHES", "DIGEST")
	fmt.Fprintln(w, strings.Repeat("-", 64))
	for _, p := range pairs {
		fmt.Fprintf(w, "%-30s %-10s %7d  %s\n", p.BaseName, p.Status, p.Patches, shortDigest(p.AnnotationDigest))
		if p.Error != "" {
			fmt.Fprintf(w, "    Error: %s\n", p.Error)
		}
	}
}

// shortDigest returns the first characters of a hex digest.
func shortDigest(digest string) string {
	if len(digest) <= digestPrefixLen {
		return digest
	}
	return digest[:digestPrefixLen]
}

// listRuns prints one line per stored run.
func listRuns(ctx context.Context, w io.Writer, db *database.HistoryDB, limit int) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-6s %-19s %9s %7s %6s %9s %7s  %s\n",
		"RUN", "STARTED", "EXTRACTED", "SKIPPED", "FAILED", "CANCELLED", "PATCHES", "OUTPUT")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, r := range runs {
		fmt.Fprintf(w, "%-6d %-19s %9d %7d %6d %9d %7d  %s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime),
			r.Extracted, r.Skipped, r.Failed, r.Cancelled, r.Patches, r.OutputDir)
	}
	return nil
}

// showDigest prints the pairs that used a coordinate file with digest.
func showDigest(ctx context.Context, w io.Writer, db *database.HistoryDB, digest string) error {
	pairs, err := db.FindPairsByDigest(ctx, strings.ToLower(digest))
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		fmt.Fprintln(w, "No pairs found.")
		return nil
	}

	fmt.Fprintf(w, "%-6s %-30s %-10s %7s\n", "RUN", "PAIR", "STATUS", "PATCHES")
	fmt.Fprintln(w, strings.Repeat("-", 56))
	for _, p := range pairs {
		fmt.Fprintf(w, "%-6d %-30s %-10s %7d\n", p.RunID, p.BaseName, p.Status, p.Patches)
	}
	return nil
}
