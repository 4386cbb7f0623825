package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/roipatch/internal/model"
)

// DBFileName is the name of the database file inside the database directory.
const DBFileName = "roipatch.db"

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// HistoryDB stores extract runs in SQLite.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run extract first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	mode := "rw"
	if opts.CreateIfNotExists {
		mode = "rwc"
	}
	dsn := dbPath + "?mode=" + mode + "&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per extract run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		annotation_dir TEXT NOT NULL,
		image_dir TEXT NOT NULL,
		output_dir TEXT NOT NULL,
		crop_size INTEGER NOT NULL,
		concurrency INTEGER NOT NULL,
		extracted INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		cancelled INTEGER NOT NULL DEFAULT 0,
		patches INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- One row per dataset pair of a run
	CREATE TABLE IF NOT EXISTS pairs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		base_name TEXT NOT NULL,
		status TEXT NOT NULL,
		patches INTEGER NOT NULL DEFAULT 0,
		annotation_digest TEXT,
		error TEXT,
		UNIQUE(run_id, base_name)
	);

	CREATE INDEX IF NOT EXISTS idx_pairs_run ON pairs(run_id);
	CREATE INDEX IF NOT EXISTS idx_pairs_digest ON pairs(annotation_digest);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores run and its pairs in one transaction and sets run.ID.
func (hdb *HistoryDB) SaveRun(ctx context.Context, run *model.RunReport) (int64, error) {
	reportJSON, err := json.Marshal(run)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (started_at, finished_at, annotation_dir, image_dir, output_dir,
		crop_size, concurrency, extracted, skipped, failed, cancelled, patches, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.AnnotationDir,
		run.ImageDir,
		run.OutputDir,
		run.CropSize,
		run.Concurrency,
		run.CountByStatus(model.StatusExtracted),
		run.CountByStatus(model.StatusSkipped),
		run.CountByStatus(model.StatusFailed),
		run.CountByStatus(model.StatusCancelled),
		run.TotalPatches(),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	for _, p := range run.Pairs {
		if p == nil {
			continue
		}
		_, err := tx.ExecContext(ctx, `
		INSERT INTO pairs (run_id, base_name, status, patches, annotation_digest, error)
		VALUES (?, ?, ?, ?, ?, ?)
		`, id, p.BaseName, p.Status.String(), p.WrittenPatches(), p.AnnotationDigest, p.ErrorMessage)
		if err != nil {
			return 0, fmt.Errorf("failed to save pair %s: %w", p.BaseName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	run.ID = id
	return id, nil
}

// RunSummary is a row of the runs table without the JSON report.
type RunSummary struct {
	ID            int64
	StartedAt     time.Time
	FinishedAt    time.Time
	AnnotationDir string
	ImageDir      string
	OutputDir     string
	CropSize      int
	Concurrency   int
	Extracted     int
	Skipped       int
	Failed        int
	Cancelled     int
	Patches       int
}

// ListRuns returns the most recent runs, newest first.
// A non-positive limit returns every run.
func (hdb *HistoryDB) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := hdb.db.QueryContext(ctx, `
	SELECT id, started_at, finished_at, annotation_dir, image_dir, output_dir,
		crop_size, concurrency, extracted, skipped, failed, cancelled, patches
	FROM runs
	ORDER BY id DESC
	LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	results := make([]RunSummary, 0)
	for rows.Next() {
		var s RunSummary
		var started, finished string
		if err := rows.Scan(&s.ID, &started, &finished, &s.AnnotationDir, &s.ImageDir, &s.OutputDir,
			&s.CropSize, &s.Concurrency, &s.Extracted, &s.Skipped, &s.Failed, &s.Cancelled, &s.Patches); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		s.StartedAt = parseTimestamp(started)
		s.FinishedAt = parseTimestamp(finished)
		results = append(results, s)
	}
	return results, rows.Err()
}

// PairRecord is a row of the pairs table.
type PairRecord struct {
	RunID            int64
	BaseName         string
	Status           model.PairStatus
	Patches          int
	AnnotationDigest string
	Error            string
}

// GetRunPairs returns the pairs of a run ordered by base name.
// It returns ErrRunNotFound if the run does not exist.
func (hdb *HistoryDB) GetRunPairs(ctx context.Context, runID int64) ([]PairRecord, error) {
	var exists int
	if err := hdb.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE id = ?", runID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to look up run: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, runID)
	}

	rows, err := hdb.db.QueryContext(ctx, `
	SELECT run_id, base_name, status, patches, COALESCE(annotation_digest, ''), COALESCE(error, '')
	FROM pairs
	WHERE run_id = ?
	ORDER BY base_name
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pairs: %w", err)
	}
	defer rows.Close()

	return scanPairs(rows)
}

// GetRunReport returns the full report stored for a run.
func (hdb *HistoryDB) GetRunReport(ctx context.Context, runID int64) (*model.RunReport, error) {
	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, "SELECT report_json FROM runs WHERE id = ?", runID).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run report: %w", err)
	}

	var run model.RunReport
	if err := json.Unmarshal([]byte(reportJSON), &run); err != nil {
		return nil, fmt.Errorf("failed to deserialize report: %w", err)
	}
	run.ID = runID
	return &run, nil
}

// FindPairsByDigest returns every stored pair whose annotation file had the
// given digest, newest run first. It shows where the same annotation file
// was extracted before.
func (hdb *HistoryDB) FindPairsByDigest(ctx context.Context, digest string) ([]PairRecord, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT run_id, base_name, status, patches, COALESCE(annotation_digest, ''), COALESCE(error, '')
	FROM pairs
	WHERE annotation_digest = ?
	ORDER BY run_id DESC, base_name
	`, digest)
	if err != nil {
		return nil, fmt.Errorf("failed to query pairs: %w", err)
	}
	defer rows.Close()

	return scanPairs(rows)
}

func scanPairs(rows *sql.Rows) ([]PairRecord, error) {
	results := make([]PairRecord, 0)
	for rows.Next() {
		var r PairRecord
		var status string
		if err := rows.Scan(&r.RunID, &r.BaseName, &status, &r.Patches, &r.AnnotationDigest, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan pair: %w", err)
		}
		st, err := model.ParsePairStatus(status)
		if err != nil {
			return nil, err
		}
		r.Status = st
		results = append(results, r)
	}
	return results, rows.Err()
}

// timestampFormats contains the timestamp formats that may be stored.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
