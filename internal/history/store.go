// Package history keeps a record of past runs in a local SQLite database so
// that runs can be listed, inspected and compared.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	// SQLite driver for the history database.
	_ "modernc.org/sqlite"

	"github.com/leapstack-labs/leapcheck/internal/report"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// DefaultPath is where the history database lives unless configured.
const DefaultPath = ".run-examples/history.db"

// ErrRunNotFound is returned when no run matches an id.
var ErrRunNotFound = errors.New("run not found")

// Fixed-width so that stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is a stored run header.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Adapter    string    `json:"adapter"`
	Database   string    `json:"database"`
	Catalogs   []string  `json:"catalogs,omitempty"`
	Total      int       `json:"total"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
	Errored    int       `json:"errored"`
	ExitCode   int       `json:"exit_code"`
}

// Store is the history database.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating if needed) and migrates the history database at
// path. Use ":memory:" for a throwaway store.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if path == "" {
		path = DefaultPath
	}

	dsn := ":memory:"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create history directory: %w", err)
			}
		}
		dsn = "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if path == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	s := &Store{db: db, path: path, logger: logger}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Debug("history database ready", "path", path)
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.path
}

// RecordRun stores a summary and its outcomes in one transaction. The run
// id is taken from the summary, or generated when empty.
func (s *Store) RecordRun(ctx context.Context, sum report.Summary) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("history database not opened")
	}

	run := &Run{
		ID:         sum.Meta.RunID,
		StartedAt:  sum.Meta.StartedAt.UTC(),
		FinishedAt: sum.Meta.FinishedAt.UTC(),
		Adapter:    sum.Meta.Adapter,
		Database:   sum.Meta.Database,
		Catalogs:   sum.Meta.Catalogs,
		Total:      sum.Total,
		Passed:     sum.Passed,
		Failed:     sum.Failed,
		Errored:    sum.Errored,
		ExitCode:   sum.ExitCode(),
	}
	if run.ID == "" {
		run.ID = report.NewRunID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = run.StartedAt
	}

	catalogs, err := json.Marshal(nonNil(run.Catalogs))
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalogs: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, adapter, database_url, catalogs,
		                  total, passed, failed, errored, exit_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.Format(timeLayout), run.FinishedAt.Format(timeLayout),
		run.Adapter, run.Database, string(catalogs),
		run.Total, run.Passed, run.Failed, run.Errored, run.ExitCode,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO outcomes (run_id, seq, example_id, status, note, error, result_columns, mismatches, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare outcome insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, o := range sum.Outcomes {
		cols, err := json.Marshal(nonNil(o.Columns))
		if err != nil {
			return nil, fmt.Errorf("failed to encode columns of %s: %w", o.ExampleID, err)
		}
		mismatches, err := json.Marshal(nonNilMismatches(o.Mismatches))
		if err != nil {
			return nil, fmt.Errorf("failed to encode mismatches of %s: %w", o.ExampleID, err)
		}
		if _, err := stmt.ExecContext(ctx, run.ID, i, o.ExampleID, string(o.Status), o.Note, o.Error,
			string(cols), string(mismatches), int64(o.Duration)); err != nil {
			return nil, fmt.Errorf("failed to record outcome %s: %w", o.ExampleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit run: %w", err)
	}
	s.logger.Debug("recorded run", slog.String("id", run.ID), slog.Int("outcomes", len(sum.Outcomes)))
	return run, nil
}

const runColumns = `id, started_at, finished_at, adapter, database_url, catalogs, total, passed, failed, errored, exit_code`

// ListRuns returns the most recent runs first. A limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("history database not opened")
	}
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun finds a run by id or by a unique id prefix. "latest" selects the
// most recent run.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("history database not opened")
	}
	if id == "latest" {
		runs, err := s.ListRuns(ctx, 1)
		if err != nil {
			return nil, err
		}
		if len(runs) == 0 {
			return nil, fmt.Errorf("%w: no runs recorded", ErrRunNotFound)
		}
		return runs[0], nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY id LIMIT 2`,
		id, escapeLike(id)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		if run.ID == id {
			return run, nil
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
	}
}

// Outcomes returns a run's outcomes in run order.
func (s *Store) Outcomes(ctx context.Context, runID string) ([]core.ComparisonOutcome, error) {
	if s.db == nil {
		return nil, fmt.Errorf("history database not opened")
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT example_id, status, note, error, result_columns, mismatches, duration_ns
		FROM outcomes WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []core.ComparisonOutcome
	for rows.Next() {
		var (
			o                core.ComparisonOutcome
			status           string
			cols, mismatches string
			duration         int64
		)
		if err := rows.Scan(&o.ExampleID, &status, &o.Note, &o.Error, &cols, &mismatches, &duration); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		if o.Status, err = core.ParseStatus(status); err != nil {
			return nil, fmt.Errorf("outcome %s: %w", o.ExampleID, err)
		}
		if err := json.Unmarshal([]byte(cols), &o.Columns); err != nil {
			return nil, fmt.Errorf("outcome %s: failed to decode columns: %w", o.ExampleID, err)
		}
		if err := json.Unmarshal([]byte(mismatches), &o.Mismatches); err != nil {
			return nil, fmt.Errorf("outcome %s: failed to decode mismatches: %w", o.ExampleID, err)
		}
		if len(o.Columns) == 0 {
			o.Columns = nil
		}
		if len(o.Mismatches) == 0 {
			o.Mismatches = nil
		}
		o.Duration = time.Duration(duration)
		out = append(out, o)
	}
	return out, rows.Err()
}

// Summary rebuilds the report summary of a stored run.
func (s *Store) Summary(ctx context.Context, run *Run) (report.Summary, error) {
	outcomes, err := s.Outcomes(ctx, run.ID)
	if err != nil {
		return report.Summary{}, err
	}
	return report.Build(outcomes, report.Meta{
		RunID:      run.ID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Adapter:    run.Adapter,
		Database:   run.Database,
		Catalogs:   run.Catalogs,
	}), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run               Run
		started, finished string
		catalogs          string
	)
	if err := row.Scan(&run.ID, &started, &finished, &run.Adapter, &run.Database, &catalogs,
		&run.Total, &run.Passed, &run.Failed, &run.Errored, &run.ExitCode); err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	var err error
	if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return nil, fmt.Errorf("run %s: bad started_at: %w", run.ID, err)
	}
	if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return nil, fmt.Errorf("run %s: bad finished_at: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(catalogs), &run.Catalogs); err != nil {
		return nil, fmt.Errorf("run %s: bad catalogs: %w", run.ID, err)
	}
	if len(run.Catalogs) == 0 {
		run.Catalogs = nil
	}
	return &run, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMismatches(m []core.Mismatch) []core.Mismatch {
	if m == nil {
		return []core.Mismatch{}
	}
	return m
}

func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
