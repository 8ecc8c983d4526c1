package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history: empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas are per connection; a single connection keeps foreign keys on.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// StartRun inserts a running record and returns it.
func (s *Store) StartRun(ctx context.Context, id, outputPath, configPath string, segmentCount int) (*Run, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("start run: empty run id")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, output_path, config_path, segment_count, started_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		id,
		StatusRunning,
		outputPath,
		nullableString(configPath),
		segmentCount,
		formatTime(s.now()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s.Get(ctx, id)
}

// AddDiagnostic attaches a segment load failure to a run.
func (s *Store) AddDiagnostic(ctx context.Context, runID string, segmentIndex int, source, message string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO diagnostics (run_id, segment_index, source, message, created_at) VALUES (?, ?, ?, ?, ?)`,
		runID, segmentIndex, source, message, formatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("insert diagnostic: %w", err)
	}
	return nil
}

// FinishRun stamps the outcome. A nil outcome error marks the run succeeded.
func (s *Store) FinishRun(ctx context.Context, id string, outcome Outcome) error {
	status := StatusSucceeded
	message := ""
	if outcome.Err != nil {
		status = StatusFailed
		message = outcome.Err.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs
         SET status = ?, substituted_count = ?, frame_count = ?, duration_seconds = ?,
             output_bytes = ?, error_kind = ?, error_message = ?, finished_at = ?
         WHERE id = ?`,
		status,
		outcome.SubstitutedCount,
		outcome.FrameCount,
		outcome.DurationSeconds,
		outcome.OutputBytes,
		nullableString(outcome.ErrorKind),
		nullableString(message),
		formatTime(s.now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: unknown run %q", id)
	}
	return nil
}

// Get fetches a run by ID. A missing run returns (nil, nil).
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs first. A limit <= 0 returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Diagnostics returns the load failures recorded for a run, by segment.
func (s *Store) Diagnostics(ctx context.Context, runID string) ([]Diagnostic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, segment_index, source, message, created_at
         FROM diagnostics WHERE run_id = ? ORDER BY segment_index, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list diagnostics: %w", err)
	}
	defer rows.Close()

	var out []Diagnostic
	for rows.Next() {
		var (
			d          Diagnostic
			createdRaw string
		)
		if err := rows.Scan(&d.ID, &d.RunID, &d.SegmentIndex, &d.Source, &d.Message, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			d.CreatedAt = created
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostics: %w", err)
	}
	return out, nil
}

// Prune deletes runs that started before cutoff and returns how many were
// removed. Their diagnostics cascade.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return n, nil
}
