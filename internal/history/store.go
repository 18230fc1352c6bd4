package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const runColumns = `id, cache_key, book, chapter, status, words, fragments, overrun, underrun,
    mismatched, clamped, audio_seconds, content_hash, error_message, elapsed_ms, request_id, created_at`

// DefaultLimit bounds Recent when the caller passes no limit.
const DefaultLimit = 20

// Store persists alignment runs in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the ledger at path and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts run and returns it with ID and CreatedAt populated.
func (s *Store) Record(ctx context.Context, run Run) (Run, error) {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = StatusSucceeded
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO alignment_runs (
            cache_key, book, chapter, status, words, fragments, overrun, underrun,
            mismatched, clamped, audio_seconds, content_hash, error_message, elapsed_ms, request_id, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Key,
		run.Book,
		run.Chapter,
		run.Status,
		run.Words,
		run.Fragments,
		run.Overrun,
		run.Underrun,
		run.Mismatched,
		run.Clamped,
		run.AudioSeconds,
		nullableString(run.ContentHash),
		nullableString(run.Error),
		run.Elapsed.Milliseconds(),
		nullableString(run.RequestID),
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return run, fmt.Errorf("insert run: %w", err)
	}
	if run.ID, err = res.LastInsertId(); err != nil {
		return run, fmt.Errorf("last insert id: %w", err)
	}
	return run, nil
}

// Recent returns the newest runs first. A non-positive limit uses DefaultLimit.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM alignment_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Latest returns the newest successful run for key.
func (s *Store) Latest(ctx context.Context, key string) (Run, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM alignment_runs WHERE cache_key = ? AND status = ? ORDER BY id DESC LIMIT 1`,
		key, StatusSucceeded,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	return run, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run       Run
		hash      sql.NullString
		errMsg    sql.NullString
		requestID sql.NullString
		elapsedMS int64
		created   string
	)
	err := row.Scan(
		&run.ID, &run.Key, &run.Book, &run.Chapter, &run.Status,
		&run.Words, &run.Fragments, &run.Overrun, &run.Underrun,
		&run.Mismatched, &run.Clamped, &run.AudioSeconds,
		&hash, &errMsg, &elapsedMS, &requestID, &created,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("scan run: %w", err)
	}
	run.ContentHash = hash.String
	run.Error = errMsg.String
	run.RequestID = requestID.String
	run.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	if ts, perr := time.Parse(time.RFC3339Nano, created); perr == nil {
		run.CreatedAt = ts
	}
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
