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

// ErrRunNotFound is returned when no run matches the requested identifier.
var ErrRunNotFound = errors.New("run not found")

// ErrAmbiguousRun is returned when a run ID prefix matches more than one run.
var ErrAmbiguousRun = errors.New("run id prefix is ambiguous")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store manages the run ledger backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	// Connection-scoped pragmas go in the DSN so every pooled connection gets them.
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file backing the store.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun inserts a run in the running state.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	return s.exec(ctx,
		`INSERT INTO runs (id, project_id, output_dir, status, total, started_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.ProjectID,
		run.OutputDir,
		RunRunning,
		run.Total,
		formatTime(run.StartedAt),
	)
}

// RecordItem stores one screen outcome and its artifacts atomically.
func (s *Store) RecordItem(ctx context.Context, runID string, item Item) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin item tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO items (run_id, position, screen_id, status, title, error_message, duration_ms)
             VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID,
			item.Position,
			item.ScreenID,
			item.Status,
			nullableString(item.Title),
			nullableString(item.ErrorMessage),
			item.Duration.Milliseconds(),
		); err != nil {
			return fmt.Errorf("insert item %s: %w", item.ScreenID, err)
		}

		for _, artifact := range item.Artifacts {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO artifacts (run_id, position, role, path, bytes, sha256, content_type, redirects)
                 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				runID,
				item.Position,
				artifact.Role,
				artifact.Path,
				artifact.Bytes,
				nullableString(artifact.SHA256),
				nullableString(artifact.ContentType),
				artifact.Redirects,
			); err != nil {
				return fmt.Errorf("insert artifact %s/%s: %w", item.ScreenID, artifact.Role, err)
			}
		}
		return tx.Commit()
	})
}

// FinishRun stores the final status and counts of a run.
func (s *Store) FinishRun(ctx context.Context, run Run) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	res, err := s.execResult(ctx,
		`UPDATE runs
         SET status = ?, total = ?, succeeded = ?, failed = ?, skipped = ?,
             error_message = ?, finished_at = ?
         WHERE id = ?`,
		run.Status,
		run.Total,
		run.Succeeded,
		run.Failed,
		run.Skipped,
		nullableString(run.ErrorMessage),
		formatTime(run.FinishedAt),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, run.ID)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first, without their items.
// A non-positive limit returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns a run with its items and artifacts. id may be a unique prefix.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	ctx = ensureContext(ctx)
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrRunNotFound
	}

	resolved, err := s.resolveRunID(ctx, id)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, resolved)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	items, err := s.loadItems(ctx, resolved)
	if err != nil {
		return nil, err
	}
	run.Items = items
	return &run, nil
}

func (s *Store) resolveRunID(ctx context.Context, id string) (string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY id LIMIT 2`,
		id, escapeLike(id)+"%",
	)
	if err != nil {
		return "", fmt.Errorf("resolve run id: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var match string
		if err := rows.Scan(&match); err != nil {
			return "", fmt.Errorf("scan run id: %w", err)
		}
		if match == id {
			return match, nil
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousRun, id)
	}
}

func (s *Store) loadItems(ctx context.Context, runID string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, screen_id, status, title, error_message, duration_ms
         FROM items WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	var items []Item
	for rows.Next() {
		var (
			item     Item
			title    sql.NullString
			errMsg   sql.NullString
			duration int64
		)
		if err := rows.Scan(&item.Position, &item.ScreenID, &item.Status, &title, &errMsg, &duration); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.Title = title.String
		item.ErrorMessage = errMsg.String
		item.Duration = time.Duration(duration) * time.Millisecond
		items = append(items, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	byPosition := make(map[int]int, len(items))
	for i, item := range items {
		byPosition[item.Position] = i
	}
	artifactRows, err := s.db.QueryContext(ctx,
		`SELECT position, role, path, bytes, sha256, content_type, redirects
         FROM artifacts WHERE run_id = ? ORDER BY position, rowid`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer artifactRows.Close()
	for artifactRows.Next() {
		var (
			position    int
			artifact    Artifact
			sum         sql.NullString
			contentType sql.NullString
		)
		if err := artifactRows.Scan(&position, &artifact.Role, &artifact.Path, &artifact.Bytes, &sum, &contentType, &artifact.Redirects); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		artifact.SHA256 = sum.String
		artifact.ContentType = contentType.String
		if idx, ok := byPosition[position]; ok {
			items[idx].Artifacts = append(items[idx].Artifacts, artifact)
		}
	}
	return items, artifactRows.Err()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	_, err := s.execResult(ctx, query, args...)
	return err
}

func (s *Store) execResult(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	})
	return res, err
}
