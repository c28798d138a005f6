// Package storage persists invocation results so CI and humans can see
// what a check did last time. The store is an audit trail only: nothing in
// discovery or resolution ever reads it back into a decision.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/modcheck-dev/modcheck/internal/invoke"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	operation     TEXT NOT NULL,
	status        TEXT NOT NULL,
	kind          TEXT NOT NULL DEFAULT '',
	message       TEXT NOT NULL DEFAULT '',
	changed_paths TEXT NOT NULL DEFAULT '[]',
	started_at    TIMESTAMP NOT NULL,
	duration_ms   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_runs_operation ON runs(operation, started_at DESC);
`

// History is a SQLite-backed record of past invocations.
type History struct {
	db *sql.DB
}

// Run is one recorded invocation.
type Run struct {
	ID           string
	Operation    string
	Status       invoke.Status
	Kind         invoke.FailureKind
	Message      string
	ChangedPaths []string
	StartedAt    time.Time
	Duration     time.Duration
}

// Open creates or opens the history database at path, creating parent
// directories as needed.
func Open(path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}
	return &History{db: db}, nil
}

// Close releases the underlying database.
func (h *History) Close() error { return h.db.Close() }

// Record persists one result.
func (h *History) Record(ctx context.Context, r *invoke.Result) error {
	paths, err := json.Marshal(r.ChangedPaths)
	if err != nil {
		return fmt.Errorf("encoding changed paths: %w", err)
	}
	_, err = h.db.ExecContext(ctx, `
		INSERT INTO runs (id, operation, status, kind, message, changed_paths, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Operation, string(r.Status), string(r.Kind), r.Message,
		string(paths), r.StartedAt.UTC(), r.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("recording run %s: %w", r.ID, err)
	}
	return nil
}

// Recent returns the most recent runs, newest first. operation narrows to
// one check when non-empty.
func (h *History) Recent(ctx context.Context, operation string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, operation, status, kind, message, changed_paths, started_at, duration_ms
		FROM runs`
	args := []interface{}{}
	if operation != "" {
		query += ` WHERE operation = ?`
		args = append(args, operation)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying run history: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var status, kind, paths string
		var durationMS int64
		if err := rows.Scan(&r.ID, &r.Operation, &status, &kind, &r.Message, &paths, &r.StartedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		r.Status = invoke.Status(status)
		r.Kind = invoke.FailureKind(kind)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		if err := json.Unmarshal([]byte(paths), &r.ChangedPaths); err != nil {
			return nil, fmt.Errorf("decoding changed paths for %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
