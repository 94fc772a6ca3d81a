// Package history keeps a journal of installer runs in a SQLite database inside install directory.
// A run left in "running" state means the previous installation was interrupted.
package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// Status of a run
type Status string

// run statuses
const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Dir is the installer state directory name, relative to install directory
const Dir = ".autoinst"

// Run is a single installer invocation
type Run struct {
	ID         int64     `db:"id"`
	StartedAt  time.Time `db:"-"`
	FinishedAt time.Time `db:"-"`
	Version    string    `db:"version"`
	Source     string    `db:"source"`
	Status     Status    `db:"status"`
	Error      string    `db:"error"`

	Started  int64 `db:"started_at"`
	Finished int64 `db:"finished_at"`
}

// Journal stores runs in sqlite
type Journal struct {
	db *sqlx.DB
}

// Path returns journal location for install directory
func Path(installDir string) string {
	return filepath.Join(installDir, Dir, "history.db")
}

// Open makes journal at dbPath, creating parent directory and schema if needed
func Open(ctx context.Context, dbPath string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to make journal directory: %w", err)
	}
	db, err := sqlx.ConnectContext(ctx, "sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	db.SetMaxOpenConns(1)

	schema := `CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at INTEGER NOT NULL,
		finished_at INTEGER DEFAULT 0,
		version TEXT DEFAULT '',
		source TEXT DEFAULT '',
		status TEXT NOT NULL,
		error TEXT DEFAULT ''
	)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to create schema: %w (also failed to close db: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Start records a new running entry and returns its id
func (j *Journal) Start(ctx context.Context, version, source string) (int64, error) {
	res, err := j.db.ExecContext(ctx, `INSERT INTO runs (started_at, version, source, status) VALUES (?, ?, ?, ?)`,
		time.Now().Unix(), version, source, StatusRunning)
	if err != nil {
		return 0, fmt.Errorf("failed to record run start: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}
	return id, nil
}

// Finish marks run as completed with success or failure, depending on runErr
func (j *Journal) Finish(ctx context.Context, id int64, runErr error) error {
	status, msg := StatusSuccess, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}
	res, err := j.db.ExecContext(ctx, `UPDATE runs SET finished_at = ?, status = ?, error = ? WHERE id = ?`,
		time.Now().Unix(), status, msg, id)
	if err != nil {
		return fmt.Errorf("failed to record run %d finish: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %d not found", id)
	}
	return nil
}

// Recent returns up to n last runs, newest first
func (j *Journal) Recent(ctx context.Context, n int) ([]Run, error) {
	runs := []Run{}
	if err := j.db.SelectContext(ctx, &runs, `SELECT id, started_at, finished_at, version, source, status, error
		FROM runs ORDER BY id DESC LIMIT ?`, n); err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	for i := range runs {
		runs[i].convert()
	}
	return runs, nil
}

// Interrupted returns runs which were started and never finished, excluding the given one
func (j *Journal) Interrupted(ctx context.Context, except int64) ([]Run, error) {
	runs := []Run{}
	if err := j.db.SelectContext(ctx, &runs, `SELECT id, started_at, finished_at, version, source, status, error
		FROM runs WHERE status = ? AND id != ? ORDER BY id`, StatusRunning, except); err != nil {
		return nil, fmt.Errorf("failed to query interrupted runs: %w", err)
	}
	for i := range runs {
		runs[i].convert()
	}
	return runs, nil
}

// Close the journal
func (j *Journal) Close() error {
	return j.db.Close()
}

func (r *Run) convert() {
	r.StartedAt = time.Unix(r.Started, 0)
	if r.Finished > 0 {
		r.FinishedAt = time.Unix(r.Finished, 0)
	}
}
