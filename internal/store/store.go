// Package store implements the relational core of halcom: people, tasks,
// and the assignments linking them, persisted in an embedded SQLite
// database.
//
// The database runs in embedded mode using ncruces/go-sqlite3 with WAL
// for concurrent readers. Every operation takes the *Store handle
// explicitly; there is no ambient process-wide connection and no
// hard-coded database path.
//
// Failure taxonomy: operations reject bad input with sentinel errors
// (ErrMissingField, ErrDuplicate, ErrPersonNotFound, ErrTaskNotFound,
// ErrInvalidRole) so callers can branch with errors.Is and phrase their
// own user-facing messages. Anything else is a storage fault surfaced
// as-is.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Store wraps the SQLite connection pool for the halcom database.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates a connection pool for the database at path, creating the
// file and its parent directory if needed.
//
// Pragmas ride on the DSN so every pooled connection gets them:
// foreign_keys must be ON per connection or assignment cascades
// silently stop working.
//
// The caller MUST call Close() when done.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	connStr := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)",
		path,
	)
	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	return &Store{conn: conn, path: path}, nil
}

// Path returns the database file path this store was opened with.
func (s *Store) Path() string {
	return s.path
}

// RawDB returns the underlying sql.DB connection pool.
// Used by the SQL console, which executes arbitrary statements.
func (s *Store) RawDB() *sql.DB {
	return s.conn
}

// Close checkpoints the WAL and closes the connection pool.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.conn = nil
	return nil
}

// InitSchema creates the people/tasks/task_assignments tables if they do
// not exist. Idempotent, safe to call on every startup.
func (s *Store) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS people (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT,
		email TEXT UNIQUE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT,
		deadline TEXT NOT NULL,
		tag TEXT UNIQUE,
		importance INTEGER NOT NULL DEFAULT 3 CHECK (importance BETWEEN 1 AND 5),
		completed INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS task_assignments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		person_id INTEGER NOT NULL,
		task_id INTEGER NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('supervisor', 'member')),
		UNIQUE (person_id, task_id, role),
		FOREIGN KEY (person_id) REFERENCES people(id) ON DELETE CASCADE,
		FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE
	);

	-- Indexes for the overdue filter and cascade lookups
	CREATE INDEX IF NOT EXISTS idx_tasks_deadline ON tasks(deadline);
	CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(completed);
	CREATE INDEX IF NOT EXISTS idx_assignments_person ON task_assignments(person_id);
	CREATE INDEX IF NOT EXISTS idx_assignments_task ON task_assignments(task_id);
	`

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}
