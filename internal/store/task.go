package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/halcom/halcom/internal/schema"
)

// AddTask inserts a new task.
//
// Title, description and deadline must all be non-empty after trimming;
// importance is coerced to the default when out of range rather than
// rejected. The tag is the caller's candidate from the allocator:
// AddTask rejects a duplicate with ErrDuplicate and the caller decides
// whether to re-allocate. On success the task's ID is filled in.
func (s *Store) AddTask(ctx context.Context, t *schema.Task) error {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrMissingField, err)
	}
	if t.Tag == "" {
		return fmt.Errorf("%w: tag", ErrMissingField)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM tasks WHERE tag = ?`, t.Tag).Scan(&existing)
	switch {
	case err == nil:
		return fmt.Errorf("%w: tag %s", ErrDuplicate, t.Tag)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("failed to check tag uniqueness: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO tasks (title, description, deadline, tag, importance, completed)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.Title, t.Description, t.Deadline, t.Tag, t.Importance, boolToInt(t.Completed))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: tag %s", ErrDuplicate, t.Tag)
		}
		return fmt.Errorf("failed to insert task: %w", err)
	}

	t.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read task id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit task insert: %w", err)
	}

	return nil
}

// RemoveTask deletes a task by tag, cascading removal of its
// assignments. Returns ErrTaskNotFound if no task carries the tag.
func (s *Store) RemoveTask(ctx context.Context, tag string) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return fmt.Errorf("%w: tag", ErrMissingField)
	}

	res, err := s.conn.ExecContext(ctx, `DELETE FROM tasks WHERE tag = ?`, tag)
	if err != nil {
		return fmt.Errorf("failed to delete task %s: %w", tag, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, tag)
	}

	return nil
}

// MarkCompleted flags a task as done. Idempotent: completing an already
// completed task succeeds with no observable change.
func (s *Store) MarkCompleted(ctx context.Context, tag string) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return fmt.Errorf("%w: tag", ErrMissingField)
	}

	res, err := s.conn.ExecContext(ctx, `UPDATE tasks SET completed = 1 WHERE tag = ?`, tag)
	if err != nil {
		return fmt.Errorf("failed to complete task %s: %w", tag, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, tag)
	}

	return nil
}

// TaskIDByTag resolves a tag to its task identifier.
func (s *Store) TaskIDByTag(ctx context.Context, tag string) (int64, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return 0, fmt.Errorf("%w: tag", ErrMissingField)
	}

	var id int64
	err := s.conn.QueryRowContext(ctx, `SELECT id FROM tasks WHERE tag = ?`, tag).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrTaskNotFound, tag)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve tag %s: %w", tag, err)
	}

	return id, nil
}

// GetTaskByTag fetches a full task record by tag.
func (s *Store) GetTaskByTag(ctx context.Context, tag string) (*schema.Task, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, fmt.Errorf("%w: tag", ErrMissingField)
	}

	row := s.conn.QueryRowContext(ctx, `
		SELECT id, title, description, deadline, tag, importance, completed
		FROM tasks WHERE tag = ?`, tag)

	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, tag)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task %s: %w", tag, err)
	}

	return t, nil
}

// ListOverdue returns incomplete tasks whose deadline falls strictly
// before asOf, ordered by ascending deadline. Deadlines are stored in
// YYYY-MM-DD, which orders lexicographically the same as calendar order.
func (s *Store) ListOverdue(ctx context.Context, asOf string) ([]schema.Task, error) {
	asOf = strings.TrimSpace(asOf)
	if asOf == "" {
		return nil, fmt.Errorf("%w: as-of date", ErrMissingField)
	}
	if _, err := time.Parse(schema.DeadlineLayout, asOf); err != nil {
		return nil, fmt.Errorf("%w: as-of date %q", ErrMissingField, asOf)
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, title, description, deadline, tag, importance, completed
		FROM tasks
		WHERE completed = 0 AND deadline < ?
		ORDER BY deadline ASC, id ASC`, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue tasks: %w", err)
	}
	defer rows.Close()

	var tasks []schema.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row scanner) (*schema.Task, error) {
	var t schema.Task
	var desc sql.NullString
	var completed int
	err := row.Scan(&t.ID, &t.Title, &desc, &t.Deadline, &t.Tag, &t.Importance, &completed)
	if err != nil {
		return nil, err
	}
	t.Description = desc.String
	t.Completed = completed != 0
	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
