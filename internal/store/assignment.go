package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/halcom/halcom/internal/schema"
)

// Link assigns a person to a task with a role.
//
// The role is validated first, then both endpoints are resolved inside
// one transaction; a failed resolution leaves no partial row behind.
// (person, task, role) carries a unique constraint, so repeating an
// identical link is a no-op rather than a duplicate row.
func (s *Store) Link(ctx context.Context, email, tag, role string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	tag = strings.TrimSpace(tag)
	if email == "" {
		return fmt.Errorf("%w: email", ErrMissingField)
	}
	if tag == "" {
		return fmt.Errorf("%w: tag", ErrMissingField)
	}

	role = schema.NormalizeRole(role)
	if !schema.ValidRole(role) {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	personID, taskID, err := resolvePair(ctx, tx, email, tag)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO task_assignments (person_id, task_id, role)
		VALUES (?, ?, ?)
		ON CONFLICT (person_id, task_id, role) DO NOTHING`,
		personID, taskID, role)
	if err != nil {
		return fmt.Errorf("failed to link %s to %s: %w", email, tag, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit link: %w", err)
	}

	return nil
}

// Unlink removes the assignment rows matching the resolved
// (person, task) pair, irrespective of role. Returns
// ErrAssignmentNotFound when the pair resolves but holds no assignment.
func (s *Store) Unlink(ctx context.Context, email, tag string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	tag = strings.TrimSpace(tag)
	if email == "" {
		return fmt.Errorf("%w: email", ErrMissingField)
	}
	if tag == "" {
		return fmt.Errorf("%w: tag", ErrMissingField)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	personID, taskID, err := resolvePair(ctx, tx, email, tag)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM task_assignments WHERE person_id = ? AND task_id = ?`,
		personID, taskID)
	if err != nil {
		return fmt.Errorf("failed to unlink %s from %s: %w", email, tag, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s on %s", ErrAssignmentNotFound, email, tag)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit unlink: %w", err)
	}

	return nil
}

// resolvePair looks up both assignment endpoints within the caller's
// transaction. Person resolution is reported before task resolution so
// callers get a single deterministic failure for doubly-bad input.
func resolvePair(ctx context.Context, tx *sql.Tx, email, tag string) (personID, taskID int64, err error) {
	err = tx.QueryRowContext(ctx, `SELECT id FROM people WHERE email = ?`, email).Scan(&personID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, fmt.Errorf("%w: %s", ErrPersonNotFound, email)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to resolve email %s: %w", email, err)
	}

	err = tx.QueryRowContext(ctx, `SELECT id FROM tasks WHERE tag = ?`, tag).Scan(&taskID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, fmt.Errorf("%w: %s", ErrTaskNotFound, tag)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to resolve tag %s: %w", tag, err)
	}

	return personID, taskID, nil
}
