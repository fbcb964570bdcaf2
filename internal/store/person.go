package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/halcom/halcom/internal/schema"
)

// levenshteinThreshold bounds how far a stored name may drift from the
// query before fuzzy search stops considering it a match.
const levenshteinThreshold = 3

// AddPerson inserts a new person.
//
// Name and email are trimmed and the email lowercased before the
// uniqueness check. Returns ErrMissingField if either field is empty
// after trimming, ErrDuplicate if the email is already registered
// (case-insensitively).
func (s *Store) AddPerson(ctx context.Context, name, email string) (*schema.Person, error) {
	p := &schema.Person{Name: name, Email: email}
	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingField, err)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM people WHERE email = ?`, p.Email).Scan(&existing)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: email %s", ErrDuplicate, p.Email)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO people (name, email) VALUES (?, ?)`, p.Name, p.Email)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email %s", ErrDuplicate, p.Email)
		}
		return nil, fmt.Errorf("failed to insert person: %w", err)
	}

	p.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read person id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit person insert: %w", err)
	}

	return p, nil
}

// RemovePerson deletes a person by email. All assignments referencing
// the person go with them in the same statement via the foreign-key
// cascade. Returns ErrPersonNotFound if the email resolves to nobody.
func (s *Store) RemovePerson(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("%w: email", ErrMissingField)
	}

	res, err := s.conn.ExecContext(ctx, `DELETE FROM people WHERE email = ?`, email)
	if err != nil {
		return fmt.Errorf("failed to delete person %s: %w", email, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrPersonNotFound, email)
	}

	return nil
}

// PersonIDByEmail resolves an email to its person identifier.
//
// The match is case-insensitive because stored emails are lowercased at
// insert. An unresolved email returns ErrPersonNotFound, which every
// caller treats as a soft failure rather than a fault.
func (s *Store) PersonIDByEmail(ctx context.Context, email string) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return 0, fmt.Errorf("%w: email", ErrMissingField)
	}

	var id int64
	err := s.conn.QueryRowContext(ctx, `SELECT id FROM people WHERE email = ?`, email).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrPersonNotFound, email)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve email %s: %w", email, err)
	}

	return id, nil
}

// GetPersonByEmail fetches a full person record by email.
func (s *Store) GetPersonByEmail(ctx context.Context, email string) (*schema.Person, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("%w: email", ErrMissingField)
	}

	var p schema.Person
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, name, email FROM people WHERE email = ?`, email).
		Scan(&p.ID, &p.Name, &p.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrPersonNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person %s: %w", email, err)
	}

	return &p, nil
}

// ListPeople returns all people ordered by name.
func (s *Store) ListPeople(ctx context.Context) ([]schema.Person, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, name, email FROM people ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	defer rows.Close()

	var people []schema.Person
	for rows.Next() {
		var p schema.Person
		if err := rows.Scan(&p.ID, &p.Name, &p.Email); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating people: %w", err)
	}

	return people, nil
}

// SearchPeople finds people whose name is within a small edit distance
// of the query. An optional email narrows the candidate set to an exact
// (case-insensitive) match first. Returns ErrMissingField if name is
// empty; an empty result is not an error.
func (s *Store) SearchPeople(ctx context.Context, name, email string) ([]schema.Person, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingField)
	}

	query := `SELECT id, name, email FROM people`
	var args []interface{}
	if email != "" {
		query += ` WHERE email = ?`
		args = append(args, email)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search people: %w", err)
	}
	defer rows.Close()

	var matches []schema.Person
	for rows.Next() {
		var p schema.Person
		if err := rows.Scan(&p.ID, &p.Name, &p.Email); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		candidate := strings.ToLower(strings.TrimSpace(p.Name))
		if levenshtein.ComputeDistance(name, candidate) <= levenshteinThreshold {
			matches = append(matches, p)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating people: %w", err)
	}

	return matches, nil
}
