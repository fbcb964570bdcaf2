package store

import (
	"errors"
	"fmt"

	"github.com/ncruces/go-sqlite3"
)

// Sentinel errors for the rejection taxonomy. Callers branch with
// errors.Is; the store never partially mutates state when returning one
// of these.
var (
	// ErrMissingField rejects an operation whose required input was
	// empty, absent, or malformed after trimming. Routine under noisy
	// upstream extraction, so it is a value, not a panic.
	ErrMissingField = errors.New("missing required field")

	// ErrDuplicate rejects an insert that would violate email or tag
	// uniqueness.
	ErrDuplicate = errors.New("duplicate key")

	// ErrNotFound is the base lookup failure. ErrPersonNotFound,
	// ErrTaskNotFound and ErrAssignmentNotFound all match it through
	// errors.Is.
	ErrNotFound = errors.New("not found")

	// ErrInvalidRole rejects a role outside {supervisor, member}.
	ErrInvalidRole = errors.New("invalid role")
)

var (
	ErrPersonNotFound     = fmt.Errorf("person %w", ErrNotFound)
	ErrTaskNotFound       = fmt.Errorf("task %w", ErrNotFound)
	ErrAssignmentNotFound = fmt.Errorf("assignment %w", ErrNotFound)
)

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure. Inserts pre-check inside their transaction, so this only
// fires on races the pre-check could not see.
func isUniqueViolation(err error) bool {
	var serr *sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode() == sqlite3.CONSTRAINT_UNIQUE
	}
	return false
}
