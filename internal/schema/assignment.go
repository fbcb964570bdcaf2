package schema

import (
	"fmt"
	"strings"
)

// Roles a person can hold on a task. The vocabulary is closed; anything
// else is rejected before a row is written.
const (
	RoleSupervisor = "supervisor"
	RoleMember     = "member"
)

// Assignment links one person to one task with a role.
// (person_id, task_id, role) is the natural key; the store enforces it
// with a unique constraint so repeated links are idempotent.
type Assignment struct {
	ID       int64  `json:"id"`
	PersonID int64  `json:"person_id"`
	TaskID   int64  `json:"task_id"`
	Role     string `json:"role"`
}

// NormalizeRole case-folds and trims a role string.
func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// ValidRole reports whether role (already normalized) is in the vocabulary.
func ValidRole(role string) bool {
	return role == RoleSupervisor || role == RoleMember
}

// Validate checks the link precondition: resolved endpoints and a role
// from the closed vocabulary.
func (a *Assignment) Validate() error {
	if a.PersonID == 0 {
		return fmt.Errorf("person_id is required")
	}
	if a.TaskID == 0 {
		return fmt.Errorf("task_id is required")
	}
	if !ValidRole(a.Role) {
		return fmt.Errorf("role must be %q or %q (got %q)", RoleSupervisor, RoleMember, a.Role)
	}
	return nil
}
