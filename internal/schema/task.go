package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultImportance is assigned when the extracted importance is missing,
// non-numeric, or outside [MinImportance, MaxImportance]. Noisy extraction
// downgrades to the default instead of rejecting the whole task.
const (
	DefaultImportance = 3
	MinImportance     = 1
	MaxImportance     = 5
)

// DeadlineLayout is the canonical calendar-date format for deadlines.
// It sorts lexicographically, so SQL string comparison and date
// comparison agree.
const DeadlineLayout = "2006-01-02"

// Task is a row in the tasks table.
//
// Tag is the user-facing handle (leading '#', unique). It is produced by
// the tag allocator and must be treated as a candidate until the insert
// succeeds: the unique constraint is the only collision check.
type Task struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Deadline    string `json:"deadline"`
	Tag         string `json:"tag"`
	Importance  int    `json:"importance"`
	Completed   bool   `json:"completed"`
}

// Normalize trims string fields and coerces importance into range.
func (t *Task) Normalize() {
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)
	t.Deadline = strings.TrimSpace(t.Deadline)
	t.Tag = strings.TrimSpace(t.Tag)
	t.Importance = ClampImportance(t.Importance)
}

// Validate checks the AddTask precondition: title, description and
// deadline all present, and the deadline parseable as a calendar date.
func (t *Task) Validate() error {
	if t.Title == "" {
		return fmt.Errorf("title is required")
	}
	if t.Description == "" {
		return fmt.Errorf("description is required")
	}
	if t.Deadline == "" {
		return fmt.Errorf("deadline is required")
	}
	if _, err := time.Parse(DeadlineLayout, t.Deadline); err != nil {
		return fmt.Errorf("deadline must be %s: %q", DeadlineLayout, t.Deadline)
	}
	return nil
}

// ClampImportance returns v if it is within [1,5], the default otherwise.
func ClampImportance(v int) int {
	if v < MinImportance || v > MaxImportance {
		return DefaultImportance
	}
	return v
}

// ParseImportance converts raw extracted text to an importance value,
// falling back to the default on anything that is not an in-range integer.
func ParseImportance(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return DefaultImportance
	}
	return ClampImportance(n)
}
