package store

import (
	"context"
	"errors"
	"testing"

	"github.com/halcom/halcom/internal/schema"
)

func TestAddTask_ImportanceCoercion(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		importance int
		want       int
	}{
		{"zero coerced to default", 0, 3},
		{"too high coerced to default", 6, 3},
		{"negative coerced to default", -2, 3},
		{"in range kept", 1, 1},
		{"upper bound kept", 5, 5},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag := string(rune('a'+i)) + "-tag"
			task := schema.Task{
				Title:       "Report",
				Description: "quarterly",
				Deadline:    "2024-05-01",
				Tag:         "#" + tag,
				Importance:  tt.importance,
			}
			if err := s.AddTask(ctx, &task); err != nil {
				t.Fatalf("AddTask() failed: %v", err)
			}

			got, err := s.GetTaskByTag(ctx, "#"+tag)
			if err != nil {
				t.Fatalf("GetTaskByTag() failed: %v", err)
			}
			if got.Importance != tt.want {
				t.Errorf("importance = %d, want %d", got.Importance, tt.want)
			}
			if got.Completed {
				t.Error("new task should not be completed")
			}
		})
	}
}

func TestAddTask_MissingFields(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	base := schema.Task{
		Title:       "Report",
		Description: "quarterly",
		Deadline:    "2024-05-01",
		Tag:         "#report01",
		Importance:  3,
	}

	tests := []struct {
		name   string
		mutate func(*schema.Task)
	}{
		{"no title", func(task *schema.Task) { task.Title = "" }},
		{"no description", func(task *schema.Task) { task.Description = " " }},
		{"no deadline", func(task *schema.Task) { task.Deadline = "" }},
		{"no tag", func(task *schema.Task) { task.Tag = "" }},
		{"bad deadline", func(task *schema.Task) { task.Deadline = "soonish" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := base
			tt.mutate(&task)
			err := s.AddTask(ctx, &task)
			if !errors.Is(err, ErrMissingField) {
				t.Errorf("AddTask() error = %v, want ErrMissingField", err)
			}
		})
	}
}

func TestAddTask_DuplicateTag(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	mustAddTask(t, s, schema.Task{
		Title: "First", Description: "one", Deadline: "2024-05-01", Tag: "#shared42",
	})

	task := schema.Task{
		Title: "Second", Description: "two", Deadline: "2024-06-01", Tag: "#shared42",
	}
	if err := s.AddTask(ctx, &task); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("AddTask() error = %v, want ErrDuplicate", err)
	}

	// The original row is untouched.
	got, err := s.GetTaskByTag(ctx, "#shared42")
	if err != nil {
		t.Fatalf("GetTaskByTag() failed: %v", err)
	}
	if got.Title != "First" {
		t.Errorf("title = %q, want %q", got.Title, "First")
	}
}

func TestMarkCompleted_Idempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	mustAddTask(t, s, schema.Task{
		Title: "Report", Description: "quarterly", Deadline: "2024-05-01", Tag: "#report01",
	})

	if err := s.MarkCompleted(ctx, "#report01"); err != nil {
		t.Fatalf("first MarkCompleted() failed: %v", err)
	}
	if err := s.MarkCompleted(ctx, "#report01"); err != nil {
		t.Errorf("second MarkCompleted() failed: %v", err)
	}

	got, err := s.GetTaskByTag(ctx, "#report01")
	if err != nil {
		t.Fatalf("GetTaskByTag() failed: %v", err)
	}
	if !got.Completed {
		t.Error("task should be completed")
	}
}

func TestMarkCompleted_NotFound(t *testing.T) {
	s := testStore(t)

	err := s.MarkCompleted(context.Background(), "#nope")
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("MarkCompleted() error = %v, want ErrTaskNotFound", err)
	}
}

func TestRemoveTask_NotFound(t *testing.T) {
	s := testStore(t)

	err := s.RemoveTask(context.Background(), "#nope")
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("RemoveTask() error = %v, want ErrTaskNotFound", err)
	}
}

func TestListOverdue(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	mustAddTask(t, s, schema.Task{
		Title: "A", Description: "past, open", Deadline: "2024-05-01", Tag: "#a01",
	})
	mustAddTask(t, s, schema.Task{
		Title: "B", Description: "past, done", Deadline: "2024-05-15", Tag: "#b01",
	})
	mustAddTask(t, s, schema.Task{
		Title: "C", Description: "future, open", Deadline: "2024-07-01", Tag: "#c01",
	})
	if err := s.MarkCompleted(ctx, "#b01"); err != nil {
		t.Fatalf("MarkCompleted() failed: %v", err)
	}

	overdue, err := s.ListOverdue(ctx, "2024-06-01")
	if err != nil {
		t.Fatalf("ListOverdue() failed: %v", err)
	}

	if len(overdue) != 1 {
		t.Fatalf("ListOverdue() returned %d tasks, want 1", len(overdue))
	}
	if overdue[0].Title != "A" {
		t.Errorf("overdue task = %q, want A", overdue[0].Title)
	}
}

func TestListOverdue_SortedAscending(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	mustAddTask(t, s, schema.Task{
		Title: "Later", Description: "x", Deadline: "2024-03-01", Tag: "#later1",
	})
	mustAddTask(t, s, schema.Task{
		Title: "Sooner", Description: "x", Deadline: "2024-01-01", Tag: "#sooner1",
	})

	overdue, err := s.ListOverdue(ctx, "2024-06-01")
	if err != nil {
		t.Fatalf("ListOverdue() failed: %v", err)
	}
	if len(overdue) != 2 {
		t.Fatalf("ListOverdue() returned %d tasks, want 2", len(overdue))
	}
	if overdue[0].Title != "Sooner" || overdue[1].Title != "Later" {
		t.Errorf("order = [%s, %s], want [Sooner, Later]", overdue[0].Title, overdue[1].Title)
	}
}

func TestListOverdue_BadDate(t *testing.T) {
	s := testStore(t)

	for _, asOf := range []string{"", "june-ish", "2024/06/01"} {
		if _, err := s.ListOverdue(context.Background(), asOf); !errors.Is(err, ErrMissingField) {
			t.Errorf("ListOverdue(%q) error = %v, want ErrMissingField", asOf, err)
		}
	}
}
