package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/halcom/halcom/internal/schema"
)

// testStore opens a fresh database in a temp dir with the schema applied.
func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.InitSchema(context.Background()); err != nil {
		t.Fatalf("InitSchema() failed: %v", err)
	}
	return s
}

// mustAddPerson is a test fixture helper.
func mustAddPerson(t *testing.T, s *Store, name, email string) *schema.Person {
	t.Helper()
	p, err := s.AddPerson(context.Background(), name, email)
	if err != nil {
		t.Fatalf("AddPerson(%q, %q) failed: %v", name, email, err)
	}
	return p
}

// mustAddTask is a test fixture helper.
func mustAddTask(t *testing.T, s *Store, task schema.Task) *schema.Task {
	t.Helper()
	if err := s.AddTask(context.Background(), &task); err != nil {
		t.Fatalf("AddTask(%+v) failed: %v", task, err)
	}
	return &task
}

func TestOpen_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}
}

func TestInitSchema_CreatesTables(t *testing.T) {
	s := testStore(t)

	for _, table := range []string{"people", "tasks", "task_assignments"} {
		var count int
		query := `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`
		if err := s.conn.QueryRow(query, table).Scan(&count); err != nil {
			t.Fatalf("failed to query table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("table %s does not exist", table)
		}
	}
}

func TestInitSchema_Idempotent(t *testing.T) {
	s := testStore(t)
	if err := s.InitSchema(context.Background()); err != nil {
		t.Errorf("second InitSchema() failed: %v", err)
	}
}

func TestGetStats(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	mustAddPerson(t, s, "Alice", "alice@x.com")
	mustAddPerson(t, s, "Bob", "bob@x.com")
	mustAddTask(t, s, schema.Task{
		Title: "Old", Description: "overdue one", Deadline: "2000-01-01", Tag: "#old01",
	})
	mustAddTask(t, s, schema.Task{
		Title: "Done", Description: "finished one", Deadline: "2000-01-02", Tag: "#done01",
	})
	if err := s.MarkCompleted(ctx, "#done01"); err != nil {
		t.Fatalf("MarkCompleted() failed: %v", err)
	}
	if err := s.Link(ctx, "alice@x.com", "#old01", "supervisor"); err != nil {
		t.Fatalf("Link() failed: %v", err)
	}

	st, err := s.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() failed: %v", err)
	}

	if st.People != 2 {
		t.Errorf("People = %d, want 2", st.People)
	}
	if st.Tasks != 2 {
		t.Errorf("Tasks = %d, want 2", st.Tasks)
	}
	if st.Completed != 1 {
		t.Errorf("Completed = %d, want 1", st.Completed)
	}
	if st.Overdue != 1 {
		t.Errorf("Overdue = %d, want 1", st.Overdue)
	}
	if st.Assignments != 1 {
		t.Errorf("Assignments = %d, want 1", st.Assignments)
	}
}
