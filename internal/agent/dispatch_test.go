package agent

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcom/halcom/internal/oracle"
	"github.com/halcom/halcom/internal/schema"
	"github.com/halcom/halcom/internal/store"
)

// scriptedOracle answers the classifier, the extractors, and the tag
// allocator from fixed strings, keyed on prompt markers.
type scriptedOracle struct {
	intent  string
	fields  string
	tagBase string
}

func (s *scriptedOracle) Complete(ctx context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "Classify the following command"):
		return s.intent, nil
	case strings.Contains(prompt, "Tag base:"):
		return s.tagBase, nil
	default:
		return s.fields, nil
	}
}

var _ oracle.Oracle = (*scriptedOracle)(nil)

func testDispatcher(t *testing.T, o oracle.Oracle) (*Dispatcher, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.InitSchema(context.Background()))
	return New(s, o, nil), s
}

// levels collects the event levels of an outcome for compact asserts.
func levels(out *Outcome) []Level {
	var ls []Level
	for _, e := range out.Events {
		ls = append(ls, e.Level)
	}
	return ls
}

func TestDispatch_AddPerson(t *testing.T) {
	o := &scriptedOracle{
		intent: "add_person",
		fields: `{"name": "John Doe", "email": "John@X.com"}`,
	}
	d, s := testDispatcher(t, o)
	ctx := context.Background()

	out := d.Dispatch(ctx, "Add John Doe with email john@x.com")
	assert.Equal(t, IntentAddPerson, out.Intent)
	require.Len(t, out.Events, 1)
	assert.Equal(t, LevelSuccess, out.Events[0].Level)
	assert.Contains(t, out.Events[0].Text, "John Doe <john@x.com>")

	id, err := s.PersonIDByEmail(ctx, "john@x.com")
	require.NoError(t, err)
	assert.NotZero(t, id)
}

func TestDispatch_AddPerson_Duplicate(t *testing.T) {
	o := &scriptedOracle{
		intent: "add_person",
		fields: `{"name": "John", "email": "john@x.com"}`,
	}
	d, _ := testDispatcher(t, o)
	ctx := context.Background()

	d.Dispatch(ctx, "add john")
	out := d.Dispatch(ctx, "add john again")

	require.Len(t, out.Events, 1)
	assert.Equal(t, LevelWarn, out.Events[0].Level)
	assert.Contains(t, out.Events[0].Text, "already exists")
}

func TestDispatch_AddPerson_MissingEmail(t *testing.T) {
	o := &scriptedOracle{
		intent: "add_person",
		fields: `{"name": "John", "email": ""}`,
	}
	d, _ := testDispatcher(t, o)

	out := d.Dispatch(context.Background(), "add john, no email")
	require.Len(t, out.Events, 1)
	assert.Equal(t, LevelWarn, out.Events[0].Level)
}

func TestDispatch_AddTask_BestEffortLinks(t *testing.T) {
	o := &scriptedOracle{
		intent: "add_task",
		fields: `{"title": "Report", "description": "Q2 report", "deadline": "2024-05-01",
			"supervisor_emails": ["alice@x.com"], "member_emails": ["ghost@x.com"],
			"importance": "abc"}`,
		tagBase: "report",
	}
	d, s := testDispatcher(t, o)
	ctx := context.Background()

	_, err := s.AddPerson(ctx, "Alice", "alice@x.com")
	require.NoError(t, err)

	out := d.Dispatch(ctx, "add report task, alice supervises, ghost helps")

	// Task insert, alice link, ghost warning.
	assert.Equal(t, []Level{LevelSuccess, LevelSuccess, LevelWarn}, levels(out))

	// The unresolvable member did not roll anything back.
	views, err := s.TasksWithPeople(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Report", views[0].Title)
	assert.Equal(t, 3, views[0].Importance) // "abc" coerced to default
	require.Len(t, views[0].People, 1)
	assert.Equal(t, "supervisor", views[0].People[0].Role)
	assert.True(t, strings.HasPrefix(views[0].Tag, "#report"))
}

func TestDispatch_AddTask_TagCollisionRetries(t *testing.T) {
	o := &scriptedOracle{
		intent: "add_task",
		fields: `{"title": "Report", "description": "Q2", "deadline": "2024-05-01",
			"supervisor_emails": [], "member_emails": [], "importance": 3}`,
		tagBase: "report",
	}
	d, s := testDispatcher(t, o)
	ctx := context.Background()

	// Two dispatches with the same title; the allocator's random suffix
	// plus retry keeps the second insert from failing permanently.
	first := d.Dispatch(ctx, "add the report task")
	require.Equal(t, LevelSuccess, first.Events[0].Level)
	second := d.Dispatch(ctx, "add the report task again")
	require.Equal(t, LevelSuccess, second.Events[0].Level)

	views, err := s.TasksWithPeople(ctx)
	require.NoError(t, err)
	assert.Len(t, views, 2)
	assert.NotEqual(t, views[0].Tag, views[1].Tag)
}

func TestDispatch_Link_InvalidRole(t *testing.T) {
	o := &scriptedOracle{
		intent: "add_person_to_task",
		fields: `{"email": "alice@x.com", "tag": "#report01", "role": "admin"}`,
	}
	d, s := testDispatcher(t, o)
	ctx := context.Background()

	_, err := s.AddPerson(ctx, "Alice", "alice@x.com")
	require.NoError(t, err)
	task := schema.Task{Title: "R", Description: "d", Deadline: "2024-05-01", Tag: "#report01"}
	require.NoError(t, s.AddTask(ctx, &task))

	out := d.Dispatch(ctx, "make alice the admin of #report01")
	require.Len(t, out.Events, 1)
	assert.Equal(t, LevelWarn, out.Events[0].Level)
	assert.Contains(t, out.Events[0].Text, "supervisor")
}

func TestDispatch_CompleteTask(t *testing.T) {
	o := &scriptedOracle{
		intent: "complete_task",
		fields: `{"email": "", "tag": "#report01"}`,
	}
	d, s := testDispatcher(t, o)
	ctx := context.Background()

	task := schema.Task{Title: "R", Description: "d", Deadline: "2024-05-01", Tag: "#report01"}
	require.NoError(t, s.AddTask(ctx, &task))

	out := d.Dispatch(ctx, "mark #report01 as done")
	require.Len(t, out.Events, 1)
	assert.Equal(t, LevelSuccess, out.Events[0].Level)

	got, err := s.GetTaskByTag(ctx, "#report01")
	require.NoError(t, err)
	assert.True(t, got.Completed)
}

func TestDispatch_UnknownIntent(t *testing.T) {
	o := &scriptedOracle{intent: "interpretive_dance"}
	d, _ := testDispatcher(t, o)

	out := d.Dispatch(context.Background(), "do a dance")
	assert.Equal(t, IntentOther, out.Intent)
	require.Len(t, out.Events, 1)
	assert.Equal(t, LevelInfo, out.Events[0].Level)
}

func TestDispatch_DisplayTasks(t *testing.T) {
	o := &scriptedOracle{intent: "display_tasks"}
	d, s := testDispatcher(t, o)
	ctx := context.Background()

	task := schema.Task{Title: "R", Description: "d", Deadline: "2024-05-01", Tag: "#report01"}
	require.NoError(t, s.AddTask(ctx, &task))

	out := d.Dispatch(ctx, "show me the tasks")
	require.NotEmpty(t, out.Events)
	joined := ""
	for _, e := range out.Events {
		joined += e.Text + "\n"
	}
	assert.Contains(t, joined, "#report01")
}
