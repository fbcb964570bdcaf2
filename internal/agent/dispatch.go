package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/halcom/halcom/internal/oracle"
	"github.com/halcom/halcom/internal/schema"
	"github.com/halcom/halcom/internal/store"
	"github.com/halcom/halcom/internal/tag"
)

// tagAttempts bounds re-allocation when a candidate tag collides with
// an existing one.
const tagAttempts = 3

// Level classifies an outcome event for presentation.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarn
	LevelError
)

// Event is one user-facing line produced by a dispatch.
type Event struct {
	Level Level
	Text  string
}

// Outcome is everything a dispatch produced: the classified intent and
// the status lines to show. Rejections are events, not errors; a
// failed link is routine, not exceptional.
type Outcome struct {
	Intent Intent
	Events []Event
}

func (o *Outcome) add(level Level, format string, args ...interface{}) {
	o.Events = append(o.Events, Event{Level: level, Text: fmt.Sprintf(format, args...)})
}

// Dispatcher routes free text through classification and extraction to
// the store.
type Dispatcher struct {
	store  *store.Store
	oracle oracle.Oracle
	tags   *tag.Allocator
	logger *log.Logger
}

// New builds a Dispatcher. A nil logger discards.
func New(s *store.Store, o oracle.Oracle, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Dispatcher{
		store:  s,
		oracle: o,
		tags:   tag.New(o),
		logger: logger,
	}
}

// Dispatch classifies the input and applies it to the store. Every
// failure mode surfaces as events; the method itself never panics on
// bad model output.
func (d *Dispatcher) Dispatch(ctx context.Context, input string) *Outcome {
	intent := Classify(ctx, d.oracle, input)
	d.logger.Printf("intent=%s input=%q", intent, input)

	out := &Outcome{Intent: intent}
	switch intent {
	case IntentAddPerson:
		d.addPerson(ctx, input, out)
	case IntentAddTask:
		d.addTask(ctx, input, out)
	case IntentRemovePerson:
		d.removePerson(ctx, input, out)
	case IntentRemoveTask:
		d.removeTask(ctx, input, out)
	case IntentCompleteTask:
		d.completeTask(ctx, input, out)
	case IntentAddPersonToTask:
		d.link(ctx, input, out)
	case IntentRemovePersonFromTask:
		d.unlink(ctx, input, out)
	case IntentDisplayTasks:
		d.displayTasks(ctx, out)
	case IntentDisplayPeople:
		d.displayPeople(ctx, out)
	case IntentShowOverdue:
		d.showOverdue(ctx, out)
	default:
		out.add(LevelInfo, "I'm not sure what you're asking. Please rephrase.")
	}

	return out
}

func (d *Dispatcher) addPerson(ctx context.Context, input string, out *Outcome) {
	f, err := ExtractPerson(ctx, d.oracle, input)
	if err != nil {
		out.add(LevelError, "Could not understand the person details: %v", err)
		return
	}

	p, err := d.store.AddPerson(ctx, f.Name, f.Email)
	if err != nil {
		out.add(LevelWarn, "Failed to add person: %s", rejectionText(err))
		return
	}
	out.add(LevelSuccess, "Person added: %s", p.Display())
}

func (d *Dispatcher) addTask(ctx context.Context, input string, out *Outcome) {
	f, err := ExtractTask(ctx, d.oracle, input)
	if err != nil {
		out.add(LevelError, "Could not understand the task details: %v", err)
		return
	}

	task := schema.Task{
		Title:       f.Title,
		Description: f.Description,
		Deadline:    f.Deadline,
		Importance:  f.ImportanceValue(),
	}

	// The allocator's output is a candidate; on a tag collision,
	// allocate again rather than failing the whole command.
	var addErr error
	for attempt := 0; attempt < tagAttempts; attempt++ {
		task.Tag = d.tags.Allocate(ctx, task.Title)
		addErr = d.store.AddTask(ctx, &task)
		if addErr == nil || !errors.Is(addErr, store.ErrDuplicate) {
			break
		}
		d.logger.Printf("tag collision on %s, re-allocating", task.Tag)
	}
	if addErr != nil {
		out.add(LevelWarn, "Failed to add task: %s", rejectionText(addErr))
		return
	}
	out.add(LevelSuccess, "Task added: %s (Tag: %s)", task.Title, task.Tag)

	// Best effort per collaborator: one unresolvable email must not
	// roll back the task or the other links.
	d.linkAll(ctx, f.SupervisorEmails, task.Tag, schema.RoleSupervisor, out)
	d.linkAll(ctx, f.MemberEmails, task.Tag, schema.RoleMember, out)
}

func (d *Dispatcher) linkAll(ctx context.Context, emails []string, tag, role string, out *Outcome) {
	for _, email := range emails {
		if err := d.store.Link(ctx, email, tag, role); err != nil {
			out.add(LevelWarn, "Skipped %s %s: %s", role, email, rejectionText(err))
			continue
		}
		out.add(LevelSuccess, "Assigned %s %s to %s", role, email, tag)
	}
}

func (d *Dispatcher) removePerson(ctx context.Context, input string, out *Outcome) {
	f, err := ExtractPerson(ctx, d.oracle, input)
	if err != nil {
		out.add(LevelError, "Could not understand which person to remove: %v", err)
		return
	}

	if err := d.store.RemovePerson(ctx, f.Email); err != nil {
		out.add(LevelWarn, "Failed to remove person: %s", rejectionText(err))
		return
	}
	out.add(LevelSuccess, "Removed person %s and their assignments", f.Email)
}

func (d *Dispatcher) removeTask(ctx context.Context, input string, out *Outcome) {
	f, err := ExtractRemoval(ctx, d.oracle, input)
	if err != nil {
		out.add(LevelError, "Could not understand which task to remove: %v", err)
		return
	}

	if err := d.store.RemoveTask(ctx, f.Tag); err != nil {
		out.add(LevelWarn, "Failed to remove task: %s", rejectionText(err))
		return
	}
	out.add(LevelSuccess, "Removed task %s and its assignments", f.Tag)
}

func (d *Dispatcher) completeTask(ctx context.Context, input string, out *Outcome) {
	f, err := ExtractRemoval(ctx, d.oracle, input)
	if err != nil {
		out.add(LevelError, "Could not understand which task to complete: %v", err)
		return
	}

	if err := d.store.MarkCompleted(ctx, f.Tag); err != nil {
		out.add(LevelWarn, "Failed to complete task: %s", rejectionText(err))
		return
	}
	out.add(LevelSuccess, "Marked %s as done", f.Tag)
}

func (d *Dispatcher) link(ctx context.Context, input string, out *Outcome) {
	f, err := ExtractAssignment(ctx, d.oracle, input)
	if err != nil {
		out.add(LevelError, "Could not understand the assignment: %v", err)
		return
	}

	if err := d.store.Link(ctx, f.Email, f.Tag, f.Role); err != nil {
		out.add(LevelWarn, "Failed to assign %s to %s: %s", f.Email, f.Tag, rejectionText(err))
		return
	}
	out.add(LevelSuccess, "Added %s with email %s to task %s", f.Role, f.Email, f.Tag)
}

func (d *Dispatcher) unlink(ctx context.Context, input string, out *Outcome) {
	f, err := ExtractRemoval(ctx, d.oracle, input)
	if err != nil {
		out.add(LevelError, "Could not understand the removal: %v", err)
		return
	}

	if err := d.store.Unlink(ctx, f.Email, f.Tag); err != nil {
		out.add(LevelWarn, "Failed to remove %s from %s: %s", f.Email, f.Tag, rejectionText(err))
		return
	}
	out.add(LevelSuccess, "Removed %s from task %s", f.Email, f.Tag)
}

func (d *Dispatcher) displayTasks(ctx context.Context, out *Outcome) {
	views, err := d.store.TasksWithPeople(ctx)
	if err != nil {
		out.add(LevelError, "Failed to load tasks: %v", err)
		return
	}
	if len(views) == 0 {
		out.add(LevelInfo, "No tasks yet.")
		return
	}

	out.add(LevelInfo, "Current tasks:")
	for _, v := range views {
		status := ""
		if v.Completed {
			status = " [done]"
		}
		out.add(LevelInfo, "** %s (%s) importance %d%s: %s", v.Title, v.Tag, v.Importance, status, v.Description)
		for _, p := range v.People {
			out.add(LevelInfo, "   - %s (%s)", p.Display, p.Role)
		}
	}
}

func (d *Dispatcher) displayPeople(ctx context.Context, out *Outcome) {
	views, err := d.store.PeopleWithTasks(ctx)
	if err != nil {
		out.add(LevelError, "Failed to load people: %v", err)
		return
	}
	if len(views) == 0 {
		out.add(LevelInfo, "No people yet.")
		return
	}

	out.add(LevelInfo, "Current people:")
	for _, v := range views {
		out.add(LevelInfo, "** %s <%s>", v.Name, v.Email)
		for _, t := range v.Tasks {
			out.add(LevelInfo, "   - %s (Tag: %s, Role: %s)", t.Title, t.Tag, t.Role)
		}
	}
}

func (d *Dispatcher) showOverdue(ctx context.Context, out *Outcome) {
	today := time.Now().Format(schema.DeadlineLayout)
	tasks, err := d.store.ListOverdue(ctx, today)
	if err != nil {
		out.add(LevelError, "Failed to load overdue tasks: %v", err)
		return
	}
	if len(tasks) == 0 {
		out.add(LevelInfo, "Nothing overdue.")
		return
	}

	out.add(LevelInfo, "Overdue as of %s:", today)
	for _, t := range tasks {
		out.add(LevelWarn, "** %s (%s) was due %s", t.Title, t.Tag, t.Deadline)
	}
}

// rejectionText maps the store's failure taxonomy to user phrasing.
func rejectionText(err error) string {
	switch {
	case errors.Is(err, store.ErrMissingField):
		return fmt.Sprintf("a required field is missing (%v)", err)
	case errors.Is(err, store.ErrDuplicate):
		return fmt.Sprintf("already exists (%v)", err)
	case errors.Is(err, store.ErrInvalidRole):
		return "role must be 'supervisor' or 'member'"
	case errors.Is(err, store.ErrPersonNotFound):
		return "no person with that email"
	case errors.Is(err, store.ErrTaskNotFound):
		return "no task with that tag"
	case errors.Is(err, store.ErrAssignmentNotFound):
		return "that person is not on that task"
	default:
		return err.Error()
	}
}
