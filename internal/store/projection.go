package store

import (
	"context"
	"database/sql"
	"fmt"
)

// TaskPerson is one person attached to a task view, rendered for
// display.
type TaskPerson struct {
	Role    string `json:"role"`
	Display string `json:"display"` // "Name <email>"
}

// TaskView is one row of the tasks-with-people projection.
type TaskView struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Tag         string       `json:"tag"`
	Deadline    string       `json:"deadline"`
	Importance  int          `json:"importance"`
	Completed   bool         `json:"completed"`
	People      []TaskPerson `json:"people"`
}

// PersonTask is one task attached to a person view.
type PersonTask struct {
	Title string `json:"title"`
	Tag   string `json:"tag"`
	Role  string `json:"role"`
}

// PersonView is one row of the people-with-tasks projection.
type PersonView struct {
	ID    int64        `json:"id"`
	Name  string       `json:"name"`
	Email string       `json:"email"`
	Tasks []PersonTask `json:"tasks"`
}

// TasksWithPeople builds the denormalized tasks-with-assigned-people
// view. The join runs from the task side, so tasks with no assignments
// appear with an empty people list.
//
// Ordering: importance descending, task id ascending; within a task,
// supervisors before members with name as the tie-break.
func (s *Store) TasksWithPeople(ctx context.Context) ([]TaskView, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT
			t.id, t.title, t.description, t.tag, t.deadline, t.importance, t.completed,
			p.name, p.email, a.role
		FROM tasks t
		LEFT JOIN task_assignments a ON a.task_id = t.id
		LEFT JOIN people p ON p.id = a.person_id
		ORDER BY
			t.importance DESC,
			t.id ASC,
			CASE a.role WHEN 'supervisor' THEN 0 ELSE 1 END,
			p.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks with people: %w", err)
	}
	defer rows.Close()

	var views []TaskView
	for rows.Next() {
		var (
			id                   int64
			title, tag, deadline string
			desc                 sql.NullString
			importance           int
			completed            int
			name, email, rol     sql.NullString
		)
		if err := rows.Scan(&id, &title, &desc, &tag, &deadline, &importance,
			&completed, &name, &email, &rol); err != nil {
			return nil, fmt.Errorf("failed to scan task view row: %w", err)
		}

		// Outer ordering keeps each task's rows contiguous; a new id
		// starts a new group.
		if len(views) == 0 || views[len(views)-1].ID != id {
			views = append(views, TaskView{
				ID:          id,
				Title:       title,
				Description: desc.String,
				Tag:         tag,
				Deadline:    deadline,
				Importance:  importance,
				Completed:   completed != 0,
				People:      []TaskPerson{},
			})
		}

		if rol.Valid {
			v := &views[len(views)-1]
			v.People = append(v.People, TaskPerson{
				Role:    rol.String,
				Display: fmt.Sprintf("%s <%s>", name.String, email.String),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task views: %w", err)
	}

	return views, nil
}

// PeopleWithTasks builds the denormalized people-with-their-tasks view.
// The join runs from the people side, so people with no tasks appear
// with an empty task list.
//
// Ordering: person name ascending, then task title ascending with the
// empty title sorting first.
func (s *Store) PeopleWithTasks(ctx context.Context) ([]PersonView, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT
			p.id, p.name, p.email, t.title, t.tag, a.role
		FROM people p
		LEFT JOIN task_assignments a ON a.person_id = p.id
		LEFT JOIN tasks t ON t.id = a.task_id
		ORDER BY p.name ASC, p.id ASC, COALESCE(t.title, '') ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query people with tasks: %w", err)
	}
	defer rows.Close()

	var views []PersonView
	for rows.Next() {
		var (
			id               int64
			name, email      string
			title, tag, rol  sql.NullString
		)
		if err := rows.Scan(&id, &name, &email, &title, &tag, &rol); err != nil {
			return nil, fmt.Errorf("failed to scan person view row: %w", err)
		}

		if len(views) == 0 || views[len(views)-1].ID != id {
			views = append(views, PersonView{
				ID:    id,
				Name:  name,
				Email: email,
				Tasks: []PersonTask{},
			})
		}

		if title.Valid && tag.Valid {
			v := &views[len(views)-1]
			v.Tasks = append(v.Tasks, PersonTask{
				Title: title.String,
				Tag:   tag.String,
				Role:  rol.String,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating person views: %w", err)
	}

	return views, nil
}
