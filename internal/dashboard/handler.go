package dashboard

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/halcom/halcom/internal/store"
)

// Handler turns roster changes into dashboard messages. It keeps the
// last observed roster state and, on every database change, diffs the
// fresh state against it to recover which people, tasks, and
// assignments changed. Writes come from separate halcom processes, so
// the diff is the only way to attribute individual events.
type Handler struct {
	server *Server
	store  *store.Store
	logger *log.Logger
	prev   *rosterState
}

// SnapshotData carries the full roster state, broadcast whenever the
// database file changes on disk.
type SnapshotData struct {
	Stats  *store.Stats       `json:"stats"`
	Tasks  []store.TaskView   `json:"tasks"`
	People []store.PersonView `json:"people"`
}

// assignmentKey identifies one task_assignments row.
type assignmentKey struct {
	Email string
	Tag   string
	Role  string
}

// rosterState is the handler's view of the database at one point in
// time. The order slices preserve query order so diff events come out
// deterministically.
type rosterState struct {
	people      map[string]string // email -> name
	peopleOrder []string
	tasks       map[string]store.TaskView // tag -> view
	taskOrder   []string
	assignments map[assignmentKey]struct{}
	assignOrder []assignmentKey

	views  []store.TaskView
	roster []store.PersonView
}

// NewHandler creates an event handler connected to a dashboard server.
// New clients receive current aggregate counts on connect.
func NewHandler(server *Server, st *store.Store, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}

	h := &Handler{
		server: server,
		store:  st,
		logger: logger,
	}
	server.SetHello(h.helloMessage)
	return h
}

// Prime loads the current roster as the diff baseline without
// broadcasting anything. Call it once before the first change arrives,
// otherwise the first change reports the entire pre-existing roster as
// freshly added.
func (h *Handler) Prime(ctx context.Context) error {
	state, err := h.loadState(ctx)
	if err != nil {
		return err
	}
	h.prev = state
	return nil
}

// OnDatabaseChanged handles a write to the database file. It re-reads
// the roster, emits one update message per changed person, task, and
// assignment, then broadcasts fresh stats and a full snapshot so
// clients never have to reconcile events against stale state.
func (h *Handler) OnDatabaseChanged(ctx context.Context) {
	h.logger.Println("Database changed on disk")

	next, err := h.loadState(ctx)
	if err != nil {
		h.logger.Printf("Failed to load roster: %v", err)
		return
	}

	if h.prev != nil {
		h.emitDiff(h.prev, next)
	}
	h.prev = next

	stats, err := h.store.GetStats(ctx)
	if err != nil {
		h.logger.Printf("Failed to compute stats: %v", err)
		return
	}

	h.broadcastData(MessageTypeStats, stats)
	h.broadcastData(MessageTypeSnapshot, SnapshotData{
		Stats:  stats,
		Tasks:  next.views,
		People: next.roster,
	})
}

// BroadcastStats sends current aggregate counts to all clients
func (h *Handler) BroadcastStats(ctx context.Context) {
	stats, err := h.store.GetStats(ctx)
	if err != nil {
		h.logger.Printf("Failed to compute stats: %v", err)
		return
	}
	h.broadcastData(MessageTypeStats, stats)
}

// loadState reads both projections and indexes them for diffing.
func (h *Handler) loadState(ctx context.Context) (*rosterState, error) {
	views, err := h.store.TasksWithPeople(ctx)
	if err != nil {
		return nil, err
	}
	roster, err := h.store.PeopleWithTasks(ctx)
	if err != nil {
		return nil, err
	}

	state := &rosterState{
		people:      make(map[string]string, len(roster)),
		tasks:       make(map[string]store.TaskView, len(views)),
		assignments: make(map[assignmentKey]struct{}),
		views:       views,
		roster:      roster,
	}

	for _, p := range roster {
		state.people[p.Email] = p.Name
		state.peopleOrder = append(state.peopleOrder, p.Email)
		for _, pt := range p.Tasks {
			key := assignmentKey{Email: p.Email, Tag: pt.Tag, Role: pt.Role}
			state.assignments[key] = struct{}{}
			state.assignOrder = append(state.assignOrder, key)
		}
	}
	for _, v := range views {
		state.tasks[v.Tag] = v
		state.taskOrder = append(state.taskOrder, v.Tag)
	}

	return state, nil
}

// emitDiff compares two roster states and broadcasts one message per
// difference. Removals are reported before additions so a client
// tracking state never sees a duplicate key.
func (h *Handler) emitDiff(prev, next *rosterState) {
	for _, email := range prev.peopleOrder {
		if _, ok := next.people[email]; !ok {
			h.personUpdate(email, "", "removed")
		}
	}
	for _, email := range next.peopleOrder {
		if _, ok := prev.people[email]; !ok {
			h.personUpdate(email, next.people[email], "added")
		}
	}

	for _, tag := range prev.taskOrder {
		if _, ok := next.tasks[tag]; !ok {
			h.taskUpdate(store.TaskView{Tag: tag}, "removed")
		}
	}
	for _, tag := range next.taskOrder {
		cur := next.tasks[tag]
		old, ok := prev.tasks[tag]
		switch {
		case !ok:
			h.taskUpdate(cur, "added")
		case !old.Completed && cur.Completed:
			h.taskUpdate(cur, "completed")
		}
	}

	for _, key := range prev.assignOrder {
		if _, ok := next.assignments[key]; !ok {
			h.assignmentUpdate(key, "unlinked")
		}
	}
	for _, key := range next.assignOrder {
		if _, ok := prev.assignments[key]; !ok {
			h.assignmentUpdate(key, "linked")
		}
	}
}

func (h *Handler) personUpdate(email, name, action string) {
	h.logger.Printf("Person %s: %s", action, email)

	h.broadcastData(MessageTypePersonUpdate, PersonUpdateData{
		Email:  email,
		Name:   name,
		Action: action,
	})
}

func (h *Handler) taskUpdate(v store.TaskView, action string) {
	h.logger.Printf("Task %s: %s", action, v.Tag)

	data := TaskUpdateData{
		Tag:    v.Tag,
		Action: action,
	}
	if action == "added" {
		data.Title = v.Title
		data.Deadline = v.Deadline
		data.Importance = v.Importance
	}
	h.broadcastData(MessageTypeTaskUpdate, data)
}

func (h *Handler) assignmentUpdate(key assignmentKey, action string) {
	h.logger.Printf("Assignment %s: %s on %s as %s", action, key.Email, key.Tag, key.Role)

	data := AssignmentUpdateData{
		Email:  key.Email,
		Tag:    key.Tag,
		Action: action,
	}
	if action == "linked" {
		data.Role = key.Role
	}
	h.broadcastData(MessageTypeAssignmentUpdate, data)
}

// helloMessage builds the per-client greeting sent on connect.
func (h *Handler) helloMessage() (Message, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := h.store.GetStats(ctx)
	if err != nil {
		h.logger.Printf("Failed to compute stats for greeting: %v", err)
		return Message{}, false
	}
	data, err := json.Marshal(stats)
	if err != nil {
		h.logger.Printf("Failed to marshal greeting: %v", err)
		return Message{}, false
	}
	return Message{
		Type:      MessageTypeStats,
		Timestamp: time.Now(),
		Data:      data,
	}, true
}

func (h *Handler) broadcastData(typ MessageType, data interface{}) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal %s data: %v", typ, err)
		return
	}

	h.server.Broadcast(Message{
		Type:      typ,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}
