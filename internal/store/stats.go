package store

import (
	"context"
	"fmt"
	"time"

	"github.com/halcom/halcom/internal/schema"
)

// Stats holds aggregate counts for the dashboard and status commands.
type Stats struct {
	People      int `json:"people"`
	Tasks       int `json:"tasks"`
	Completed   int `json:"completed"`
	Overdue     int `json:"overdue"`
	Assignments int `json:"assignments"`
}

// GetStats computes aggregate counts. Overdue is measured against
// today's date.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	today := time.Now().Format(schema.DeadlineLayout)

	var st Stats
	row := s.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM people),
			(SELECT COUNT(*) FROM tasks),
			(SELECT COUNT(*) FROM tasks WHERE completed = 1),
			(SELECT COUNT(*) FROM tasks WHERE completed = 0 AND deadline < ?),
			(SELECT COUNT(*) FROM task_assignments)`, today)
	if err := row.Scan(&st.People, &st.Tasks, &st.Completed, &st.Overdue, &st.Assignments); err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}

	return &st, nil
}
