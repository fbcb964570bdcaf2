package sqlagent

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Render formats a Result for the terminal: a bordered table for row
// output, a plain summary line otherwise.
func Render(r *Result) string {
	if len(r.Headers) == 0 {
		return fmt.Sprintf("%d row(s) affected", r.Affected)
	}
	if len(r.Rows) == 0 {
		return "(no rows)"
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(r.Headers...).
		Rows(r.Rows...)

	return t.Render()
}
