// Package sqlagent implements the one-shot natural-language SQL console.
//
// It has no invariants of its own: introspect the live schema, ask the
// oracle for a single SQLite statement, execute it verbatim, and show
// the result. Anything stateful belongs in the store, not here.
package sqlagent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/halcom/halcom/internal/oracle"
	"github.com/halcom/halcom/internal/store"
)

// Console binds a store to an oracle for NL-to-SQL round trips.
type Console struct {
	store  *store.Store
	oracle oracle.Oracle
}

// New builds a Console.
func New(s *store.Store, o oracle.Oracle) *Console {
	return &Console{store: s, oracle: o}
}

// Result is the outcome of running one statement: either tabular output
// (Headers non-empty) or an affected-row count.
type Result struct {
	Headers  []string
	Rows     [][]string
	Affected int64
}

// SchemaText returns the CREATE TABLE statements of every user table,
// fed to the oracle so generated SQL matches the live schema.
func (c *Console) SchemaText(ctx context.Context) (string, error) {
	rows, err := c.store.RawDB().QueryContext(ctx, `
		SELECT sql FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND sql IS NOT NULL`)
	if err != nil {
		return "", fmt.Errorf("failed to introspect schema: %w", err)
	}
	defer rows.Close()

	var ddls []string
	for rows.Next() {
		var ddl string
		if err := rows.Scan(&ddl); err != nil {
			return "", fmt.Errorf("failed to scan schema row: %w", err)
		}
		ddls = append(ddls, ddl)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("error iterating schema: %w", err)
	}

	return strings.Join(ddls, "\n\n"), nil
}

const generatePrompt = `You are a SQLite expert. Using ONLY the tables and columns below, write ONE
SQLite statement that answers the question.

Rules:
- If inserting into tasks, always include the 'tag' column: lowercase, starting
  with '#', no spaces, based on the title with two digits appended.
  Default importance is 3 and completed is 0.
- If inserting into people, the email value must be non-empty and contain '@'.
- Do not modify column or table names. Use SQLite date functions
  (e.g. DATE('now')) when needed.
- Return ONLY the SQL. No markdown, no backticks, no commentary.

Schema:
%s

Question: %s
SQL:`

var fenceRe = regexp.MustCompile("(?is)^```(?:sql)?\\s*|\\s*```$")

// GenerateSQL asks the oracle for a statement answering the question.
// Markdown fences are stripped and only the first statement is kept;
// the model's output is otherwise executed as-is, which is exactly the
// contract of this console.
func (c *Console) GenerateSQL(ctx context.Context, schemaText, question string) (string, error) {
	raw, err := c.oracle.Complete(ctx, fmt.Sprintf(generatePrompt, schemaText, question))
	if err != nil {
		return "", fmt.Errorf("sql generation failed: %w", err)
	}

	sql := fenceRe.ReplaceAllString(strings.TrimSpace(raw), "")
	sql = strings.TrimSpace(strings.SplitN(sql, ";", 2)[0])
	if sql == "" {
		return "", fmt.Errorf("sql generation returned nothing usable: %q", raw)
	}

	return sql, nil
}

// Run executes one statement against the store. Statements that return
// rows come back as headers+rows; everything else as an affected count.
func (c *Console) Run(ctx context.Context, sqlText string) (*Result, error) {
	if returnsRows(sqlText) {
		return c.runQuery(ctx, sqlText)
	}

	res, err := c.store.RawDB().ExecContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("statement failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return &Result{Affected: affected}, nil
}

func (c *Console) runQuery(ctx context.Context, sqlText string) (*Result, error) {
	rows, err := c.store.RawDB().QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	headers, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	result := &Result{Headers: headers}
	for rows.Next() {
		vals := make([]interface{}, len(headers))
		ptrs := make([]interface{}, len(headers))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make([]string, len(headers))
		for i, v := range vals {
			row[i] = formatValue(v)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// returnsRows reports whether the statement produces a result set.
func returnsRows(sqlText string) bool {
	fields := strings.Fields(sqlText)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH", "PRAGMA", "EXPLAIN", "VALUES":
		return true
	default:
		return false
	}
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
