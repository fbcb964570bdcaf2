package sqlagent

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcom/halcom/internal/oracle"
	"github.com/halcom/halcom/internal/store"
)

func testConsole(t *testing.T, o oracle.Oracle) (*Console, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.InitSchema(context.Background()))
	return New(s, o), s
}

func TestSchemaText(t *testing.T) {
	c, _ := testConsole(t, nil)

	text, err := c.SchemaText(context.Background())
	require.NoError(t, err)

	for _, table := range []string{"people", "tasks", "task_assignments"} {
		assert.Contains(t, text, table)
	}
}

func TestGenerateSQL_StripsFences(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "plain",
			response: "SELECT * FROM people",
			want:     "SELECT * FROM people",
		},
		{
			name:     "fenced",
			response: "```sql\nSELECT * FROM people;\n```",
			want:     "SELECT * FROM people",
		},
		{
			name:     "multiple statements",
			response: "SELECT 1; DROP TABLE people;",
			want:     "SELECT 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := oracle.Func(func(ctx context.Context, prompt string) (string, error) {
				assert.Contains(t, prompt, "CREATE TABLE", "prompt should carry the schema")
				return tt.response, nil
			})
			c, _ := testConsole(t, o)

			schemaText, err := c.SchemaText(context.Background())
			require.NoError(t, err)

			sql, err := c.GenerateSQL(context.Background(), schemaText, "show everyone")
			require.NoError(t, err)
			assert.Equal(t, tt.want, sql)
		})
	}
}

func TestGenerateSQL_EmptyOutput(t *testing.T) {
	o := oracle.Func(func(ctx context.Context, prompt string) (string, error) {
		return "```\n```", nil
	})
	c, _ := testConsole(t, o)

	_, err := c.GenerateSQL(context.Background(), "schema", "question")
	require.Error(t, err)
}

func TestRun_SelectAndExec(t *testing.T) {
	c, s := testConsole(t, nil)
	ctx := context.Background()

	_, err := s.AddPerson(ctx, "Alice", "alice@x.com")
	require.NoError(t, err)

	res, err := c.Run(ctx, "SELECT name, email FROM people")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "email"}, res.Headers)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, []string{"Alice", "alice@x.com"}, res.Rows[0])

	res, err = c.Run(ctx, "DELETE FROM people WHERE email = 'alice@x.com'")
	require.NoError(t, err)
	assert.Empty(t, res.Headers)
	assert.Equal(t, int64(1), res.Affected)
}

func TestRun_BadSQL(t *testing.T) {
	c, _ := testConsole(t, nil)

	_, err := c.Run(context.Background(), "SELECT FROM nowhere AT ALL")
	require.Error(t, err)
}

func TestRender(t *testing.T) {
	out := Render(&Result{Affected: 2})
	assert.Equal(t, "2 row(s) affected", out)

	out = Render(&Result{Headers: []string{"a"}})
	assert.Equal(t, "(no rows)", out)

	out = Render(&Result{
		Headers: []string{"name", "email"},
		Rows:    [][]string{{"Alice", "alice@x.com"}},
	})
	assert.True(t, strings.Contains(out, "Alice"))
	assert.True(t, strings.Contains(out, "email"))
}
