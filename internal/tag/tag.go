// Package tag allocates human-readable task tags.
//
// A tag is the public handle for a task: '#', a short lowercase base
// derived from the title through the oracle, and two random decimal
// digits. The allocator performs no uniqueness check; the tasks table's
// unique constraint is the arbiter, so callers must treat the result as
// a candidate and be ready to allocate again on a duplicate.
package tag

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode"

	"github.com/halcom/halcom/internal/oracle"
)

// maxBaseLen keeps oracle ramblings from producing unwieldy handles.
const maxBaseLen = 24

// Allocator derives candidate tags from task titles.
type Allocator struct {
	oracle oracle.Oracle
	// intn returns a value in [0, n); swapped out in tests for
	// deterministic suffixes.
	intn func(n int) int
}

// New builds an Allocator on the given oracle.
func New(o oracle.Oracle) *Allocator {
	return &Allocator{oracle: o, intn: rand.IntN}
}

// Allocate produces a candidate tag for the title.
//
// The oracle suggests the word base; a failed or empty suggestion falls
// back to the title itself. Either way the result is sanitized, so a
// degenerate base still yields a well-formed "#NN" tag whose suffix
// keeps accidental collisions unlikely.
func (a *Allocator) Allocate(ctx context.Context, title string) string {
	base := ""
	if a.oracle != nil {
		if out, err := a.oracle.Complete(ctx, basePrompt(title)); err == nil {
			base = Sanitize(out)
		}
	}
	if base == "" {
		base = Sanitize(title)
	}

	return fmt.Sprintf("#%s%02d", base, a.intn(100))
}

// Sanitize reduces free text to a lowercase token sequence: punctuation
// stripped, whitespace runs collapsed to single underscores, truncated
// to a sane length.
func Sanitize(s string) string {
	var sb strings.Builder
	lastUnderscore := true // also swallows leading whitespace
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
			lastUnderscore = false
		case unicode.IsSpace(r):
			if !lastUnderscore {
				sb.WriteRune('_')
				lastUnderscore = true
			}
		}
	}

	out := strings.TrimSuffix(sb.String(), "_")
	if len(out) > maxBaseLen {
		out = strings.TrimSuffix(out[:maxBaseLen], "_")
	}
	return out
}

func basePrompt(title string) string {
	return fmt.Sprintf(`Generate a short lowercase tag base for the task title below.
- Use a few keywords from the title, lowercase, no punctuation.
- Do not include quotes, the '#' symbol, digits, or any explanation.

Title: %s
Tag base:`, title)
}
