// Package oracle abstracts the language-model capability behind a single
// interface: free text in, best-effort text out.
//
// The relational core never touches an Oracle; only the agent dispatcher,
// the tag allocator and the SQL console hold one, and all of them treat
// its output as unreliable. Two backends are provided: a local Ollama
// server and the Anthropic Messages API.
package oracle

import "context"

// Oracle is an opaque, non-deterministic text completion capability.
// Implementations may be slow, may return empty output, and may return
// garbage; callers must degrade gracefully on all three.
type Oracle interface {
	// Complete sends a prompt and returns the model's raw text response.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to the Oracle interface. Used by tests
// to script responses without any network access.
type Func func(ctx context.Context, prompt string) (string, error)

// Complete implements Oracle.
func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
