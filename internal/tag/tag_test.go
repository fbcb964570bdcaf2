package tag

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/halcom/halcom/internal/oracle"
)

var tagShape = regexp.MustCompile(`^#[a-z0-9_]*[0-9]{2}$`)

// fixed pins the allocator's random suffix for deterministic assertions.
func fixed(a *Allocator, n int) *Allocator {
	a.intn = func(int) int { return n }
	return a
}

func TestAllocate_FromOracle(t *testing.T) {
	o := oracle.Func(func(ctx context.Context, prompt string) (string, error) {
		return "World Bank Report!", nil
	})

	a := fixed(New(o), 42)
	got := a.Allocate(context.Background(), "World Bank report")
	if got != "#world_bank_report42" {
		t.Errorf("Allocate() = %q, want %q", got, "#world_bank_report42")
	}
}

func TestAllocate_OracleFailureFallsBackToTitle(t *testing.T) {
	o := oracle.Func(func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("model offline")
	})

	a := fixed(New(o), 7)
	got := a.Allocate(context.Background(), "Quarterly Review")
	if got != "#quarterly_review07" {
		t.Errorf("Allocate() = %q, want %q", got, "#quarterly_review07")
	}
}

func TestAllocate_EmptyEverything(t *testing.T) {
	o := oracle.Func(func(ctx context.Context, prompt string) (string, error) {
		return "   \n", nil
	})

	a := fixed(New(o), 3)
	got := a.Allocate(context.Background(), "!!!")
	// Word base empty, but the tag is still well-formed and non-empty.
	if got != "#03" {
		t.Errorf("Allocate() = %q, want %q", got, "#03")
	}
}

func TestAllocate_NilOracle(t *testing.T) {
	a := fixed(New(nil), 99)
	got := a.Allocate(context.Background(), "Ship It")
	if got != "#ship_it99" {
		t.Errorf("Allocate() = %q, want %q", got, "#ship_it99")
	}
}

func TestAllocate_Shape(t *testing.T) {
	o := oracle.Func(func(ctx context.Context, prompt string) (string, error) {
		return "Tag: `weird OUTPUT, with; junk`", nil
	})

	a := New(o)
	for i := 0; i < 20; i++ {
		got := a.Allocate(context.Background(), "anything at all")
		if !tagShape.MatchString(got) {
			t.Fatalf("Allocate() = %q, does not match %s", got, tagShape)
		}
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"World Bank report", "world_bank_report"},
		{"  lots   of    space  ", "lots_of_space"},
		{"UPPER-case, punct!", "uppercase_punct"},
		{"", ""},
		{"???", ""},
		{"this title is very much longer than the cap allows", "this_title_is_very_much"},
	}

	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
