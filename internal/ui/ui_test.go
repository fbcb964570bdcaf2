package ui

import "testing"

func TestRenderPlainWhenDisabled(t *testing.T) {
	prev := ColorEnabled()
	defer SetColorEnabled(prev)

	SetColorEnabled(false)

	for name, fn := range map[string]func(string) string{
		"Title":   Title,
		"Tag":     Tag,
		"Person":  Person,
		"Success": Success,
		"Warn":    Warn,
		"Error":   Error,
		"Dim":     Dim,
	} {
		if got := fn("hello"); got != "hello" {
			t.Errorf("%s should pass through plain text when color is off, got %q", name, got)
		}
	}
}

func TestSetColorEnabled(t *testing.T) {
	prev := ColorEnabled()
	defer SetColorEnabled(prev)

	SetColorEnabled(true)
	if !ColorEnabled() {
		t.Error("ColorEnabled() should report true after SetColorEnabled(true)")
	}

	SetColorEnabled(false)
	if ColorEnabled() {
		t.Error("ColorEnabled() should report false after SetColorEnabled(false)")
	}
}
