// Package ui holds the terminal styles shared by the halcom commands.
//
// Styling degrades to plain text when stdout is not a terminal or the
// terminal reports no color support, so command output stays pipeable.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	TagStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	PersonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("219"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("78"))

	WarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

var colorEnabled = detectColor()

func detectColor() bool {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}
	return termenv.ColorProfile() != termenv.Ascii
}

// SetColorEnabled overrides terminal detection, for --no-color flags
// and tests.
func SetColorEnabled(on bool) {
	colorEnabled = on
}

// ColorEnabled reports whether styled output is active.
func ColorEnabled() bool {
	return colorEnabled
}

func render(style lipgloss.Style, s string) string {
	if !colorEnabled {
		return s
	}
	return style.Render(s)
}

// Title styles a heading.
func Title(s string) string { return render(TitleStyle, s) }

// Tag styles a task tag.
func Tag(s string) string { return render(TagStyle, s) }

// Person styles a person display string.
func Person(s string) string { return render(PersonStyle, s) }

// Success styles a confirmation message.
func Success(s string) string { return render(SuccessStyle, s) }

// Warn styles a warning message.
func Warn(s string) string { return render(WarnStyle, s) }

// Error styles an error message.
func Error(s string) string { return render(ErrorStyle, s) }

// Dim styles secondary detail text.
func Dim(s string) string { return render(DimStyle, s) }

// IsInteractive reports whether stdin is attached to a terminal, which
// decides between the prompt UI and plain line reading.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
