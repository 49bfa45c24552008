package tui

import (
	"encoding/json"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Success colors s green on color terminals.
func Success(s string) termenv.Style {
	return termenv.String(s).Foreground(termenv.ColorProfile().Color("#22c55e"))
}

// Failure colors s red on color terminals.
func Failure(s string) termenv.Style {
	return termenv.String(s).Foreground(termenv.ColorProfile().Color("#ef4444"))
}

// Faint dims s on color terminals.
func Faint(s string) termenv.Style {
	return termenv.String(s).Faint()
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// MarshalJSON indents v for humans and keeps it on one line for pipes.
func MarshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
