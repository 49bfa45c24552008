package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the satchel banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"           _       _          _ ", "#f59e0b"},
		{"  ___ __ _| |_ ___| |__   ___| |", "#f97316"},
		{" / __/ _` | __/ __| '_ \\ / _ \\ |", "#ef4444"},
		{" \\__ \\ (_| | || (__| | | |  __/ |", "#ec4899"},
		{" |___/\\__,_|\\__\\___|_| |_|\\___|_|", "#d946ef"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
