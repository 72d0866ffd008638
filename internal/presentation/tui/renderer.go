package tui

import (
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// Renderer turns markdown into terminal output.
type Renderer func(string) (string, error)

// NewRenderer returns a Renderer that uses glamour with a style matching the terminal
// background. If glamour cannot be initialized the markdown is returned unchanged.
func NewRenderer() Renderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return Plain
	}
	return r.Render
}

// Plain returns markdown unchanged.
func Plain(markdown string) (string, error) {
	return markdown, nil
}

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
