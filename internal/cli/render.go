package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var resultHeaderStyle = lipgloss.NewStyle().Bold(true)

const fallbackTerminalWidth = 80

// terminalWidth returns the current stdout terminal width, falling back
// to fallbackTerminalWidth when stdout is not a terminal (piped output,
// tests).
func terminalWidth() int {
	width, _, err := term.GetSize(1) // fd 1: stdout
	if err != nil || width <= 0 {
		return fallbackTerminalWidth
	}
	return width
}

// wrapToWidth hard-wraps s on word boundaries to fit the terminal width
// minus indent, indenting every line after the first by indent spaces.
func wrapToWidth(s string, indent int) string {
	width := terminalWidth() - indent
	if width < 20 {
		return s
	}

	words := strings.Fields(s)
	if len(words) == 0 {
		return s
	}

	var b strings.Builder
	lineLen := 0
	pad := strings.Repeat(" ", indent)
	for i, w := range words {
		if i > 0 && lineLen+1+len(w) > width {
			b.WriteByte('\n')
			b.WriteString(pad)
			lineLen = 0
		} else if i > 0 {
			b.WriteByte(' ')
			lineLen++
		}
		b.WriteString(w)
		lineLen += len(w)
	}
	return b.String()
}
