package report

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#8BC34A"))

// Render pretty-prints markdown for a terminal. Falls back to the raw
// markdown when the renderer cannot be constructed (non-TTY, unknown
// terminal).
func Render(markdown string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return markdown
	}
	rendered, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return rendered
}

// Banner styles a one-line heading for CLI output.
func Banner(text string) string {
	return headerStyle.Render(text)
}
