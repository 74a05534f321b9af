package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyadmin/internal/ui/theme"
)

// ErrorOverlay shows one error on top of the current view until dismissed
type ErrorOverlay struct {
	Theme   theme.Theme
	Width   int
	title   string
	message string
}

// NewErrorOverlay creates an empty overlay
func NewErrorOverlay(th theme.Theme) *ErrorOverlay {
	return &ErrorOverlay{Theme: th, Width: 60}
}

// SetError replaces the displayed error
func (e *ErrorOverlay) SetError(title, message string) {
	e.title = title
	e.message = message
}

func (e *ErrorOverlay) Title() string   { return e.title }
func (e *ErrorOverlay) Message() string { return e.message }

// View renders the overlay box
func (e *ErrorOverlay) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(e.Theme.Error)
	bodyStyle := lipgloss.NewStyle().
		Foreground(e.Theme.Foreground).
		Width(e.Width - 4)
	hintStyle := lipgloss.NewStyle().
		Foreground(e.Theme.Muted).
		Italic(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render(e.title))
	b.WriteString("\n\n")
	b.WriteString(bodyStyle.Render(e.message))
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render("Esc/Enter: dismiss"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(e.Theme.Error).
		Padding(1, 2).
		Width(e.Width).
		Render(b.String())
}
