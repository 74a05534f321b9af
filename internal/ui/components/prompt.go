package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyadmin/internal/ui/theme"
)

// PromptSubmitMsg is sent when the prompt value is confirmed. An empty value
// is submitted as well; for search it clears the search text.
type PromptSubmitMsg struct {
	Purpose string
	Value   string
}

// PromptCancelMsg is sent when the prompt is closed without submitting
type PromptCancelMsg struct {
	Purpose string
}

// Prompt is a one-line text input box used for search and naming bookmarks
type Prompt struct {
	Input   textinput.Model
	Purpose string
	Title   string
	Theme   theme.Theme
	Width   int
}

// NewPrompt creates a focused prompt pre-filled with value
func NewPrompt(th theme.Theme, purpose, title, value string) *Prompt {
	ti := textinput.New()
	ti.Placeholder = title + "..."
	ti.CharLimit = 256
	ti.Width = 40
	ti.SetValue(value)
	ti.CursorEnd()
	ti.Focus()

	return &Prompt{
		Input:   ti,
		Purpose: purpose,
		Title:   title,
		Theme:   th,
		Width:   60,
	}
}

// Value returns the current input
func (p *Prompt) Value() string {
	return p.Input.Value()
}

// Update handles messages
func (p *Prompt) Update(msg tea.Msg) (*Prompt, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			purpose, value := p.Purpose, p.Input.Value()
			return p, func() tea.Msg {
				return PromptSubmitMsg{Purpose: purpose, Value: value}
			}
		case "esc":
			purpose := p.Purpose
			return p, func() tea.Msg {
				return PromptCancelMsg{Purpose: purpose}
			}
		}
	}

	var cmd tea.Cmd
	p.Input, cmd = p.Input.Update(msg)
	return p, cmd
}

// View renders the prompt
func (p *Prompt) View() string {
	inputWidth := p.Width - len(p.Title) - 8
	if inputWidth < 20 {
		inputWidth = 20
	}
	p.Input.Width = inputWidth

	titleStyle := lipgloss.NewStyle().
		Foreground(p.Theme.BorderFocused).
		Bold(true)
	helpStyle := lipgloss.NewStyle().
		Foreground(p.Theme.Muted).
		Italic(true)

	content := titleStyle.Render(p.Title+":") + " " + p.Input.View()
	helpText := helpStyle.Render("Enter: confirm │ Esc: close")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Theme.BorderFocused).
		Padding(0, 1).
		Width(p.Width).
		Render(content + "\n" + helpText)
}
