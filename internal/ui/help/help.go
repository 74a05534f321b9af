package help

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyadmin/internal/ui/theme"
)

// KeyBinding represents a keyboard shortcut
type KeyBinding struct {
	Key         string
	Description string
}

// Section is a titled group of key bindings
type Section struct {
	Title string
	Keys  []KeyBinding
}

// GetGlobalKeys returns global key bindings
func GetGlobalKeys() []KeyBinding {
	return []KeyBinding{
		{"?", "Toggle help"},
		{"q, Ctrl+C", "Quit application"},
		{"Esc/Enter", "Dismiss error"},
		{"Tab", "Switch panel focus"},
		{"[ / ]", "Back / forward through views"},
		{"y", "Copy view location"},
		{"m", "Bookmark current view"},
		{"b", "Open bookmarks"},
	}
}

// GetNavigationKeys returns navigation key bindings
func GetNavigationKeys() []KeyBinding {
	return []KeyBinding{
		{"↑/k", "Move up"},
		{"↓/j", "Move down"},
		{"Ctrl+U/Ctrl+D", "Page up / down"},
		{"Enter", "Open entity or item"},
	}
}

// GetListKeys returns list view key bindings
func GetListKeys() []KeyBinding {
	return []KeyBinding{
		{"/", "Search"},
		{"f", "Edit filters"},
		{"p", "Apply filter preset"},
		{"s", "Sort"},
		{"c", "Choose column set"},
		{"n", "Load next page"},
		{"r", "Retry or refresh"},
		{"Space", "Select row"},
		{"a", "Select every matching row"},
		{"Esc", "Clear selection"},
		{"D", "Delete selection"},
		{"+", "Create item"},
		{"E", "Export loaded rows"},
	}
}

// GetDetailKeys returns detail view key bindings
func GetDetailKeys() []KeyBinding {
	return []KeyBinding{
		{"Enter/e", "Edit field"},
		{"+name", "Create a related item on save"},
		{"Ctrl+S", "Save"},
		{"D", "Delete item"},
		{"Esc", "Back to list"},
	}
}

// Sections returns every help section in display order
func Sections() []Section {
	return []Section{
		{"Global", GetGlobalKeys()},
		{"Navigation", GetNavigationKeys()},
		{"List", GetListKeys()},
		{"Detail", GetDetailKeys()},
	}
}

// Render creates the help view
func Render(width, height int, th theme.Theme) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.BorderFocused).
		Padding(1, 0)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.Info).
		Padding(0, 0, 0, 2)

	keyStyle := lipgloss.NewStyle().
		Foreground(th.Key).
		Width(20)

	descStyle := lipgloss.NewStyle().
		Foreground(th.Foreground)

	var b strings.Builder
	b.WriteString(titleStyle.Render("lazyadmin - Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, s := range Sections() {
		b.WriteString(sectionStyle.Render(s.Title))
		b.WriteString("\n")
		for _, kb := range s.Keys {
			b.WriteString("  ")
			b.WriteString(keyStyle.Render(kb.Key))
			b.WriteString(descStyle.Render(kb.Description))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press '?' or Esc to close help"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(th.BorderFocused).
		Padding(1, 2).
		Width(max(width-4, 20)).
		MaxHeight(max(height, 10))

	return boxStyle.Render(b.String())
}
