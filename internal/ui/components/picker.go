package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazyadmin/internal/format"
	"github.com/rebeliceyang/lazyadmin/internal/ui/theme"
)

// PickerItem is one choice in a picker
type PickerItem struct {
	Value    string
	Label    string
	Detail   string
	Disabled bool
}

// PickedMsg is sent when an item is chosen
type PickedMsg struct {
	Purpose string
	Item    PickerItem
}

// PickerDeleteMsg is sent when the user asks to delete an item. Only pickers
// with AllowDelete send it.
type PickerDeleteMsg struct {
	Purpose string
	Item    PickerItem
}

// ClosePickerMsg is sent when the picker closes without a choice
type ClosePickerMsg struct {
	Purpose string
}

// Picker lets the user choose one of a list of items. It backs presets,
// column sets, sort fields, bookmarks and confirmations.
type Picker struct {
	Width       int
	Height      int
	Theme       theme.Theme
	Title       string
	Purpose     string
	AllowDelete bool

	items    []PickerItem
	selected int
	offset   int
}

// NewPicker creates a picker
func NewPicker(th theme.Theme, purpose, title string, items []PickerItem) *Picker {
	p := &Picker{
		Width:   60,
		Height:  20,
		Theme:   th,
		Title:   title,
		Purpose: purpose,
	}
	p.SetItems(items)
	return p
}

// SetItems replaces the items and moves the cursor to the first one
func (p *Picker) SetItems(items []PickerItem) {
	p.items = items
	p.selected = 0
	p.offset = 0
}

// Items returns the current items
func (p *Picker) Items() []PickerItem { return p.items }

// Selected returns the item under the cursor
func (p *Picker) Selected() (PickerItem, bool) {
	if p.selected < 0 || p.selected >= len(p.items) {
		return PickerItem{}, false
	}
	return p.items[p.selected], true
}

// Select moves the cursor to the item with value
func (p *Picker) Select(value string) {
	for i, it := range p.items {
		if it.Value == value {
			p.selected = i
			p.scroll()
			return
		}
	}
}

func (p *Picker) visibleHeight() int {
	h := p.Height - 6
	if h < 1 {
		h = 1
	}
	return h
}

func (p *Picker) scroll() {
	if p.selected < p.offset {
		p.offset = p.selected
	}
	if vh := p.visibleHeight(); p.selected >= p.offset+vh {
		p.offset = p.selected - vh + 1
	}
}

// Update handles keyboard input
func (p *Picker) Update(msg tea.KeyMsg) (*Picker, tea.Cmd) {
	purpose := p.Purpose
	switch msg.String() {
	case "esc", "q":
		return p, func() tea.Msg {
			return ClosePickerMsg{Purpose: purpose}
		}
	case "up", "k":
		if p.selected > 0 {
			p.selected--
			p.scroll()
		}
	case "down", "j":
		if p.selected < len(p.items)-1 {
			p.selected++
			p.scroll()
		}
	case "enter":
		item, ok := p.Selected()
		if !ok || item.Disabled {
			return p, nil
		}
		return p, func() tea.Msg {
			return PickedMsg{Purpose: purpose, Item: item}
		}
	case "d", "x":
		item, ok := p.Selected()
		if !ok || !p.AllowDelete {
			return p, nil
		}
		return p, func() tea.Msg {
			return PickerDeleteMsg{Purpose: purpose, Item: item}
		}
	}
	return p, nil
}

// View renders the picker
func (p *Picker) View() string {
	var sections []string

	titleStyle := lipgloss.NewStyle().
		Foreground(p.Theme.Background).
		Background(p.Theme.Info).
		Padding(0, 1).
		Bold(true)
	sections = append(sections, titleStyle.Render(p.Title))

	instr := "↑↓: Navigate  Enter: Select  Esc: Close"
	if p.AllowDelete {
		instr = "↑↓: Navigate  Enter: Select  d: Delete  Esc: Close"
	}
	sections = append(sections, lipgloss.NewStyle().
		Foreground(p.Theme.Muted).
		Padding(0, 1).
		Render(instr))
	sections = append(sections, "")

	if len(p.items) == 0 {
		sections = append(sections, lipgloss.NewStyle().Padding(0, 1).Render("Nothing here yet."))
	}

	end := p.offset + p.visibleHeight()
	if end > len(p.items) {
		end = len(p.items)
	}
	width := p.Width - 4
	for i := p.offset; i < end; i++ {
		it := p.items[i]
		label := it.Label
		if label == "" {
			label = it.Value
		}
		line := format.Truncate(label, width)
		if rest := width - runewidth.StringWidth(line) - 2; it.Detail != "" && rest > 3 {
			line += "  " + lipgloss.NewStyle().Foreground(p.Theme.Muted).Render(format.Truncate(it.Detail, rest))
		}

		style := lipgloss.NewStyle().Padding(0, 1)
		switch {
		case i == p.selected:
			style = style.Background(p.Theme.Selection).Foreground(p.Theme.Foreground).Bold(true)
		case it.Disabled:
			style = style.Foreground(p.Theme.Muted)
		}
		sections = append(sections, style.Render(line))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Theme.BorderFocused).
		Width(p.Width).
		Padding(1).
		Render(strings.Join(sections, "\n"))
}
