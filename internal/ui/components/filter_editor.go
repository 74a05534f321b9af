package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyadmin/internal/entity"
	"github.com/rebeliceyang/lazyadmin/internal/field"
	"github.com/rebeliceyang/lazyadmin/internal/filter"
	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/rebeliceyang/lazyadmin/internal/ui/theme"
)

// ApplyFiltersMsg is sent when the edited filter set should replace the
// list's filters
type ApplyFiltersMsg struct {
	Filters models.FilterSet
}

// CloseFilterEditorMsg is sent when the editor closes without applying
type CloseFilterEditorMsg struct{}

type editorMode int

const (
	editNavigate editorMode = iota
	editField
	editOperator
	editValue
)

// FilterEditor edits the filter set of one entity. Values keep their working
// text even when incomplete or invalid; only usable values reach the query.
type FilterEditor struct {
	Width  int
	Height int
	Theme  theme.Theme

	entity  *entity.Entity
	filters models.FilterSet
	search  filter.Search

	mode     editorMode
	cursor   int
	fieldIdx int
	opIdx    int
	ops      []models.Operator
	editing  models.FilterValue
	input    textinput.Model
}

// NewFilterEditor starts editing a copy of filters. The search is only used
// to preview the composed query.
func NewFilterEditor(th theme.Theme, e *entity.Entity, filters models.FilterSet, search filter.Search) *FilterEditor {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40

	return &FilterEditor{
		Width:   80,
		Height:  24,
		Theme:   th,
		entity:  e,
		filters: filters.Clone(),
		search:  search,
		input:   ti,
	}
}

// Filters returns the edited set
func (fe *FilterEditor) Filters() models.FilterSet {
	return fe.filters.Clone()
}

// Preview returns the serialized filter structure the current set produces
func (fe *FilterEditor) Preview() string {
	return filter.Serialize(fe.filters, fe.search)
}

// Editing reports whether a value is being typed
func (fe *FilterEditor) Editing() bool {
	return fe.mode == editValue
}

// operatorsFor lists the operators offered for a field
func operatorsFor(f field.Field) []models.Operator {
	switch f.(type) {
	case field.Number:
		return filter.OperatorsForKind("number")
	case field.ForeignKey, field.ForeignKeyList:
		return []models.Operator{models.OpEquals, models.OpNot, models.OpIn, models.OpIsNull}
	default:
		return models.Operators()
	}
}

// Update handles keyboard input
func (fe *FilterEditor) Update(msg tea.KeyMsg) (*FilterEditor, tea.Cmd) {
	switch fe.mode {
	case editField:
		return fe.handleFieldMode(msg), nil
	case editOperator:
		return fe.handleOperatorMode(msg), nil
	case editValue:
		return fe.handleValueMode(msg)
	default:
		return fe.handleNavigationMode(msg)
	}
}

func (fe *FilterEditor) handleNavigationMode(msg tea.KeyMsg) (*FilterEditor, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if fe.cursor > 0 {
			fe.cursor--
		}
	case "down", "j":
		if fe.cursor < len(fe.filters)-1 {
			fe.cursor++
		}
	case "a", "n":
		fe.mode = editField
		fe.fieldIdx = 0
	case "e":
		if fe.cursor < len(fe.filters) {
			fe.startValue(fe.filters[fe.cursor])
		}
	case "d", "x":
		if fe.cursor < len(fe.filters) {
			fe.filters = fe.filters.Remove(fe.filters[fe.cursor].Name...)
			if fe.cursor > 0 && fe.cursor >= len(fe.filters) {
				fe.cursor--
			}
		}
	case "enter":
		filters := fe.filters.Clone()
		return fe, func() tea.Msg {
			return ApplyFiltersMsg{Filters: filters}
		}
	case "esc":
		return fe, func() tea.Msg {
			return CloseFilterEditorMsg{}
		}
	}
	return fe, nil
}

func (fe *FilterEditor) handleFieldMode(msg tea.KeyMsg) *FilterEditor {
	switch msg.String() {
	case "esc":
		fe.mode = editNavigate
	case "up", "k":
		if fe.fieldIdx > 0 {
			fe.fieldIdx--
		}
	case "down", "j":
		if fe.fieldIdx < len(fe.entity.Fields)-1 {
			fe.fieldIdx++
		}
	case "enter":
		if fe.fieldIdx < len(fe.entity.Fields) {
			fe.ops = operatorsFor(fe.entity.Fields[fe.fieldIdx])
			fe.opIdx = 0
			fe.mode = editOperator
		}
	}
	return fe
}

func (fe *FilterEditor) handleOperatorMode(msg tea.KeyMsg) *FilterEditor {
	switch msg.String() {
	case "esc":
		fe.mode = editField
	case "up", "k":
		if fe.opIdx > 0 {
			fe.opIdx--
		}
	case "down", "j":
		if fe.opIdx < len(fe.ops)-1 {
			fe.opIdx++
		}
	case "enter":
		path := []string{fe.entity.Fields[fe.fieldIdx].Name(), string(fe.ops[fe.opIdx])}
		if existing, ok := fe.filters.Get(path...); ok {
			fe.startValue(existing)
		} else {
			fe.startValue(models.FilterValue{Name: path})
		}
	}
	return fe
}

func (fe *FilterEditor) startValue(v models.FilterValue) {
	fe.editing = v.Clone()
	fe.input.SetValue(v.WorkingState)
	fe.input.CursorEnd()
	fe.input.Focus()
	fe.editing.Edit(fe.input.Value(), fe.entity.Validator())
	fe.mode = editValue
}

func (fe *FilterEditor) handleValueMode(msg tea.KeyMsg) (*FilterEditor, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fe.input.Blur()
		fe.mode = editNavigate
		return fe, nil
	case "enter":
		fe.input.Blur()
		fe.filters = fe.filters.Set(fe.editing)
		fe.cursor = fe.filters.Index(fe.editing.Name...)
		fe.mode = editNavigate
		return fe, nil
	}

	var cmd tea.Cmd
	fe.input, cmd = fe.input.Update(msg)
	fe.editing.Edit(fe.input.Value(), fe.entity.Validator())
	return fe, cmd
}

func (fe *FilterEditor) describe(v models.FilterValue) (string, lipgloss.Style) {
	style := lipgloss.NewStyle().Foreground(fe.Theme.Foreground)
	text := fmt.Sprintf("%s = %s", v.Path(), v.WorkingState)
	switch {
	case !v.IsComplete:
		style = style.Foreground(fe.Theme.FilterIncomplete)
		text += "  (incomplete)"
	case !v.IsValid:
		style = style.Foreground(fe.Theme.FilterInvalid)
		text += "  (invalid"
		if v.State != "" {
			text += ", using " + v.State
		}
		text += ")"
	}
	return text, style
}

// View renders the editor
func (fe *FilterEditor) View() string {
	var sections []string

	titleStyle := lipgloss.NewStyle().
		Foreground(fe.Theme.Background).
		Background(fe.Theme.Info).
		Padding(0, 1).
		Bold(true)
	sections = append(sections, titleStyle.Render("Filters · "+fe.entity.Label()))

	var instructions string
	switch fe.mode {
	case editField:
		instructions = "↑↓ Select field, Enter to confirm, Esc to go back"
	case editOperator:
		instructions = "↑↓ Select operator, Enter to confirm, Esc to go back"
	case editValue:
		instructions = "Type value, Enter to keep, Esc to discard"
	default:
		instructions = "a=Add e=Edit d=Delete Enter=Apply Esc=Cancel"
	}
	sections = append(sections, lipgloss.NewStyle().
		Foreground(fe.Theme.Muted).
		Padding(0, 1).
		Render(instructions))

	sections = append(sections, "")
	if len(fe.filters) == 0 {
		sections = append(sections, lipgloss.NewStyle().Foreground(fe.Theme.Muted).Render(" No filters"))
	}
	for i, v := range fe.filters {
		text, style := fe.describe(v)
		style = style.Padding(0, 1)
		if i == fe.cursor && fe.mode == editNavigate {
			style = style.Background(fe.Theme.Selection).Bold(true)
		}
		sections = append(sections, style.Render(fmt.Sprintf("%d. %s", i+1, text)))
	}

	switch fe.mode {
	case editField:
		sections = append(sections, "", "Field:")
		for i, f := range fe.entity.Fields {
			sections = append(sections, fe.choice(f.Label()+" ("+f.Name()+")", i == fe.fieldIdx))
		}
	case editOperator:
		sections = append(sections, "", "Operator for "+fe.entity.Fields[fe.fieldIdx].Name()+":")
		for i, op := range fe.ops {
			sections = append(sections, fe.choice(string(op), i == fe.opIdx))
		}
	case editValue:
		text, style := fe.describe(fe.editing)
		sections = append(sections, "", fe.editing.Path()+": "+fe.input.View(), style.Render(text))
	}

	sections = append(sections, "", "Query:")
	sections = append(sections, lipgloss.NewStyle().
		Foreground(fe.Theme.Muted).
		Italic(true).
		Padding(0, 1).
		Render(fe.Preview()))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(fe.Theme.BorderFocused).
		Width(fe.Width).
		Padding(1).
		Render(strings.Join(sections, "\n"))
}

func (fe *FilterEditor) choice(label string, active bool) string {
	style := lipgloss.NewStyle().Padding(0, 1)
	if active {
		style = style.Background(fe.Theme.Selection).Foreground(fe.Theme.Foreground)
	}
	return style.Render("  " + label)
}
