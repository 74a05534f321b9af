package components

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazyadmin/internal/detail"
	"github.com/rebeliceyang/lazyadmin/internal/field"
	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/rebeliceyang/lazyadmin/internal/ui/theme"
)

// draftPrefix marks foreign key input that names a related item to create
const draftPrefix = "+"

// DetailView shows the fields of one item and edits them in place
type DetailView struct {
	Width  int
	Height int
	Theme  theme.Theme
	// Busy replaces the view while the detail is being saved or deleted
	Busy string

	detail  *detail.Detail
	cursor  int
	offset  int
	editing bool
	input   textinput.Model
	inputEr string
}

// NewDetailView creates a view over d
func NewDetailView(th theme.Theme, d *detail.Detail) *DetailView {
	ti := textinput.New()
	ti.CharLimit = 1024
	return &DetailView{
		Width:  80,
		Height: 24,
		Theme:  th,
		detail: d,
		input:  ti,
	}
}

func (v *DetailView) Detail() *detail.Detail { return v.detail }
func (v *DetailView) Editing() bool          { return v.editing }

// SetDetail swaps the shown detail, keeping the cursor where possible
func (v *DetailView) SetDetail(d *detail.Detail) {
	v.detail = d
	v.editing = false
	v.inputEr = ""
	if n := len(d.Entity().Fields); v.cursor >= n {
		v.cursor = n - 1
	}
}

func (v *DetailView) current() (field.Field, bool) {
	fields := v.detail.Entity().Fields
	if v.cursor < 0 || v.cursor >= len(fields) {
		return nil, false
	}
	return fields[v.cursor], true
}

// Update handles keyboard input
func (v *DetailView) Update(msg tea.KeyMsg) (*DetailView, tea.Cmd) {
	if v.editing {
		return v.handleEdit(msg)
	}

	switch msg.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(v.detail.Entity().Fields)-1 {
			v.cursor++
		}
	case "enter", "e":
		f, ok := v.current()
		if !ok || field.IsReadOnly(f) || !v.detail.CanSave() {
			return v, nil
		}
		v.input.SetValue(InputValue(v.detail.State(f.Name())))
		v.input.CursorEnd()
		v.input.Focus()
		v.inputEr = ""
		v.editing = true
	case "y":
		if f, ok := v.current(); ok {
			_ = clipboard.WriteAll(v.detail.Display(f.Name()))
		}
	}
	v.scroll()
	return v, nil
}

func (v *DetailView) handleEdit(msg tea.KeyMsg) (*DetailView, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.editing = false
		v.input.Blur()
		v.inputEr = ""
		return v, nil
	case "enter":
		f, _ := v.current()
		state, err := ParseInput(f, v.input.Value())
		if err == nil {
			err = v.detail.Set(f.Name(), state)
		}
		if err != nil {
			v.inputEr = err.Error()
			return v, nil
		}
		v.editing = false
		v.input.Blur()
		v.inputEr = ""
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *DetailView) visibleRows() int {
	h := v.Height - 4
	if h < 1 {
		h = 1
	}
	return h
}

func (v *DetailView) scroll() {
	if v.cursor < v.offset {
		v.offset = v.cursor
	}
	if vr := v.visibleRows(); v.cursor >= v.offset+vr {
		v.offset = v.cursor - vr + 1
	}
}

// InputValue renders a field state as editable text
func InputValue(state any) string {
	switch s := state.(type) {
	case string:
		return s
	case models.RelationRef:
		return refInput(s)
	case []models.RelationRef:
		parts := make([]string, len(s))
		for i, ref := range s {
			parts[i] = refInput(ref)
		}
		return strings.Join(parts, ", ")
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

func refInput(ref models.RelationRef) string {
	if ref.Kind == models.RefDraft {
		for _, v := range ref.Item {
			return draftPrefix + fmt.Sprint(v)
		}
		return draftPrefix
	}
	return string(ref.Key())
}

// ParseInput turns edited text back into the state f expects. Foreign keys
// take related keys; a value starting with "+" becomes a draft whose display
// field is the rest of the text, created when the item is saved.
func ParseInput(f field.Field, raw string) (any, error) {
	switch ff := f.(type) {
	case field.ForeignKey:
		return parseRef(strings.TrimSpace(raw), ff.DisplayField)
	case field.ForeignKeyList:
		refs := []models.RelationRef{}
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			ref, err := parseRef(part, ff.DisplayField)
			if err != nil {
				return nil, err
			}
			refs = append(refs, ref)
		}
		return refs, nil
	default:
		return raw, nil
	}
}

func parseRef(raw, displayField string) (models.RelationRef, error) {
	name, draft := strings.CutPrefix(raw, draftPrefix)
	switch {
	case raw == "":
		return models.RelationRef{}, nil
	case !draft:
		return models.KeyOnly(models.Key(raw)), nil
	case displayField == "":
		return models.RelationRef{}, fmt.Errorf("cannot create %q here: no display field", name)
	case strings.TrimSpace(name) == "":
		return models.RelationRef{}, fmt.Errorf("a new related item needs a name")
	default:
		return models.Draft(models.Item{displayField: strings.TrimSpace(name)}), nil
	}
}

// wrapText wraps text to fit within maxWidth
func wrapText(text string, maxWidth int) []string {
	var result []string
	for _, line := range strings.Split(text, "\n") {
		if runewidth.StringWidth(line) <= maxWidth {
			result = append(result, line)
			continue
		}
		current := ""
		currentWidth := 0
		for _, r := range line {
			rWidth := runewidth.RuneWidth(r)
			if currentWidth+rWidth > maxWidth {
				result = append(result, current)
				current = string(r)
				currentWidth = rWidth
			} else {
				current += string(r)
				currentWidth += rWidth
			}
		}
		if current != "" {
			result = append(result, current)
		}
	}
	return result
}

func (v *DetailView) title() string {
	e := v.detail.Entity()
	title := e.Label() + " · " + string(v.detail.Key())
	if v.detail.Mode() == detail.ModeCreate {
		title = "New " + e.Label()
	}
	if v.detail.Dirty() {
		title += " *"
	}
	return title
}

func isDraft(state any) bool {
	switch s := state.(type) {
	case models.RelationRef:
		return s.Kind == models.RefDraft
	case []models.RelationRef:
		for _, ref := range s {
			if ref.Kind == models.RefDraft {
				return true
			}
		}
	}
	return false
}

// View renders the detail
func (v *DetailView) View() string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(v.Theme.BorderFocused).
		Padding(0, 1).
		Width(v.Width)

	titleStyle := lipgloss.NewStyle().Foreground(v.Theme.Info).Bold(true)
	if v.Busy != "" {
		return box.Render(titleStyle.Render(v.Busy))
	}

	fields := v.detail.Entity().Fields
	labelWidth := 0
	for _, f := range fields {
		if w := runewidth.StringWidth(f.Label()); w > labelWidth {
			labelWidth = w
		}
	}
	valueWidth := v.Width - labelWidth - 6
	if valueWidth < 10 {
		valueWidth = 10
	}

	lines := []string{titleStyle.Render(v.title()), ""}
	end := v.offset + v.visibleRows()
	if end > len(fields) {
		end = len(fields)
	}
	for i := v.offset; i < end; i++ {
		f := fields[i]
		labelStyle := lipgloss.NewStyle().Foreground(v.Theme.Muted)
		valueStyle := lipgloss.NewStyle().Foreground(v.Theme.Foreground)
		if isDraft(v.detail.State(f.Name())) {
			valueStyle = valueStyle.Foreground(v.Theme.Draft)
		}
		if field.IsReadOnly(f) {
			valueStyle = valueStyle.Faint(true)
		}
		if i == v.cursor {
			labelStyle = labelStyle.Foreground(v.Theme.Cursor).Bold(true)
		}

		value := v.detail.Display(f.Name())
		if i == v.cursor && v.editing {
			value = v.input.View()
		}
		wrapped := wrapText(value, valueWidth)
		if len(wrapped) == 0 {
			wrapped = []string{""}
		}
		label := labelStyle.Render(runewidth.FillRight(f.Label(), labelWidth))
		lines = append(lines, label+"  "+valueStyle.Render(wrapped[0]))
		for _, w := range wrapped[1:] {
			lines = append(lines, strings.Repeat(" ", labelWidth+2)+valueStyle.Render(w))
		}
		if err := v.detail.FieldError(f.Name()); err != nil {
			lines = append(lines, strings.Repeat(" ", labelWidth+2)+
				lipgloss.NewStyle().Foreground(v.Theme.Error).Render("! "+err.Error()))
		}
		if i == v.cursor && v.inputEr != "" {
			lines = append(lines, strings.Repeat(" ", labelWidth+2)+
				lipgloss.NewStyle().Foreground(v.Theme.Error).Render("! "+v.inputEr))
		}
	}

	help := "↑↓: Move  Enter: Edit  Ctrl+S: Save  y: Copy  Esc: Back"
	if v.detail.CanDelete() {
		help = "↑↓: Move  Enter: Edit  Ctrl+S: Save  D: Delete  y: Copy  Esc: Back"
	}
	if !v.detail.CanSave() {
		help = "↑↓: Move  y: Copy  Esc: Back"
	}
	if v.editing {
		help = "Enter: Keep  Esc: Discard  (+name creates a related item)"
	}
	lines = append(lines, "", lipgloss.NewStyle().Foreground(v.Theme.Muted).Italic(true).Render(help))

	return box.Render(strings.Join(lines, "\n"))
}
