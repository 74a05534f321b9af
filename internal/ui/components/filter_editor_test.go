package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/rebeliceyang/lazyadmin/internal/entity"
	"github.com/rebeliceyang/lazyadmin/internal/field"
	"github.com/rebeliceyang/lazyadmin/internal/filter"
	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/rebeliceyang/lazyadmin/internal/ui/theme"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(fe *FilterEditor, keys ...tea.KeyMsg) (*FilterEditor, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		fe, cmd = fe.Update(k)
	}
	return fe, cmd
}

func peopleEntity() *entity.Entity {
	return &entity.Entity{
		Name:     "people",
		KeyField: "id",
		Fields: []field.Field{
			field.Text{Key: "name"},
			field.Number{Key: "age"},
		},
		Validators: filter.MustValidators(map[string]string{
			"age": `value matches "^[0-9]+$"`,
		}),
	}
}

func TestFilterEditorKeepsInvalidValuesOutOfQuery(t *testing.T) {
	fe := NewFilterEditor(theme.DefaultTheme(), peopleEntity(), nil, filter.Search{})

	down := tea.KeyMsg{Type: tea.KeyDown}
	enter := tea.KeyMsg{Type: tea.KeyEnter}

	// a, pick age, pick gte (fourth number operator), type 1x
	fe, _ = press(fe, runes("a"), down, enter, down, down, down, enter, runes("1"), runes("x"))
	if !fe.Editing() {
		t.Fatal("expected value mode")
	}
	fe, _ = press(fe, enter)

	got, ok := fe.Filters().Get("age", "gte")
	if !ok {
		t.Fatal("expected age.gte in the set")
	}
	if got.WorkingState != "1x" || got.IsValid || got.Usable() {
		t.Errorf("expected invalid working value 1x, got %+v", got)
	}
	if p := fe.Preview(); p != "{}" {
		t.Errorf("expected empty query, got %s", p)
	}

	fe, _ = press(fe, runes("e"), tea.KeyMsg{Type: tea.KeyBackspace}, enter)
	if p := fe.Preview(); p != `{"age":{"gte":1}}` {
		t.Errorf("expected age filter in query, got %s", p)
	}

	_, cmd := press(fe, enter)
	if cmd == nil {
		t.Fatal("expected apply command")
	}
	msg, ok := cmd().(ApplyFiltersMsg)
	if !ok {
		t.Fatalf("expected ApplyFiltersMsg, got %T", cmd())
	}
	want := models.FilterSet{models.NewFilterValue("1", "age", "gte")}
	if diff := cmp.Diff(want, msg.Filters); diff != "" {
		t.Errorf("applied filters mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterEditorDelete(t *testing.T) {
	set := models.FilterSet{
		models.NewFilterValue("ada", "name", "contains"),
		models.NewFilterValue("30", "age", "gt"),
	}
	fe := NewFilterEditor(theme.DefaultTheme(), peopleEntity(), set, filter.TextSearch("name", "gr"))

	fe, _ = press(fe, tea.KeyMsg{Type: tea.KeyDown}, runes("d"))
	if diff := cmp.Diff(set[:1], fe.Filters()); diff != "" {
		t.Errorf("filters mismatch (-want +got):\n%s", diff)
	}
	// the search text is injected after the filters and wins on collision
	if p := fe.Preview(); p != `{"name":{"contains":"gr"}}` {
		t.Errorf("unexpected preview %s", p)
	}

	_, cmd := press(fe, tea.KeyMsg{Type: tea.KeyEsc})
	if _, ok := cmd().(CloseFilterEditorMsg); !ok {
		t.Errorf("expected close message")
	}
}
