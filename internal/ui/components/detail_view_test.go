package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/rebeliceyang/lazyadmin/internal/datasource"
	"github.com/rebeliceyang/lazyadmin/internal/detail"
	"github.com/rebeliceyang/lazyadmin/internal/entity"
	"github.com/rebeliceyang/lazyadmin/internal/field"
	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/rebeliceyang/lazyadmin/internal/ui/theme"
)

func TestParseInput(t *testing.T) {
	fk := field.ForeignKey{Key: "org_id", DisplayField: "name"}
	list := field.ForeignKeyList{Key: "team_ids", DisplayField: "name"}

	tests := []struct {
		name string
		f    field.Field
		raw  string
		want any
	}{
		{"text", field.Text{Key: "name"}, " Ada ", " Ada "},
		{"empty key", fk, "  ", models.RelationRef{}},
		{"key", fk, "o1", models.KeyOnly("o1")},
		{"draft", fk, "+Hooli", models.Draft(models.Item{"name": "Hooli"})},
		{"list", list, "t1, +Core,, t2", []models.RelationRef{
			models.KeyOnly("t1"),
			models.Draft(models.Item{"name": "Core"}),
			models.KeyOnly("t2"),
		}},
		{"empty list", list, "", []models.RelationRef{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInput(tt.f, tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("state mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if got := InputValue([]models.RelationRef{models.KeyOnly("t1"), models.Draft(models.Item{"name": "Core"})}); got != "t1, +Core" {
		t.Errorf("expected list input to render back, got %q", got)
	}

	if _, err := ParseInput(field.ForeignKey{Key: "org_id"}, "+x"); err == nil {
		t.Error("expected error for a draft without display field")
	}
	if _, err := ParseInput(fk, "+ "); err == nil {
		t.Error("expected error for an unnamed draft")
	}
}

func TestDetailViewEdit(t *testing.T) {
	e := &entity.Entity{
		Name:     "people",
		KeyField: "id",
		Ops:      datasource.Bind(datasource.NewMemory("id", nil)),
		Fields: []field.Field{
			field.Text{Key: "id", Readonly: true},
			field.Text{Key: "name"},
		},
	}
	d, err := detail.NewCreate(e)
	if err != nil {
		t.Fatal(err)
	}
	v := NewDetailView(theme.DefaultTheme(), d)

	enter := tea.KeyMsg{Type: tea.KeyEnter}
	v, _ = v.Update(enter)
	if v.Editing() {
		t.Fatal("expected read-only id not to be editable")
	}

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
	v, _ = v.Update(enter)
	for _, r := range "Ada" {
		v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	v, _ = v.Update(enter)

	if v.Editing() {
		t.Error("expected edit to be committed")
	}
	if got := d.State("name"); got != "Ada" {
		t.Errorf("expected name Ada, got %v", got)
	}
	if !d.Dirty() {
		t.Error("expected detail to be dirty")
	}
}
