package detail

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rebeliceyang/lazyadmin/internal/datasource"
	"github.com/rebeliceyang/lazyadmin/internal/entity"
	"github.com/rebeliceyang/lazyadmin/internal/field"
	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/rebeliceyang/lazyadmin/internal/relation"
)

type fixture struct {
	users, orgs, teams *datasource.Memory
	entity             *entity.Entity
}

func newFixture(opts ...datasource.BindOption) fixture {
	f := fixture{
		orgs:  datasource.NewMemory("id", []models.Item{{"id": "o1", "name": "Acme"}}),
		teams: datasource.NewMemory("id", []models.Item{{"id": "t1", "name": "Red"}}),
		users: datasource.NewMemory("id", []models.Item{
			{"id": "u1", "name": "Ann", "orgId": "o1", "teamIds": []any{"t1", "t9"}},
		}),
	}
	f.entity = &entity.Entity{
		Name:     "users",
		KeyField: "id",
		Ops:      datasource.Bind(f.users, opts...),
		Fields: []field.Field{
			field.Text{Key: "id", Readonly: true},
			field.Text{Key: "name"},
			field.ForeignKey{Key: "orgId", DisplayField: "name", Resolver: relation.New("orgs", "id", datasource.Bind(f.orgs))},
			field.ForeignKeyList{Key: "teamIds", DisplayField: "name", Resolver: relation.New("teams", "id", datasource.Bind(f.teams))},
		},
	}
	return f
}

func TestLoad_HydrationFailureStaysOnField(t *testing.T) {
	f := newFixture()
	d, err := Load(context.Background(), f.entity, "u1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := d.Display("orgId"); got != "o1" {
		t.Errorf("expected unresolved key before hydration, got %q", got)
	}
	d.Hydrate(context.Background())

	if got := d.Display("orgId"); got != "Acme" {
		t.Errorf("expected Acme, got %q", got)
	}
	if got := d.Display("teamIds"); got != "Red, t9" {
		t.Errorf("expected resolved team next to the missing one, got %q", got)
	}
	if err := d.FieldError("teamIds"); !errors.Is(err, datasource.ErrNotFound) {
		t.Errorf("expected teamIds field error, got %v", err)
	}
	if d.FieldError("orgId") != nil || d.FieldError("name") != nil {
		t.Errorf("expected other fields clean, got %v", d.FieldErrors())
	}
	if got := d.Display("name"); got != "Ann" {
		t.Errorf("expected name rendered, got %q", got)
	}
}

func TestSave_Update(t *testing.T) {
	f := newFixture()
	d, err := Load(context.Background(), f.entity, "u1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := d.Set("name", "Annie"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := d.Set("id", "u2"); err == nil {
		t.Error("expected read-only field to reject Set")
	}

	saved, err := d.Save(context.Background())
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved["name"] != "Annie" || saved["orgId"] != "o1" {
		t.Errorf("unexpected saved item %v", saved)
	}
	if diff := cmp.Diff([]any{"t1", "t9"}, saved["teamIds"]); diff != "" {
		t.Errorf("unexpected team keys (-want +got):\n%s", diff)
	}
	if d.Dirty() {
		t.Error("expected clean state after save")
	}
}

func TestSave_CreateWithDraftRelation(t *testing.T) {
	f := newFixture()
	d, err := NewCreate(f.entity)
	if err != nil {
		t.Fatalf("NewCreate failed: %v", err)
	}
	_ = d.Set("name", "Zed")
	_ = d.Set("orgId", models.Draft(models.Item{"name": "NewCo"}))
	_ = d.Set("teamIds", []models.RelationRef{models.KeyOnly("t1"), models.Draft(models.Item{"name": "Blue"})})

	if got := d.Display("orgId"); got != "NewCo (new)" {
		t.Errorf("expected draft display, got %q", got)
	}

	saved, err := d.Save(context.Background())
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if f.orgs.Len() != 2 || f.teams.Len() != 2 {
		t.Fatalf("expected related items created, got %d orgs and %d teams", f.orgs.Len(), f.teams.Len())
	}

	orgKey, _ := saved["orgId"].(string)
	org, err := f.orgs.FetchItem(context.Background(), models.Key(orgKey))
	if err != nil || org["name"] != "NewCo" {
		t.Errorf("expected saved user to point at NewCo, got %v (%v)", org, err)
	}
	teams, _ := saved["teamIds"].([]any)
	if len(teams) != 2 || teams[0] != "t1" {
		t.Errorf("expected existing team first and created team second, got %v", teams)
	}
	if d.Mode() != ModeEdit || d.Key() == "" {
		t.Errorf("expected to be editing the created item, got mode %v key %q", d.Mode(), d.Key())
	}
}

func TestSave_Unsupported(t *testing.T) {
	f := newFixture(datasource.WithoutUpdate(), datasource.WithoutCreate(), datasource.WithoutDelete())

	if _, err := NewCreate(f.entity); !errors.Is(err, datasource.ErrUnsupported) {
		t.Errorf("expected create to be unsupported, got %v", err)
	}

	d, err := Load(context.Background(), f.entity, "u1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if d.CanSave() || d.CanDelete() {
		t.Error("expected save and delete to be unavailable")
	}
	if _, err := d.Save(context.Background()); !errors.Is(err, datasource.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
	if err := d.Delete(context.Background()); !errors.Is(err, datasource.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture()
	d, err := Load(context.Background(), f.entity, "u1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := d.Delete(context.Background()); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := Load(context.Background(), f.entity, "u1"); !errors.Is(err, datasource.ErrNotFound) {
		t.Errorf("expected deleted user to be gone, got %v", err)
	}
}

func TestSave_NotLoaded(t *testing.T) {
	d := &Detail{entity: newFixture().entity, mode: ModeEdit}
	if _, err := d.Save(context.Background()); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("expected ErrNotLoaded, got %v", err)
	}
}
