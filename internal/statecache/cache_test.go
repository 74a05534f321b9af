package statecache

import (
	"errors"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rebeliceyang/lazyadmin/internal/filter"
	"github.com/rebeliceyang/lazyadmin/internal/models"
)

func TestCache_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
	}{
		{
			name: "neutral",
			snap: Snapshot{ColumnSet: "default"},
		},
		{
			name: "shared prefix filters, sort, search and column set",
			snap: Snapshot{
				Filters: models.FilterSet{
					models.NewFilterValue(`"2024-01-01"`, "createdAt", "gte"),
					models.NewFilterValue(`"2024-12-31"`, "createdAt", "lte"),
				},
				Sort:       &models.Sort{FieldName: "age", Direction: models.SortDesc},
				SearchText: "smith",
				ColumnSet:  "all",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(NewURLStore("/users"))
			if err := c.Store(tt.snap, Push); err != nil {
				t.Fatalf("Store failed: %v", err)
			}
			if diff := cmp.Diff(tt.snap, c.Read()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCache_NeutralLeavesStoreEmpty(t *testing.T) {
	store := NewURLStore("/users")
	c := New(store)

	if err := c.Store(Snapshot{SearchText: "x", ColumnSet: "all"}, Push); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if err := c.Store(Snapshot{ColumnSet: "default"}, Push); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if got := store.Values(); len(got) != 0 {
		t.Errorf("expected no keys, got %v", got)
	}
	if got := store.Encode(); got != "/users" {
		t.Errorf("expected bare path, got %q", got)
	}
}

func TestCache_StoreIsIdempotent(t *testing.T) {
	store := NewURLStore("/users")
	c := New(store)
	snap := Snapshot{SearchText: "ann"}

	for i := 0; i < 3; i++ {
		if err := c.Store(snap, Push); err != nil {
			t.Fatalf("Store failed: %v", err)
		}
	}
	if store.Len() != 2 {
		t.Errorf("expected one new history entry, got %d entries", store.Len())
	}
}

func TestCache_ReplaceDoesNotGrowHistory(t *testing.T) {
	store := NewURLStore("/users")
	c := New(store)

	_ = c.Store(Snapshot{SearchText: "a"}, Replace)
	_ = c.Store(Snapshot{SearchText: "ab"}, Replace)
	if store.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", store.Len())
	}
}

func TestCache_MalformedValuesFallBackToDefaults(t *testing.T) {
	store := NewURLStore("/users")
	store.Navigate("/users", url.Values{
		KeyFilters:    {"{not json"},
		KeySort:       {`{"fieldName":"age","direction":"sideways"}`},
		KeySearchText: {"unquoted"},
		KeyColumns:    {"mystery"},
	}, Replace)

	c := New(store, WithColumnSets(func(s string) bool { return s == "all" }))
	want := Snapshot{ColumnSet: "default"}
	if diff := cmp.Diff(want, c.Read()); diff != "" {
		t.Errorf("expected defaults (-want +got):\n%s", diff)
	}
}

func TestCache_ReadRevalidatesFilters(t *testing.T) {
	store := NewURLStore("/users")
	store.Navigate("/users", url.Values{
		KeyFilters: {`[{"name":["age","gte"],"state":"old"},{"name":["name"],"state":"ann"}]`},
	}, Replace)

	c := New(store, WithValidator(filter.MustValidators(map[string]string{"age": `value matches "^[0-9]+$"`})))
	got := c.Read().Filters

	if len(got) != 2 {
		t.Fatalf("expected 2 filters, got %d", len(got))
	}
	if got[0].IsValid {
		t.Error("expected restored age filter to be invalid")
	}
	if !got[1].Usable() {
		t.Error("expected restored name filter to be usable")
	}
	if s := filter.Serialize(got, filter.Search{}); s != `{"name":"ann"}` {
		t.Errorf("expected only the valid filter in the query, got %s", s)
	}
}

func TestCache_PreservesUnrelatedKeys(t *testing.T) {
	store := NewURLStore("/users")
	store.Navigate("/users", url.Values{"detail": {"u1"}}, Replace)
	c := New(store)

	if err := c.Store(Snapshot{SearchText: "ann"}, Push); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if store.Values().Get("detail") != "u1" {
		t.Errorf("expected detail key kept, got %v", store.Values())
	}
}

func TestCache_NavigationRequiresRead(t *testing.T) {
	store := NewURLStore("/users")
	c := New(store)

	first := Snapshot{SearchText: "ann", ColumnSet: "default"}
	second := Snapshot{SearchText: "bob", ColumnSet: "default"}
	_ = c.Store(first, Push)
	_ = c.Store(second, Push)

	if !store.Back() {
		t.Fatal("expected to go back")
	}
	if err := c.Store(second, Push); !errors.Is(err, ErrNavigationPending) {
		t.Fatalf("expected ErrNavigationPending, got %v", err)
	}

	if diff := cmp.Diff(first, c.Read()); diff != "" {
		t.Errorf("expected the earlier state (-want +got):\n%s", diff)
	}
	if err := c.Store(first, Push); err != nil {
		t.Errorf("expected store after read to succeed, got %v", err)
	}

	if !store.Forward() {
		t.Fatal("expected to go forward")
	}
	if diff := cmp.Diff(second, c.Read()); diff != "" {
		t.Errorf("expected the later state (-want +got):\n%s", diff)
	}
}

func TestURLStore_EncodeAndOpen(t *testing.T) {
	a := NewURLStore("/")
	ca := New(a)
	snap := Snapshot{
		Filters:    models.FilterSet{models.NewFilterValue("o1", "orgId")},
		SearchText: "smith & co",
		ColumnSet:  "all",
	}
	a.Navigate("/users", nil, Push)
	ca.Read()
	if err := ca.Store(snap, Push); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	b := NewURLStore("/")
	if err := b.Open(a.Encode(), Push); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if b.Path() != "/users" {
		t.Errorf("expected /users, got %q", b.Path())
	}
	if diff := cmp.Diff(snap, New(b).Read()); diff != "" {
		t.Errorf("shared location mismatch (-want +got):\n%s", diff)
	}
}

func TestFileStore_PersistsPerEntity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "views.yaml")
	users := New(NewFileStore(path, "users"))
	orgs := New(NewFileStore(path, "orgs"))

	usersSnap := Snapshot{
		Filters:   models.FilterSet{models.NewFilterValue("30", "age", "gte")},
		Sort:      &models.Sort{FieldName: "name", Direction: models.SortAsc},
		ColumnSet: "all",
	}
	if err := users.Store(usersSnap, Push); err != nil {
		t.Fatalf("Store users failed: %v", err)
	}
	if err := orgs.Store(Snapshot{SearchText: "acme"}, Push); err != nil {
		t.Fatalf("Store orgs failed: %v", err)
	}

	reopened := New(NewFileStore(path, "users"))
	if diff := cmp.Diff(usersSnap, reopened.Read()); diff != "" {
		t.Errorf("users view mismatch (-want +got):\n%s", diff)
	}
	if got := New(NewFileStore(path, "orgs")).Read().SearchText; got != "acme" {
		t.Errorf("expected orgs search acme, got %q", got)
	}

	if err := users.Store(Snapshot{}, Push); err != nil {
		t.Fatalf("Store neutral failed: %v", err)
	}
	if got := NewFileStore(path, "users").Values(); len(got) != 0 {
		t.Errorf("expected users view removed, got %v", got)
	}
}
