package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/rebeliceyang/lazyadmin/internal/datasource"
	"github.com/rebeliceyang/lazyadmin/internal/filter"
	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/rebeliceyang/lazyadmin/internal/query"
	"github.com/rs/zerolog"
)

func entries(t *testing.T, sink *datasource.Memory) []models.Item {
	t.Helper()
	res, err := sink.FetchPage(context.Background(), query.PageRequest{Page: 1, PageSize: 100})
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	return res.Data
}

func TestWrap_RecordsMutations(t *testing.T) {
	ctx := context.Background()
	sink := datasource.NewMemory("id", nil)
	log := NewLog(sink, zerolog.Nop())

	users := datasource.NewMemory("id", []models.Item{
		{"id": "u1", "name": "Ada", "role": "admin"},
		{"id": "u2", "name": "Bob", "role": "viewer"},
	})
	ops := Wrap("users", "id", datasource.Bind(users), log)

	created, err := ops.CreateItem(ctx, models.Item{"name": "Cy"})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if _, err := ops.UpdateItem(ctx, "u1", models.Item{"name": "Ada L"}); err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	if err := ops.DeleteItem(ctx, "u2"); err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}
	tree := filter.NewTree()
	tree.Insert([]string{"role", "equals"}, "admin")
	if n, err := ops.MatchDelete.DeleteMatching(ctx, tree); err != nil || n != 1 {
		t.Fatalf("DeleteMatching = %d, %v", n, err)
	}

	got := entries(t, sink)
	if len(got) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(got))
	}
	wantActions := []string{ActionCreate, ActionUpdate, ActionDelete, ActionDeleteMatching}
	for i, want := range wantActions {
		if got[i]["action"] != want {
			t.Errorf("entry %d: expected action %s, got %v", i, want, got[i]["action"])
		}
		if got[i]["entity"] != "users" {
			t.Errorf("entry %d: expected entity users, got %v", i, got[i]["entity"])
		}
	}
	if got[0]["item_key"] != string(created.Key("id")) {
		t.Errorf("expected created key %s, got %v", created.Key("id"), got[0]["item_key"])
	}
	if got[3]["detail"] != `{"role":{"equals":"admin"}}` {
		t.Errorf("unexpected match detail %v", got[3]["detail"])
	}
}

func TestWrap_FailedMutationNotRecorded(t *testing.T) {
	ctx := context.Background()
	sink := datasource.NewMemory("id", nil)
	ops := Wrap("users", "id", datasource.Bind(datasource.NewMemory("id", nil)), NewLog(sink, zerolog.Nop()))

	if err := ops.DeleteItem(ctx, "missing"); !errors.Is(err, datasource.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if sink.Len() != 0 {
		t.Errorf("expected no entries, got %d", sink.Len())
	}
}

func TestWrap_KeepsAbsentCapabilities(t *testing.T) {
	sink := datasource.NewMemory("id", nil)
	ops := datasource.Bind(datasource.NewMemory("id", nil), datasource.WithoutDelete(), datasource.WithoutCreate())
	wrapped := Wrap("users", "id", ops, NewLog(sink, zerolog.Nop()))

	if wrapped.CanDelete() || wrapped.MatchDelete != nil {
		t.Error("expected delete to stay absent")
	}
	if wrapped.CanCreate() {
		t.Error("expected create to stay absent")
	}
	if !wrapped.CanUpdate() {
		t.Error("expected update to stay present")
	}
}
