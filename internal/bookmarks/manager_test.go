package bookmarks

import (
	"testing"
)

func TestManager_AddFindPersist(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if _, err := m.Add("Admins", "users", "/users?filters=x"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := m.Add("admins", "users", "/users"); err == nil {
		t.Error("expected duplicate name to be rejected")
	}
	if _, err := m.Add("  ", "users", "/users"); err == nil {
		t.Error("expected empty name to be rejected")
	}
	if _, err := m.Add("Big orgs", "orgs", "/orgs?sort=y"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	reloaded, err := NewManager(dir)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	b, ok := reloaded.Find("ADMINS")
	if !ok {
		t.Fatal("expected bookmark after reload")
	}
	if b.Location != "/users?filters=x" || b.Entity != "users" {
		t.Errorf("unexpected bookmark %+v", b)
	}
	if got := len(reloaded.All("orgs")); got != 1 {
		t.Errorf("expected 1 orgs bookmark, got %d", got)
	}
}

func TestManager_UsageAndDelete(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	_, _ = m.Add("a", "users", "/users")
	_, _ = m.Add("b", "users", "/users?page=2")

	if err := m.RecordUsage("b"); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}
	recent := m.Recent(1)
	if len(recent) != 1 || recent[0].Name != "b" || recent[0].UsageCount != 1 {
		t.Errorf("expected b first, got %+v", recent)
	}

	if err := m.Delete("a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := m.Delete("a"); err == nil {
		t.Error("expected error deleting twice")
	}
	if len(m.All("")) != 1 {
		t.Errorf("expected 1 bookmark left, got %d", len(m.All("")))
	}
}
