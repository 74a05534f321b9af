package filter

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTree_NestedPathsShareParent(t *testing.T) {
	tree := NewTree()
	tree.Insert([]string{"createdAt", "gte"}, "2024-01-01")
	tree.Insert([]string{"createdAt", "lte"}, "2024-12-31")

	want := map[string]any{
		"createdAt": map[string]any{
			"gte": "2024-01-01",
			"lte": "2024-12-31",
		},
	}
	if diff := cmp.Diff(want, tree.Map()); diff != "" {
		t.Errorf("unexpected tree (-want +got):\n%s", diff)
	}
}

func TestTree_LaterLeafWins(t *testing.T) {
	tree := NewTree()
	tree.Insert([]string{"age", "gte"}, float64(18))
	tree.Insert([]string{"age", "gte"}, float64(21))

	got, ok := tree.Lookup("age", "gte")
	if !ok {
		t.Fatal("expected age.gte to exist")
	}
	if got != float64(21) {
		t.Errorf("expected 21, got %v", got)
	}
}

func TestTree_ScalarReplacedByBranch(t *testing.T) {
	tree := NewTree()
	tree.Insert([]string{"status"}, "active")
	tree.Insert([]string{"status", "not"}, "banned")

	want := map[string]any{"status": map[string]any{"not": "banned"}}
	if diff := cmp.Diff(want, tree.Map()); diff != "" {
		t.Errorf("unexpected tree (-want +got):\n%s", diff)
	}
}

func TestTree_BranchReplacedByScalar(t *testing.T) {
	tree := NewTree()
	tree.Insert([]string{"status", "not"}, "banned")
	tree.Insert([]string{"status"}, "active")

	want := map[string]any{"status": "active"}
	if diff := cmp.Diff(want, tree.Map()); diff != "" {
		t.Errorf("unexpected tree (-want +got):\n%s", diff)
	}
}

func TestTree_ObjectValuesMergeWithPaths(t *testing.T) {
	tree := NewTree()
	tree.Insert([]string{"age"}, map[string]any{"gte": float64(18), "lte": float64(65)})
	tree.Insert([]string{"age", "lte"}, float64(30))

	want := map[string]any{"age": map[string]any{"gte": float64(18), "lte": float64(30)}}
	if diff := cmp.Diff(want, tree.Map()); diff != "" {
		t.Errorf("unexpected tree (-want +got):\n%s", diff)
	}
}

func TestTree_FieldsKeepInsertionOrder(t *testing.T) {
	tree := NewTree()
	tree.Insert([]string{"b"}, "1")
	tree.Insert([]string{"a"}, "2")
	tree.Insert([]string{"b", "gte"}, "3")

	if diff := cmp.Diff([]string{"b", "a"}, tree.Fields()); diff != "" {
		t.Errorf("unexpected field order (-want +got):\n%s", diff)
	}
}

func TestTree_JSONRoundTrip(t *testing.T) {
	tree := NewTree()
	tree.Insert([]string{"name", "contains"}, "smith")
	tree.Insert([]string{"orgId"}, "o1")

	data, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var back Tree
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if diff := cmp.Diff(tree.Map(), back.Map()); diff != "" {
		t.Errorf("round trip changed tree (-want +got):\n%s", diff)
	}
}

func TestTree_EmptyMarshalsToObject(t *testing.T) {
	if got := NewTree().String(); got != "{}" {
		t.Errorf("expected {}, got %s", got)
	}
	var nilTree *Tree
	if !nilTree.Empty() {
		t.Error("expected nil tree to be empty")
	}
}
