package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rebeliceyang/lazyadmin/internal/models"
)

func rows() []models.Item {
	return []models.Item{
		{"id": "u1", "name": "Ada, \"the first\"", "age": 36.0, "team_ids": []any{"t1", "t2"}, "secret": "x"},
		{"id": "u2", "name": "Grace", "age": nil},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, []string{"id", "name", "age", "team_ids"}, rows()); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	want := [][]string{
		{"id", "name", "age", "team_ids"},
		{"u1", "Ada, \"the first\"", "36", `["t1","t2"]`},
		{"u2", "Grace", "", ""},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("CSV mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteJSON_ProjectsColumns(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, []string{"id", "age"}, rows()); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	want := []map[string]any{
		{"id": "u1", "age": 36.0},
		{"id": "u2", "age": nil},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("JSON mismatch (-want +got):\n%s", diff)
	}
}

func TestToFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "users.csv")
	if err := ToFile(path, []string{"id"}, rows()); err != nil {
		t.Fatalf("ToFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}
	if string(data) != "id\nu1\nu2\n" {
		t.Errorf("unexpected file content %q", data)
	}

	bad := filepath.Join(dir, "users.xml")
	if err := ToFile(bad, []string{"id"}, rows()); err == nil || !strings.Contains(err.Error(), "xml") {
		t.Errorf("expected unknown format error, got %v", err)
	}
	if _, err := os.Stat(bad); !os.IsNotExist(err) {
		t.Error("expected failed export to be removed")
	}
}
