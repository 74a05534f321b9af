package filter

import (
	"encoding/json"
	"strings"

	"github.com/rebeliceyang/lazyadmin/internal/models"
)

// Parse turns a committed filter state into a query leaf. Valid JSON is
// decoded; anything else is kept as the raw string.
//
// This means "true" becomes a boolean and "42" a number. Callers wanting a
// literal string that happens to be valid JSON must quote it: "\"true\"".
func Parse(state string) any {
	var v any
	if err := json.Unmarshal([]byte(state), &v); err != nil {
		return state
	}
	return v
}

// Search describes how free text is injected into the filter structure
type Search struct {
	Field    string
	Operator models.Operator
	Text     string
}

// TextSearch builds a contains-search on field
func TextSearch(field, text string) Search {
	return Search{Field: field, Operator: models.OpContains, Text: text}
}

func (s Search) active() bool {
	return s.Field != "" && strings.TrimSpace(s.Text) != ""
}

// Compose merges the usable values of set, in order, into one tree and then
// injects the search text. Incomplete or invalid values never appear.
func Compose(set models.FilterSet, search Search) *Tree {
	t := NewTree()
	for _, f := range set {
		if !f.Usable() || len(f.Name) == 0 {
			continue
		}
		t.Insert(f.Name, Parse(f.State))
	}
	if search.active() {
		op := search.Operator
		if op == "" {
			op = models.OpContains
		}
		t.Insert([]string{search.Field, string(op)}, search.Text)
	}
	return t
}

// Serialize is Compose rendered to its JSON wire form
func Serialize(set models.FilterSet, search Search) string {
	return Compose(set, search).String()
}
