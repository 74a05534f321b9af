package entity

import (
	"fmt"
	"slices"

	"github.com/rebeliceyang/lazyadmin/internal/datasource"
	"github.com/rebeliceyang/lazyadmin/internal/field"
	"github.com/rebeliceyang/lazyadmin/internal/filter"
	"github.com/rebeliceyang/lazyadmin/internal/models"
)

const (
	// DefaultColumnSet is the column set used when none is chosen
	DefaultColumnSet = "default"
	// AllColumnSet shows every field
	AllColumnSet = "all"

	defaultPageSize = 25
)

// Entity declares everything the admin needs to list and edit one kind of
// record
type Entity struct {
	Name        string
	Title       string
	KeyField    string
	SearchField string
	PageSize    int
	Ops         datasource.Operations
	Fields      []field.Field
	ColumnSets  map[string][]string
	Presets     []filter.Preset
	Validators  *filter.Validators
	DefaultSort *models.Sort
}

// Label returns the display title
func (e *Entity) Label() string {
	if e.Title != "" {
		return e.Title
	}
	return e.Name
}

// Size returns the page size, defaulting when unset
func (e *Entity) Size() int {
	if e.PageSize > 0 {
		return e.PageSize
	}
	return defaultPageSize
}

// Field returns the field named name
func (e *Entity) Field(name string) (field.Field, bool) {
	for _, f := range e.Fields {
		if f.Name() == name {
			return f, true
		}
	}
	return nil, false
}

// FieldNames lists every field name in declaration order
func (e *Entity) FieldNames() []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Name()
	}
	return names
}

// HasColumnSet reports whether name is a known column set
func (e *Entity) HasColumnSet(name string) bool {
	if name == DefaultColumnSet || name == AllColumnSet {
		return true
	}
	_, ok := e.ColumnSets[name]
	return ok
}

// ColumnSetNames lists the selectable column sets, default first
func (e *Entity) ColumnSetNames() []string {
	names := []string{DefaultColumnSet, AllColumnSet}
	var extra []string
	for name := range e.ColumnSets {
		if !slices.Contains(names, name) {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	return append(names, extra...)
}

// Columns returns the fields shown for a column set. Unknown sets fall back
// to the default, and a missing default shows every field.
func (e *Entity) Columns(set string) []string {
	if cols, ok := e.ColumnSets[set]; ok {
		return slices.Clone(cols)
	}
	if set != AllColumnSet {
		if cols, ok := e.ColumnSets[DefaultColumnSet]; ok {
			return slices.Clone(cols)
		}
	}
	return e.FieldNames()
}

// Validator returns the filter validator, or nil when every value is accepted
func (e *Entity) Validator() models.Validator {
	if e.Validators == nil {
		return nil
	}
	return e.Validators
}

// Preset returns the preset named name
func (e *Entity) Preset(name string) (filter.Preset, bool) {
	for _, p := range e.Presets {
		if p.Name == name {
			return p, true
		}
	}
	return filter.Preset{}, false
}

// Validate checks the declaration for mistakes that would only show up at
// runtime
func (e *Entity) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("entity has no name")
	}
	if e.KeyField == "" {
		return fmt.Errorf("entity %s: no key field", e.Name)
	}
	if e.Ops.Adapter == nil {
		return fmt.Errorf("entity %s: no data source", e.Name)
	}
	for set, cols := range e.ColumnSets {
		for _, col := range cols {
			if _, ok := e.Field(col); !ok {
				return fmt.Errorf("entity %s: column set %s names unknown field %s", e.Name, set, col)
			}
		}
	}
	return nil
}
