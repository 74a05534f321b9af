// Package field describes how one attribute of an entity moves between its
// wire form in an item and the state the UI edits.
package field

import (
	"context"

	"github.com/rebeliceyang/lazyadmin/internal/models"
)

// Field maps one item attribute to editable state and back. Implementations
// hold no mutable state.
type Field interface {
	Name() string
	Label() string
	// InitialState derives the edit state from a loaded item
	InitialState(item models.Item) any
	// Serialize returns a copy of initial with state written back into it
	Serialize(initial models.Item, state any) (models.Item, error)
	// Display renders the state for tables and detail views
	Display(state any) string
}

// Hydrator enriches the state with asynchronously fetched data. Only the
// detail view calls it.
type Hydrator interface {
	Hydrate(ctx context.Context, state any, item models.Item) (any, error)
}

// CreateInitializer supplies the state of a fresh item being created
type CreateInitializer interface {
	InitialCreateState() any
}

// Materializer creates related items held as drafts in the state and
// returns the state with drafts replaced by created references. The detail
// view calls it before Serialize when saving.
type Materializer interface {
	Materialize(ctx context.Context, state any) (any, error)
}

// ReadOnly marks fields that are never written back
type ReadOnly interface {
	ReadOnly() bool
}

// InitialCreateState returns the create state of f, falling back to the
// state of an empty item
func InitialCreateState(f Field) any {
	if ci, ok := f.(CreateInitializer); ok {
		return ci.InitialCreateState()
	}
	return f.InitialState(models.Item{})
}

// IsReadOnly reports whether f opts out of serialization
func IsReadOnly(f Field) bool {
	ro, ok := f.(ReadOnly)
	return ok && ro.ReadOnly()
}

func label(name, l string) string {
	if l != "" {
		return l
	}
	return name
}
