package field

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/rebeliceyang/lazyadmin/internal/relation"
)

// ErrDraftNotMaterialized is returned when a draft reference reaches
// serialization without having been created first
var ErrDraftNotMaterialized = errors.New("related item has not been created yet")

// ForeignKey is a single-valued reference to another entity. Its state is a
// models.RelationRef.
type ForeignKey struct {
	Key          string
	Title        string
	DisplayField string
	Resolver     *relation.Resolver
}

func (f ForeignKey) Name() string  { return f.Key }
func (f ForeignKey) Label() string { return label(f.Key, f.Title) }

// InitialState never assumes the related item is populated
func (f ForeignKey) InitialState(item models.Item) any {
	return refFromWire(item[f.Key])
}

func (f ForeignKey) InitialCreateState() any { return models.RelationRef{} }

func (f ForeignKey) Hydrate(ctx context.Context, state any, _ models.Item) (any, error) {
	ref, ok := state.(models.RelationRef)
	if !ok {
		return state, fmt.Errorf("%s: expected relation state, got %T", f.Key, state)
	}
	if ref.Empty() || f.Resolver == nil {
		return ref, nil
	}
	return f.Resolver.Resolve(ctx, ref)
}

func (f ForeignKey) Materialize(ctx context.Context, state any) (any, error) {
	ref, ok := state.(models.RelationRef)
	if !ok || ref.Kind != models.RefDraft {
		return state, nil
	}
	if f.Resolver == nil {
		return state, fmt.Errorf("%s: %w", f.Key, ErrDraftNotMaterialized)
	}
	return f.Resolver.Create(ctx, ref.Item)
}

func (f ForeignKey) Serialize(initial models.Item, state any) (models.Item, error) {
	ref, ok := state.(models.RelationRef)
	if !ok {
		return nil, fmt.Errorf("%s: expected relation state, got %T", f.Key, state)
	}
	if ref.Kind == models.RefDraft {
		return nil, fmt.Errorf("%s: %w", f.Key, ErrDraftNotMaterialized)
	}
	out := initial.Clone()
	if out == nil {
		out = models.Item{}
	}
	if ref.Empty() {
		out[f.Key] = nil
	} else {
		out[f.Key] = string(ref.Key())
	}
	return out, nil
}

func (f ForeignKey) Display(state any) string {
	ref, _ := state.(models.RelationRef)
	return displayRef(ref, f.DisplayField)
}

// ForeignKeyList is a multi-valued reference. Its state is a
// []models.RelationRef.
type ForeignKeyList struct {
	Key          string
	Title        string
	DisplayField string
	Resolver     *relation.Resolver
}

func (f ForeignKeyList) Name() string  { return f.Key }
func (f ForeignKeyList) Label() string { return label(f.Key, f.Title) }

func (f ForeignKeyList) InitialState(item models.Item) any {
	list, _ := item[f.Key].([]any)
	refs := make([]models.RelationRef, 0, len(list))
	for _, v := range list {
		if ref := refFromWire(v); !ref.Empty() {
			refs = append(refs, ref)
		}
	}
	return refs
}

func (f ForeignKeyList) InitialCreateState() any { return []models.RelationRef{} }

// Hydrate resolves every reference. Refs that fail stay key-only and the
// failures are joined into the returned error.
func (f ForeignKeyList) Hydrate(ctx context.Context, state any, _ models.Item) (any, error) {
	refs, ok := state.([]models.RelationRef)
	if !ok {
		return state, fmt.Errorf("%s: expected relation list state, got %T", f.Key, state)
	}
	if f.Resolver == nil {
		return refs, nil
	}
	out := make([]models.RelationRef, len(refs))
	var errs []error
	for i, res := range f.Resolver.ResolveMany(ctx, refs) {
		out[i] = res.Ref
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return out, errors.Join(errs...)
}

func (f ForeignKeyList) Materialize(ctx context.Context, state any) (any, error) {
	refs, ok := state.([]models.RelationRef)
	if !ok {
		return state, nil
	}
	if f.Resolver == nil {
		for _, ref := range refs {
			if ref.Kind == models.RefDraft {
				return state, fmt.Errorf("%s: %w", f.Key, ErrDraftNotMaterialized)
			}
		}
		return refs, nil
	}
	return f.Resolver.Materialize(ctx, refs)
}

func (f ForeignKeyList) Serialize(initial models.Item, state any) (models.Item, error) {
	refs, ok := state.([]models.RelationRef)
	if !ok {
		return nil, fmt.Errorf("%s: expected relation list state, got %T", f.Key, state)
	}
	keys := make([]any, 0, len(refs))
	for _, ref := range refs {
		if ref.Kind == models.RefDraft {
			return nil, fmt.Errorf("%s: %w", f.Key, ErrDraftNotMaterialized)
		}
		keys = append(keys, string(ref.Key()))
	}
	out := initial.Clone()
	if out == nil {
		out = models.Item{}
	}
	out[f.Key] = keys
	return out, nil
}

func (f ForeignKeyList) Display(state any) string {
	refs, _ := state.([]models.RelationRef)
	parts := make([]string, len(refs))
	for i, ref := range refs {
		parts[i] = displayRef(ref, f.DisplayField)
	}
	return strings.Join(parts, ", ")
}

// refFromWire accepts a bare key, a {"type":"KEY_ONLY","key":...} object or
// an embedded related item keyed by "id". The result is always key-only;
// derived data comes from the resolver.
func refFromWire(v any) models.RelationRef {
	switch w := v.(type) {
	case nil:
		return models.RelationRef{}
	case map[string]any:
		if w["type"] == models.RefKeyOnly.String() {
			return models.KeyOnly(models.Item(w).Key("key"))
		}
		return models.KeyOnly(models.Item(w).Key("id"))
	default:
		return models.KeyOnly(models.Item{"k": v}.Key("k"))
	}
}

func displayRef(ref models.RelationRef, displayField string) string {
	switch {
	case ref.Kind == models.RefDraft:
		if displayField != "" {
			if v, ok := ref.Item[displayField]; ok {
				return fmt.Sprintf("%v (new)", v)
			}
		}
		return "(new)"
	case ref.Resolved() && displayField != "":
		if v, ok := ref.Item[displayField]; ok && v != nil {
			return fmt.Sprint(v)
		}
	}
	return string(ref.Key())
}
