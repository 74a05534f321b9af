// Package detail implements viewing, creating and editing a single record.
package detail

import (
	"context"
	"errors"
	"fmt"

	"github.com/rebeliceyang/lazyadmin/internal/datasource"
	"github.com/rebeliceyang/lazyadmin/internal/entity"
	"github.com/rebeliceyang/lazyadmin/internal/field"
	"github.com/rebeliceyang/lazyadmin/internal/models"
)

// ErrNotLoaded is returned when acting on an edit view whose item is missing
var ErrNotLoaded = errors.New("item not loaded")

// Mode distinguishes editing an existing item from creating one
type Mode int

const (
	ModeEdit Mode = iota
	ModeCreate
)

// Detail holds the per-field state of one item
type Detail struct {
	entity    *entity.Entity
	mode      Mode
	key       models.Key
	item      models.Item
	states    map[string]any
	fieldErrs map[string]error
	dirty     bool
}

// Load fetches the item with key and derives every field's state. Hydration
// is a separate step; see Hydrate.
func Load(ctx context.Context, e *entity.Entity, key models.Key) (*Detail, error) {
	item, err := e.Ops.FetchItem(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", e.Name, key, err)
	}
	d := &Detail{entity: e, mode: ModeEdit, key: key}
	d.reset(item)
	return d, nil
}

// NewCreate starts a create flow for e
func NewCreate(e *entity.Entity) (*Detail, error) {
	if !e.Ops.CanCreate() {
		return nil, fmt.Errorf("create %s: %w", e.Name, datasource.ErrUnsupported)
	}
	d := &Detail{
		entity:    e,
		mode:      ModeCreate,
		states:    make(map[string]any, len(e.Fields)),
		fieldErrs: make(map[string]error),
	}
	for _, f := range e.Fields {
		d.states[f.Name()] = field.InitialCreateState(f)
	}
	return d, nil
}

func (d *Detail) reset(item models.Item) {
	d.item = item
	d.key = item.Key(d.entity.KeyField)
	d.states = make(map[string]any, len(d.entity.Fields))
	d.fieldErrs = make(map[string]error)
	d.dirty = false
	for _, f := range d.entity.Fields {
		d.states[f.Name()] = f.InitialState(item)
	}
}

// Hydrate runs every field hydrator. A failing field keeps its state and
// records a field error; the other fields are unaffected.
func (d *Detail) Hydrate(ctx context.Context) {
	for _, f := range d.entity.Fields {
		h, ok := f.(field.Hydrator)
		if !ok {
			continue
		}
		state, err := h.Hydrate(ctx, d.states[f.Name()], d.item)
		if state != nil {
			d.states[f.Name()] = state
		}
		if err != nil {
			d.fieldErrs[f.Name()] = err
		} else {
			delete(d.fieldErrs, f.Name())
		}
	}
}

func (d *Detail) Entity() *entity.Entity { return d.entity }
func (d *Detail) Mode() Mode             { return d.mode }
func (d *Detail) Key() models.Key        { return d.key }
func (d *Detail) Item() models.Item      { return d.item.Clone() }
func (d *Detail) Dirty() bool            { return d.dirty }

// State returns the state of the named field
func (d *Detail) State(name string) any {
	return d.states[name]
}

// FieldError returns the last hydration or save error of the named field
func (d *Detail) FieldError(name string) error {
	return d.fieldErrs[name]
}

// FieldErrors returns every field error keyed by field name
func (d *Detail) FieldErrors() map[string]error {
	out := make(map[string]error, len(d.fieldErrs))
	for k, v := range d.fieldErrs {
		out[k] = v
	}
	return out
}

// Display renders the named field
func (d *Detail) Display(name string) string {
	f, ok := d.entity.Field(name)
	if !ok {
		return ""
	}
	return f.Display(d.states[name])
}

// Set replaces the state of the named field
func (d *Detail) Set(name string, state any) error {
	f, ok := d.entity.Field(name)
	if !ok {
		return fmt.Errorf("%s has no field %s", d.entity.Name, name)
	}
	if field.IsReadOnly(f) {
		return fmt.Errorf("%s.%s is read-only", d.entity.Name, name)
	}
	d.states[name] = state
	delete(d.fieldErrs, name)
	d.dirty = true
	return nil
}

// CanSave reports whether the entity supports saving in the current mode
func (d *Detail) CanSave() bool {
	if d.mode == ModeCreate {
		return d.entity.Ops.CanCreate()
	}
	return d.entity.Ops.CanUpdate()
}

// CanDelete reports whether the item can be deleted
func (d *Detail) CanDelete() bool {
	return d.mode == ModeEdit && d.entity.Ops.CanDelete()
}

// Save creates related drafts, serializes every field into the payload and
// then updates or creates the item. On success the view switches to editing
// the saved item.
func (d *Detail) Save(ctx context.Context) (models.Item, error) {
	if d.mode == ModeEdit && d.item == nil {
		return nil, ErrNotLoaded
	}
	if !d.CanSave() {
		return nil, fmt.Errorf("save %s: %w", d.entity.Name, datasource.ErrUnsupported)
	}

	for _, f := range d.entity.Fields {
		m, ok := f.(field.Materializer)
		if !ok {
			continue
		}
		state, err := m.Materialize(ctx, d.states[f.Name()])
		if err != nil {
			d.fieldErrs[f.Name()] = err
			return nil, fmt.Errorf("save %s: %w", d.entity.Name, err)
		}
		d.states[f.Name()] = state
	}

	payload := models.Item{}
	if d.mode == ModeEdit {
		payload = d.item.Clone()
	}
	for _, f := range d.entity.Fields {
		if field.IsReadOnly(f) {
			continue
		}
		next, err := f.Serialize(payload, d.states[f.Name()])
		if err != nil {
			d.fieldErrs[f.Name()] = err
			return nil, fmt.Errorf("save %s: %w", d.entity.Name, err)
		}
		payload = next
	}

	var (
		saved models.Item
		err   error
	)
	if d.mode == ModeCreate {
		saved, err = d.entity.Ops.CreateItem(ctx, payload)
	} else {
		saved, err = d.entity.Ops.UpdateItem(ctx, d.key, payload)
	}
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", d.entity.Name, err)
	}

	d.mode = ModeEdit
	d.reset(saved)
	return saved.Clone(), nil
}

// Delete removes the item
func (d *Detail) Delete(ctx context.Context) error {
	if d.mode != ModeEdit || d.item == nil {
		return ErrNotLoaded
	}
	if !d.entity.Ops.CanDelete() {
		return fmt.Errorf("delete %s: %w", d.entity.Name, datasource.ErrUnsupported)
	}
	if err := d.entity.Ops.DeleteItem(ctx, d.key); err != nil {
		return fmt.Errorf("delete %s %s: %w", d.entity.Name, d.key, err)
	}
	return nil
}
