// Package relation resolves foreign-key references into the items they point
// at. Resolution is lazy: nothing is fetched until a caller asks, and each
// key is fetched at most once per resolver until it is invalidated.
package relation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rebeliceyang/lazyadmin/internal/datasource"
	"github.com/rebeliceyang/lazyadmin/internal/models"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const defaultConcurrency = 4

// Error is a failure to resolve or create one related item
type Error struct {
	Entity string
	Key    models.Key
	Err    error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %v", e.Entity, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Entity, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Result is the outcome for one reference of a ResolveMany call
type Result struct {
	Ref models.RelationRef
	Err error
}

// Resolver fetches and creates items of one related entity
type Resolver struct {
	entity      string
	keyField    string
	ops         datasource.Operations
	concurrency int

	group singleflight.Group
	mu    sync.RWMutex
	cache map[models.Key]models.Item
}

// Option configures a Resolver
type Option func(*Resolver)

// WithConcurrency bounds parallel fetches when the source cannot batch
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// New creates a resolver for the entity named entity
func New(entity, keyField string, ops datasource.Operations, opts ...Option) *Resolver {
	r := &Resolver{
		entity:      entity,
		keyField:    keyField,
		ops:         ops,
		concurrency: defaultConcurrency,
		cache:       make(map[models.Key]models.Item),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Entity returns the name of the related entity
func (r *Resolver) Entity() string { return r.entity }

// KeyField returns the key field of the related entity
func (r *Resolver) KeyField() string { return r.keyField }

// CanCreate reports whether related items can be created from here
func (r *Resolver) CanCreate() bool { return r.ops.CanCreate() }

func (r *Resolver) cached(key models.Key) (models.Item, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.cache[key]
	return item, ok
}

func (r *Resolver) remember(key models.Key, item models.Item) {
	r.mu.Lock()
	r.cache[key] = item.Clone()
	r.mu.Unlock()
}

// Invalidate drops a cached item so the next resolution fetches it again
func (r *Resolver) Invalidate(key models.Key) {
	r.mu.Lock()
	delete(r.cache, key)
	r.mu.Unlock()
}

// Resolve turns a key-only reference into a full one. Full and draft
// references are returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, ref models.RelationRef) (models.RelationRef, error) {
	if ref.Kind != models.RefKeyOnly {
		return ref, nil
	}
	if item, ok := r.cached(ref.RefKey); ok {
		return models.Full(ref.RefKey, item.Clone()), nil
	}

	v, err, _ := r.group.Do(string(ref.RefKey), func() (any, error) {
		item, err := r.ops.FetchItem(ctx, ref.RefKey)
		if err != nil {
			return nil, err
		}
		r.remember(ref.RefKey, item)
		return item, nil
	})
	if err != nil {
		return ref, &Error{Entity: r.entity, Key: ref.RefKey, Err: err}
	}
	return models.Full(ref.RefKey, v.(models.Item).Clone()), nil
}

// ResolveMany resolves each reference independently. A failure for one
// reference is reported in its Result and does not affect the others.
func (r *Resolver) ResolveMany(ctx context.Context, refs []models.RelationRef) []Result {
	results := make([]Result, len(refs))
	var pending []int
	for i, ref := range refs {
		results[i] = Result{Ref: ref}
		if ref.Kind != models.RefKeyOnly {
			continue
		}
		if item, ok := r.cached(ref.RefKey); ok {
			results[i].Ref = models.Full(ref.RefKey, item.Clone())
			continue
		}
		pending = append(pending, i)
	}
	if len(pending) == 0 {
		return results
	}

	if r.ops.Batch != nil {
		r.resolveBatch(ctx, refs, pending, results)
		return results
	}

	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)
	for _, i := range pending {
		i := i
		g.Go(func() error {
			ref, err := r.Resolve(ctx, refs[i])
			results[i] = Result{Ref: ref, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *Resolver) resolveBatch(ctx context.Context, refs []models.RelationRef, pending []int, results []Result) {
	keys := make([]models.Key, 0, len(pending))
	seen := make(map[models.Key]bool, len(pending))
	for _, i := range pending {
		if k := refs[i].RefKey; !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	items, err := r.ops.Batch.FetchItems(ctx, keys)
	for _, i := range pending {
		key := refs[i].RefKey
		if err != nil {
			results[i].Err = &Error{Entity: r.entity, Key: key, Err: err}
			continue
		}
		item, ok := items[key]
		if !ok {
			results[i].Err = &Error{Entity: r.entity, Key: key, Err: datasource.ErrNotFound}
			continue
		}
		r.remember(key, item)
		results[i].Ref = models.Full(key, item.Clone())
	}
}

// Create persists a new related item on its own, before any owner is saved
func (r *Resolver) Create(ctx context.Context, partial models.Item) (models.RelationRef, error) {
	if !r.ops.CanCreate() {
		return models.RelationRef{}, &Error{Entity: r.entity, Err: datasource.ErrUnsupported}
	}
	created, err := r.ops.CreateItem(ctx, partial)
	if err != nil {
		return models.RelationRef{}, &Error{Entity: r.entity, Err: err}
	}
	key := created.Key(r.keyField)
	if key == "" {
		return models.RelationRef{}, &Error{Entity: r.entity, Err: errors.New("created item has no key")}
	}
	r.remember(key, created)
	return models.Full(key, created), nil
}

// Materialize creates every draft in refs and returns the refs with drafts
// replaced by full references. It stops at the first failure.
func (r *Resolver) Materialize(ctx context.Context, refs []models.RelationRef) ([]models.RelationRef, error) {
	out := make([]models.RelationRef, len(refs))
	for i, ref := range refs {
		if ref.Kind != models.RefDraft {
			out[i] = ref
			continue
		}
		created, err := r.Create(ctx, ref.Item)
		if err != nil {
			return nil, err
		}
		out[i] = created
	}
	return out, nil
}
