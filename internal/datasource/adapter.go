// Package datasource defines how entities talk to where their records live.
//
// Every entity has an Adapter that can page through records and fetch a single
// one. Creating, updating and deleting are separate capabilities. An entity
// lacking one simply has a nil field in its Operations, so callers decide
// what to offer by checking for nil rather than handling an error.
package datasource

import (
	"context"

	"github.com/rebeliceyang/lazyadmin/internal/filter"
	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/rebeliceyang/lazyadmin/internal/query"
)

// Adapter is the required part of a data source
type Adapter interface {
	FetchPage(ctx context.Context, req query.PageRequest) (models.FetchResult, error)
	FetchItem(ctx context.Context, key models.Key) (models.Item, error)
}

// Creator creates records. The returned item carries the assigned key.
type Creator interface {
	CreateItem(ctx context.Context, item models.Item) (models.Item, error)
}

// Updater applies a partial update to a record
type Updater interface {
	UpdateItem(ctx context.Context, key models.Key, item models.Item) (models.Item, error)
}

// Deleter removes a record
type Deleter interface {
	DeleteItem(ctx context.Context, key models.Key) error
}

// BatchFetcher fetches several records in one call. Missing keys are absent
// from the result rather than an error.
type BatchFetcher interface {
	FetchItems(ctx context.Context, keys []models.Key) (map[models.Key]models.Item, error)
}

// MatchDeleter removes every record matching a composed filter tree
type MatchDeleter interface {
	DeleteMatching(ctx context.Context, filters *filter.Tree) (int, error)
}

// Operations is the capability set of one entity. Optional capabilities are
// nil when absent.
type Operations struct {
	Adapter
	Create      Creator
	Update      Updater
	Delete      Deleter
	Batch       BatchFetcher
	MatchDelete MatchDeleter
}

// BindOption removes a capability the adapter would otherwise expose
type BindOption func(*Operations)

// WithoutCreate hides creation
func WithoutCreate() BindOption {
	return func(o *Operations) { o.Create = nil }
}

// WithoutUpdate hides updates
func WithoutUpdate() BindOption {
	return func(o *Operations) { o.Update = nil }
}

// WithoutDelete hides deletion, including deleting by match
func WithoutDelete() BindOption {
	return func(o *Operations) {
		o.Delete = nil
		o.MatchDelete = nil
	}
}

// Bind discovers the capabilities implemented by adapter and then applies opts
func Bind(adapter Adapter, opts ...BindOption) Operations {
	ops := Operations{Adapter: adapter}
	if c, ok := adapter.(Creator); ok {
		ops.Create = c
	}
	if u, ok := adapter.(Updater); ok {
		ops.Update = u
	}
	if d, ok := adapter.(Deleter); ok {
		ops.Delete = d
	}
	if b, ok := adapter.(BatchFetcher); ok {
		ops.Batch = b
	}
	if m, ok := adapter.(MatchDeleter); ok {
		ops.MatchDelete = m
	}
	for _, opt := range opts {
		opt(&ops)
	}
	return ops
}

// CanCreate reports whether the create capability is present
func (o Operations) CanCreate() bool { return o.Create != nil }

// CanUpdate reports whether the update capability is present
func (o Operations) CanUpdate() bool { return o.Update != nil }

// CanDelete reports whether the delete capability is present
func (o Operations) CanDelete() bool { return o.Delete != nil }

// CreateItem calls the create capability or fails with ErrUnsupported
func (o Operations) CreateItem(ctx context.Context, item models.Item) (models.Item, error) {
	if o.Create == nil {
		return nil, ErrUnsupported
	}
	return o.Create.CreateItem(ctx, item)
}

// UpdateItem calls the update capability or fails with ErrUnsupported
func (o Operations) UpdateItem(ctx context.Context, key models.Key, item models.Item) (models.Item, error) {
	if o.Update == nil {
		return nil, ErrUnsupported
	}
	return o.Update.UpdateItem(ctx, key, item)
}

// DeleteItem calls the delete capability or fails with ErrUnsupported
func (o Operations) DeleteItem(ctx context.Context, key models.Key) error {
	if o.Delete == nil {
		return ErrUnsupported
	}
	return o.Delete.DeleteItem(ctx, key)
}
