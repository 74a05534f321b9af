package relation

import (
	"context"

	"github.com/rebeliceyang/lazyadmin/internal/datasource"
	"github.com/rebeliceyang/lazyadmin/internal/filter"
	"github.com/rebeliceyang/lazyadmin/internal/models"
)

// Reset drops every cached item
func (r *Resolver) Reset() {
	r.mu.Lock()
	clear(r.cache)
	r.mu.Unlock()
}

// Watch returns ops with every present mutation invalidating what r has
// cached. Use it for the operations the related entity itself is edited
// through, so a renamed or deleted item is fetched again on next resolution.
func (r *Resolver) Watch(ops datasource.Operations) datasource.Operations {
	w := watcher{r: r, ops: ops}
	if ops.Update != nil {
		ops.Update = watchUpdater{w}
	}
	if ops.Delete != nil {
		ops.Delete = watchDeleter{w}
	}
	if ops.MatchDelete != nil {
		ops.MatchDelete = watchMatchDeleter{w}
	}
	return ops
}

type watcher struct {
	r   *Resolver
	ops datasource.Operations
}

type watchUpdater struct{ watcher }

func (u watchUpdater) UpdateItem(ctx context.Context, key models.Key, item models.Item) (models.Item, error) {
	defer u.r.Invalidate(key)
	return u.ops.Update.UpdateItem(ctx, key, item)
}

type watchDeleter struct{ watcher }

func (d watchDeleter) DeleteItem(ctx context.Context, key models.Key) error {
	defer d.r.Invalidate(key)
	return d.ops.Delete.DeleteItem(ctx, key)
}

type watchMatchDeleter struct{ watcher }

func (m watchMatchDeleter) DeleteMatching(ctx context.Context, filters *filter.Tree) (int, error) {
	defer m.r.Reset()
	return m.ops.MatchDelete.DeleteMatching(ctx, filters)
}
