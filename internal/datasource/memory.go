package datasource

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rebeliceyang/lazyadmin/internal/filter"
	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/rebeliceyang/lazyadmin/internal/query"
)

// Memory is an in-process data source. It implements every capability and is
// safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	keyField string
	items    []models.Item
	latency  time.Duration
}

// MemoryOption configures a Memory source
type MemoryOption func(*Memory)

// WithLatency delays every call, honouring context cancellation
func WithLatency(d time.Duration) MemoryOption {
	return func(m *Memory) { m.latency = d }
}

// NewMemory creates a source keyed by keyField and seeded with items
func NewMemory(keyField string, seed []models.Item, opts ...MemoryOption) *Memory {
	m := &Memory{keyField: keyField}
	for _, item := range seed {
		m.items = append(m.items, item.Clone())
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) wait(ctx context.Context) error {
	if m.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(m.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (m *Memory) indexOf(key models.Key) int {
	return slices.IndexFunc(m.items, func(item models.Item) bool {
		return item.Key(m.keyField) == key
	})
}

// Len returns the number of stored records
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *Memory) FetchPage(ctx context.Context, req query.PageRequest) (models.FetchResult, error) {
	if err := m.wait(ctx); err != nil {
		return models.FetchResult{}, err
	}

	m.mu.RLock()
	var matched []models.Item
	for _, item := range m.items {
		ok, err := Matches(item, req.Filters)
		if err != nil {
			m.mu.RUnlock()
			return models.FetchResult{}, fmt.Errorf("evaluate filters: %w", err)
		}
		if ok {
			matched = append(matched, item.Clone())
		}
	}
	m.mu.RUnlock()

	if s := req.Sort; s != nil && s.FieldName != "" {
		slices.SortStableFunc(matched, func(a, b models.Item) int {
			c := compareValues(a[s.FieldName], b[s.FieldName])
			if s.Direction == models.SortDesc {
				return -c
			}
			return c
		})
	}

	total := len(matched)
	size := req.PageSize
	if size <= 0 {
		size = total
	}
	start := min(req.Offset(), total)
	end := min(start+size, total)

	return models.FetchResult{
		NextPageAvailable: end < total,
		TotalCount:        total,
		Data:              matched[start:end],
	}, nil
}

func (m *Memory) FetchItem(ctx context.Context, key models.Key) (models.Item, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.indexOf(key)
	if i < 0 {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return m.items[i].Clone(), nil
}

func (m *Memory) FetchItems(ctx context.Context, keys []models.Key) (map[models.Key]models.Item, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[models.Key]models.Item, len(keys))
	for _, key := range keys {
		if i := m.indexOf(key); i >= 0 {
			out[key] = m.items[i].Clone()
		}
	}
	return out, nil
}

func (m *Memory) CreateItem(ctx context.Context, item models.Item) (models.Item, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	created := item.Clone()
	if created == nil {
		created = models.Item{}
	}
	key := created.Key(m.keyField)
	if key == "" {
		key = models.Key(uuid.NewString())
		created[m.keyField] = string(key)
	}
	if m.indexOf(key) >= 0 {
		return nil, fmt.Errorf("duplicate key %s", key)
	}
	m.items = append(m.items, created)
	return created.Clone(), nil
}

func (m *Memory) UpdateItem(ctx context.Context, key models.Key, item models.Item) (models.Item, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(key)
	if i < 0 {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	updated := m.items[i].Clone()
	for k, v := range item {
		if k == m.keyField {
			continue
		}
		updated[k] = v
	}
	m.items[i] = updated
	return updated.Clone(), nil
}

func (m *Memory) DeleteItem(ctx context.Context, key models.Key) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(key)
	if i < 0 {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	m.items = slices.Delete(m.items, i, i+1)
	return nil
}

func (m *Memory) DeleteMatching(ctx context.Context, filters *filter.Tree) (int, error) {
	if err := m.wait(ctx); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := make([]models.Item, 0, len(m.items))
	deleted := 0
	for _, item := range m.items {
		ok, err := Matches(item, filters)
		if err != nil {
			return 0, fmt.Errorf("evaluate filters: %w", err)
		}
		if ok {
			deleted++
			continue
		}
		kept = append(kept, item)
	}
	m.items = kept
	return deleted, nil
}
