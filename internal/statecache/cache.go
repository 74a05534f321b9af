// Package statecache persists the query state of a list view to an external
// store and restores it.
//
// The state is kept under four keys: filters, sort and searchtext hold JSON,
// columns holds the column set name. A neutral value (no filters, no sort,
// empty search, default column set) removes its key, so an untouched view
// leaves the store empty.
package statecache

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/rebeliceyang/lazyadmin/internal/models"
)

const (
	KeyFilters    = "filters"
	KeySort       = "sort"
	KeySearchText = "searchtext"
	KeyColumns    = "columns"

	DefaultColumnSet = "default"
)

var stateKeys = []string{KeyFilters, KeySort, KeySearchText, KeyColumns}

// ErrNavigationPending is returned by Store after the user navigated back or
// forward and the new location has not been read yet. Writing then would
// overwrite the location the user just moved to.
var ErrNavigationPending = errors.New("navigation pending: read state before storing")

// NavigationMode says how a write relates to the store's history
type NavigationMode int

const (
	// Push records a new history entry (user-initiated changes)
	Push NavigationMode = iota
	// Replace rewrites the current entry (normalization, redirects)
	Replace
)

// Store is an external key/value location with optional history
type Store interface {
	Values() url.Values
	Apply(values url.Values, mode NavigationMode) error
	// Version changes whenever the location moves for reasons other than Apply
	Version() uint64
}

// Snapshot is the persisted part of a list view
type Snapshot struct {
	Filters    models.FilterSet
	Sort       *models.Sort
	SearchText string
	ColumnSet  string
}

// Cache reads and writes snapshots against a Store
type Cache struct {
	store        Store
	validator    models.Validator
	hasColumnSet func(string) bool
	seen         uint64
}

// Option configures a Cache
type Option func(*Cache)

// WithValidator revalidates restored filters
func WithValidator(v models.Validator) Option {
	return func(c *Cache) { c.validator = v }
}

// WithColumnSets rejects restored column sets that fail ok
func WithColumnSets(ok func(string) bool) Option {
	return func(c *Cache) { c.hasColumnSet = ok }
}

// New creates a cache over store
func New(store Store, opts ...Option) *Cache {
	c := &Cache{store: store, seen: store.Version()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type wireFilter struct {
	Name  []string `json:"name"`
	State string   `json:"state"`
}

// Read restores the snapshot. Missing or malformed values come back as
// their neutral defaults.
func (c *Cache) Read() Snapshot {
	values := c.store.Values()
	c.seen = c.store.Version()

	return Snapshot{
		Filters:    c.decodeFilters(values.Get(KeyFilters)),
		Sort:       decodeSort(values.Get(KeySort)),
		SearchText: decodeSearch(values.Get(KeySearchText)),
		ColumnSet:  c.decodeColumns(values.Get(KeyColumns)),
	}
}

// Store writes s. Writing what the store already holds does nothing, so no
// duplicate history entry is created.
func (c *Cache) Store(s Snapshot, mode NavigationMode) error {
	if c.store.Version() != c.seen {
		return ErrNavigationPending
	}

	current := c.store.Values()
	next := url.Values{}
	for k, v := range current {
		next[k] = append([]string(nil), v...)
	}
	encoded, err := Encode(s)
	if err != nil {
		return err
	}
	for _, k := range stateKeys {
		if v, ok := encoded[k]; ok {
			next[k] = v
		} else {
			delete(next, k)
		}
	}

	if next.Encode() == current.Encode() {
		return nil
	}
	return c.store.Apply(next, mode)
}

// Encode renders the non-neutral parts of s as store values
func Encode(s Snapshot) (url.Values, error) {
	v := url.Values{}
	if len(s.Filters) > 0 {
		wire := make([]wireFilter, len(s.Filters))
		for i, f := range s.Filters {
			wire[i] = wireFilter{Name: f.Name, State: f.State}
		}
		b, err := json.Marshal(wire)
		if err != nil {
			return nil, err
		}
		v.Set(KeyFilters, string(b))
	}
	if s.Sort != nil && s.Sort.FieldName != "" {
		b, err := json.Marshal(s.Sort)
		if err != nil {
			return nil, err
		}
		v.Set(KeySort, string(b))
	}
	if s.SearchText != "" {
		b, err := json.Marshal(s.SearchText)
		if err != nil {
			return nil, err
		}
		v.Set(KeySearchText, string(b))
	}
	if s.ColumnSet != "" && s.ColumnSet != DefaultColumnSet {
		v.Set(KeyColumns, s.ColumnSet)
	}
	return v, nil
}

func (c *Cache) decodeFilters(raw string) models.FilterSet {
	if raw == "" {
		return nil
	}
	var wire []wireFilter
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil
	}
	var set models.FilterSet
	for _, w := range wire {
		if len(w.Name) == 0 {
			continue
		}
		f := models.FilterValue{Name: w.Name, WorkingState: w.State, State: w.State}
		f.Revalidate(c.validator)
		set = set.Set(f)
	}
	return set
}

func decodeSort(raw string) *models.Sort {
	if raw == "" {
		return nil
	}
	var s models.Sort
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil
	}
	if s.FieldName == "" || !s.Direction.Valid() {
		return nil
	}
	return &s
}

func decodeSearch(raw string) string {
	if raw == "" {
		return ""
	}
	var s string
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return ""
	}
	return s
}

func (c *Cache) decodeColumns(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultColumnSet
	}
	if c.hasColumnSet != nil && !c.hasColumnSet(raw) {
		return DefaultColumnSet
	}
	return raw
}
