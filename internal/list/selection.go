package list

import (
	"slices"

	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/rebeliceyang/lazyadmin/internal/query"
)

// Selection is either a set of explicitly chosen rows or every row matching
// the current query, including rows on pages not loaded yet
type Selection struct {
	all   bool
	keys  []models.Key
	items map[models.Key]models.Item
}

// BulkTarget is what a bulk action operates on. With All set, Descriptor is
// the query whose matches are targeted and Items is empty.
type BulkTarget struct {
	All        bool
	Descriptor query.Descriptor
	Items      []models.Item
}

// Toggle adds or removes one loaded row. It leaves select-all mode.
func (s *Selection) Toggle(item models.Item, keyField string) {
	if s.all {
		s.Clear()
	}
	key := item.Key(keyField)
	if i := slices.Index(s.keys, key); i >= 0 {
		s.keys = slices.Delete(s.keys, i, i+1)
		delete(s.items, key)
		return
	}
	if s.items == nil {
		s.items = make(map[models.Key]models.Item)
	}
	s.keys = append(s.keys, key)
	s.items[key] = item.Clone()
}

// SelectAll selects every row matching the query
func (s *Selection) SelectAll() {
	s.Clear()
	s.all = true
}

// Clear drops the selection
func (s *Selection) Clear() {
	s.all = false
	s.keys = nil
	s.items = nil
}

// All reports whether every matching row is selected
func (s *Selection) All() bool { return s.all }

// Empty reports whether nothing is selected
func (s *Selection) Empty() bool { return !s.all && len(s.keys) == 0 }

// Contains reports whether the row with key is selected
func (s *Selection) Contains(key models.Key) bool {
	return s.all || slices.Contains(s.keys, key)
}

// Count returns how many rows are selected given the query's total
func (s *Selection) Count(total int) int {
	if s.all {
		return total
	}
	return len(s.keys)
}

// Target resolves the selection against desc
func (s *Selection) Target(desc query.Descriptor) BulkTarget {
	if s.all {
		return BulkTarget{All: true, Descriptor: desc.Clone()}
	}
	items := make([]models.Item, 0, len(s.keys))
	for _, k := range s.keys {
		items = append(items, s.items[k].Clone())
	}
	return BulkTarget{Descriptor: desc.Clone(), Items: items}
}
