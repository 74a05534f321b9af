package query

import (
	"encoding/json"
	"fmt"

	"github.com/rebeliceyang/lazyadmin/internal/filter"
	"github.com/rebeliceyang/lazyadmin/internal/models"
)

// Descriptor is the complete description of one list query
type Descriptor struct {
	Page       int
	Filters    models.FilterSet
	Sort       *models.Sort
	SearchText string
}

// New returns a descriptor for the first page with nothing applied
func New() Descriptor {
	return Descriptor{Page: 1}
}

// WithFilters returns a copy with new filters, back on page 1
func (d Descriptor) WithFilters(set models.FilterSet) Descriptor {
	d.Filters = set.Clone()
	d.Page = 1
	return d
}

// WithSort returns a copy with a new sort, back on page 1
func (d Descriptor) WithSort(s *models.Sort) Descriptor {
	d.Sort = s.Clone()
	d.Page = 1
	return d
}

// WithSearch returns a copy with new search text, back on page 1
func (d Descriptor) WithSearch(text string) Descriptor {
	d.SearchText = text
	d.Page = 1
	return d
}

// WithPage returns a copy pointing at page, clamped to at least 1
func (d Descriptor) WithPage(page int) Descriptor {
	d.Page = max(page, 1)
	return d
}

// Clone returns a deep copy
func (d Descriptor) Clone() Descriptor {
	d.Filters = d.Filters.Clone()
	d.Sort = d.Sort.Clone()
	return d
}

// SameQuery reports whether filters, sort and search text match, ignoring page
func (d Descriptor) SameQuery(o Descriptor) bool {
	return d.Filters.Equal(o.Filters) && d.Sort.Equal(o.Sort) && d.SearchText == o.SearchText
}

// Rebuild produces the descriptor that should follow prev when the user asks
// for next. Any change to filters, sort or search text sends it to page 1.
func Rebuild(prev, next Descriptor) Descriptor {
	out := next.Clone()
	if !prev.SameQuery(next) {
		out.Page = 1
	}
	out.Page = max(out.Page, 1)
	return out
}

// Composed returns the filter tree the data source sees, search included
func (d Descriptor) Composed(searchField string) *filter.Tree {
	return filter.Compose(d.Filters, filter.TextSearch(searchField, d.SearchText))
}

// Key identifies the effective query. Two descriptors with the same key
// fetch the same data.
func (d Descriptor) Key(searchField string) string {
	sortKey := ""
	if d.Sort != nil {
		b, _ := json.Marshal(d.Sort)
		sortKey = string(b)
	}
	return fmt.Sprintf("%d|%s|%s|%s", max(d.Page, 1), d.Composed(searchField).String(), sortKey, d.SearchText)
}

// Request builds the adapter request for this descriptor
func (d Descriptor) Request(searchField string, pageSize int) PageRequest {
	return PageRequest{
		Page:       max(d.Page, 1),
		PageSize:   pageSize,
		Filters:    d.Composed(searchField),
		Sort:       d.Sort.Clone(),
		SearchText: d.SearchText,
	}
}
