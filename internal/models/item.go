package models

import "fmt"

// Key identifies one item within an entity
type Key string

// Item is one record as it travels over the wire
type Item map[string]any

// Key returns the item's identifier stored under keyField
func (i Item) Key(keyField string) Key {
	v, ok := i[keyField]
	if !ok || v == nil {
		return ""
	}
	switch k := v.(type) {
	case string:
		return Key(k)
	case float64:
		if k == float64(int64(k)) {
			return Key(fmt.Sprintf("%d", int64(k)))
		}
	}
	return Key(fmt.Sprint(v))
}

// Clone returns a shallow copy of the item
func (i Item) Clone() Item {
	if i == nil {
		return nil
	}
	out := make(Item, len(i))
	for k, v := range i {
		out[k] = v
	}
	return out
}

// SortDirection is the ordering of a sorted column
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Valid reports whether d is a known direction
func (d SortDirection) Valid() bool {
	return d == SortAsc || d == SortDesc
}

// Sort orders a result set by one field
type Sort struct {
	FieldName string        `json:"fieldName" yaml:"field_name"`
	Direction SortDirection `json:"direction" yaml:"direction"`
}

// Equal compares two optional sorts
func (s *Sort) Equal(o *Sort) bool {
	if s == nil || o == nil {
		return s == nil && o == nil
	}
	return *s == *o
}

// Clone returns a copy of an optional sort
func (s *Sort) Clone() *Sort {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// FetchResult is one page of data
type FetchResult struct {
	NextPageAvailable bool   `json:"nextPageAvailable"`
	TotalCount        int    `json:"totalCount"`
	Data              []Item `json:"data"`
}
