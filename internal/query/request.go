package query

import (
	"github.com/rebeliceyang/lazyadmin/internal/filter"
	"github.com/rebeliceyang/lazyadmin/internal/models"
)

// PageRequest is the immutable value handed to a data source. The search text
// is already injected into Filters; it is repeated for sources that do their
// own text search.
type PageRequest struct {
	Page       int
	PageSize   int
	Filters    *filter.Tree
	Sort       *models.Sort
	SearchText string
}

// Offset returns the zero-based index of the first row of the page
func (r PageRequest) Offset() int {
	if r.Page < 1 || r.PageSize < 1 {
		return 0
	}
	return (r.Page - 1) * r.PageSize
}
