// Package list drives the paged, filtered, sorted view of one entity.
//
// A List is owned by the bubbletea Update loop: every mutation happens there
// and every fetch runs as a tea.Cmd. Each fetch is tagged with a generation
// number and the key of the query it answers. Results that do not match the
// latest request are dropped, so a slow response can never overwrite a newer
// one.
package list

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rebeliceyang/lazyadmin/internal/entity"
	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/rebeliceyang/lazyadmin/internal/query"
	"github.com/rs/zerolog"
)

// Status is the lifecycle of the current query
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusComplete
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusComplete:
		return "complete"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// PageLoadedMsg carries the outcome of one fetch back into Update
type PageLoadedMsg struct {
	Entity     string
	Generation uint64
	Key        string
	Page       int
	Result     models.FetchResult
	Err        error
}

// List is the state of one entity's list view
type List struct {
	entity *entity.Entity
	logger zerolog.Logger

	desc   query.Descriptor
	status Status
	err    error

	rows          []models.Item
	total         int
	nextAvailable bool
	selection     Selection

	generation  uint64
	inflightKey string
	cancel      context.CancelFunc
}

// New creates an idle list for e
func New(e *entity.Entity, logger zerolog.Logger) *List {
	desc := query.New()
	desc.Sort = e.DefaultSort.Clone()
	return &List{
		entity: e,
		logger: logger.With().Str("component", "list").Str("entity", e.Name).Logger(),
		desc:   desc,
	}
}

func (l *List) Entity() *entity.Entity       { return l.entity }
func (l *List) Descriptor() query.Descriptor { return l.desc.Clone() }
func (l *List) Status() Status               { return l.status }
func (l *List) Err() error                   { return l.err }
func (l *List) Rows() []models.Item          { return l.rows }
func (l *List) TotalCount() int              { return l.total }
func (l *List) NextPageAvailable() bool      { return l.nextAvailable }
func (l *List) Selection() *Selection        { return &l.selection }

// Key identifies the query currently shown or loading
func (l *List) Key() string {
	return l.desc.Key(l.entity.SearchField)
}

// Load fetches the current descriptor from the start
func (l *List) Load() tea.Cmd {
	l.desc = l.desc.WithPage(1)
	l.reset()
	return l.fetch()
}

// SetDescriptor moves the list to next. A change of filters, sort or search
// text starts over at page 1. Only the page right after the current one is
// appended to the loaded rows; any other page replaces them. When next
// fetches the same data as the query already shown or loading, the
// descriptor is updated without a fetch.
func (l *List) SetDescriptor(next query.Descriptor) tea.Cmd {
	next = query.Rebuild(l.desc, next)
	if l.status != StatusIdle && l.status != StatusError && next.Key(l.entity.SearchField) == l.Key() {
		l.desc = next
		return nil
	}
	if !l.desc.SameQuery(next) || next.Page != l.desc.Page+1 {
		l.reset()
	}
	l.desc = next
	return l.fetch()
}

// SetFilters replaces the filter set
func (l *List) SetFilters(set models.FilterSet) tea.Cmd {
	return l.SetDescriptor(l.desc.WithFilters(set))
}

// SetSort replaces the sort; nil means unsorted
func (l *List) SetSort(s *models.Sort) tea.Cmd {
	return l.SetDescriptor(l.desc.WithSort(s))
}

// SetSearch replaces the free-text search
func (l *List) SetSearch(text string) tea.Cmd {
	return l.SetDescriptor(l.desc.WithSearch(text))
}

// NextPage continues the current result set. It is only possible once the
// current page has loaded and the source reported more data.
func (l *List) NextPage() tea.Cmd {
	if l.status != StatusComplete || !l.nextAvailable {
		return nil
	}
	l.desc = l.desc.WithPage(l.desc.Page + 1)
	return l.fetch()
}

// Retry re-issues the current descriptor after an error
func (l *List) Retry() tea.Cmd {
	if l.status != StatusError {
		return nil
	}
	if l.desc.Page == 1 {
		l.reset()
	}
	return l.fetch()
}

// Refresh reloads from page 1, e.g. after a mutation
func (l *List) Refresh() tea.Cmd {
	return l.Load()
}

// Cancel abandons any in-flight fetch. Its result will be discarded.
func (l *List) Cancel() {
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.generation++
	l.inflightKey = ""
	if l.status == StatusLoading {
		l.status = StatusIdle
	}
}

func (l *List) reset() {
	l.rows = nil
	l.total = 0
	l.nextAvailable = false
	l.selection.Clear()
}

func (l *List) fetch() tea.Cmd {
	if l.cancel != nil {
		l.cancel()
	}
	l.generation++
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.inflightKey = l.Key()
	l.status = StatusLoading
	l.err = nil

	gen := l.generation
	key := l.inflightKey
	name := l.entity.Name
	ops := l.entity.Ops
	req := l.desc.Request(l.entity.SearchField, l.entity.Size())

	l.logger.Debug().
		Uint64("generation", gen).
		Int("page", req.Page).
		Str("filters", req.Filters.String()).
		Msg("fetching page")

	return func() tea.Msg {
		res, err := ops.FetchPage(ctx, req)
		return PageLoadedMsg{
			Entity:     name,
			Generation: gen,
			Key:        key,
			Page:       req.Page,
			Result:     res,
			Err:        err,
		}
	}
}

// Apply folds a fetch result into the list. It reports false when the
// result is stale and was discarded.
func (l *List) Apply(msg PageLoadedMsg) bool {
	if msg.Entity != l.entity.Name || msg.Generation != l.generation || msg.Key != l.inflightKey {
		l.logger.Debug().
			Uint64("generation", msg.Generation).
			Uint64("latest", l.generation).
			Msg("discarding stale page")
		return false
	}
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.inflightKey = ""

	if msg.Err != nil {
		l.status = StatusError
		l.err = msg.Err
		if !errors.Is(msg.Err, context.Canceled) {
			l.logger.Warn().Err(msg.Err).Int("page", msg.Page).Msg("fetch failed")
		}
		return true
	}

	if msg.Page <= 1 {
		l.rows = msg.Result.Data
	} else {
		l.rows = append(l.rows, msg.Result.Data...)
	}
	l.total = msg.Result.TotalCount
	l.nextAvailable = msg.Result.NextPageAvailable
	l.status = StatusComplete
	l.err = nil
	return true
}
