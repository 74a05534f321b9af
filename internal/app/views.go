package app

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazyadmin/internal/entity"
	"github.com/rebeliceyang/lazyadmin/internal/format"
	"github.com/rebeliceyang/lazyadmin/internal/list"
	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/rebeliceyang/lazyadmin/internal/query"
	"github.com/rebeliceyang/lazyadmin/internal/statecache"
)

// view is the list of one entity together with the caches holding its state.
// cache follows the shared location; saved, when persistence is on, keeps
// the last view of the entity across sessions.
type view struct {
	entity    *entity.Entity
	list      *list.List
	cache     *statecache.Cache
	saved     *statecache.Cache
	savedRaw  *statecache.FileStore
	columnSet string
}

func entityPath(name string) string {
	return "/" + name
}

func entityFromPath(path string) string {
	name := strings.TrimPrefix(path, "/")
	name, _, _ = strings.Cut(name, "/")
	return name
}

// view returns the view of the named entity, creating it on first use
func (a *App) view(name string) (*view, error) {
	if v, ok := a.views[name]; ok {
		return v, nil
	}
	e, ok := a.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown entity %q", name)
	}

	opts := []statecache.Option{
		statecache.WithValidator(e.Validator()),
		statecache.WithColumnSets(e.HasColumnSet),
	}
	v := &view{
		entity:    e,
		list:      list.New(e, a.logger),
		cache:     statecache.New(a.store, opts...),
		columnSet: entity.DefaultColumnSet,
	}
	if a.config.State.Persist {
		v.savedRaw = statecache.NewFileStore(a.config.StatePath(), name)
		v.saved = statecache.New(v.savedRaw, opts...)
	}
	a.views[name] = v
	return v, nil
}

// lastValues returns the location query to open v with: the persisted view
// when there is one, otherwise whatever v showed last in this session
func (a *App) lastValues(v *view) url.Values {
	if v.savedRaw != nil {
		return v.savedRaw.Values()
	}
	values, err := statecache.Encode(a.snapshot(v))
	if err != nil {
		return url.Values{}
	}
	return values
}

// snapshot captures the persisted part of v. The entity's default sort is
// neutral and is not written.
func (a *App) snapshot(v *view) statecache.Snapshot {
	return snapshotOf(v, v.list.Descriptor())
}

func snapshotOf(v *view, d query.Descriptor) statecache.Snapshot {
	s := statecache.Snapshot{
		Filters:    d.Filters,
		SearchText: d.SearchText,
		ColumnSet:  v.columnSet,
	}
	if !d.Sort.Equal(v.entity.DefaultSort) {
		s.Sort = d.Sort
	}
	return s
}

// syncLocation makes the list of the entity named by the current location
// show the state stored there
func (a *App) syncLocation() tea.Cmd {
	name := entityFromPath(a.store.Path())
	v, err := a.view(name)
	if err != nil {
		a.ShowError("Unknown view", err.Error())
		return nil
	}
	if a.current != nil && a.current != v {
		a.current.list.Cancel()
	}
	a.current = v
	a.state.CurrentEntity = name
	for i, n := range a.state.Entities {
		if n == name {
			a.state.EntityCursor = i
		}
	}
	a.rightPanel.Title = v.entity.Label()
	a.state.ViewMode = models.NormalMode
	a.detailView = nil
	a.pendingDetail = ""

	snap := v.cache.Read()
	v.columnSet = snap.ColumnSet
	sort := snap.Sort
	if sort == nil {
		sort = v.entity.DefaultSort
	}
	desc := v.list.Descriptor().
		WithFilters(snap.Filters).
		WithSort(sort).
		WithSearch(snap.SearchText)

	// Drop whatever the cache rejected while reading
	if err := v.cache.Store(snapshotOf(v, desc), statecache.Replace); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to normalize view location")
	}

	if v.list.Status() != list.StatusIdle && v.list.Descriptor().SameQuery(desc) {
		return nil
	}
	a.tableView.SelectedRow = 0
	a.tableView.TopRow = 0
	return v.list.SetDescriptor(desc)
}

// change applies a user-initiated change to the current list and records
// the new state as a new location
func (a *App) change(fn func(v *view) tea.Cmd) tea.Cmd {
	v := a.current
	if v == nil {
		return nil
	}
	cmd := fn(v)
	a.tableView.SelectedRow = 0
	a.tableView.TopRow = 0
	return tea.Batch(cmd, a.commit(v))
}

// commit stores the state of v. When the location moved underneath, the
// moved-to location wins and the list follows it instead.
func (a *App) commit(v *view) tea.Cmd {
	snap := a.snapshot(v)
	if err := v.cache.Store(snap, statecache.Push); err != nil {
		if errors.Is(err, statecache.ErrNavigationPending) {
			a.logger.Debug().Msg("Location moved before store, following it")
			return a.syncLocation()
		}
		a.logger.Warn().Err(err).Msg("Failed to store view location")
	}
	if v.saved != nil {
		if err := v.saved.Store(snap, statecache.Replace); err != nil {
			a.logger.Warn().Err(err).Str("entity", v.entity.Name).Msg("Failed to persist view")
		}
	}
	return nil
}

// navigate switches to the named entity as a new location
func (a *App) navigate(name string) tea.Cmd {
	if a.current != nil && a.current.entity.Name == name {
		return nil
	}
	v, err := a.view(name)
	if err != nil {
		a.ShowError("Unknown view", err.Error())
		return nil
	}
	a.store.Navigate(entityPath(name), a.lastValues(v), statecache.Push)
	a.flash = ""
	return a.syncLocation()
}

func (a *App) back() tea.Cmd {
	if !a.store.Back() {
		a.setFlash("No earlier view")
		return nil
	}
	a.flash = ""
	return a.syncLocation()
}

func (a *App) forward() tea.Cmd {
	if !a.store.Forward() {
		a.setFlash("No later view")
		return nil
	}
	a.flash = ""
	return a.syncLocation()
}

// currentRow returns the item under the table cursor
func (a *App) currentRow() (models.Item, bool) {
	if a.current == nil {
		return nil, false
	}
	rows := a.current.list.Rows()
	i := a.tableView.SelectedRow
	if i < 0 || i >= len(rows) {
		return nil, false
	}
	return rows[i], true
}

// cell renders one column of item, through the field when there is one
func cell(e *entity.Entity, item models.Item, column string) string {
	if f, ok := e.Field(column); ok {
		return format.Cell(f.Display(f.InitialState(item)))
	}
	return format.Cell(item[column])
}

func (a *App) statusLine(v *view) string {
	l := v.list
	d := l.Descriptor()
	parts := []string{l.Status().String()}
	if l.Status() == list.StatusError {
		parts = append(parts, fmt.Sprintf("%v (r to retry)", l.Err()))
	}
	parts = append(parts, fmt.Sprintf("%d of %d", len(l.Rows()), l.TotalCount()))
	if d.Page > 1 {
		parts = append(parts, fmt.Sprintf("page %d", d.Page))
	}
	if l.NextPageAvailable() {
		parts = append(parts, "n: more")
	}
	if sel := l.Selection(); !sel.Empty() {
		parts = append(parts, fmt.Sprintf("%d selected", sel.Count(l.TotalCount())))
	}
	if n := len(d.Filters); n > 0 {
		parts = append(parts, fmt.Sprintf("%d filters", n))
	}
	if d.SearchText != "" {
		parts = append(parts, fmt.Sprintf("search %q", d.SearchText))
	}
	if v.columnSet != entity.DefaultColumnSet {
		parts = append(parts, "columns "+v.columnSet)
	}
	return " " + strings.Join(parts, " · ")
}

func (a *App) renderList() string {
	v := a.current
	if v == nil {
		return "Select an entity"
	}
	e := v.entity
	columns := e.Columns(v.columnSet)
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c
		if f, ok := e.Field(c); ok {
			headers[i] = f.Label()
		}
	}

	items := v.list.Rows()
	rows := make([][]string, len(items))
	marked := make([]bool, len(items))
	sel := v.list.Selection()
	for i, item := range items {
		row := make([]string, len(columns))
		for j, c := range columns {
			row[j] = cell(e, item, c)
		}
		rows[i] = row
		marked[i] = sel.Contains(item.Key(e.KeyField))
	}

	a.tableView.Width = a.rightPanel.Width
	a.tableView.Height = a.rightPanel.Height - 1
	a.tableView.Sort = v.list.Descriptor().Sort
	a.tableView.Status = a.statusLine(v)
	switch v.list.Status() {
	case list.StatusLoading:
		a.tableView.Empty = "Loading…"
	case list.StatusError:
		a.tableView.Empty = "Failed to load"
	default:
		a.tableView.Empty = "No rows"
	}
	a.tableView.SetData(columns, headers, rows, marked)
	return a.tableView.View()
}
