package app

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazyadmin/internal/export"
	"github.com/rebeliceyang/lazyadmin/internal/filter"
	"github.com/rebeliceyang/lazyadmin/internal/list"
	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/rebeliceyang/lazyadmin/internal/statecache"
	"github.com/rebeliceyang/lazyadmin/internal/ui/components"
)

// Prompt and picker purposes
const (
	purposeSearch        = "search"
	purposeBookmarkName  = "bookmark"
	purposeExport        = "export"
	purposePreset        = "preset"
	purposeSort          = "sort"
	purposeColumns       = "columns"
	purposeBookmarks     = "bookmarks"
	purposeConfirmBulk   = "confirm-bulk"
	purposeConfirmDelete = "confirm-delete"

	confirmCancel = "cancel"
	sortDefault   = "default"
)

// ExportDoneMsg reports the outcome of writing loaded rows to a file
type ExportDoneMsg struct {
	Path string
	Rows int
	Err  error
}

// handleListKey handles keys for the list in the right panel
func (a *App) handleListKey(key string) tea.Cmd {
	v := a.current
	if v == nil {
		return nil
	}
	l := v.list
	e := v.entity

	switch key {
	case "up", "k":
		a.tableView.MoveSelection(-1)
	case "down", "j":
		a.tableView.MoveSelection(1)
		if a.tableView.AtBottom() {
			return l.NextPage()
		}
	case "ctrl+u", "pgup":
		a.tableView.PageUp()
	case "ctrl+d", "pgdown":
		a.tableView.PageDown()
		if a.tableView.AtBottom() {
			return l.NextPage()
		}
	case "n":
		if cmd := l.NextPage(); cmd != nil {
			return cmd
		}
		a.setFlash("No more rows")
	case "r":
		if l.Status() == list.StatusError {
			return l.Retry()
		}
		return l.Refresh()
	case "/":
		if e.SearchField == "" {
			a.setFlash("%s has no search", e.Label())
			return nil
		}
		a.prompt = components.NewPrompt(a.theme, purposeSearch, "Search "+e.SearchField, l.Descriptor().SearchText)
	case "f":
		d := l.Descriptor()
		a.filterEditor = components.NewFilterEditor(a.theme, e, d.Filters, filter.TextSearch(e.SearchField, d.SearchText))
	case "p":
		a.openPresets()
	case "s":
		a.openSort()
	case "c":
		a.openColumnSets()
	case " ", "space":
		if item, ok := a.currentRow(); ok {
			l.Selection().Toggle(item, e.KeyField)
			a.tableView.MoveSelection(1)
		}
	case "a":
		if l.Selection().All() {
			l.Selection().Clear()
		} else {
			l.Selection().SelectAll()
		}
	case "esc":
		l.Selection().Clear()
		a.flash = ""
	case "D":
		return a.confirmBulkDelete()
	case "+":
		return a.createItem()
	case "enter":
		if item, ok := a.currentRow(); ok {
			return a.openDetail(item.Key(e.KeyField))
		}
	case "E":
		a.prompt = components.NewPrompt(a.theme, purposeExport, "Export to", e.Name+".csv")
	}
	return nil
}

func (a *App) openPresets() {
	e := a.current.entity
	if len(e.Presets) == 0 {
		a.setFlash("%s has no presets", e.Label())
		return
	}
	items := make([]components.PickerItem, len(e.Presets))
	for i, p := range e.Presets {
		items[i] = components.PickerItem{Value: p.Name, Detail: string(p.Mode)}
	}
	a.picker = components.NewPicker(a.theme, purposePreset, "Presets · "+e.Label(), items)
}

func (a *App) openSort() {
	v := a.current
	e := v.entity
	var items []components.PickerItem
	if e.DefaultSort != nil {
		items = append(items, components.PickerItem{
			Value:  sortDefault,
			Label:  "Default order",
			Detail: fmt.Sprintf("%s %s", e.DefaultSort.FieldName, e.DefaultSort.Direction),
		})
	} else {
		items = append(items, components.PickerItem{Value: sortDefault, Label: "Unsorted"})
	}
	for _, name := range e.Columns(v.columnSet) {
		label := name
		if f, ok := e.Field(name); ok {
			label = f.Label()
		}
		items = append(items,
			components.PickerItem{Value: name + ":" + string(models.SortAsc), Label: label + " ▲"},
			components.PickerItem{Value: name + ":" + string(models.SortDesc), Label: label + " ▼"},
		)
	}
	a.picker = components.NewPicker(a.theme, purposeSort, "Sort · "+e.Label(), items)
	if s := v.list.Descriptor().Sort; s != nil && !s.Equal(e.DefaultSort) {
		a.picker.Select(s.FieldName + ":" + string(s.Direction))
	}
}

func (a *App) openColumnSets() {
	v := a.current
	e := v.entity
	names := e.ColumnSetNames()
	items := make([]components.PickerItem, len(names))
	for i, name := range names {
		items[i] = components.PickerItem{Value: name, Detail: strings.Join(e.Columns(name), ", ")}
	}
	a.picker = components.NewPicker(a.theme, purposeColumns, "Columns · "+e.Label(), items)
	a.picker.Select(v.columnSet)
}

func (a *App) confirmBulkDelete() tea.Cmd {
	v := a.current
	e := v.entity
	action, ok := list.FindBulkAction(e, "delete")
	if !ok {
		a.setFlash("%s cannot be deleted", e.Label())
		return nil
	}
	sel := v.list.Selection()
	if sel.Empty() {
		a.setFlash("Nothing selected")
		return nil
	}
	if !a.config.General.ConfirmDestructiveOps {
		return a.runBulkNow(action)
	}
	n := sel.Count(v.list.TotalCount())
	items := []components.PickerItem{
		{Value: confirmCancel, Label: "Cancel"},
		{Value: action.Name, Label: fmt.Sprintf("%s %d %s", action.Label, n, e.Label())},
	}
	a.picker = components.NewPicker(a.theme, purposeConfirmBulk, "Confirm", items)
	return nil
}

func (a *App) runBulkNow(action list.BulkAction) tea.Cmd {
	v := a.current
	target := v.list.Selection().Target(v.list.Descriptor())
	a.setFlash("Running %s…", action.Label)
	return list.RunBulk(v.entity, action, target)
}

func (a *App) copyLocation() tea.Cmd {
	location := a.store.Encode()
	if err := a.copy(location); err != nil {
		a.ShowError("Clipboard", err.Error())
		return nil
	}
	a.setFlash("Copied %s", location)
	return nil
}

func (a *App) openBookmarkPrompt() {
	if a.bookmarks == nil {
		a.setFlash("Bookmarks are not available")
		return
	}
	a.prompt = components.NewPrompt(a.theme, purposeBookmarkName, "Bookmark name", "")
}

func (a *App) bookmarkItems() []components.PickerItem {
	all := a.bookmarks.Recent(0)
	items := make([]components.PickerItem, len(all))
	for i, b := range all {
		items[i] = components.PickerItem{Value: b.Name, Detail: b.Location}
	}
	return items
}

func (a *App) openBookmarks() {
	if a.bookmarks == nil {
		a.setFlash("Bookmarks are not available")
		return
	}
	a.picker = components.NewPicker(a.theme, purposeBookmarks, "Bookmarks", a.bookmarkItems())
	a.picker.AllowDelete = true
}

func (a *App) promptSubmitted(msg components.PromptSubmitMsg) tea.Cmd {
	switch msg.Purpose {
	case purposeSearch:
		text := strings.TrimSpace(msg.Value)
		return a.change(func(v *view) tea.Cmd {
			return v.list.SetSearch(text)
		})
	case purposeBookmarkName:
		b, err := a.bookmarks.Add(msg.Value, a.state.CurrentEntity, a.store.Encode())
		if err != nil {
			a.ShowError("Bookmark", err.Error())
			return nil
		}
		a.setFlash("Bookmarked %s", b.Name)
	case purposeExport:
		return a.exportRows(strings.TrimSpace(msg.Value))
	}
	return nil
}

func (a *App) exportRows(path string) tea.Cmd {
	v := a.current
	columns := v.entity.Columns(v.columnSet)
	rows := append([]models.Item(nil), v.list.Rows()...)
	return func() tea.Msg {
		err := export.ToFile(path, columns, rows)
		return ExportDoneMsg{Path: path, Rows: len(rows), Err: err}
	}
}

func (a *App) picked(msg components.PickedMsg) tea.Cmd {
	v := a.current
	if v == nil {
		return nil
	}
	e := v.entity

	switch msg.Purpose {
	case purposePreset:
		p, ok := e.Preset(msg.Item.Value)
		if !ok {
			return nil
		}
		set := p.Apply(v.list.Descriptor().Filters, e.Validator())
		cmd := a.change(func(v *view) tea.Cmd {
			return v.list.SetFilters(set)
		})
		if len(set.Usable()) != len(set) {
			// the preset left values for the user to fill in
			d := v.list.Descriptor()
			a.filterEditor = components.NewFilterEditor(a.theme, e, set, filter.TextSearch(e.SearchField, d.SearchText))
		}
		return cmd

	case purposeSort:
		var sort *models.Sort
		if msg.Item.Value == sortDefault {
			sort = e.DefaultSort
		} else {
			field, dir, _ := strings.Cut(msg.Item.Value, ":")
			sort = &models.Sort{FieldName: field, Direction: models.SortDirection(dir)}
		}
		return a.change(func(v *view) tea.Cmd {
			return v.list.SetSort(sort)
		})

	case purposeColumns:
		return a.change(func(v *view) tea.Cmd {
			v.columnSet = msg.Item.Value
			return nil
		})

	case purposeBookmarks:
		b, ok := a.bookmarks.Find(msg.Item.Value)
		if !ok {
			return nil
		}
		if err := a.openLocation(b.Location, statecache.Push); err != nil {
			a.ShowError("Bookmark", err.Error())
			return nil
		}
		if err := a.bookmarks.RecordUsage(b.Name); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to record bookmark usage")
		}
		a.setFlash("Opened %s", b.Name)
		return a.syncLocation()

	case purposeConfirmBulk:
		if msg.Item.Value == confirmCancel {
			return nil
		}
		action, ok := list.FindBulkAction(e, msg.Item.Value)
		if !ok {
			return nil
		}
		return a.runBulkNow(action)

	case purposeConfirmDelete:
		if msg.Item.Value == confirmCancel {
			return nil
		}
		return a.deleteDetail()
	}
	return nil
}

func (a *App) pickerDelete(msg components.PickerDeleteMsg) tea.Cmd {
	if msg.Purpose != purposeBookmarks || a.bookmarks == nil {
		return nil
	}
	if err := a.bookmarks.Delete(msg.Item.Value); err != nil {
		a.ShowError("Bookmark", err.Error())
		return nil
	}
	a.picker.SetItems(a.bookmarkItems())
	a.setFlash("Deleted bookmark %s", msg.Item.Value)
	return nil
}

// handleDataMsg folds asynchronous results back into the views
func (a *App) handleDataMsg(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case list.PageLoadedMsg:
		if v, ok := a.views[msg.Entity]; ok {
			v.list.Apply(msg)
		}

	case list.BulkDoneMsg:
		v, ok := a.views[msg.Entity]
		if !ok {
			return nil
		}
		if msg.Err != nil {
			a.ShowError("Bulk "+msg.Action+" failed", fmt.Sprintf("%d rows affected before the error:\n\n%v", msg.Affected, msg.Err))
		} else {
			a.setFlash("%s: %d %s", msg.Action, msg.Affected, v.entity.Label())
		}
		return v.list.Refresh()

	case ExportDoneMsg:
		if msg.Err != nil {
			a.ShowError("Export failed", msg.Err.Error())
			return nil
		}
		a.setFlash("Exported %d rows to %s", msg.Rows, msg.Path)

	case DetailLoadedMsg, DetailSavedMsg, DetailDeletedMsg:
		return a.handleDetailMsg(msg)
	}
	return nil
}
