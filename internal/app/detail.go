package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyadmin/internal/detail"
	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/rebeliceyang/lazyadmin/internal/ui/components"
)

// DetailLoadedMsg carries a loaded and hydrated detail
type DetailLoadedMsg struct {
	Ref    string
	Detail *detail.Detail
	Err    error
}

// DetailSavedMsg reports the outcome of a save
type DetailSavedMsg struct {
	Ref    string
	Detail *detail.Detail
	Item   models.Item
	Err    error
}

// DetailDeletedMsg reports the outcome of a delete
type DetailDeletedMsg struct {
	Ref    string
	Detail *detail.Detail
	Err    error
}

func detailRef(entity string, key models.Key) string {
	return entity + "/" + string(key)
}

func (a *App) openDetail(key models.Key) tea.Cmd {
	e := a.current.entity
	ref := detailRef(e.Name, key)
	a.pendingDetail = ref
	a.detailView = nil
	a.state.ViewMode = models.DetailMode
	a.logger.Debug().Str("ref", ref).Msg("Loading detail")

	return func() tea.Msg {
		ctx := context.Background()
		d, err := detail.Load(ctx, e, key)
		if err == nil {
			d.Hydrate(ctx)
		}
		return DetailLoadedMsg{Ref: ref, Detail: d, Err: err}
	}
}

func (a *App) createItem() tea.Cmd {
	e := a.current.entity
	d, err := detail.NewCreate(e)
	if err != nil {
		a.setFlash("%s cannot be created", e.Label())
		return nil
	}
	a.pendingDetail = detailRef(e.Name, "")
	a.detailView = a.newDetailView(d)
	a.state.ViewMode = models.DetailMode
	return nil
}

func (a *App) newDetailView(d *detail.Detail) *components.DetailView {
	dv := components.NewDetailView(a.theme, d)
	dv.Width = a.rightPanel.Width - 2
	dv.Height = a.rightPanel.Height - 2
	return dv
}

func (a *App) closeDetail() {
	a.pendingDetail = ""
	a.detailView = nil
	a.state.ViewMode = models.NormalMode
}

func (a *App) handleDetailKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	dv := a.detailView
	if dv == nil {
		if key == "esc" || key == "q" {
			a.closeDetail()
		}
		return nil
	}
	if dv.Busy != "" {
		return nil
	}
	if dv.Editing() {
		var cmd tea.Cmd
		a.detailView, cmd = dv.Update(msg)
		return cmd
	}

	switch key {
	case "esc", "q":
		if dv.Detail().Dirty() && key == "q" {
			a.setFlash("Unsaved changes, press esc to discard")
			return nil
		}
		a.closeDetail()
		return nil
	case "ctrl+s":
		return a.saveDetail()
	case "D":
		if !dv.Detail().CanDelete() {
			a.setFlash("This item cannot be deleted")
			return nil
		}
		if !a.config.General.ConfirmDestructiveOps {
			return a.deleteDetail()
		}
		items := []components.PickerItem{
			{Value: confirmCancel, Label: "Cancel"},
			{Value: "delete", Label: fmt.Sprintf("Delete %s %s", dv.Detail().Entity().Label(), dv.Detail().Key())},
		}
		a.picker = components.NewPicker(a.theme, purposeConfirmDelete, "Confirm", items)
		return nil
	}

	var cmd tea.Cmd
	a.detailView, cmd = dv.Update(msg)
	return cmd
}

func (a *App) saveDetail() tea.Cmd {
	dv := a.detailView
	d := dv.Detail()
	if !d.CanSave() {
		a.setFlash("%s is read-only", d.Entity().Label())
		return nil
	}
	dv.Busy = "Saving…"
	ref := a.pendingDetail
	return func() tea.Msg {
		ctx := context.Background()
		item, err := d.Save(ctx)
		if err == nil {
			d.Hydrate(ctx)
		}
		return DetailSavedMsg{Ref: ref, Detail: d, Item: item, Err: err}
	}
}

func (a *App) deleteDetail() tea.Cmd {
	dv := a.detailView
	if dv == nil {
		return nil
	}
	d := dv.Detail()
	dv.Busy = "Deleting…"
	ref := a.pendingDetail
	return func() tea.Msg {
		return DetailDeletedMsg{Ref: ref, Detail: d, Err: d.Delete(context.Background())}
	}
}

// handleDetailMsg applies detail results that still match the open detail
func (a *App) handleDetailMsg(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case DetailLoadedMsg:
		if msg.Ref != a.pendingDetail {
			a.logger.Debug().Str("ref", msg.Ref).Msg("Discarding stale detail")
			return nil
		}
		if msg.Err != nil {
			a.closeDetail()
			a.ShowError("Load failed", msg.Err.Error())
			return nil
		}
		a.detailView = a.newDetailView(msg.Detail)

	case DetailSavedMsg:
		e := msg.Detail.Entity()
		if msg.Ref == a.pendingDetail && a.detailView != nil {
			a.detailView.Busy = ""
			if msg.Err != nil {
				a.ShowError("Save failed", msg.Err.Error())
				return nil
			}
			a.pendingDetail = detailRef(e.Name, msg.Detail.Key())
			a.detailView.SetDetail(msg.Detail)
		} else if msg.Err != nil {
			a.logger.Warn().Err(msg.Err).Str("ref", msg.Ref).Msg("Save failed after leaving the detail")
			return nil
		}
		a.setFlash("Saved %s %s", e.Label(), msg.Detail.Key())
		if v, ok := a.views[e.Name]; ok {
			return v.list.Refresh()
		}

	case DetailDeletedMsg:
		e := msg.Detail.Entity()
		if msg.Err != nil {
			if a.detailView != nil && msg.Ref == a.pendingDetail {
				a.detailView.Busy = ""
			}
			a.ShowError("Delete failed", msg.Err.Error())
			return nil
		}
		if msg.Ref == a.pendingDetail {
			a.closeDetail()
		}
		a.setFlash("Deleted %s %s", e.Label(), msg.Detail.Key())
		if v, ok := a.views[e.Name]; ok {
			return v.list.Refresh()
		}
	}
	return nil
}

func (a *App) renderDetail() string {
	dv := a.detailView
	if dv == nil {
		return lipgloss.NewStyle().Foreground(a.theme.Muted).Render("Loading…")
	}
	dv.Width = a.rightPanel.Width - 2
	dv.Height = a.rightPanel.Height - 2
	dv.Theme = a.theme
	if dv.Busy != "" {
		return lipgloss.NewStyle().Foreground(a.theme.Info).Render(dv.Busy)
	}
	return dv.View()
}
