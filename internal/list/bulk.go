package list

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rebeliceyang/lazyadmin/internal/datasource"
	"github.com/rebeliceyang/lazyadmin/internal/entity"
	"github.com/rebeliceyang/lazyadmin/internal/models"
)

// BulkAction is an operation over a selection
type BulkAction struct {
	Name  string
	Label string
	run   func(ctx context.Context, target BulkTarget) (int, error)
}

// Run applies the action and reports how many rows it affected
func (a BulkAction) Run(ctx context.Context, target BulkTarget) (int, error) {
	return a.run(ctx, target)
}

// BulkDoneMsg reports the outcome of a bulk action
type BulkDoneMsg struct {
	Entity   string
	Action   string
	Affected int
	Err      error
}

// BulkActions lists the actions e supports. Actions whose capability is
// missing are not constructed at all.
func BulkActions(e *entity.Entity) []BulkAction {
	var actions []BulkAction
	if e.Ops.Delete != nil {
		actions = append(actions, deleteAction(e))
	}
	return actions
}

// FindBulkAction returns the action called name, if e supports it
func FindBulkAction(e *entity.Entity, name string) (BulkAction, bool) {
	for _, a := range BulkActions(e) {
		if a.Name == name {
			return a, true
		}
	}
	return BulkAction{}, false
}

// RunBulk runs action as a command
func RunBulk(e *entity.Entity, action BulkAction, target BulkTarget) tea.Cmd {
	return func() tea.Msg {
		n, err := action.Run(context.Background(), target)
		return BulkDoneMsg{Entity: e.Name, Action: action.Name, Affected: n, Err: err}
	}
}

func deleteAction(e *entity.Entity) BulkAction {
	deleter := e.Ops.Delete
	return BulkAction{
		Name:  "delete",
		Label: "Delete",
		run: func(ctx context.Context, target BulkTarget) (int, error) {
			if !target.All {
				return deleteItems(ctx, deleter, e.KeyField, target.Items)
			}
			if md := e.Ops.MatchDelete; md != nil {
				return md.DeleteMatching(ctx, target.Descriptor.Composed(e.SearchField))
			}
			return deleteByPaging(ctx, e, target)
		},
	}
}

func deleteItems(ctx context.Context, deleter datasource.Deleter, keyField string, items []models.Item) (int, error) {
	deleted := 0
	var errs []error
	for _, item := range items {
		key := item.Key(keyField)
		if err := deleter.DeleteItem(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
			continue
		}
		deleted++
	}
	return deleted, errors.Join(errs...)
}

// deleteByPaging deletes every match page by page. Deleted rows fall out
// of the result, so the same page is fetched again while it yields
// deletions. Rows that could not be deleted stay in place, and once a page
// holds nothing but those the walk moves past it. It stops at an empty page
// or at a spent page with no page after it.
func deleteByPaging(ctx context.Context, e *entity.Entity, target BulkTarget) (int, error) {
	req := target.Descriptor.WithPage(1).Request(e.SearchField, e.Size())
	failed := make(map[models.Key]error)
	seen := make(map[models.Key]bool)
	deleted := 0

	for {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		res, err := e.Ops.FetchPage(ctx, req)
		if err != nil {
			return deleted, fmt.Errorf("fetch page to delete: %w", err)
		}
		if len(res.Data) == 0 {
			break
		}

		progress := 0
		for _, item := range res.Data {
			key := item.Key(e.KeyField)
			if seen[key] {
				continue
			}
			seen[key] = true
			if err := e.Ops.DeleteItem(ctx, key); err != nil {
				failed[key] = err
				continue
			}
			progress++
		}
		deleted += progress

		if progress == 0 {
			if !res.NextPageAvailable {
				break
			}
			req.Page++
		}
	}

	var errs []error
	for key, err := range failed {
		errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
	}
	return deleted, errors.Join(errs...)
}
