// Package audit records every mutation made through an entity's operations.
package audit

import (
	"context"
	"time"

	"github.com/rebeliceyang/lazyadmin/internal/datasource"
	"github.com/rebeliceyang/lazyadmin/internal/filter"
	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/rs/zerolog"
)

// Actions written to the log
const (
	ActionCreate         = "create"
	ActionUpdate         = "update"
	ActionDelete         = "delete"
	ActionDeleteMatching = "delete_matching"
)

// Columns of an audit record
var Columns = []string{"id", "entity", "item_key", "action", "detail", "at"}

// Entry is one recorded mutation
type Entry struct {
	Entity string
	Key    models.Key
	Action string
	Detail string
	At     time.Time
}

func (e Entry) item() models.Item {
	return models.Item{
		"entity":   e.Entity,
		"item_key": string(e.Key),
		"action":   e.Action,
		"detail":   e.Detail,
		"at":       e.At.UTC().Format(time.RFC3339),
	}
}

// Log writes entries to a sink. Failures are logged and never fail the
// mutation being recorded.
type Log struct {
	sink   datasource.Creator
	logger zerolog.Logger
	now    func() time.Time
}

// NewLog creates a log writing to sink
func NewLog(sink datasource.Creator, logger zerolog.Logger) *Log {
	return &Log{
		sink:   sink,
		logger: logger.With().Str("component", "audit").Logger(),
		now:    time.Now,
	}
}

// Record appends one entry
func (l *Log) Record(ctx context.Context, e Entry) {
	if l == nil || l.sink == nil {
		return
	}
	if e.At.IsZero() {
		e.At = l.now()
	}
	if _, err := l.sink.CreateItem(context.WithoutCancel(ctx), e.item()); err != nil {
		l.logger.Warn().Err(err).
			Str("entity", e.Entity).
			Str("action", e.Action).
			Msg("Failed to record audit entry")
	}
}

// Wrap returns ops with every present mutation recorded in log. Absent
// capabilities stay absent.
func Wrap(entity, keyField string, ops datasource.Operations, log *Log) datasource.Operations {
	if log == nil {
		return ops
	}
	w := recorder{entity: entity, keyField: keyField, ops: ops, log: log}
	if ops.Create != nil {
		ops.Create = creator{w}
	}
	if ops.Update != nil {
		ops.Update = updater{w}
	}
	if ops.Delete != nil {
		ops.Delete = deleter{w}
	}
	if ops.MatchDelete != nil {
		ops.MatchDelete = matchDeleter{w}
	}
	return ops
}

type recorder struct {
	entity   string
	keyField string
	ops      datasource.Operations
	log      *Log
}

func (r recorder) record(ctx context.Context, key models.Key, action, detail string) {
	r.log.Record(ctx, Entry{Entity: r.entity, Key: key, Action: action, Detail: detail})
}

type creator struct{ recorder }

func (c creator) CreateItem(ctx context.Context, item models.Item) (models.Item, error) {
	created, err := c.ops.Create.CreateItem(ctx, item)
	if err != nil {
		return nil, err
	}
	c.record(ctx, created.Key(c.keyField), ActionCreate, "")
	return created, nil
}

type updater struct{ recorder }

func (u updater) UpdateItem(ctx context.Context, key models.Key, item models.Item) (models.Item, error) {
	updated, err := u.ops.Update.UpdateItem(ctx, key, item)
	if err != nil {
		return nil, err
	}
	u.record(ctx, key, ActionUpdate, "")
	return updated, nil
}

type deleter struct{ recorder }

func (d deleter) DeleteItem(ctx context.Context, key models.Key) error {
	if err := d.ops.Delete.DeleteItem(ctx, key); err != nil {
		return err
	}
	d.record(ctx, key, ActionDelete, "")
	return nil
}

type matchDeleter struct{ recorder }

func (m matchDeleter) DeleteMatching(ctx context.Context, filters *filter.Tree) (int, error) {
	n, err := m.ops.MatchDelete.DeleteMatching(ctx, filters)
	if err != nil {
		return n, err
	}
	if n > 0 {
		m.record(ctx, "", ActionDeleteMatching, filters.String())
	}
	return n, nil
}
