package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/rebeliceyang/lazyadmin/internal/filter"
	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/rebeliceyang/lazyadmin/internal/query"
)

// Querier is the part of a database handle the SQL source needs. Both the
// Postgres pool and the SQLite handle in internal/db/connection satisfy it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) ([]models.Item, error)
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
}

// SQL is a data source over one table
type SQL struct {
	db          Querier
	table       string
	keyField    string
	columns     []string
	jsonColumns []string
	placeholder squirrel.PlaceholderFormat
	builder     *filter.Builder
}

// SQLOption configures a SQL source
type SQLOption func(*SQL)

// WithDollarPlaceholders switches to $1 style placeholders for Postgres
func WithDollarPlaceholders() SQLOption {
	return func(s *SQL) { s.placeholder = squirrel.Dollar }
}

// WithJSONColumns stores the given columns as JSON text
func WithJSONColumns(columns ...string) SQLOption {
	return func(s *SQL) { s.jsonColumns = append(s.jsonColumns, columns...) }
}

// NewSQL creates a source over table. Only the listed columns can be
// selected, filtered, sorted or written.
func NewSQL(db Querier, table, keyField string, columns []string, opts ...SQLOption) *SQL {
	s := &SQL{
		db:          db,
		table:       table,
		keyField:    keyField,
		columns:     columns,
		placeholder: squirrel.Question,
		builder:     filter.NewBuilder(columns...),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SQL) where(t *filter.Tree) (squirrel.Sqlizer, error) {
	pred, err := s.builder.BuildWhere(t)
	if err != nil {
		return nil, fmt.Errorf("build filters: %w", err)
	}
	if pred == nil {
		return squirrel.And{}, nil
	}
	return pred, nil
}

func (s *SQL) FetchPage(ctx context.Context, req query.PageRequest) (models.FetchResult, error) {
	where, err := s.where(req.Filters)
	if err != nil {
		return models.FetchResult{}, err
	}

	countSQL, countArgs, err := squirrel.Select("COUNT(*) AS total").
		From(s.table).
		Where(where).
		PlaceholderFormat(s.placeholder).
		ToSql()
	if err != nil {
		return models.FetchResult{}, err
	}
	rows, err := s.db.Query(ctx, countSQL, countArgs...)
	if err != nil {
		return models.FetchResult{}, fmt.Errorf("count %s: %w", s.table, err)
	}
	total := 0
	if len(rows) > 0 {
		n, _ := toFloat(rows[0]["total"])
		total = int(n)
	}

	sel := squirrel.Select(s.columns...).
		From(s.table).
		Where(where).
		PlaceholderFormat(s.placeholder)
	if req.Sort != nil && req.Sort.FieldName != "" {
		if !slices.Contains(s.columns, req.Sort.FieldName) {
			return models.FetchResult{}, fmt.Errorf("unknown sort column: %s", req.Sort.FieldName)
		}
		dir := "ASC"
		if req.Sort.Direction == models.SortDesc {
			dir = "DESC"
		}
		sel = sel.OrderBy(req.Sort.FieldName + " " + dir)
	}
	if req.PageSize > 0 {
		sel = sel.Limit(uint64(req.PageSize)).Offset(uint64(req.Offset()))
	}

	dataSQL, args, err := sel.ToSql()
	if err != nil {
		return models.FetchResult{}, err
	}
	rows, err = s.db.Query(ctx, dataSQL, args...)
	if err != nil {
		return models.FetchResult{}, fmt.Errorf("select %s: %w", s.table, err)
	}

	data := make([]models.Item, 0, len(rows))
	for _, row := range rows {
		data = append(data, s.decode(row))
	}
	return models.FetchResult{
		NextPageAvailable: req.Offset()+len(data) < total,
		TotalCount:        total,
		Data:              data,
	}, nil
}

func (s *SQL) FetchItem(ctx context.Context, key models.Key) (models.Item, error) {
	items, err := s.FetchItems(ctx, []models.Key{key})
	if err != nil {
		return nil, err
	}
	item, ok := items[key]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", s.table, key, ErrNotFound)
	}
	return item, nil
}

func (s *SQL) FetchItems(ctx context.Context, keys []models.Key) (map[models.Key]models.Item, error) {
	if len(keys) == 0 {
		return map[models.Key]models.Item{}, nil
	}
	list := make([]any, len(keys))
	for i, k := range keys {
		list[i] = string(k)
	}
	q, args, err := squirrel.Select(s.columns...).
		From(s.table).
		Where(squirrel.Eq{s.keyField: list}).
		PlaceholderFormat(s.placeholder).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", s.table, err)
	}
	out := make(map[models.Key]models.Item, len(rows))
	for _, row := range rows {
		item := s.decode(row)
		out[item.Key(s.keyField)] = item
	}
	return out, nil
}

func (s *SQL) CreateItem(ctx context.Context, item models.Item) (models.Item, error) {
	values, err := s.encode(item)
	if err != nil {
		return nil, err
	}
	key := item.Key(s.keyField)
	if key == "" {
		key = models.Key(uuid.NewString())
		values[s.keyField] = string(key)
	}
	q, args, err := squirrel.Insert(s.table).
		SetMap(values).
		PlaceholderFormat(s.placeholder).
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(ctx, q, args...); err != nil {
		return nil, fmt.Errorf("insert %s: %w", s.table, err)
	}
	return s.FetchItem(ctx, key)
}

func (s *SQL) UpdateItem(ctx context.Context, key models.Key, item models.Item) (models.Item, error) {
	values, err := s.encode(item)
	if err != nil {
		return nil, err
	}
	delete(values, s.keyField)
	if len(values) == 0 {
		return s.FetchItem(ctx, key)
	}
	q, args, err := squirrel.Update(s.table).
		SetMap(values).
		Where(squirrel.Eq{s.keyField: string(key)}).
		PlaceholderFormat(s.placeholder).
		ToSql()
	if err != nil {
		return nil, err
	}
	n, err := s.db.Exec(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", s.table, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%s %s: %w", s.table, key, ErrNotFound)
	}
	return s.FetchItem(ctx, key)
}

func (s *SQL) DeleteItem(ctx context.Context, key models.Key) error {
	q, args, err := squirrel.Delete(s.table).
		Where(squirrel.Eq{s.keyField: string(key)}).
		PlaceholderFormat(s.placeholder).
		ToSql()
	if err != nil {
		return err
	}
	n, err := s.db.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", s.table, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", s.table, key, ErrNotFound)
	}
	return nil
}

func (s *SQL) DeleteMatching(ctx context.Context, filters *filter.Tree) (int, error) {
	where, err := s.where(filters)
	if err != nil {
		return 0, err
	}
	q, args, err := squirrel.Delete(s.table).
		Where(where).
		PlaceholderFormat(s.placeholder).
		ToSql()
	if err != nil {
		return 0, err
	}
	n, err := s.db.Exec(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", s.table, err)
	}
	return int(n), nil
}

// encode keeps the known columns of item and serializes JSON columns
func (s *SQL) encode(item models.Item) (map[string]any, error) {
	values := make(map[string]any, len(item))
	for k, v := range item {
		if !slices.Contains(s.columns, k) {
			continue
		}
		if slices.Contains(s.jsonColumns, k) && v != nil {
			b, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", k, err)
			}
			v = string(b)
		}
		values[k] = v
	}
	return values, nil
}

func (s *SQL) decode(row models.Item) models.Item {
	item := make(models.Item, len(row))
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		if str, ok := v.(string); ok && slices.Contains(s.jsonColumns, k) {
			var parsed any
			if err := json.Unmarshal([]byte(str), &parsed); err == nil {
				v = parsed
			}
		}
		item[k] = v
	}
	return item
}
