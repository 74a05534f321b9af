package filter

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/rebeliceyang/lazyadmin/internal/models"
)

// Builder generates SQL predicates from composed filter trees
type Builder struct {
	columns []string
}

// NewBuilder creates a builder that only accepts the given columns
func NewBuilder(columns ...string) *Builder {
	return &Builder{columns: columns}
}

// BuildWhere converts a tree into a squirrel predicate. It returns nil for an
// empty tree.
func (b *Builder) BuildWhere(t *Tree) (squirrel.Sqlizer, error) {
	if t.Empty() {
		return nil, nil
	}

	var clauses squirrel.And
	m := t.Map()
	for _, column := range t.Fields() {
		if !slices.Contains(b.columns, column) {
			return nil, fmt.Errorf("unknown filter column: %s", column)
		}
		clause, err := b.buildColumn(column, m[column])
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause...)
	}
	return clauses, nil
}

// buildColumn builds the conditions for one column. A scalar is an equality;
// a map holds operator predicates that are AND-ed together.
func (b *Builder) buildColumn(column string, value any) ([]squirrel.Sqlizer, error) {
	preds, ok := value.(map[string]any)
	if !ok {
		cond, err := b.buildCondition(column, models.OpEquals, value)
		if err != nil {
			return nil, err
		}
		return []squirrel.Sqlizer{cond}, nil
	}

	keys := make([]string, 0, len(preds))
	for k := range preds {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []squirrel.Sqlizer
	for _, k := range keys {
		op, ok := models.ParseOperator(k)
		if !ok {
			return nil, fmt.Errorf("unsupported operator %q on column %s", k, column)
		}
		cond, err := b.buildCondition(column, op, preds[k])
		if err != nil {
			return nil, err
		}
		out = append(out, cond)
	}
	return out, nil
}

// buildCondition builds a single filter condition
func (b *Builder) buildCondition(column string, op models.Operator, value any) (squirrel.Sqlizer, error) {
	if _, nested := value.(map[string]any); nested {
		return nil, fmt.Errorf("nested predicate under %s.%s is not supported", column, op)
	}

	switch op {
	case models.OpEquals:
		return squirrel.Eq{column: value}, nil
	case models.OpNot:
		return squirrel.NotEq{column: value}, nil
	case models.OpGreater:
		return squirrel.Gt{column: value}, nil
	case models.OpGreaterEq:
		return squirrel.GtOrEq{column: value}, nil
	case models.OpLess:
		return squirrel.Lt{column: value}, nil
	case models.OpLessEq:
		return squirrel.LtOrEq{column: value}, nil
	case models.OpContains:
		return squirrel.Expr(fmt.Sprintf("LOWER(%s) LIKE ?", column), "%"+strings.ToLower(fmt.Sprint(value))+"%"), nil
	case models.OpStartsWith:
		return squirrel.Expr(fmt.Sprintf("LOWER(%s) LIKE ?", column), strings.ToLower(fmt.Sprint(value))+"%"), nil
	case models.OpIn:
		list, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("operator in on %s expects a list, got %T", column, value)
		}
		return squirrel.Eq{column: list}, nil
	case models.OpIsNull:
		isNull, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("operator isNull on %s expects a boolean, got %T", column, value)
		}
		if isNull {
			return squirrel.Eq{column: nil}, nil
		}
		return squirrel.NotEq{column: nil}, nil
	default:
		return nil, fmt.Errorf("unsupported operator: %s", op)
	}
}

// OperatorsForKind returns the operators that make sense for a column kind
func OperatorsForKind(kind string) []models.Operator {
	switch kind {
	case "number", "date":
		return []models.Operator{
			models.OpEquals, models.OpNot,
			models.OpGreater, models.OpGreaterEq,
			models.OpLess, models.OpLessEq,
			models.OpIn, models.OpIsNull,
		}
	case "text":
		return []models.Operator{
			models.OpEquals, models.OpNot,
			models.OpContains, models.OpStartsWith,
			models.OpIn, models.OpIsNull,
		}
	case "bool":
		return []models.Operator{models.OpEquals, models.OpIsNull}
	default:
		return []models.Operator{models.OpEquals, models.OpNot, models.OpIsNull}
	}
}
