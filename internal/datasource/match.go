package datasource

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/rebeliceyang/lazyadmin/internal/filter"
	"github.com/rebeliceyang/lazyadmin/internal/models"
)

// Matches evaluates a composed filter tree against one item. Keys that are
// not operators descend into nested objects of the item.
func Matches(item models.Item, t *filter.Tree) (bool, error) {
	if t.Empty() {
		return true, nil
	}
	return matchObject(item, t.Map())
}

func matchObject(obj map[string]any, preds map[string]any) (bool, error) {
	for field, pred := range preds {
		ok, err := matchField(obj[field], pred)
		if err != nil {
			return false, fmt.Errorf("%s: %w", field, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func matchField(value, pred any) (bool, error) {
	preds, ok := pred.(map[string]any)
	if !ok {
		return equals(value, pred), nil
	}
	for key, target := range preds {
		op, isOp := models.ParseOperator(key)
		if !isOp {
			nested, _ := value.(map[string]any)
			ok, err := matchField(nested[key], target)
			if err != nil || !ok {
				return ok, err
			}
			continue
		}
		ok, err := matchOperator(value, op, target)
		if err != nil || !ok {
			return ok, err
		}
	}
	return true, nil
}

func matchOperator(value any, op models.Operator, target any) (bool, error) {
	switch op {
	case models.OpEquals:
		return equals(value, target), nil
	case models.OpNot:
		return !equals(value, target), nil
	case models.OpContains:
		return value != nil && strings.Contains(lower(value), lower(target)), nil
	case models.OpStartsWith:
		return value != nil && strings.HasPrefix(lower(value), lower(target)), nil
	case models.OpGreater, models.OpGreaterEq, models.OpLess, models.OpLessEq:
		if value == nil {
			return false, nil
		}
		c := compareValues(value, target)
		switch op {
		case models.OpGreater:
			return c > 0, nil
		case models.OpGreaterEq:
			return c >= 0, nil
		case models.OpLess:
			return c < 0, nil
		default:
			return c <= 0, nil
		}
	case models.OpIn:
		list, ok := target.([]any)
		if !ok {
			return false, fmt.Errorf("operator in expects a list, got %T", target)
		}
		for _, candidate := range list {
			if equals(value, candidate) {
				return true, nil
			}
		}
		return false, nil
	case models.OpIsNull:
		want, ok := target.(bool)
		if !ok {
			return false, fmt.Errorf("operator isNull expects a boolean, got %T", target)
		}
		return (value == nil) == want, nil
	}
	return false, fmt.Errorf("unsupported operator %q", op)
}

// equals compares scalars loosely. A list value equals a target when any
// element does.
func equals(value, target any) bool {
	if list, ok := value.([]any); ok {
		for _, v := range list {
			if equals(v, target) {
				return true
			}
		}
		return false
	}
	if value == nil || target == nil {
		return value == nil && target == nil
	}
	return compareValues(value, target) == 0
}

func lower(v any) string {
	return strings.ToLower(fmt.Sprint(v))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// compareValues orders numbers numerically, nil first, and everything else
// by its string form
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if x, ok := toFloat(a); ok {
		if y, ok := toFloat(b); ok {
			return cmp.Compare(x, y)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
