package field

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rebeliceyang/lazyadmin/internal/models"
)

// Text is a plain string attribute
type Text struct {
	Key      string
	Title    string
	Default  string
	Readonly bool
}

func (f Text) Name() string   { return f.Key }
func (f Text) Label() string  { return label(f.Key, f.Title) }
func (f Text) ReadOnly() bool { return f.Readonly }

func (f Text) InitialState(item models.Item) any {
	v, ok := item[f.Key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func (f Text) InitialCreateState() any { return f.Default }

func (f Text) Serialize(initial models.Item, state any) (models.Item, error) {
	s, ok := state.(string)
	if !ok {
		return nil, fmt.Errorf("%s: expected text state, got %T", f.Key, state)
	}
	out := initial.Clone()
	if out == nil {
		out = models.Item{}
	}
	out[f.Key] = s
	return out, nil
}

func (f Text) Display(state any) string {
	s, _ := state.(string)
	return s
}

// Number is a numeric attribute edited as text. An empty state serializes
// to null.
type Number struct {
	Key      string
	Title    string
	Readonly bool
}

func (f Number) Name() string   { return f.Key }
func (f Number) Label() string  { return label(f.Key, f.Title) }
func (f Number) ReadOnly() bool { return f.Readonly }

func (f Number) InitialState(item models.Item) any {
	switch v := item[f.Key].(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func (f Number) Serialize(initial models.Item, state any) (models.Item, error) {
	s, ok := state.(string)
	if !ok {
		return nil, fmt.Errorf("%s: expected text state, got %T", f.Key, state)
	}
	out := initial.Clone()
	if out == nil {
		out = models.Item{}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		out[f.Key] = nil
		return out, nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %q is not a number", f.Key, s)
	}
	out[f.Key] = n
	return out, nil
}

func (f Number) Display(state any) string {
	s, _ := state.(string)
	return s
}
