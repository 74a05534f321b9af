package models

import (
	"slices"
	"strings"
)

// Operator is a filter predicate kind. It is used as the final segment of a
// filter path, e.g. ["age", "gte"].
type Operator string

const (
	OpEquals     Operator = "equals"
	OpNot        Operator = "not"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "startsWith"
	OpGreater    Operator = "gt"
	OpGreaterEq  Operator = "gte"
	OpLess       Operator = "lt"
	OpLessEq     Operator = "lte"
	OpIn         Operator = "in"
	OpIsNull     Operator = "isNull"
)

var operators = []Operator{
	OpEquals, OpNot, OpContains, OpStartsWith,
	OpGreater, OpGreaterEq, OpLess, OpLessEq,
	OpIn, OpIsNull,
}

// Operators returns every known operator kind
func Operators() []Operator {
	return slices.Clone(operators)
}

// ParseOperator reports whether s names a known operator
func ParseOperator(s string) (Operator, bool) {
	for _, op := range operators {
		if string(op) == s {
			return op, true
		}
	}
	return "", false
}

// Validator decides whether a raw filter value is acceptable for a path
type Validator interface {
	Validate(path []string, raw string) bool
}

// FilterValue is one named, path-addressed predicate fragment
type FilterValue struct {
	Name         []string `json:"name" yaml:"name"`
	WorkingState string   `json:"workingState,omitempty" yaml:"working_state,omitempty"`
	State        string   `json:"state" yaml:"state"`
	IsComplete   bool     `json:"isComplete" yaml:"is_complete"`
	IsValid      bool     `json:"isValid" yaml:"is_valid"`
}

// NewFilterValue creates a committed filter value at the given path.
// Validity is assumed until Revalidate or Edit says otherwise.
func NewFilterValue(state string, path ...string) FilterValue {
	return FilterValue{
		Name:         slices.Clone(path),
		WorkingState: state,
		State:        state,
		IsComplete:   strings.TrimSpace(state) != "",
		IsValid:      true,
	}
}

// Path returns the dotted form of the filter name
func (f FilterValue) Path() string {
	return strings.Join(f.Name, ".")
}

// Usable reports whether the committed state may feed a query
func (f FilterValue) Usable() bool {
	return f.IsComplete && f.IsValid
}

// Edit applies a new working value. The committed state only moves when the
// working value is both complete and valid.
func (f *FilterValue) Edit(raw string, v Validator) {
	f.WorkingState = raw
	f.IsComplete = strings.TrimSpace(raw) != ""
	f.IsValid = v == nil || v.Validate(f.Name, raw)
	if f.IsComplete && f.IsValid {
		f.State = raw
	}
}

// Revalidate recomputes completeness and validity from the working state
func (f *FilterValue) Revalidate(v Validator) {
	f.Edit(f.WorkingState, v)
}

// Clone returns a deep copy
func (f FilterValue) Clone() FilterValue {
	f.Name = slices.Clone(f.Name)
	return f
}

// FilterSet is an ordered collection of filter values keyed by path
type FilterSet []FilterValue

// Index returns the position of the value at path, or -1
func (s FilterSet) Index(path ...string) int {
	for i, f := range s {
		if slices.Equal(f.Name, path) {
			return i
		}
	}
	return -1
}

// Get returns the value at path
func (s FilterSet) Get(path ...string) (FilterValue, bool) {
	if i := s.Index(path...); i >= 0 {
		return s[i], true
	}
	return FilterValue{}, false
}

// Set replaces the value with the same path in place, or appends it
func (s FilterSet) Set(v FilterValue) FilterSet {
	out := s.Clone()
	if i := out.Index(v.Name...); i >= 0 {
		out[i] = v.Clone()
		return out
	}
	return append(out, v.Clone())
}

// Remove drops the value at path
func (s FilterSet) Remove(path ...string) FilterSet {
	out := make(FilterSet, 0, len(s))
	for _, f := range s {
		if !slices.Equal(f.Name, path) {
			out = append(out, f.Clone())
		}
	}
	return out
}

// Clone returns a deep copy of the set
func (s FilterSet) Clone() FilterSet {
	if s == nil {
		return nil
	}
	out := make(FilterSet, len(s))
	for i, f := range s {
		out[i] = f.Clone()
	}
	return out
}

// Usable returns the values that may feed a query, in order
func (s FilterSet) Usable() FilterSet {
	var out FilterSet
	for _, f := range s {
		if f.Usable() {
			out = append(out, f.Clone())
		}
	}
	return out
}

// Equal compares names and committed state, ignoring in-progress edits
func (s FilterSet) Equal(o FilterSet) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		a, b := s[i], o[i]
		if !slices.Equal(a.Name, b.Name) || a.State != b.State ||
			a.IsComplete != b.IsComplete || a.IsValid != b.IsValid {
			return false
		}
	}
	return true
}
