package filter

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Validators holds per-path validation rules written as expr expressions.
// Rules see two variables: value (the raw string) and parsed (the JSON
// fallback parse of value). A rule must evaluate to a boolean.
type Validators struct {
	programs map[string]*vm.Program
}

type ruleEnv struct {
	Value  string `expr:"value"`
	Parsed any    `expr:"parsed"`
}

func newRuleEnv(raw string) ruleEnv {
	return ruleEnv{Value: raw, Parsed: Parse(raw)}
}

// NewValidators compiles rules keyed by dotted path, e.g. "age.gte".
// A rule keyed by a bare field name applies to every path under it.
func NewValidators(rules map[string]string) (*Validators, error) {
	v := &Validators{programs: make(map[string]*vm.Program, len(rules))}
	for path, code := range rules {
		program, err := expr.Compile(code, expr.Env(ruleEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule for %q: %w", path, err)
		}
		v.programs[path] = program
	}
	return v, nil
}

// MustValidators is NewValidators for rules known at compile time
func MustValidators(rules map[string]string) *Validators {
	v, err := NewValidators(rules)
	if err != nil {
		panic(err)
	}
	return v
}

func (v *Validators) lookup(path []string) *vm.Program {
	if v == nil || len(path) == 0 {
		return nil
	}
	if p, ok := v.programs[strings.Join(path, ".")]; ok {
		return p
	}
	return v.programs[path[0]]
}

// Validate implements models.Validator. Paths without a rule are valid;
// evaluation errors count as invalid.
func (v *Validators) Validate(path []string, raw string) bool {
	program := v.lookup(path)
	if program == nil {
		return true
	}
	out, err := expr.Run(program, newRuleEnv(raw))
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}
