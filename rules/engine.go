package rules

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Engine runs compiled rules against one turn's RuleEnv.
// Rules fire in priority order; exclusive rules block lower-priority rules
// in the same category, preventing two rules from spending the same budget.
// An Engine is immutable after construction and safe for concurrent use.
type Engine struct {
	rules []*Rule
}

// NewEngine compiles all rule conditions into expr bytecode and sorts by priority.
func NewEngine(rules []*Rule) (*Engine, error) {
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}
	return &Engine{rules: compiled}, nil
}

// Rules returns the compiled rules in evaluation order.
func (e *Engine) Rules() []*Rule { return e.rules }

// Evaluate runs all rules against env and returns the names of the rules that fired.
// Conditions see the plan as earlier rules left it.
func (e *Engine) Evaluate(env RuleEnv) ([]string, error) {
	blocked := make(map[string]bool) // category → exclusive rule already fired
	var fired []string

	for _, r := range e.rules {
		if blocked[r.Category] {
			continue
		}

		result, err := vm.Run(r.program, env)
		if err != nil {
			slog.Warn("rule condition error", "rule", r.Name, "error", err)
			continue
		}

		match, ok := result.(bool)
		if !ok || !match {
			continue
		}

		slog.Debug("rule fired", "rule", r.Name, "priority", r.Priority, "category", r.Category)
		if err := r.Action(env); err != nil {
			return fired, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		fired = append(fired, r.Name)

		if r.Exclusive {
			blocked[r.Category] = true
		}
	}
	return fired, nil
}

func compileRules(rules []*Rule) ([]*Rule, error) {
	out := make([]*Rule, len(rules))
	for i, r := range rules {
		prog, err := expr.Compile(r.ConditionSrc, expr.Env(RuleEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		c := *r
		c.program = prog
		out[i] = &c
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out, nil
}
