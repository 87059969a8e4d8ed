package rules

import "github.com/expr-lang/expr/vm"

// ActionFunc records the rule's decisions on env.Plan when its condition holds.
type ActionFunc func(env RuleEnv) error

// Rule is the atomic unit of fallback behavior: a condition → action pair.
// The engine evaluates rules by priority and uses Category + Exclusive so
// that, for example, only one offense rule spends the attack budget.
type Rule struct {
	Name         string      // human-readable identifier
	Priority     int         // higher = evaluated first
	Category     string      // grouping for exclusive semantics
	Exclusive    bool        // if true, blocks lower-priority rules in same category
	ConditionSrc string      // expr source (preserved for logging)
	program      *vm.Program // compiled bytecode
	Action       ActionFunc
}
