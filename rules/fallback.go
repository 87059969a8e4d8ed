package rules

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/nstehr/towerbot/model"
)

// ErrNoLegalAction is returned when the fallback's own output fails validation.
// The caller answers with an empty action set.
var ErrNoLegalAction = errors.New("fallback produced no legal action set")

// Fallback is the deterministic strategy tier. It holds only compiled,
// immutable rule sets and is safe for concurrent use.
type Fallback struct {
	doctrine  Doctrine
	spread    SpreadPolicy
	combat    *Engine
	diplomacy *Engine
}

// NewFallback compiles the combat and diplomacy rule sets for a doctrine.
func NewFallback(d Doctrine) (*Fallback, error) {
	d.Validate()
	combat, err := NewEngine(CompileCombat(d))
	if err != nil {
		return nil, fmt.Errorf("combat rules: %w", err)
	}
	diplomacy, err := NewEngine(CompileDiplomacy(d))
	if err != nil {
		return nil, fmt.Errorf("diplomacy rules: %w", err)
	}
	slog.Info("fallback doctrine loaded", "name", d.Name, "spread", d.Spread,
		"combatRules", len(combat.Rules()), "diplomacyRules", len(diplomacy.Rules()))
	return &Fallback{doctrine: d, spread: PolicyFor(d), combat: combat, diplomacy: diplomacy}, nil
}

func (f *Fallback) env(tc model.TurnContext, budget int) RuleEnv {
	return RuleEnv{Ctx: tc, Plan: NewPlan(budget), Doctrine: f.doctrine, Spread: f.spread}
}

// Combat produces the combat actions for tc. The result always passes
// ValidateCombat; when it would not, Combat returns ErrNoLegalAction.
func (f *Fallback) Combat(tc model.TurnContext) ([]model.CombatAction, error) {
	env := f.env(tc, tc.Self.Resources)
	fired, err := f.combat.Evaluate(env)
	if err != nil {
		return nil, err
	}

	alive := tc.AliveOpponentIDs()
	actions := StripDeadTargets(env.Plan.Combat(), alive)

	verdict := ValidateCombat(actions, tc.Self.Resources, tc.Self.Level, alive)
	if !verdict.Valid {
		slog.Warn("fallback combat failed self-validation", "violations", verdict.Violations, "actions", actions)
		return nil, fmt.Errorf("%w: %w", ErrNoLegalAction, verdict.Err())
	}
	slog.Debug("fallback combat planned", "turn", tc.Turn, "rules", fired, "actions", len(actions), "cost", verdict.Cost)
	return actions, nil
}

// Negotiate produces at most one diplomacy declaration for tc.
func (f *Fallback) Negotiate(tc model.TurnContext) ([]model.DiplomacyAction, error) {
	env := f.env(tc, 0)
	fired, err := f.diplomacy.Evaluate(env)
	if err != nil {
		return nil, err
	}

	alive := tc.AliveOpponentIDs()
	actions := StripDeadAllies(env.Plan.Diplomacy(), alive)

	verdict := ValidateDiplomacy(actions, tc.Self.PlayerID, alive)
	if !verdict.Valid {
		slog.Warn("fallback diplomacy failed self-validation", "violations", verdict.Violations)
		return nil, fmt.Errorf("%w: %w", ErrNoLegalAction, verdict.Err())
	}
	slog.Debug("fallback diplomacy planned", "turn", tc.Turn, "rules", fired, "actions", len(actions))
	return actions, nil
}

// StripDeadTargets drops attacks on anything not in alive.
func StripDeadTargets(actions []model.CombatAction, alive map[int]bool) []model.CombatAction {
	out := make([]model.CombatAction, 0, len(actions))
	for _, a := range actions {
		if a.Type == model.ActionAttack && !alive[a.TargetID] {
			slog.Warn("dropping attack on destroyed tower", "target", a.TargetID)
			continue
		}
		out = append(out, a)
	}
	return out
}

// StripDeadAllies drops declarations whose ally is gone and clears attack
// targets that are gone.
func StripDeadAllies(actions []model.DiplomacyAction, alive map[int]bool) []model.DiplomacyAction {
	out := make([]model.DiplomacyAction, 0, len(actions))
	for _, a := range actions {
		if !alive[a.AllyID] {
			continue
		}
		if a.AttackTargetID != nil && !alive[*a.AttackTargetID] {
			a.AttackTargetID = nil
		}
		out = append(out, a)
	}
	return out
}
