package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nstehr/towerbot/gamemath"
	"github.com/nstehr/towerbot/model"
)

// Check names a single game rule an action set can break.
type Check string

const (
	CheckSingleArmor      Check = "single_armor"
	CheckSingleUpgrade    Check = "single_upgrade"
	CheckUniqueTargets    Check = "unique_targets"
	CheckTargetAlive      Check = "target_alive"
	CheckBudget           Check = "budget"
	CheckUpgradeCap       Check = "upgrade_cap"
	CheckPositiveQuantity Check = "positive_quantity"
	CheckKnownType        Check = "known_type"

	CheckUniqueAllies Check = "unique_allies"
	CheckAllyAlive    Check = "ally_alive"
	CheckAttackTarget Check = "attack_target"
)

// Violation is one broken rule with a human-readable detail for the logs.
type Violation struct {
	Check  Check  `json:"check"`
	Detail string `json:"detail"`
}

func (v Violation) String() string { return string(v.Check) + ": " + v.Detail }

// Verdict is the result of validating an action set. A set is accepted or
// rejected as a whole; Violations lists every rule it broke.
type Verdict struct {
	Valid      bool
	Cost       int
	Violations []Violation
}

func (v *Verdict) add(c Check, format string, args ...any) {
	v.Valid = false
	v.Violations = append(v.Violations, Violation{Check: c, Detail: fmt.Sprintf(format, args...)})
}

// Err returns nil for a valid verdict and an *InvalidActionSetError otherwise.
func (v Verdict) Err() error {
	if v.Valid {
		return nil
	}
	return &InvalidActionSetError{Violations: v.Violations}
}

// ErrActionSetInvalid is matched by every *InvalidActionSetError via errors.Is.
var ErrActionSetInvalid = errors.New("action set invalid")

type InvalidActionSetError struct {
	Violations []Violation
}

func (e *InvalidActionSetError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return "action set invalid: " + strings.Join(parts, "; ")
}

func (e *InvalidActionSetError) Is(target error) bool { return target == ErrActionSetInvalid }

// CombatCost is the total resource cost of actions for a tower at level.
func CombatCost(actions []model.CombatAction, level int) int {
	total := 0
	for _, a := range actions {
		switch a.Type {
		case model.ActionArmor:
			total += gamemath.ArmorCost(a.Amount)
		case model.ActionAttack:
			total += gamemath.AttackCost(a.TroopCount)
		case model.ActionUpgrade:
			total += gamemath.UpgradeCost(level)
		}
	}
	return total
}

// ValidateCombat checks actions against the combat rules for a tower holding
// resources at level, where alive is the set of targetable opponent ids.
func ValidateCombat(actions []model.CombatAction, resources, level int, alive map[int]bool) Verdict {
	v := Verdict{Valid: true}

	armor, upgrades := 0, 0
	seen := make(map[int]bool)
	var duplicates, dead []int
	for _, a := range actions {
		switch a.Type {
		case model.ActionArmor:
			armor++
		case model.ActionUpgrade:
			upgrades++
		case model.ActionAttack:
			if seen[a.TargetID] {
				duplicates = append(duplicates, a.TargetID)
			}
			seen[a.TargetID] = true
			if !alive[a.TargetID] {
				dead = append(dead, a.TargetID)
			}
		}
	}

	if armor > 1 {
		v.add(CheckSingleArmor, "%d armor actions, at most one allowed", armor)
	}
	if upgrades > 1 {
		v.add(CheckSingleUpgrade, "%d upgrade actions, at most one allowed", upgrades)
	}
	if len(duplicates) > 0 {
		v.add(CheckUniqueTargets, "targets attacked more than once: %v", duplicates)
	}
	if len(dead) > 0 {
		v.add(CheckTargetAlive, "targets not alive: %v", dead)
	}

	v.Cost = CombatCost(actions, level)
	if v.Cost > resources {
		v.add(CheckBudget, "total cost %d exceeds resources %d", v.Cost, resources)
	}

	if upgrades > 0 && !gamemath.CanUpgrade(level) {
		v.add(CheckUpgradeCap, "level %d is already the maximum", level)
	}
	for _, a := range actions {
		switch {
		case a.Type == model.ActionArmor && a.Amount <= 0:
			v.add(CheckPositiveQuantity, "armor amount %d", a.Amount)
		case a.Type == model.ActionAttack && a.TroopCount <= 0:
			v.add(CheckPositiveQuantity, "troop count %d against %d", a.TroopCount, a.TargetID)
		case a.Type != model.ActionArmor && a.Type != model.ActionAttack && a.Type != model.ActionUpgrade:
			v.add(CheckKnownType, "unknown action type %q", a.Type)
		}
	}
	return v
}

// ValidateDiplomacy checks a diplomacy set: one declaration per ally, allies
// and named targets must be alive opponents, and an ally is never its own target.
func ValidateDiplomacy(actions []model.DiplomacyAction, self int, alive map[int]bool) Verdict {
	v := Verdict{Valid: true}
	seen := make(map[int]bool)
	for _, a := range actions {
		if seen[a.AllyID] {
			v.add(CheckUniqueAllies, "ally %d declared more than once", a.AllyID)
		}
		seen[a.AllyID] = true
		if a.AllyID == self || !alive[a.AllyID] {
			v.add(CheckAllyAlive, "ally %d is not an alive opponent", a.AllyID)
		}
		if a.AttackTargetID == nil {
			continue
		}
		target := *a.AttackTargetID
		if target == a.AllyID || target == self || !alive[target] {
			v.add(CheckAttackTarget, "ally %d names invalid attack target %d", a.AllyID, target)
		}
	}
	return v
}
