package rules

import (
	"math"

	"github.com/nstehr/towerbot/gamemath"
	"github.com/nstehr/towerbot/model"
)

// RuleEnv wraps the turn context and the plan under construction and exposes
// helper methods callable from expr conditions.
type RuleEnv struct {
	Ctx      model.TurnContext
	Plan     *Plan
	Doctrine Doctrine
	Spread   SpreadPolicy
}

func (e RuleEnv) Turn() int        { return e.Ctx.Turn }
func (e RuleEnv) SelfHP() int      { return e.Ctx.Self.HP }
func (e RuleEnv) SelfArmor() int   { return e.Ctx.Self.Armor }
func (e RuleEnv) SelfLevel() int   { return e.Ctx.Self.Level }
func (e RuleEnv) Resources() int   { return e.Ctx.Self.Resources }
func (e RuleEnv) Remaining() int   { return e.Plan.Remaining() }
func (e RuleEnv) UpgradeCost() int { return gamemath.UpgradeCost(e.Ctx.Self.Level) }
func (e RuleEnv) CanUpgrade() bool { return gamemath.CanUpgrade(e.Ctx.Self.Level) }

// CanAffordUpgrade checks the upgrade against what is left of the plan's budget.
func (e RuleEnv) CanAffordUpgrade() bool {
	return gamemath.CanAffordUpgrade(e.Remaining(), e.Ctx.Self.Level)
}

func (e RuleEnv) FatigueActive() bool { return gamemath.IsFatigueActive(e.Ctx.Turn) }
func (e RuleEnv) FatigueDamage() int  { return gamemath.FatigueDamage(e.Ctx.Turn) }

// AllIn is true once the game is expected to end within a turn or two.
func (e RuleEnv) AllIn() bool { return e.Ctx.Turn > e.Doctrine.AllInTurn }

// AliveOpponents returns every opponent that can still be targeted.
func (e RuleEnv) AliveOpponents() []model.Tower {
	var out []model.Tower
	for _, t := range e.Ctx.Opponents {
		if t.Alive() && t.PlayerID != e.Ctx.Self.PlayerID {
			out = append(out, t)
		}
	}
	return out
}

func (e RuleEnv) AliveCount() int { return len(e.AliveOpponents()) }

// IncomingDamage sums the troops declared against self this turn.
func (e RuleEnv) IncomingDamage() int {
	total := 0
	for _, a := range e.Ctx.IncomingAttacks() {
		total += max(a.Action.TroopCount, 0)
	}
	return total
}

// Hostile reports whether the player is attacking self this turn.
func (e RuleEnv) Hostile(id int) bool { return e.Ctx.Attackers()[id] }

// SelfIsStrongest ranks self among the alive opponents with the same key
// and tie-break the target selector uses.
func (e RuleEnv) SelfIsStrongest() bool {
	if !e.Ctx.Self.Alive() {
		return false
	}
	best, ok := Strongest(append(e.AliveOpponents(), e.Ctx.Self))
	return ok && best.PlayerID == e.Ctx.Self.PlayerID
}

// SurvivalArmor is the growth-phase armor size: visible incoming damage plus margin.
func (e RuleEnv) SurvivalArmor() int {
	return e.IncomingDamage() + e.Doctrine.SurvivalArmorMargin
}

// FatigueArmor is the smallest armor that keeps self alive through this
// turn's fatigue damage plus a margin. Zero when no armor is needed.
func (e RuleEnv) FatigueArmor() int {
	margin := e.Doctrine.FatigueArmorMargin
	if e.AllIn() {
		margin = 1
	}
	dmg := e.FatigueDamage()
	if dmg > math.MaxInt-margin {
		return math.MaxInt
	}
	need := dmg + margin - gamemath.EffectiveHP(e.Ctx.Self)
	return max(need, 0)
}

// OffenseBudget is how much of the remaining pool the offense rules may spend.
// Before fatigue it is a share of the remaining pool that never dips into the
// reserve held back from the turn's original resources. During fatigue it is
// a larger share, and everything once AllIn.
func (e RuleEnv) OffenseBudget() int {
	remaining := e.Remaining()
	if e.FatigueActive() {
		if e.AllIn() {
			return remaining
		}
		return floorShare(remaining, e.Doctrine.FatigueAttackShare)
	}
	reserve := ceilShare(e.Plan.Budget, e.Doctrine.ReserveShare)
	share := floorShare(remaining, e.Doctrine.OffenseShare)
	return max(min(share, remaining-reserve), 0)
}

// AttackCandidates returns the alive opponents worth attacking with budget,
// weakest first.
func (e RuleEnv) AttackCandidates(budget int) []model.Tower {
	var out []model.Tower
	for _, t := range RankByWeakness(e.AliveOpponents()) {
		if WorthAttacking(t, budget) {
			out = append(out, t)
		}
	}
	return out
}

func (e RuleEnv) HasWorthwhileTarget() bool {
	return len(e.AttackCandidates(e.OffenseBudget())) > 0
}

// The epsilon absorbs float noise such as 150*0.2 = 30.000000000000004.
const shareEpsilon = 1e-9

func floorShare(total int, share float64) int {
	return int(math.Floor(float64(total)*share + shareEpsilon))
}

func ceilShare(total int, share float64) int {
	return int(math.Ceil(float64(total)*share - shareEpsilon))
}
