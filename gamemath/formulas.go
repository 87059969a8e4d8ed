// Package gamemath holds the game's cost, income and damage formulas. Every
// other package calls these instead of recomputing them.
package gamemath

import (
	"math"

	"github.com/nstehr/towerbot/model"
)

const (
	BaseUpgradeCost   = 50
	UpgradeCostGrowth = 1.75

	BaseGeneration   = 20
	GenerationGrowth = 1.5

	FatigueStartTurn  = 25
	BaseFatigueDamage = 10

	// MaxLevel is the highest tower level; towers at MaxLevel cannot upgrade.
	MaxLevel = 6
)

// UpgradeCost is the price of upgrading a tower from level to level+1.
func UpgradeCost(level int) int {
	level = max(level, 1)
	return round(BaseUpgradeCost * math.Pow(UpgradeCostGrowth, float64(level-1)))
}

// CanUpgrade reports whether a tower at level is below the level cap.
func CanUpgrade(level int) bool { return level < MaxLevel }

// ArmorCost is one resource per armor point.
func ArmorCost(amount int) int { return amount }

// AttackCost is one resource per troop.
func AttackCost(troops int) int { return troops }

// ResourceGeneration is the per-turn income of a tower at level.
func ResourceGeneration(level int) int {
	if level < 1 {
		return 0
	}
	return round(BaseGeneration * math.Pow(GenerationGrowth, float64(level-1)))
}

// FatigueDamage is the damage every tower takes on turn. It doubles each turn
// from FatigueStartTurn and saturates at math.MaxInt instead of overflowing.
func FatigueDamage(turn int) int {
	if turn < FatigueStartTurn {
		return 0
	}
	exp := turn - FatigueStartTurn
	if exp > 59 {
		return math.MaxInt
	}
	return BaseFatigueDamage << exp
}

func IsFatigueActive(turn int) bool { return turn >= FatigueStartTurn }

// TurnsUntilFatigue is 0 once fatigue has started.
func TurnsUntilFatigue(turn int) int {
	return max(FatigueStartTurn-turn, 0)
}

// EffectiveHP is the total damage needed to destroy t.
func EffectiveHP(t model.Tower) int { return t.HP + t.Armor }

// round is round-half-up.
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}
