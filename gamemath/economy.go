package gamemath

import "math"

// NextTurnResources is what a tower holds next turn after spending spent now.
func NextTurnResources(current, level, spent int) int {
	return current - spent + ResourceGeneration(level)
}

func CanAffordUpgrade(resources, level int) bool {
	return CanUpgrade(level) && resources >= UpgradeCost(level)
}

// TurnsToAffordUpgrade returns 0 when the upgrade is affordable now and -1 at max level.
func TurnsToAffordUpgrade(resources, level int) int {
	if !CanUpgrade(level) {
		return -1
	}
	cost := UpgradeCost(level)
	if resources >= cost {
		return 0
	}
	gen := ResourceGeneration(level)
	if gen <= 0 {
		return math.MaxInt
	}
	return (cost - resources + gen - 1) / gen
}

// UpgradeROI is the extra income per resource spent on the next upgrade.
func UpgradeROI(level int) float64 {
	if !CanUpgrade(level) {
		return 0
	}
	extra := ResourceGeneration(level+1) - ResourceGeneration(level)
	return float64(extra) / float64(UpgradeCost(level))
}

// EstimateSurvivalTurns counts the further turns a tower outlasts fatigue with
// no new armor. Before fatigue it returns math.MaxInt. Capped at 20.
func EstimateSurvivalTurns(hp, armor, turn int) int {
	if !IsFatigueActive(turn) {
		return math.MaxInt
	}
	remaining := hp + armor
	survived := 0
	for t := turn + 1; survived < 20; t++ {
		remaining -= FatigueDamage(t)
		if remaining <= 0 {
			break
		}
		survived++
	}
	return survived
}

// Phase is the coarse game stage used in prompts and logs.
type Phase string

const (
	PhaseEarly Phase = "early"
	PhaseMid   Phase = "mid"
	PhaseLate  Phase = "late"
)

func PhaseOf(turn int) Phase {
	switch {
	case turn <= 10:
		return PhaseEarly
	case turn < FatigueStartTurn:
		return PhaseMid
	default:
		return PhaseLate
	}
}
