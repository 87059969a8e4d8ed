package rules

import (
	"slices"

	"github.com/nstehr/towerbot/gamemath"
	"github.com/nstehr/towerbot/model"
)

// All rankings break ties by lowest PlayerID so identical inputs always
// produce identical plans.

// FilterAlive keeps towers with hp > 0, preserving order.
func FilterAlive(towers []model.Tower) []model.Tower {
	var out []model.Tower
	for _, t := range towers {
		if t.Alive() {
			out = append(out, t)
		}
	}
	return out
}

// weaker orders by effective HP ascending.
func weaker(a, b model.Tower) int {
	if d := gamemath.EffectiveHP(a) - gamemath.EffectiveHP(b); d != 0 {
		return d
	}
	return a.PlayerID - b.PlayerID
}

// stronger orders by (level, effective HP) descending.
func stronger(a, b model.Tower) int {
	if a.Level != b.Level {
		return b.Level - a.Level
	}
	if d := gamemath.EffectiveHP(b) - gamemath.EffectiveHP(a); d != 0 {
		return d
	}
	return a.PlayerID - b.PlayerID
}

// RankByWeakness returns the alive towers, weakest first.
func RankByWeakness(towers []model.Tower) []model.Tower {
	alive := FilterAlive(towers)
	slices.SortStableFunc(alive, weaker)
	return alive
}

// RankByStrength returns the alive towers, strongest first.
func RankByStrength(towers []model.Tower) []model.Tower {
	alive := FilterAlive(towers)
	slices.SortStableFunc(alive, stronger)
	return alive
}

// Weakest returns the alive tower with the lowest effective HP.
func Weakest(towers []model.Tower) (model.Tower, bool) {
	ranked := RankByWeakness(towers)
	if len(ranked) == 0 {
		return model.Tower{}, false
	}
	return ranked[0], true
}

// Strongest returns the alive tower with the highest (level, effective HP).
func Strongest(towers []model.Tower) (model.Tower, bool) {
	ranked := RankByStrength(towers)
	if len(ranked) == 0 {
		return model.Tower{}, false
	}
	return ranked[0], true
}

// SecondStrongest is the strongest alive tower once the strongest is excluded.
func SecondStrongest(towers []model.Tower) (model.Tower, bool) {
	ranked := RankByStrength(towers)
	if len(ranked) < 2 {
		return model.Tower{}, false
	}
	return ranked[1], true
}

// WorthAttacking reports whether spending up to available on target deals
// more than 20% of its effective HP.
func WorthAttacking(target model.Tower, available int) bool {
	if !target.Alive() || available <= 0 {
		return false
	}
	ehp := gamemath.EffectiveHP(target)
	return 5*min(available, ehp) > ehp
}
