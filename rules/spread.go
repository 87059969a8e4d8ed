package rules

import (
	"github.com/nstehr/towerbot/gamemath"
	"github.com/nstehr/towerbot/model"
)

// SpreadPolicy splits an offensive budget across attack candidates. It is the
// single place where focus-versus-spread is decided. Candidates arrive alive,
// worth attacking, and ordered weakest first.
type SpreadPolicy interface {
	Name() string
	Allocate(budget int, candidates []model.Tower) []model.CombatAction
}

// PolicyFor returns the spread policy a doctrine asks for.
func PolicyFor(d Doctrine) SpreadPolicy {
	if d.Spread == SpreadFocus {
		return FocusFire{}
	}
	return FinishKills{NearDeathShare: d.NearDeathShare}
}

// FocusFire puts the whole budget on the weakest candidate, never more than
// its effective HP.
type FocusFire struct{}

func (FocusFire) Name() string { return SpreadFocus }

func (FocusFire) Allocate(budget int, candidates []model.Tower) []model.CombatAction {
	if budget <= 0 || len(candidates) == 0 {
		return nil
	}
	t := candidates[0]
	return []model.CombatAction{model.Attack(t.PlayerID, min(budget, gamemath.EffectiveHP(t)))}
}

// FinishKills spreads the budget only when two or more candidates are near
// death, meaning their effective HP is at most NearDeathShare of the budget.
// It buys as many kills as the budget allows, weakest first, then puts any
// leftover on the next candidate. Otherwise it behaves like FocusFire.
type FinishKills struct {
	NearDeathShare float64
}

func (FinishKills) Name() string { return SpreadFinishKills }

func (f FinishKills) Allocate(budget int, candidates []model.Tower) []model.CombatAction {
	if budget <= 0 || len(candidates) == 0 {
		return nil
	}
	threshold := floorShare(budget, f.NearDeathShare)
	near := 0
	for _, t := range candidates {
		if gamemath.EffectiveHP(t) <= threshold {
			near++
		}
	}
	if near < 2 {
		return FocusFire{}.Allocate(budget, candidates)
	}

	var out []model.CombatAction
	left := budget
	i := 0
	for ; i < near; i++ {
		ehp := gamemath.EffectiveHP(candidates[i])
		if ehp > left {
			break
		}
		out = append(out, model.Attack(candidates[i].PlayerID, ehp))
		left -= ehp
	}
	if i < len(candidates) && WorthAttacking(candidates[i], left) {
		t := candidates[i]
		out = append(out, model.Attack(t.PlayerID, min(left, gamemath.EffectiveHP(t))))
	}
	return out
}
