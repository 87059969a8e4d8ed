package rules

import (
	"log/slog"

	"github.com/nstehr/towerbot/model"
)

func ActionSurvivalArmor(env RuleEnv) error {
	amount := env.Plan.Armor(env.SurvivalArmor())
	slog.Debug("survival armor", "hp", env.SelfHP(), "incoming", env.IncomingDamage(), "amount", amount)
	return nil
}

func ActionUpgrade(env RuleEnv) error {
	if env.Plan.Upgrade(env.SelfLevel()) {
		slog.Debug("upgrading tower", "level", env.SelfLevel(), "cost", env.UpgradeCost())
	}
	return nil
}

// ActionGrowthOffense hands the offense budget to the doctrine's spread policy.
func ActionGrowthOffense(env RuleEnv) error {
	budget := env.OffenseBudget()
	candidates := env.AttackCandidates(budget)
	for _, a := range env.Spread.Allocate(budget, candidates) {
		troops := env.Plan.Attack(a.TargetID, a.TroopCount)
		slog.Debug("growth attack", "target", a.TargetID, "troops", troops, "budget", budget, "policy", env.Spread.Name())
	}
	return nil
}

func ActionFatigueArmor(env RuleEnv) error {
	amount := env.Plan.Armor(env.FatigueArmor())
	slog.Debug("fatigue armor", "hp", env.SelfHP(), "fatigue", env.FatigueDamage(), "amount", amount)
	return nil
}

// ActionFocusFire commits the whole fatigue budget to the weakest alive
// opponent. Overkill is accepted here: the target may armor up this turn.
func ActionFocusFire(env RuleEnv) error {
	target, ok := Weakest(env.AliveOpponents())
	if !ok {
		return nil
	}
	budget := env.OffenseBudget()
	troops := env.Plan.Attack(target.PlayerID, budget)
	slog.Debug("focus fire", "target", target.PlayerID, "troops", troops, "allIn", env.AllIn())
	return nil
}

// ActionCoalition allies with the next-strongest opponent against the leader,
// skipping anyone already attacking us.
func ActionCoalition(env RuleEnv) error {
	ranked := RankByStrength(env.AliveOpponents())
	if len(ranked) < 2 {
		return nil
	}
	leader := ranked[0]
	for _, t := range ranked[1:] {
		if env.Hostile(t.PlayerID) {
			continue
		}
		env.Plan.Propose(model.PeaceAgainst(t.PlayerID, leader.PlayerID))
		slog.Debug("coalition proposed", "ally", t.PlayerID, "leader", leader.PlayerID)
		return nil
	}
	return nil
}

// ActionShieldWeak is used when we lead: befriend the weakest opponent so the
// table does not unite against us, and point it at our real rival.
func ActionShieldWeak(env RuleEnv) error {
	alive := env.AliveOpponents()
	rival, ok := Strongest(alive)
	if !ok {
		return nil
	}
	for _, t := range RankByWeakness(alive) {
		if env.Hostile(t.PlayerID) {
			continue
		}
		if t.PlayerID == rival.PlayerID {
			if len(alive) > 1 {
				continue
			}
			env.Plan.Propose(model.Peace(t.PlayerID))
			return nil
		}
		env.Plan.Propose(model.PeaceAgainst(t.PlayerID, rival.PlayerID))
		slog.Debug("shielding weak opponent", "ally", t.PlayerID, "rival", rival.PlayerID)
		return nil
	}
	return nil
}
