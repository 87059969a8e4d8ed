package rules

import "fmt"

// CompileCombat generates the combat rule set from a doctrine.
// Doctrine values are interpolated into the conditions with fmt.Sprintf.
func CompileCombat(d Doctrine) []*Rule {
	d.Validate()
	var rules []*Rule

	// --- Growth phase (before fatigue) ---

	rules = append(rules, &Rule{
		Name:         "survival-armor",
		Priority:     900,
		Category:     "defense",
		Exclusive:    true,
		ConditionSrc: fmt.Sprintf(`!FatigueActive() && SelfHP() < %d && Remaining() > 0`, d.SurvivalHP),
		Action:       ActionSurvivalArmor,
	})

	rules = append(rules, &Rule{
		Name:         "growth-upgrade",
		Priority:     800,
		Category:     "growth",
		Exclusive:    true,
		ConditionSrc: fmt.Sprintf(`!FatigueActive() && SelfLevel() < %d && CanAffordUpgrade()`, d.GrowthLevelCap),
		Action:       ActionUpgrade,
	})

	rules = append(rules, &Rule{
		Name:         "growth-offense",
		Priority:     700,
		Category:     "offense",
		Exclusive:    true,
		ConditionSrc: `!FatigueActive() && AliveCount() > 0 && OffenseBudget() > 0 && HasWorthwhileTarget()`,
		Action:       ActionGrowthOffense,
	})

	// --- Fatigue phase: no upgrades, minimal armor, focus fire ---

	rules = append(rules, &Rule{
		Name:         "fatigue-armor",
		Priority:     900,
		Category:     "defense",
		Exclusive:    true,
		ConditionSrc: fmt.Sprintf(`FatigueActive() && SelfHP() < %d && FatigueArmor() > 0 && Remaining() > 0`, d.FatigueArmorHP),
		Action:       ActionFatigueArmor,
	})

	rules = append(rules, &Rule{
		Name:         "fatigue-focus-fire",
		Priority:     700,
		Category:     "offense",
		Exclusive:    true,
		ConditionSrc: `FatigueActive() && AliveCount() > 0 && OffenseBudget() > 0`,
		Action:       ActionFocusFire,
	})

	return rules
}

// CompileDiplomacy generates the negotiation rule set from a doctrine.
// Both rules share the exclusive "diplomacy" category so at most one
// declaration is made per turn.
func CompileDiplomacy(d Doctrine) []*Rule {
	d.Validate()
	return []*Rule{
		{
			Name:         "coalition-against-leader",
			Priority:     500,
			Category:     "diplomacy",
			Exclusive:    true,
			ConditionSrc: `AliveCount() > 1 && !SelfIsStrongest()`,
			Action:       ActionCoalition,
		},
		{
			Name:         "shield-the-weak",
			Priority:     400,
			Category:     "diplomacy",
			Exclusive:    true,
			ConditionSrc: `AliveCount() > 0 && SelfIsStrongest()`,
			Action:       ActionShieldWeak,
		},
	}
}
