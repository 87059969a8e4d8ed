package rules

// Spread policies accepted in Doctrine.Spread.
const (
	SpreadFinishKills = "finish-kills"
	SpreadFocus       = "focus"
)

// Doctrine is the tuning of the fallback tier. The compiler turns it into a
// concrete rule set; Validate keeps every knob inside a sane range.
type Doctrine struct {
	Name string `yaml:"name" json:"name"`

	// Growth phase (before fatigue).
	SurvivalHP          int     `yaml:"survival_hp" json:"survival_hp"`
	SurvivalArmorMargin int     `yaml:"survival_armor_margin" json:"survival_armor_margin"`
	GrowthLevelCap      int     `yaml:"growth_level_cap" json:"growth_level_cap"`
	OffenseShare        float64 `yaml:"offense_share" json:"offense_share"`
	ReserveShare        float64 `yaml:"reserve_share" json:"reserve_share"`
	NearDeathShare      float64 `yaml:"near_death_share" json:"near_death_share"`
	Spread              string  `yaml:"spread" json:"spread"`

	// Fatigue phase.
	FatigueArmorHP     int     `yaml:"fatigue_armor_hp" json:"fatigue_armor_hp"`
	FatigueArmorMargin int     `yaml:"fatigue_armor_margin" json:"fatigue_armor_margin"`
	FatigueAttackShare float64 `yaml:"fatigue_attack_share" json:"fatigue_attack_share"`
	AllInTurn          int     `yaml:"all_in_turn" json:"all_in_turn"`
}

// DefaultDoctrine returns the baseline tuning.
func DefaultDoctrine() Doctrine {
	return Doctrine{
		Name:                "Attrition",
		SurvivalHP:          40,
		SurvivalArmorMargin: 10,
		GrowthLevelCap:      4,
		OffenseShare:        0.5,
		ReserveShare:        0.2,
		NearDeathShare:      0.5,
		Spread:              SpreadFinishKills,
		FatigueArmorHP:      30,
		FatigueArmorMargin:  5,
		FatigueAttackShare:  0.8,
		AllInTurn:           27,
	}
}

// Validate clamps all fields to their valid ranges.
func (d *Doctrine) Validate() {
	if d.Name == "" {
		d.Name = "Custom"
	}
	d.SurvivalHP = clampInt(d.SurvivalHP, 0, 1000)
	d.SurvivalArmorMargin = clampInt(d.SurvivalArmorMargin, 0, 100)
	d.GrowthLevelCap = clampInt(d.GrowthLevelCap, 1, 6)
	d.OffenseShare = clamp(d.OffenseShare, 0, 1)
	d.ReserveShare = clamp(d.ReserveShare, 0, 1)
	d.NearDeathShare = clamp(d.NearDeathShare, 0, 1)
	if d.Spread != SpreadFocus {
		d.Spread = SpreadFinishKills
	}
	d.FatigueArmorHP = clampInt(d.FatigueArmorHP, 0, 1000)
	d.FatigueArmorMargin = clampInt(d.FatigueArmorMargin, 1, 100)
	d.FatigueAttackShare = clamp(d.FatigueAttackShare, 0, 1)
	d.AllInTurn = clampInt(d.AllInTurn, 25, 1000)
}

// clampInt restricts v to [min, max].
func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// clamp restricts v to [min, max].
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
