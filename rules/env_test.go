package rules

import (
	"math"
	"testing"

	"github.com/nstehr/towerbot/model"
)

func newEnv(tc model.TurnContext) RuleEnv {
	d := DefaultDoctrine()
	return RuleEnv{Ctx: tc, Plan: NewPlan(tc.Self.Resources), Doctrine: d, Spread: PolicyFor(d)}
}

func self(hp, armor, resources, level int) model.Tower {
	return model.Tower{PlayerID: 1, HP: hp, Armor: armor, Resources: resources, Level: level}
}

func attack(from, to, troops int) model.PreviousAttack {
	return model.PreviousAttack{PlayerID: from, Action: model.CombatIntent{TargetID: to, TroopCount: troops}}
}

func TestAliveOpponents(t *testing.T) {
	env := newEnv(model.TurnContext{
		Self:      self(100, 0, 0, 1),
		Opponents: []model.Tower{tower(2, 10, 0, 1), tower(3, 0, 0, 1), tower(1, 50, 0, 1)},
	})
	got := env.AliveOpponents()
	if len(got) != 1 || got[0].PlayerID != 2 {
		t.Errorf("AliveOpponents = %v, want only tower 2", got)
	}
	if env.AliveCount() != 1 {
		t.Errorf("AliveCount = %d, want 1", env.AliveCount())
	}
}

func TestIncomingDamage(t *testing.T) {
	env := newEnv(model.TurnContext{
		Self:    self(100, 0, 0, 1),
		Attacks: []model.PreviousAttack{attack(2, 1, 15), attack(3, 1, 20), attack(2, 4, 99)},
	})
	if got := env.IncomingDamage(); got != 35 {
		t.Errorf("IncomingDamage = %d, want 35", got)
	}
	if !env.Hostile(2) || !env.Hostile(3) || env.Hostile(4) {
		t.Error("Hostile should match only players attacking self")
	}
	if got := env.SurvivalArmor(); got != 45 {
		t.Errorf("SurvivalArmor = %d, want 45", got)
	}
}

func TestSelfIsStrongest(t *testing.T) {
	tests := []struct {
		name string
		self model.Tower
		opp  model.Tower
		want bool
	}{
		{"higher level", self(10, 0, 0, 3), tower(2, 500, 0, 2), true},
		{"lower level", self(500, 0, 0, 1), tower(2, 10, 0, 2), false},
		{"tie goes to lowest id", self(100, 0, 0, 2), tower(2, 100, 0, 2), true},
		{"tie lost to lower id", self(100, 0, 0, 2), tower(0, 100, 0, 2), false},
		{"dead self", self(0, 50, 0, 6), tower(2, 1, 0, 1), false},
	}
	for _, tc := range tests {
		env := newEnv(model.TurnContext{Self: tc.self, Opponents: []model.Tower{tc.opp}})
		if got := env.SelfIsStrongest(); got != tc.want {
			t.Errorf("%s: SelfIsStrongest = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestOffenseBudget(t *testing.T) {
	tests := []struct {
		name      string
		turn      int
		resources int
		spent     int
		want      int
	}{
		{"growth full pool", 5, 100, 0, 50},
		{"growth after upgrade", 5, 100, 50, 25},
		{"growth reserve binds", 5, 100, 70, 10},
		{"growth reserve exhausted", 5, 100, 85, 0},
		{"growth float share", 5, 150, 0, 75},
		{"fatigue share", 26, 150, 0, 120},
		{"fatigue at all-in turn", 27, 150, 0, 120},
		{"fatigue all in", 28, 150, 0, 150},
		{"nothing left", 28, 0, 0, 0},
	}
	for _, tc := range tests {
		env := newEnv(model.TurnContext{Turn: tc.turn, Self: self(100, 0, tc.resources, 1)})
		env.Plan.Armor(tc.spent)
		if got := env.OffenseBudget(); got != tc.want {
			t.Errorf("%s: OffenseBudget = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestFatigueArmor(t *testing.T) {
	tests := []struct {
		name  string
		turn  int
		hp    int
		armor int
		want  int
	}{
		{"covered by hp", 25, 100, 0, 0},
		{"covered by hp and armor", 26, 10, 20, 0},
		{"needs margin", 26, 20, 0, 5},
		{"all in uses minimal margin", 28, 20, 0, 61},
		{"saturated damage", 90, 100, 50, math.MaxInt},
	}
	for _, tc := range tests {
		env := newEnv(model.TurnContext{Turn: tc.turn, Self: self(tc.hp, tc.armor, 100, 1)})
		if got := env.FatigueArmor(); got != tc.want {
			t.Errorf("%s: FatigueArmor = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestAttackCandidates(t *testing.T) {
	env := newEnv(model.TurnContext{
		Self:      self(100, 0, 100, 1),
		Opponents: []model.Tower{tower(2, 200, 0, 1), tower(3, 40, 0, 1), tower(4, 0, 0, 1)},
	})
	got := env.AttackCandidates(30)
	if len(got) != 1 || got[0].PlayerID != 3 {
		t.Errorf("AttackCandidates(30) = %v, want only tower 3", got)
	}
	if !env.HasWorthwhileTarget() {
		t.Error("HasWorthwhileTarget = false, want true")
	}
}

func TestShares(t *testing.T) {
	if got := ceilShare(150, 0.2); got != 30 {
		t.Errorf("ceilShare(150, 0.2) = %d, want 30", got)
	}
	if got := ceilShare(101, 0.2); got != 21 {
		t.Errorf("ceilShare(101, 0.2) = %d, want 21", got)
	}
	if got := floorShare(15, 0.5); got != 7 {
		t.Errorf("floorShare(15, 0.5) = %d, want 7", got)
	}
	if got := floorShare(10, 0.7); got != 7 {
		t.Errorf("floorShare(10, 0.7) = %d, want 7", got)
	}
}

func TestCanAffordUpgrade(t *testing.T) {
	tests := []struct {
		name      string
		resources int
		level     int
		spent     int
		want      bool
	}{
		{"exact cost", 50, 1, 0, true},
		{"short by one", 87, 2, 0, false},
		{"budget already spent", 100, 1, 60, false},
		{"max level", 5000, 6, 0, false},
	}
	for _, tc := range tests {
		env := newEnv(model.TurnContext{Turn: 3, Self: self(100, 0, tc.resources, tc.level)})
		if tc.spent > 0 {
			env.Plan.Armor(tc.spent)
		}
		if got := env.CanAffordUpgrade(); got != tc.want {
			t.Errorf("%s: CanAffordUpgrade = %v, want %v", tc.name, got, tc.want)
		}
	}
}
