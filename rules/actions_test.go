package rules

import (
	"testing"

	"github.com/nstehr/towerbot/model"
)

func diplomacyOf(t *testing.T, action ActionFunc, tc model.TurnContext) []model.DiplomacyAction {
	t.Helper()
	env := newEnv(tc)
	if err := action(env); err != nil {
		t.Fatalf("action failed: %v", err)
	}
	return env.Plan.Diplomacy()
}

func TestActionCoalition(t *testing.T) {
	opponents := []model.Tower{tower(2, 100, 0, 3), tower(3, 100, 0, 2), tower(4, 50, 0, 1)}

	got := diplomacyOf(t, ActionCoalition, model.TurnContext{Self: self(100, 0, 0, 1), Opponents: opponents})
	if len(got) != 1 || got[0].String() != model.PeaceAgainst(3, 2).String() {
		t.Errorf("coalition = %v, want ally 3 against 2", got)
	}

	got = diplomacyOf(t, ActionCoalition, model.TurnContext{
		Self:      self(100, 0, 0, 1),
		Opponents: opponents,
		Attacks:   []model.PreviousAttack{attack(3, 1, 10)},
	})
	if len(got) != 1 || got[0].String() != model.PeaceAgainst(4, 2).String() {
		t.Errorf("coalition with hostile second = %v, want ally 4 against 2", got)
	}

	got = diplomacyOf(t, ActionCoalition, model.TurnContext{
		Self:      self(100, 0, 0, 1),
		Opponents: opponents,
		Attacks:   []model.PreviousAttack{attack(3, 1, 10), attack(4, 1, 10)},
	})
	if len(got) != 0 {
		t.Errorf("coalition with every candidate hostile = %v, want none", got)
	}
}

func TestActionShieldWeak(t *testing.T) {
	strong := self(200, 0, 0, 4)

	got := diplomacyOf(t, ActionShieldWeak, model.TurnContext{
		Self:      strong,
		Opponents: []model.Tower{tower(2, 100, 0, 2), tower(3, 40, 0, 1), tower(4, 80, 0, 1)},
	})
	if len(got) != 1 || got[0].String() != model.PeaceAgainst(3, 2).String() {
		t.Errorf("shield = %v, want ally 3 against 2", got)
	}

	got = diplomacyOf(t, ActionShieldWeak, model.TurnContext{
		Self:      strong,
		Opponents: []model.Tower{tower(2, 100, 0, 2), tower(3, 40, 0, 1), tower(4, 80, 0, 1)},
		Attacks:   []model.PreviousAttack{attack(3, 1, 5)},
	})
	if len(got) != 1 || got[0].String() != model.PeaceAgainst(4, 2).String() {
		t.Errorf("shield with hostile weakest = %v, want ally 4 against 2", got)
	}

	got = diplomacyOf(t, ActionShieldWeak, model.TurnContext{
		Self:      strong,
		Opponents: []model.Tower{tower(2, 100, 0, 2)},
	})
	if len(got) != 1 || got[0].AllyID != 2 || got[0].AttackTargetID != nil {
		t.Errorf("shield with one opponent = %v, want plain peace with 2", got)
	}
}

func TestActionFocusFireOverkill(t *testing.T) {
	env := newEnv(model.TurnContext{
		Turn:      26,
		Self:      self(100, 0, 100, 2),
		Opponents: []model.Tower{tower(2, 5, 0, 1), tower(3, 300, 0, 1)},
	})
	if err := ActionFocusFire(env); err != nil {
		t.Fatal(err)
	}
	got := env.Plan.Combat()
	if len(got) != 1 || got[0] != model.Attack(2, 80) {
		t.Errorf("focus fire = %v, want [attack 2 x80]", got)
	}
}
