package model

import (
	"encoding/json"
	"fmt"
)

// DiplomacyAction declares peace with AllyID and optionally names an attack target.
type DiplomacyAction struct {
	AllyID         int  `json:"allyId"`
	AttackTargetID *int `json:"attackTargetId,omitempty"`
}

// Peace builds a declaration with no attack target.
func Peace(ally int) DiplomacyAction {
	return DiplomacyAction{AllyID: ally}
}

// PeaceAgainst builds a declaration naming a common attack target.
func PeaceAgainst(ally, target int) DiplomacyAction {
	return DiplomacyAction{AllyID: ally, AttackTargetID: &target}
}

func (d DiplomacyAction) String() string {
	if d.AttackTargetID == nil {
		return fmt.Sprintf("ally(%d)", d.AllyID)
	}
	return fmt.Sprintf("ally(%d)->attack(%d)", d.AllyID, *d.AttackTargetID)
}

// ActionType tags the variant of a CombatAction. Values match the game engine.
type ActionType string

const (
	ActionArmor   ActionType = "armor"
	ActionAttack  ActionType = "attack"
	ActionUpgrade ActionType = "upgrade"
)

// CombatAction is a tagged variant: only the fields of its Type are meaningful.
type CombatAction struct {
	Type       ActionType
	Amount     int // armor
	TargetID   int // attack
	TroopCount int // attack
}

func Armor(amount int) CombatAction {
	return CombatAction{Type: ActionArmor, Amount: amount}
}

func Attack(target, troops int) CombatAction {
	return CombatAction{Type: ActionAttack, TargetID: target, TroopCount: troops}
}

func Upgrade() CombatAction {
	return CombatAction{Type: ActionUpgrade}
}

func (a CombatAction) String() string {
	switch a.Type {
	case ActionArmor:
		return fmt.Sprintf("armor(%d)", a.Amount)
	case ActionAttack:
		return fmt.Sprintf("attack(%d,%d)", a.TargetID, a.TroopCount)
	default:
		return string(a.Type)
	}
}

type armorWire struct {
	Type   ActionType `json:"type"`
	Amount int        `json:"amount"`
}

type attackWire struct {
	Type       ActionType `json:"type"`
	TargetID   int        `json:"targetId"`
	TroopCount int        `json:"troopCount"`
}

type upgradeWire struct {
	Type ActionType `json:"type"`
}

// MarshalJSON emits only the fields of the variant so the engine never sees
// a stray zero-valued targetId on an armor action.
func (a CombatAction) MarshalJSON() ([]byte, error) {
	switch a.Type {
	case ActionArmor:
		return json.Marshal(armorWire{Type: a.Type, Amount: a.Amount})
	case ActionAttack:
		return json.Marshal(attackWire{Type: a.Type, TargetID: a.TargetID, TroopCount: a.TroopCount})
	case ActionUpgrade:
		return json.Marshal(upgradeWire{Type: a.Type})
	}
	return nil, fmt.Errorf("unknown combat action type %q", a.Type)
}
