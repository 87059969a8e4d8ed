package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestCombatActionJSON(t *testing.T) {
	tests := []struct {
		action CombatAction
		want   string
	}{
		{Armor(10), `{"type":"armor","amount":10}`},
		{Attack(3, 25), `{"type":"attack","targetId":3,"troopCount":25}`},
		{Upgrade(), `{"type":"upgrade"}`},
	}
	for _, tc := range tests {
		got, err := json.Marshal(tc.action)
		if err != nil {
			t.Fatalf("Marshal(%v): %v", tc.action, err)
		}
		if string(got) != tc.want {
			t.Errorf("Marshal(%v) = %s, want %s", tc.action, got, tc.want)
		}
	}

	if _, err := json.Marshal(CombatAction{Type: "retreat"}); err == nil {
		t.Error("unknown action type marshalled without error")
	}
}

func TestDiplomacyActionJSON(t *testing.T) {
	got, _ := json.Marshal([]DiplomacyAction{Peace(2), PeaceAgainst(3, 4)})
	want := `[{"allyId":2},{"allyId":3,"attackTargetId":4}]`
	if string(got) != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}
}

func TestTowerNormalize(t *testing.T) {
	got := Tower{PlayerID: 5, HP: -20, Armor: -1, Resources: -3, Level: 0}.Normalize()
	want := Tower{PlayerID: 5, HP: 0, Armor: 0, Resources: 0, Level: 1}
	if got != want {
		t.Errorf("Normalize = %+v, want %+v", got, want)
	}
	if got.Alive() {
		t.Error("tower with hp 0 reported alive")
	}
}

func TestTurnContext(t *testing.T) {
	req := CombatRequest{
		Turn:        6,
		PlayerTower: Tower{PlayerID: 1, HP: 90, Level: 2},
		EnemyTowers: []Tower{
			{PlayerID: 2, HP: 40, Level: 1},
			{PlayerID: 3, HP: -5, Level: 1},
			{PlayerID: 4, HP: 10, Level: 0},
		},
		PreviousAttacks: []PreviousAttack{
			{PlayerID: 2, Action: CombatIntent{TargetID: 1, TroopCount: 10}},
			{PlayerID: 4, Action: CombatIntent{TargetID: 2, TroopCount: 5}},
			{PlayerID: 2, Action: CombatIntent{TargetID: 1, TroopCount: 3}},
		},
	}
	tc := req.Context()

	alive := tc.AliveOpponentIDs()
	if len(alive) != 2 || !alive[2] || !alive[4] {
		t.Errorf("AliveOpponentIDs = %v, want {2, 4}", alive)
	}
	if tc.Opponents[1].HP != 0 || tc.Opponents[2].Level != 1 {
		t.Errorf("opponents not normalized: %+v", tc.Opponents)
	}
	if n := len(tc.IncomingAttacks()); n != 2 {
		t.Errorf("IncomingAttacks = %d, want 2", n)
	}
	if attackers := tc.Attackers(); len(attackers) != 1 || !attackers[2] {
		t.Errorf("Attackers = %v, want {2}", attackers)
	}
	if req.EnemyTowers[1].HP != -5 {
		t.Error("Context modified the request")
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"gameId":1,"turn":2,"playerTower":{"playerId":1,"hp":100}}`, false},
		{"unknown field", `{"turn":2,"weather":"rain"}`, false},
		{"trailing whitespace", "{\"turn\":2}\n\n", false},
		{"empty", ``, true},
		{"syntax", `{"turn":`, true},
		{"type mismatch", `{"turn":"2"}`, true},
		{"trailing value", `{"turn":2}{"turn":3}`, true},
		{"array", `[]`, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var req CombatRequest
			err := Decode(strings.NewReader(tc.body), &req)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Decode error = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("error %v does not wrap ErrInvalidRequest", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	self := Tower{PlayerID: 1, HP: 100, Level: 1}
	tests := []struct {
		name    string
		req     NegotiationRequest
		wantErr bool
	}{
		{"ok", NegotiationRequest{Turn: 1, PlayerTower: self, EnemyTowers: []Tower{{PlayerID: 2}}}, false},
		{"turn zero", NegotiationRequest{Turn: 0, PlayerTower: self}, true},
		{"duplicate enemy", NegotiationRequest{Turn: 3, PlayerTower: self, EnemyTowers: []Tower{{PlayerID: 2}, {PlayerID: 2}}}, true},
		{"self as enemy", NegotiationRequest{Turn: 3, PlayerTower: self, EnemyTowers: []Tower{{PlayerID: 1}}}, true},
	}
	for _, tc := range tests {
		if err := tc.req.Validate(); (err != nil) != tc.wantErr {
			t.Errorf("%s: Validate error = %v, wantErr %v", tc.name, err, tc.wantErr)
		}
	}
}
