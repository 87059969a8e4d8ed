package model

// Tower is one player's state as reported by the game engine for the current turn.
type Tower struct {
	PlayerID  int `json:"playerId"`
	HP        int `json:"hp"`
	Armor     int `json:"armor"`
	Resources int `json:"resources"`
	Level     int `json:"level"`
}

// Alive reports whether the tower can still be targeted. hp <= 0 means destroyed.
func (t Tower) Alive() bool { return t.HP > 0 }

// Normalize clamps values the engine may send out of range: negative counters
// become zero and the level never drops below 1.
func (t Tower) Normalize() Tower {
	t.HP = max(t.HP, 0)
	t.Armor = max(t.Armor, 0)
	t.Resources = max(t.Resources, 0)
	t.Level = max(t.Level, 1)
	return t
}

// CombatIntent is the body of a combat declaration seen in the turn history.
type CombatIntent struct {
	TargetID   int `json:"targetId"`
	TroopCount int `json:"troopCount"`
}

// PreviousAttack is an attack some player declared this turn.
type PreviousAttack struct {
	PlayerID int          `json:"playerId"`
	Action   CombatIntent `json:"action"`
}

// DiplomacyMessage is a diplomacy declaration some player made this turn.
type DiplomacyMessage struct {
	PlayerID int             `json:"playerId"`
	Action   DiplomacyAction `json:"action"`
}

// NegotiationRequest is the payload of the negotiation phase.
type NegotiationRequest struct {
	GameID        int              `json:"gameId"`
	Turn          int              `json:"turn"`
	PlayerTower   Tower            `json:"playerTower"`
	EnemyTowers   []Tower          `json:"enemyTowers"`
	CombatActions []PreviousAttack `json:"combatActions"`
}

// CombatRequest is the payload of the combat phase.
type CombatRequest struct {
	GameID          int                `json:"gameId"`
	Turn            int                `json:"turn"`
	PlayerTower     Tower              `json:"playerTower"`
	EnemyTowers     []Tower            `json:"enemyTowers"`
	Diplomacy       []DiplomacyMessage `json:"diplomacy"`
	PreviousAttacks []PreviousAttack   `json:"previousAttacks"`
}

// TurnContext is the phase-independent view both strategy tiers reason over.
// It is built fresh from each request and never retained.
type TurnContext struct {
	GameID    int
	Turn      int
	Self      Tower
	Opponents []Tower
	// Attacks declared this turn, by anyone against anyone.
	Attacks   []PreviousAttack
	Diplomacy []DiplomacyMessage
}

func (r NegotiationRequest) Context() TurnContext {
	return TurnContext{
		GameID:    r.GameID,
		Turn:      r.Turn,
		Self:      r.PlayerTower.Normalize(),
		Opponents: normalizeAll(r.EnemyTowers),
		Attacks:   r.CombatActions,
	}
}

func (r CombatRequest) Context() TurnContext {
	return TurnContext{
		GameID:    r.GameID,
		Turn:      r.Turn,
		Self:      r.PlayerTower.Normalize(),
		Opponents: normalizeAll(r.EnemyTowers),
		Attacks:   r.PreviousAttacks,
		Diplomacy: r.Diplomacy,
	}
}

// AliveOpponentIDs returns the set of opponent ids that may be referenced by actions.
func (tc TurnContext) AliveOpponentIDs() map[int]bool {
	ids := make(map[int]bool, len(tc.Opponents))
	for _, o := range tc.Opponents {
		if o.Alive() && o.PlayerID != tc.Self.PlayerID {
			ids[o.PlayerID] = true
		}
	}
	return ids
}

// IncomingAttacks returns the attacks declared against self this turn.
func (tc TurnContext) IncomingAttacks() []PreviousAttack {
	var out []PreviousAttack
	for _, a := range tc.Attacks {
		if a.Action.TargetID == tc.Self.PlayerID && a.PlayerID != tc.Self.PlayerID {
			out = append(out, a)
		}
	}
	return out
}

// Attackers returns the ids of players attacking self this turn.
func (tc TurnContext) Attackers() map[int]bool {
	ids := make(map[int]bool)
	for _, a := range tc.IncomingAttacks() {
		ids[a.PlayerID] = true
	}
	return ids
}

func normalizeAll(towers []Tower) []Tower {
	out := make([]Tower, len(towers))
	for i, t := range towers {
		out[i] = t.Normalize()
	}
	return out
}
