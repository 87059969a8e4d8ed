package agent

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nstehr/towerbot/gamemath"
	"github.com/nstehr/towerbot/model"
)

// EventKind identifies a situation in the turn payload that the advisor
// should weigh explicitly.
type EventKind string

const (
	EventUnderAttack        EventKind = "under_attack"
	EventBetrayal           EventKind = "betrayal"
	EventCoalitionAgainstUs EventKind = "coalition_against_us"
	EventOpponentEliminated EventKind = "opponent_eliminated"
	EventLastOpponent       EventKind = "last_opponent"
	EventFatigueImminent    EventKind = "fatigue_imminent"
	EventFatigueActive      EventKind = "fatigue_active"
	EventLethalFatigue      EventKind = "lethal_fatigue"
)

// fatigueWarningTurns is how early fatigue is announced.
const fatigueWarningTurns = 3

// Event is a significant fact derived from one turn's payload. Events are
// included in the advisor prompt so it knows what changed.
type Event struct {
	Kind   EventKind
	Turn   int
	Detail string // human-readable description for the advisor
}

// DetectEvents derives events from a single turn context. The service keeps
// no history, so everything is read from the payload itself.
func DetectEvents(tc model.TurnContext) []Event {
	var events []Event
	add := func(kind EventKind, format string, args ...any) {
		events = append(events, Event{Kind: kind, Turn: tc.Turn, Detail: fmt.Sprintf(format, args...)})
	}
	selfID := tc.Self.PlayerID

	// 1. under_attack: troops declared against us this turn
	incoming := tc.IncomingAttacks()
	if len(incoming) > 0 {
		troops := 0
		attackers := make(map[int]bool)
		for _, a := range incoming {
			troops += max(a.Action.TroopCount, 0)
			attackers[a.PlayerID] = true
		}
		add(EventUnderAttack, "%d troops incoming from players %s", troops, formatIDs(attackers))
	}

	// 2. betrayal: declared peace with us, attacks us anyway
	attackers := tc.Attackers()
	betrayers := make(map[int]bool)
	for _, d := range tc.Diplomacy {
		if d.Action.AllyID == selfID && attackers[d.PlayerID] {
			betrayers[d.PlayerID] = true
		}
	}
	if len(betrayers) > 0 {
		add(EventBetrayal, "players %s declared peace with us but attack us", formatIDs(betrayers))
	}

	// 3. coalition_against_us: two or more players name us as their target
	against := make(map[int]bool)
	for _, d := range tc.Diplomacy {
		if d.Action.AttackTargetID != nil && *d.Action.AttackTargetID == selfID && d.PlayerID != selfID {
			against[d.PlayerID] = true
		}
	}
	if len(against) >= 2 {
		add(EventCoalitionAgainstUs, "players %s coordinate attacks on us", formatIDs(against))
	}

	// 4. opponent_eliminated / last_opponent
	dead := make(map[int]bool)
	for _, o := range tc.Opponents {
		if !o.Alive() && o.PlayerID != selfID {
			dead[o.PlayerID] = true
		}
	}
	if len(dead) > 0 {
		add(EventOpponentEliminated, "players %s are destroyed and must not be targeted", formatIDs(dead))
	}
	if alive := tc.AliveOpponentIDs(); len(alive) == 1 {
		add(EventLastOpponent, "only player %s remains: this is a duel", formatIDs(alive))
	}

	// 5. fatigue phases
	if gamemath.IsFatigueActive(tc.Turn) {
		add(EventFatigueActive, "fatigue deals %d now and %d next turn", gamemath.FatigueDamage(tc.Turn), gamemath.FatigueDamage(tc.Turn+1))
	} else if n := gamemath.TurnsUntilFatigue(tc.Turn); n <= fatigueWarningTurns {
		add(EventFatigueImminent, "fatigue starts in %d turns at %d damage", n, gamemath.FatigueDamage(gamemath.FatigueStartTurn))
	}
	if next := gamemath.FatigueDamage(tc.Turn + 1); next > 0 && next >= gamemath.EffectiveHP(tc.Self) {
		add(EventLethalFatigue, "next turn's fatigue (%d) meets our effective HP (%d)", next, gamemath.EffectiveHP(tc.Self))
	}

	return events
}

// formatIDs renders an id set in ascending order: "102, 104".
func formatIDs(ids map[int]bool) string {
	sorted := make([]int, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	slices.Sort(sorted)
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}

// formatEvents renders events as a "Recent Events" section for the prompt.
func formatEvents(events []Event) string {
	if len(events) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nRecent Events:\n")
	for _, e := range events {
		fmt.Fprintf(&b, "- [turn %d] %s: %s\n", e.Turn, e.Kind, e.Detail)
	}
	return b.String()
}
