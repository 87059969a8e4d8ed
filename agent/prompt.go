package agent

import (
	"fmt"
	"strings"

	"github.com/nstehr/towerbot/gamemath"
	"github.com/nstehr/towerbot/model"
	"github.com/nstehr/towerbot/rules"
)

// writeSituation renders the state both phases share: our tower, the alive
// opponents, the game phase and the fatigue outlook.
func writeSituation(b *strings.Builder, tc model.TurnContext) {
	self := tc.Self
	fmt.Fprintf(b, "Turn: %d | Phase: %s\n\n", tc.Turn, gamemath.PhaseOf(tc.Turn))
	fmt.Fprintf(b, "Your tower (player %d): HP=%d Armor=%d EffectiveHP=%d Resources=%d Level=%d\n",
		self.PlayerID, self.HP, self.Armor, gamemath.EffectiveHP(self), self.Resources, self.Level)
	fmt.Fprintf(b, "Income next turn: %d (resources next turn if you spend nothing: %d)\n",
		gamemath.ResourceGeneration(self.Level), gamemath.NextTurnResources(self.Resources, self.Level, 0))
	switch n := gamemath.TurnsToAffordUpgrade(self.Resources, self.Level); {
	case n < 0:
		b.WriteString("Upgrade: already at the maximum level\n")
	case n == 0:
		fmt.Fprintf(b, "Upgrade: affordable now (cost %d)\n", gamemath.UpgradeCost(self.Level))
	default:
		fmt.Fprintf(b, "Upgrade: affordable in %d turns without spending (cost %d)\n", n, gamemath.UpgradeCost(self.Level))
	}

	alive := rules.RankByStrength(opponentsOf(tc))
	fmt.Fprintf(b, "\nAlive enemy towers (strongest first):\n")
	if len(alive) == 0 {
		b.WriteString("- none\n")
	}
	for _, t := range alive {
		fmt.Fprintf(b, "- Player %d: HP=%d Armor=%d EffectiveHP=%d Level=%d\n",
			t.PlayerID, t.HP, t.Armor, gamemath.EffectiveHP(t), t.Level)
	}

	if gamemath.IsFatigueActive(tc.Turn) {
		fmt.Fprintf(b, "\nFATIGUE ACTIVE: every tower takes %d damage this turn and %d next turn. It doubles each turn.\n",
			gamemath.FatigueDamage(tc.Turn), gamemath.FatigueDamage(tc.Turn+1))
		fmt.Fprintf(b, "Without new armor you survive about %d more turns of fatigue.\n",
			gamemath.EstimateSurvivalTurns(self.HP, self.Armor, tc.Turn))
	} else {
		fmt.Fprintf(b, "\nFatigue starts in %d turns (turn %d).\n",
			gamemath.TurnsUntilFatigue(tc.Turn), gamemath.FatigueStartTurn)
	}
}

func opponentsOf(tc model.TurnContext) []model.Tower {
	out := make([]model.Tower, 0, len(tc.Opponents))
	for _, o := range tc.Opponents {
		if o.PlayerID != tc.Self.PlayerID {
			out = append(out, o)
		}
	}
	return out
}

// NegotiationPrompt asks the advisor for diplomacy declarations.
func NegotiationPrompt(tc model.TurnContext, events []Event) string {
	var b strings.Builder
	b.WriteString("You are playing Kingdom Wars, a four-player tower game. Win by being the last tower standing.\n\n")
	writeSituation(&b, tc)
	b.WriteString(formatEvents(events))

	alive := opponentsOf(tc)
	b.WriteString("\nNEGOTIATION PHASE\n")
	b.WriteString("Declare peace with players you will not attack, optionally naming the player you intend to attack together.\n")
	if strongest, ok := rules.Strongest(alive); ok {
		fmt.Fprintf(&b, "- Strongest threat: player %d\n", strongest.PlayerID)
	}
	if weakest, ok := rules.Weakest(alive); ok {
		fmt.Fprintf(&b, "- Weakest opponent: player %d\n", weakest.PlayerID)
	}
	b.WriteString(`
Rules:
1. At most one declaration per allyId.
2. allyId and attackTargetId must be alive enemy players, and never the same player.
3. Never ally with a player that is attacking you.

Response format: a JSON array, for example
[{"allyId": 103, "attackTargetId": 102}]
or [] for no diplomacy.

Respond with ONLY the JSON array.
`)
	return b.String()
}

// CombatPrompt asks the advisor for combat actions.
func CombatPrompt(tc model.TurnContext, events []Event) string {
	var b strings.Builder
	self := tc.Self
	b.WriteString("You are playing Kingdom Wars, a four-player tower game. Win by being the last tower standing.\n\n")
	writeSituation(&b, tc)
	b.WriteString(formatEvents(events))

	b.WriteString("\nCOMBAT PHASE\nAvailable actions:\n")
	b.WriteString(`1. {"type": "armor", "amount": X} costs X. At most one per turn.` + "\n")
	b.WriteString(`2. {"type": "attack", "targetId": Y, "troopCount": Z} costs Z. One per target. Damage hits armor first, then HP.` + "\n")
	if gamemath.CanUpgrade(self.Level) {
		fmt.Fprintf(&b, `3. {"type": "upgrade"} costs %d (level %d to %d). At most one per turn.`+"\n",
			gamemath.UpgradeCost(self.Level), self.Level, self.Level+1)
	} else {
		fmt.Fprintf(&b, "3. upgrade is unavailable: level %d is the maximum.\n", gamemath.MaxLevel)
	}

	switch gamemath.PhaseOf(tc.Turn) {
	case gamemath.PhaseEarly:
		b.WriteString("\nGuidance: grow. Upgrade while affordable, armor only when HP is low, light attacks on the weakest.\n")
	case gamemath.PhaseMid:
		b.WriteString("\nGuidance: reach level 4, focus the weakest opponent until it falls, keep HP healthy.\n")
	default:
		b.WriteString("\nGuidance: fatigue is active. No upgrades. Spend most resources attacking the single weakest opponent. Armor only to survive fatigue.\n")
	}

	fmt.Fprintf(&b, `
Rules:
1. Total cost must not exceed %d.
2. Never attack a destroyed tower.
3. No duplicate attack targets.
4. At most one armor and one upgrade action.

Response format: a JSON array, for example
[{"type": "upgrade"}, {"type": "attack", "targetId": 102, "troopCount": 30}]
or [] for no actions.

Respond with ONLY the JSON array.
`, self.Resources)
	return b.String()
}
