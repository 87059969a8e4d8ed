package agent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nstehr/towerbot/model"
)

// ErrMalformedResponse means the advisor's text could not be read as an
// action set. Parsing is fail-closed: one bad element rejects the response.
var ErrMalformedResponse = errors.New("malformed advisor response")

type wireCombat struct {
	Type       *string `json:"type"`
	Amount     *int    `json:"amount"`
	TargetID   *int    `json:"targetId"`
	TroopCount *int    `json:"troopCount"`
}

type wireDiplomacy struct {
	AllyID         *int `json:"allyId"`
	AttackTargetID *int `json:"attackTargetId"`
}

// ParseCombat reads a combat action array out of advisor text. Surrounding
// prose and markdown code fences are tolerated.
func ParseCombat(text string) ([]model.CombatAction, error) {
	var items []wireCombat
	if err := decodeArray(text, &items); err != nil {
		return nil, err
	}

	actions := make([]model.CombatAction, 0, len(items))
	for i, it := range items {
		if it.Type == nil {
			return nil, malformed("item %d: missing type", i)
		}
		switch model.ActionType(*it.Type) {
		case model.ActionArmor:
			if it.Amount == nil || it.TargetID != nil || it.TroopCount != nil {
				return nil, malformed("item %d: armor needs exactly amount", i)
			}
			actions = append(actions, model.Armor(*it.Amount))
		case model.ActionAttack:
			if it.TargetID == nil || it.TroopCount == nil || it.Amount != nil {
				return nil, malformed("item %d: attack needs exactly targetId and troopCount", i)
			}
			actions = append(actions, model.Attack(*it.TargetID, *it.TroopCount))
		case model.ActionUpgrade:
			if it.Amount != nil || it.TargetID != nil || it.TroopCount != nil {
				return nil, malformed("item %d: upgrade takes no fields", i)
			}
			actions = append(actions, model.Upgrade())
		default:
			return nil, malformed("item %d: unknown action type %q", i, *it.Type)
		}
	}
	return actions, nil
}

// ParseDiplomacy reads a diplomacy action array out of advisor text.
func ParseDiplomacy(text string) ([]model.DiplomacyAction, error) {
	var items []wireDiplomacy
	if err := decodeArray(text, &items); err != nil {
		return nil, err
	}

	actions := make([]model.DiplomacyAction, 0, len(items))
	for i, it := range items {
		if it.AllyID == nil {
			return nil, malformed("item %d: missing allyId", i)
		}
		a := model.Peace(*it.AllyID)
		if it.AttackTargetID != nil {
			a = model.PeaceAgainst(*it.AllyID, *it.AttackTargetID)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// decodeArray extracts the outermost JSON array from text and decodes it
// strictly into v.
func decodeArray(text string, v any) error {
	start := strings.IndexByte(text, '[')
	end := strings.LastIndexByte(text, ']')
	if start < 0 || end < start {
		return malformed("no JSON array in response")
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text[start : end+1])))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return malformed("trailing data after array")
	}
	return nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
