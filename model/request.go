package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidRequest marks payloads rejected at the service boundary.
var ErrInvalidRequest = errors.New("invalid request")

// Decode reads exactly one JSON value from r into v. Syntax errors, type
// mismatches and trailing data are rejected. Unknown fields are ignored so
// newer engine payloads still decode.
func Decode(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("%w: trailing data after body", ErrInvalidRequest)
	}
	return nil
}

// Validate checks the fields the decision path relies on.
func (r NegotiationRequest) Validate() error {
	return validateTurn(r.Turn, r.PlayerTower, r.EnemyTowers)
}

// Validate checks the fields the decision path relies on.
func (r CombatRequest) Validate() error {
	return validateTurn(r.Turn, r.PlayerTower, r.EnemyTowers)
}

func validateTurn(turn int, self Tower, enemies []Tower) error {
	if turn < 1 {
		return fmt.Errorf("%w: turn %d, must be at least 1", ErrInvalidRequest, turn)
	}
	seen := map[int]bool{self.PlayerID: true}
	for _, e := range enemies {
		if seen[e.PlayerID] {
			return fmt.Errorf("%w: player %d listed twice", ErrInvalidRequest, e.PlayerID)
		}
		seen[e.PlayerID] = true
	}
	return nil
}
