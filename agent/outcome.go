package agent

import (
	"errors"
	"time"

	"github.com/nstehr/towerbot/advisor"
	"github.com/nstehr/towerbot/rules"
)

// Kind is the game phase a decision answers.
type Kind string

const (
	KindNegotiate Kind = "negotiate"
	KindCombat    Kind = "combat"
)

// Tier is the strategy tier that produced the returned action set.
type Tier string

const (
	TierAI       Tier = "ai"
	TierFallback Tier = "fallback"
	TierEmpty    Tier = "empty"
)

// Reason names why a tier's output was rejected.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonAdvisorDisabled   Reason = "advisor_disabled"
	ReasonAdvisorTimeout    Reason = "advisor_timeout"
	ReasonAdvisorTransport  Reason = "advisor_transport"
	ReasonAdvisorModel      Reason = "advisor_model"
	ReasonMalformedResponse Reason = "malformed_response"
	ReasonActionSetInvalid  Reason = "action_set_invalid"
	ReasonNoLegalAction     Reason = "no_legal_action"
)

// Outcome describes how one decision was reached. It is logged, returned in
// response headers and written to the journal.
type Outcome struct {
	ID     string `json:"id"`
	GameID int    `json:"gameId"`
	Turn   int    `json:"turn"`
	Kind   Kind   `json:"kind"`
	Tier   Tier   `json:"tier"`

	// Reason is why the AI tier was rejected; empty when it was accepted.
	Reason Reason `json:"reason,omitempty"`
	// FallbackReason is set only when the fallback tier failed too.
	FallbackReason Reason            `json:"fallbackReason,omitempty"`
	Violations     []rules.Violation `json:"violations,omitempty"`

	Model    string        `json:"model,omitempty"`
	Attempts int           `json:"attempts,omitempty"`
	Actions  int           `json:"actions"`
	Latency  time.Duration `json:"latency"`
	At       time.Time     `json:"at"`
}

var errAdvisorDisabled = errors.New("advisor disabled")

// reasonFor maps a tier failure onto its Reason.
func reasonFor(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, errAdvisorDisabled):
		return ReasonAdvisorDisabled
	case errors.Is(err, rules.ErrNoLegalAction):
		return ReasonNoLegalAction
	case errors.Is(err, rules.ErrActionSetInvalid):
		return ReasonActionSetInvalid
	case errors.Is(err, ErrMalformedResponse):
		return ReasonMalformedResponse
	case errors.Is(err, advisor.ErrTimeout):
		return ReasonAdvisorTimeout
	case errors.Is(err, advisor.ErrModel):
		return ReasonAdvisorModel
	default:
		return ReasonAdvisorTransport
	}
}

func violationsOf(err error) []rules.Violation {
	var invalid *rules.InvalidActionSetError
	if errors.As(err, &invalid) {
		return invalid.Violations
	}
	return nil
}
