package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nstehr/towerbot/advisor"
	"github.com/nstehr/towerbot/model"
	"github.com/nstehr/towerbot/rules"
)

// Consultant is the AI tier as the strategist sees it.
// *advisor.Retrier satisfies it.
type Consultant interface {
	Consult(ctx context.Context, prompt string) (advisor.Result, error)
}

// Recorder receives every finished decision. The journal implements it.
type Recorder interface {
	Record(Outcome)
}

// Strategist turns one request into one action set. It tries the advisor
// first and falls back to the deterministic rule engine. It keeps no state
// between requests and is safe for concurrent use.
type Strategist struct {
	consultant     Consultant // nil disables the AI tier
	fallback       *rules.Fallback
	advisorTimeout time.Duration
	recorder       Recorder
}

// NewStrategist wires the two tiers. advisorTimeout bounds the whole AI tier
// and must be shorter than the caller's request deadline.
func NewStrategist(c Consultant, fallback *rules.Fallback, advisorTimeout time.Duration) *Strategist {
	return &Strategist{
		consultant:     c,
		fallback:       fallback,
		advisorTimeout: advisorTimeout,
	}
}

// WithRecorder returns a copy of s that reports outcomes to r.
func (s *Strategist) WithRecorder(r Recorder) *Strategist {
	c := *s
	c.recorder = r
	return &c
}

// DecideNegotiation returns the diplomacy declarations for a negotiation request.
// The slice is never nil.
func (s *Strategist) DecideNegotiation(ctx context.Context, req model.NegotiationRequest) ([]model.DiplomacyAction, Outcome) {
	start := time.Now()
	tc := req.Context()
	out := newOutcome(KindNegotiate, tc, start)

	actions, err := s.aiNegotiation(ctx, tc, &out)
	if err == nil {
		return finish(s, &out, TierAI, actions, start)
	}
	s.reject(&out, err)

	actions, err = s.fallback.Negotiate(tc)
	if err == nil {
		return finish(s, &out, TierFallback, actions, start)
	}
	out.FallbackReason = reasonFor(err)
	slog.Error("fallback negotiation failed", "id", out.ID, "error", err)
	return finish(s, &out, TierEmpty, []model.DiplomacyAction{}, start)
}

// DecideCombat returns the combat actions for a combat request.
// The slice is never nil.
func (s *Strategist) DecideCombat(ctx context.Context, req model.CombatRequest) ([]model.CombatAction, Outcome) {
	start := time.Now()
	tc := req.Context()
	out := newOutcome(KindCombat, tc, start)

	actions, err := s.aiCombat(ctx, tc, &out)
	if err == nil {
		return finish(s, &out, TierAI, actions, start)
	}
	s.reject(&out, err)

	actions, err = s.fallback.Combat(tc)
	if err == nil {
		return finish(s, &out, TierFallback, actions, start)
	}
	out.FallbackReason = reasonFor(err)
	out.Violations = append(out.Violations, violationsOf(err)...)
	slog.Error("fallback combat failed", "id", out.ID, "error", err)
	return finish(s, &out, TierEmpty, []model.CombatAction{}, start)
}

func (s *Strategist) aiNegotiation(ctx context.Context, tc model.TurnContext, out *Outcome) ([]model.DiplomacyAction, error) {
	if s.consultant == nil {
		return nil, errAdvisorDisabled
	}
	text, err := s.consult(ctx, NegotiationPrompt(tc, DetectEvents(tc)), out)
	if err != nil {
		return nil, err
	}
	actions, err := ParseDiplomacy(text)
	if err != nil {
		return nil, err
	}

	// The parsed set is judged as a whole: one bad declaration rejects it.
	if v := rules.ValidateDiplomacy(actions, tc.Self.PlayerID, tc.AliveOpponentIDs()); !v.Valid {
		return nil, v.Err()
	}
	return actions, nil
}

func (s *Strategist) aiCombat(ctx context.Context, tc model.TurnContext, out *Outcome) ([]model.CombatAction, error) {
	if s.consultant == nil {
		return nil, errAdvisorDisabled
	}
	text, err := s.consult(ctx, CombatPrompt(tc, DetectEvents(tc)), out)
	if err != nil {
		return nil, err
	}
	actions, err := ParseCombat(text)
	if err != nil {
		return nil, err
	}

	if v := rules.ValidateCombat(actions, tc.Self.Resources, tc.Self.Level, tc.AliveOpponentIDs()); !v.Valid {
		return nil, v.Err()
	}
	return actions, nil
}

// consult runs the advisor under the AI tier's timeout. The call runs in its
// own goroutine so a slow advisor cannot hold the request past the timeout;
// a result arriving later is discarded.
func (s *Strategist) consult(ctx context.Context, prompt string, out *Outcome) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.advisorTimeout)
	defer cancel()

	type reply struct {
		res advisor.Result
		err error
	}
	ch := make(chan reply, 1)
	go func() {
		res, err := s.consultant.Consult(ctx, prompt)
		ch <- reply{res, err}
	}()

	select {
	case r := <-ch:
		out.Model = r.res.Model
		out.Attempts = r.res.Attempts
		if r.err != nil {
			return "", advisor.Classify(r.err)
		}
		return r.res.Text, nil
	case <-ctx.Done():
		return "", advisor.Classify(ctx.Err())
	}
}

func (s *Strategist) reject(out *Outcome, err error) {
	out.Reason = reasonFor(err)
	out.Violations = violationsOf(err)
	level := slog.LevelWarn
	if out.Reason == ReasonAdvisorDisabled {
		level = slog.LevelDebug
	}
	slog.Log(context.Background(), level, "ai tier rejected",
		"id", out.ID, "kind", out.Kind, "turn", out.Turn, "reason", out.Reason,
		"violations", out.Violations, "error", err)
}

// finish stamps the outcome, logs it and hands it to the recorder.
func finish[T any](s *Strategist, out *Outcome, tier Tier, actions []T, start time.Time) ([]T, Outcome) {
	if actions == nil {
		actions = []T{}
	}
	out.Tier = tier
	out.Actions = len(actions)
	out.Latency = time.Since(start)
	slog.Info("decision", "id", out.ID, "kind", out.Kind, "game", out.GameID, "turn", out.Turn,
		"tier", out.Tier, "reason", out.Reason, "actions", out.Actions, "latency", out.Latency)
	if s.recorder != nil {
		s.recorder.Record(*out)
	}
	return actions, *out
}

func newOutcome(kind Kind, tc model.TurnContext, start time.Time) Outcome {
	return Outcome{
		ID:     uuid.NewString(),
		GameID: tc.GameID,
		Turn:   tc.Turn,
		Kind:   kind,
		At:     start,
	}
}
