package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nstehr/towerbot/config"
	"github.com/nstehr/towerbot/ipc"
	"github.com/nstehr/towerbot/model"
)

// Session owns the decision-making for a single socket client.
type Session struct {
	Conn           *ipc.Connection
	Strategist     *Strategist
	Bot            config.BotConfig
	RequestTimeout time.Duration
}

func NewSession(conn *ipc.Connection, s *Strategist, bot config.BotConfig, requestTimeout time.Duration) *Session {
	return &Session{Conn: conn, Strategist: s, Bot: bot, RequestTimeout: requestTimeout}
}

// Register installs the session's handlers on its connection.
func (s *Session) Register() {
	s.Conn.RegisterHandler(ipc.TypeHello, s.HandleHello)
	s.Conn.RegisterHandler(ipc.TypeNegotiate, s.HandleNegotiate)
	s.Conn.RegisterHandler(ipc.TypeCombat, s.HandleCombat)
}

// HandleHello completes the handshake so the client knows the bot is ready.
func (s *Session) HandleHello(_ context.Context, env ipc.Envelope) (*ipc.Envelope, error) {
	var hello ipc.HelloMessage
	if err := json.Unmarshal(env.Data, &hello); err != nil {
		return nil, fmt.Errorf("unmarshal hello: %w", err)
	}

	s.Conn.Client = hello.Client
	slog.Info("client identified", "client", hello.Client, "version", hello.Version)

	ack, err := ipc.NewEnvelope(ipc.TypeAck, ipc.AckMessage{
		Status:   "ok",
		Name:     s.Bot.Name,
		Strategy: s.Bot.Strategy,
		Version:  s.Bot.Version,
	})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

func (s *Session) HandleNegotiate(ctx context.Context, env ipc.Envelope) (*ipc.Envelope, error) {
	var req model.NegotiationRequest
	if err := decodeRequest(env.Data, &req, func() error { return req.Validate() }); err != nil {
		slog.Warn("rejected negotiate request", "client", s.Conn.Client, "error", err)
		return actionsEnvelope(Outcome{Tier: TierEmpty}, []model.DiplomacyAction{})
	}

	ctx, cancel := context.WithTimeout(ctx, s.RequestTimeout)
	defer cancel()
	actions, out := s.Strategist.DecideNegotiation(ctx, req)
	if overrun(ctx, out) {
		return actionsEnvelope(Outcome{ID: out.ID, Tier: TierEmpty}, []model.DiplomacyAction{})
	}
	return actionsEnvelope(out, actions)
}

func (s *Session) HandleCombat(ctx context.Context, env ipc.Envelope) (*ipc.Envelope, error) {
	var req model.CombatRequest
	if err := decodeRequest(env.Data, &req, func() error { return req.Validate() }); err != nil {
		slog.Warn("rejected combat request", "client", s.Conn.Client, "error", err)
		return actionsEnvelope(Outcome{Tier: TierEmpty}, []model.CombatAction{})
	}

	ctx, cancel := context.WithTimeout(ctx, s.RequestTimeout)
	defer cancel()
	actions, out := s.Strategist.DecideCombat(ctx, req)
	if overrun(ctx, out) {
		return actionsEnvelope(Outcome{ID: out.ID, Tier: TierEmpty}, []model.CombatAction{})
	}
	return actionsEnvelope(out, actions)
}

// overrun reports whether the request deadline passed while deciding. The
// client has stopped waiting by then, so it gets an empty set as over HTTP.
func overrun(ctx context.Context, out Outcome) bool {
	if err := ctx.Err(); err != nil {
		slog.Warn("deadline overrun, answering empty", "id", out.ID, "latency", out.Latency, "error", err)
		return true
	}
	return false
}

// decodeRequest decodes data into v, then runs validate on the result.
func decodeRequest(data []byte, v any, validate func() error) error {
	if err := model.Decode(bytes.NewReader(data), v); err != nil {
		return err
	}
	return validate()
}

func actionsEnvelope(out Outcome, actions any) (*ipc.Envelope, error) {
	raw, err := json.Marshal(actions)
	if err != nil {
		return nil, fmt.Errorf("marshal actions: %w", err)
	}
	env, err := ipc.NewEnvelope(ipc.TypeActions, ipc.ActionsMessage{
		DecisionID: out.ID,
		Tier:       string(out.Tier),
		Actions:    raw,
	})
	if err != nil {
		return nil, err
	}
	return &env, nil
}
