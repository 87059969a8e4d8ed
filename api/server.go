// Package api is the HTTP face of the bot: the game engine posts each turn
// here and always gets a JSON array back, even when everything goes wrong.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nstehr/towerbot/agent"
	"github.com/nstehr/towerbot/config"
	"github.com/nstehr/towerbot/ipc"
	"github.com/nstehr/towerbot/model"
)

// Response headers describing the decision behind an action array.
const (
	HeaderDecisionID   = "X-Decision-Id"
	HeaderDecisionTier = "X-Decision-Tier"
)

const (
	maxBodyBytes    = ipc.MaxFrameSize
	shutdownTimeout = 5 * time.Second
)

// emptyActions is written whenever no decision can be returned.
var emptyActions = []byte("[]\n")

// Server routes game engine requests to the strategist.
type Server struct {
	strategist     *agent.Strategist
	bot            config.BotConfig
	requestTimeout time.Duration
}

func NewServer(s *agent.Strategist, bot config.BotConfig, requestTimeout time.Duration) *Server {
	return &Server{strategist: s, bot: bot, requestTimeout: requestTimeout}
}

// Handler returns the routes wrapped in logging, panic recovery and the
// request deadline.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /info", s.handleInfo)
	mux.HandleFunc("POST /negotiate", s.handleNegotiate)
	mux.HandleFunc("POST /combat", s.handleCombat)
	return s.logRequests(recoverPanics(s.withDeadline(mux)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "OK"})
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{
		"name":     s.bot.Name,
		"strategy": s.bot.Strategy,
		"version":  s.bot.Version,
	})
}

func (s *Server) handleNegotiate(w http.ResponseWriter, r *http.Request) {
	var req model.NegotiationRequest
	if err := decodeBody(w, r, &req); err != nil {
		rejectRequest(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		rejectRequest(w, r, err)
		return
	}
	actions, out := s.strategist.DecideNegotiation(r.Context(), req)
	writeDecision(w, r, out, actions)
}

func (s *Server) handleCombat(w http.ResponseWriter, r *http.Request) {
	var req model.CombatRequest
	if err := decodeBody(w, r, &req); err != nil {
		rejectRequest(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		rejectRequest(w, r, err)
		return
	}
	actions, out := s.strategist.DecideCombat(r.Context(), req)
	writeDecision(w, r, out, actions)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return model.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes), v)
}

func rejectRequest(w http.ResponseWriter, r *http.Request, err error) {
	slog.Warn("rejected request", "path", r.URL.Path, "error", err)
	w.Header().Set(HeaderDecisionTier, string(agent.TierEmpty))
	writeEmpty(w)
}

// writeDecision answers with the decided actions, or [] when the caller's
// deadline passed while deciding.
func writeDecision(w http.ResponseWriter, r *http.Request, out agent.Outcome, actions any) {
	w.Header().Set(HeaderDecisionID, out.ID)
	if err := r.Context().Err(); err != nil {
		slog.Warn("deadline overrun, answering empty", "id", out.ID, "latency", out.Latency, "error", err)
		w.Header().Set(HeaderDecisionTier, string(agent.TierEmpty))
		writeEmpty(w)
		return
	}
	w.Header().Set(HeaderDecisionTier, string(out.Tier))
	writeJSON(w, actions)
}

func writeJSON(w http.ResponseWriter, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		writeEmpty(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(append(body, '\n'))
}

func writeEmpty(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(emptyActions)
}

// Run serves HTTP on cfg.Server.Addr and, when configured, the unix socket
// transport, until ctx is done. Both listeners share one strategist.
func Run(ctx context.Context, cfg *config.Config, st *agent.Strategist) error {
	timeout := cfg.GetRequestTimeout()

	var httpLn, sockLn net.Listener
	if addr := cfg.Server.Addr; addr != "" {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		httpLn = ln
	}
	if path := cfg.Server.SocketPath; path != "" {
		ln, err := ipc.Listen(path)
		if err != nil {
			if httpLn != nil {
				httpLn.Close()
			}
			return err
		}
		sockLn = ln
	}
	if httpLn == nil && sockLn == nil {
		return errors.New("no listener configured")
	}

	g, ctx := errgroup.WithContext(ctx)

	if httpLn != nil {
		srv := &http.Server{
			Handler:           NewServer(st, cfg.Bot, timeout).Handler(),
			ReadHeaderTimeout: timeout,
		}
		slog.Info("listening for http", "addr", httpLn.Addr().String())

		g.Go(func() error {
			if err := srv.Serve(httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if sockLn != nil {
		path := cfg.Server.SocketPath
		slog.Info("listening on domain socket", "path", path)

		g.Go(func() error {
			defer os.Remove(path)
			return ipc.Serve(ctx, sockLn, func(c *ipc.Connection) {
				agent.NewSession(c, st, cfg.Bot, timeout).Register()
			})
		})
	}

	return g.Wait()
}
