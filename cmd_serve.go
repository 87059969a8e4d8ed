package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nstehr/towerbot/advisor"
	"github.com/nstehr/towerbot/agent"
	"github.com/nstehr/towerbot/api"
	"github.com/nstehr/towerbot/config"
	"github.com/nstehr/towerbot/journal"
	"github.com/nstehr/towerbot/rules"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve decisions over HTTP and, if configured, a unix socket",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), banner)
	slog.Info("starting tower bot", "name", cfg.Bot.Name, "strategy", cfg.Bot.Strategy, "version", cfg.Bot.Version)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := newStrategist(ctx, cfg)
	if err != nil {
		return err
	}

	if cfg.IsJournalEnabled() {
		j, err := journal.Open(cfg.Journal.Path, cfg.Journal.QueueSize)
		if err != nil {
			return err
		}
		defer func() {
			if err := j.Close(); err != nil {
				slog.Error("failed to close journal", "error", err)
			}
		}()
		st = st.WithRecorder(j)
	}

	err = api.Run(ctx, cfg, st)
	slog.Info("shutting down")
	return err
}

// newStrategist builds both tiers from configuration. Without advisor
// credentials the strategist runs on the fallback tier alone.
func newStrategist(ctx context.Context, c *config.Config) (*agent.Strategist, error) {
	fb, err := rules.NewFallback(c.Doctrine)
	if err != nil {
		return nil, fmt.Errorf("compile fallback rules: %w", err)
	}

	var consultant agent.Consultant
	if c.IsAdvisorEnabled() {
		g, err := advisor.NewGenAI(ctx, c.Advisor)
		if err != nil {
			return nil, err
		}
		consultant = advisor.NewRetrier(g, c.ModelSequence(), c.GetAttemptTimeout(), c.GetBackoff())
		slog.Info("advisor enabled", "provider", c.Advisor.Provider, "models", c.ModelSequence(),
			"timeout", c.GetAdvisorTimeout())
	} else {
		slog.Warn("advisor disabled, deciding with the fallback tier only",
			"enabled", c.Advisor.Enabled, "provider", c.Advisor.Provider)
	}
	return agent.NewStrategist(consultant, fb, c.GetAdvisorTimeout()), nil
}
