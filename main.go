package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nstehr/towerbot/config"
)

const banner = `
 _  ____        __     ____   ___ _____
| |/ /\ \      / /    | __ ) / _ \_   _|
| ' /  \ \ /\ / /_____|  _ \| | | || |
| . \   \ V  V /_____|| |_) | |_| || |
|_|\_\   \_/\_/       |____/ \___/ |_|

Two-Tier Tower Strategy`

var (
	configPath string
	verbose    bool

	// cfg is loaded once before any command runs and never modified after.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tower",
	Short: "Kingdom Wars tower decision service",
	Long: `tower answers the game engine's negotiation and combat requests.

Each decision is asked of a language model first and checked against the game
rules; when the model is slow, unreachable or wrong, a deterministic rule
engine decides instead.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			c.Logging.Level = "debug"
		}
		slog.SetDefault(newLogger(c.Logging, cmd.ErrOrStderr()))
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "tower.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, decideCmd, formulasCmd, journalCmd, configCmd)
}

func newLogger(lc config.LoggingConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(lc.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
