package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nstehr/towerbot/agent"
	"github.com/nstehr/towerbot/model"
)

var decideCmd = &cobra.Command{
	Use:   "decide <negotiate|combat> <request.json>",
	Short: "Decide one turn offline from a request file (- reads stdin)",
	Example: `  tower decide combat turn15.json
  curl -s engine/replay/15 | tower decide combat -`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(agent.KindNegotiate), string(agent.KindCombat)},
	RunE:      runDecide,
}

// decision is what decide prints: the actions the engine would receive and
// how they were reached.
type decision struct {
	Actions any           `json:"actions"`
	Outcome agent.Outcome `json:"outcome"`
}

func runDecide(cmd *cobra.Command, args []string) error {
	body, err := openRequest(cmd, args[1])
	if err != nil {
		return err
	}
	defer body.Close()

	ctx := cmd.Context()
	st, err := newStrategist(ctx, cfg)
	if err != nil {
		return err
	}

	var out decision
	switch agent.Kind(args[0]) {
	case agent.KindNegotiate:
		var req model.NegotiationRequest
		if err := model.Decode(body, &req); err != nil {
			return err
		}
		if err := req.Validate(); err != nil {
			return err
		}
		out.Actions, out.Outcome = st.DecideNegotiation(ctx, req)
	case agent.KindCombat:
		var req model.CombatRequest
		if err := model.Decode(body, &req); err != nil {
			return err
		}
		if err := req.Validate(); err != nil {
			return err
		}
		out.Actions, out.Outcome = st.DecideCombat(ctx, req)
	default:
		return fmt.Errorf("unknown phase %q: want negotiate or combat", args[0])
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func openRequest(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open request: %w", err)
	}
	return f, nil
}
