package main

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nstehr/towerbot/agent"
	"github.com/nstehr/towerbot/journal"
)

var journalPath string

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Summarize recorded decisions by tier",
	Args:  cobra.NoArgs,
	RunE:  runJournal,
}

func init() {
	journalCmd.Flags().StringVar(&journalPath, "path", "", "journal database (defaults to journal.path from config)")
}

func runJournal(cmd *cobra.Command, _ []string) error {
	path := journalPath
	if path == "" {
		path = cfg.Journal.Path
	}
	if path == "" {
		return errors.New("no journal configured: set journal.path or pass --path")
	}

	j, err := journal.Open(path, 1)
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := cmd.Context()
	summary, err := j.Summary(ctx)
	if err != nil {
		return err
	}
	reasons, err := j.Reasons(ctx)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(summary) == 0 {
		fmt.Fprintln(w, "no decisions recorded")
		return nil
	}

	tiers := newTable("Phase", "Tier", "Decisions", "Avg latency")
	for _, row := range summary {
		tiers.Row(string(row.Kind), string(row.Tier), strconv.Itoa(row.Count), row.AvgLatency.String())
	}
	fmt.Fprintln(w, titleStyle.Render("Decisions"))
	fmt.Fprintln(w, tiers.Render())

	if len(reasons) > 0 {
		keys := make([]agent.Reason, 0, len(reasons))
		for r := range reasons {
			keys = append(keys, r)
		}
		slices.SortFunc(keys, func(a, b agent.Reason) int {
			if d := reasons[b] - reasons[a]; d != 0 {
				return d
			}
			return cmp.Compare(a, b)
		})

		rejected := newTable("AI tier rejected because", "Count")
		for _, r := range keys {
			rejected.Row(string(r), strconv.Itoa(reasons[r]))
		}
		fmt.Fprintln(w, titleStyle.Render("Rejections"))
		fmt.Fprintln(w, rejected.Render())
	}
	return nil
}
