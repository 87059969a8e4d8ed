package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nstehr/towerbot/gamemath"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginTop(1)
)

var fatigueTurns int

var formulasCmd = &cobra.Command{
	Use:   "formulas",
	Short: "Print the economy and fatigue tables the strategy tiers use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, titleStyle.Render("Economy"))
		fmt.Fprintln(w, economyTable().Render())
		fmt.Fprintln(w, titleStyle.Render("Fatigue"))
		fmt.Fprintln(w, fatigueTable(fatigueTurns).Render())
		return nil
	},
}

func init() {
	formulasCmd.Flags().IntVar(&fatigueTurns, "fatigue-turns", 8, "number of fatigue turns to list")
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func economyTable() *table.Table {
	t := newTable("Level", "Generation", "Upgrade cost", "Upgrade ROI")
	for level := 1; level <= gamemath.MaxLevel; level++ {
		cost, roi := "max", "-"
		if gamemath.CanUpgrade(level) {
			cost = strconv.Itoa(gamemath.UpgradeCost(level))
			roi = fmt.Sprintf("%.3f", gamemath.UpgradeROI(level))
		}
		t.Row(strconv.Itoa(level), strconv.Itoa(gamemath.ResourceGeneration(level)), cost, roi)
	}
	return t
}

func fatigueTable(turns int) *table.Table {
	t := newTable("Turn", "Damage", "Cumulative")
	total := 0
	for turn := gamemath.FatigueStartTurn; turn < gamemath.FatigueStartTurn+max(turns, 1); turn++ {
		dmg := gamemath.FatigueDamage(turn)
		total += dmg
		t.Row(strconv.Itoa(turn), strconv.Itoa(dmg), strconv.Itoa(total))
	}
	return t
}
