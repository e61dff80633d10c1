package main

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/mark3labs/stepguard/internal/catalog"
	"github.com/mark3labs/stepguard/internal/flows"
	"github.com/mark3labs/stepguard/internal/tui/theme"
	"github.com/spf13/cobra"
)

var flowsCmd = &cobra.Command{
	Use:   "flows",
	Short: "List available flows and their steps",
	Args:  cobra.NoArgs,
	RunE:  runFlows,
}

func runFlows(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	registry, err := flows.Load(cfg.CatalogDir)
	if err != nil {
		return fmt.Errorf("failed to load flows: %w", err)
	}

	t := theme.Current()
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(t.Primary)).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(t.BorderDefault))).
		Headers("FLOW", "TITLE", "KIND", "POLICY", "STEPS").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})

	for _, f := range registry.All() {
		order, err := catalog.Flatten(f.Catalog)
		if err != nil {
			return fmt.Errorf("flow %s: %w", f.ID, err)
		}
		tbl.Row(f.ID, f.Title, f.Kind.String(), f.Catalog.Policy.String(), strings.Join(order.IDs(), " → "))
	}

	_, err = fmt.Fprintln(stdout(), tbl.Render())
	return err
}
