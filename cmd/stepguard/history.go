package main

import (
	"fmt"
	"time"

	"github.com/mark3labs/stepguard/internal/service"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [flow]",
	Short: "List accepted submissions recorded by the mock backend",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flow := ""
	if len(args) == 1 {
		flow = args[0]
	}

	backend, err := service.Start(cmd.Context(), service.Options{DataDir: cfg.DataDir, Timeout: cfg.Timeout()})
	if err != nil {
		return fmt.Errorf("failed to start backend: %w", err)
	}
	defer func() { _ = backend.Close() }()

	records, err := backend.History(cmd.Context(), flow)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No submissions recorded.")
		return nil
	}
	for _, r := range records {
		fmt.Printf("%s  %-15s %s\n", r.Receipt.SubmittedAt.Local().Format(time.DateTime), r.Flow, r.Receipt.Reference)
	}
	return nil
}
