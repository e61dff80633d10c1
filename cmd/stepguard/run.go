package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mark3labs/stepguard/internal/flows"
	"github.com/mark3labs/stepguard/internal/hooks"
	"github.com/mark3labs/stepguard/internal/logger"
	"github.com/mark3labs/stepguard/internal/service"
	"github.com/mark3labs/stepguard/internal/tui"
	"github.com/mark3labs/stepguard/internal/wizard"
	"github.com/spf13/cobra"
)

var runFlags struct {
	fail      string
	noPersist bool
}

var runCmd = &cobra.Command{
	Use:   "run <flow>",
	Short: "Run a flow in the terminal",
	Long: `Run one flow in a full-screen terminal host.

Available flows: enrollment, dependents, beneficiary, bankaccount,
cardactivation, preferences. Run 'stepguard flows' for their steps.

Verification codes are accepted unless they equal reject_code
(default 000000). Use --fail to make the backend reject submissions.`,
	Args: cobra.ExactArgs(1),
	RunE: runFlow,
}

func init() {
	runCmd.Flags().Int("cooldown", 0, "Resend cooldown in seconds (default from config: 45)")
	runCmd.Flags().Int("max-attempts", 0, "Incorrect codes allowed per sent code, 0=unlimited")
	runCmd.Flags().String("reject-code", "", "Code the mock backend always rejects")
	runCmd.Flags().StringVar(&runFlags.fail, "fail", "", "Make submissions fail with this message")
	runCmd.Flags().BoolVar(&runFlags.noPersist, "no-persist", false, "Keep submission history in memory only")
}

func runFlow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, map[string]string{
		"cooldown_seconds": "cooldown",
		"max_attempts":     "max-attempts",
		"reject_code":      "reject-code",
	})
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	registry, err := flows.Load(cfg.CatalogDir)
	if err != nil {
		return fmt.Errorf("failed to load flows: %w", err)
	}
	flow, err := registry.Get(strings.ToLower(args[0]))
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := service.Options{RejectCode: cfg.RejectCode, Timeout: cfg.Timeout()}
	if !runFlags.noPersist {
		opts.DataDir = cfg.DataDir
	}
	if runFlags.fail != "" {
		opts.FailFlows = map[string]string{flow.ID: runFlags.fail}
	}
	backend, err := service.Start(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to start backend: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("closing backend: %v", err)
		}
	}()

	submitter, err := withHooks(backend.Client())
	if err != nil {
		return err
	}

	logger.Info("running flow %s", flow.ID)
	result, err := tui.Run(ctx, tui.Options{
		Flow: flow,
		Env: flows.Env{
			Submitter:   submitter,
			Codes:       backend.Client(),
			Cooldown:    cfg.Cooldown(),
			MaxAttempts: cfg.MaxAttempts,
		},
		ToastDuration: cfg.ToastDuration(),
	})
	if err != nil {
		return err
	}

	if result.Receipt != nil {
		fmt.Printf("%s submitted, reference %s\n", flow.Title, result.Receipt.Reference)
	}
	logger.Info("flow %s ended (exit=%q)", flow.ID, result.Exit)
	return nil
}

// withHooks wraps sub with the on_submit hooks of the working directory.
func withHooks(sub wizard.Submitter) (wizard.Submitter, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := hooks.LoadConfig(dir)
	if err != nil {
		return nil, err
	}
	return hooks.WrapSubmitter(sub, cfg, dir), nil
}
