package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/stepguard/internal/flows"
	"github.com/mark3labs/stepguard/internal/logger"
	"github.com/mark3labs/stepguard/internal/mcpserver"
	"github.com/mark3labs/stepguard/internal/service"
	"github.com/spf13/cobra"
)

var serveFlags struct {
	addr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the flows as MCP tools over HTTP",
	Long: `Serve the flows over the Model Context Protocol (streamable HTTP).

Tools: flow-list, flow-steps, flow-check, flow-submit, submission-history.
flow-submit walks a flow headlessly with the same gates as the terminal
host; verification steps take their code from the 'code' answer.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", "127.0.0.1:0", "Listen address")
	serveCmd.Flags().String("reject-code", "", "Code the mock backend always rejects")
	serveCmd.Flags().Int("max-attempts", 0, "Incorrect codes allowed per sent code, 0=unlimited")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, map[string]string{
		"reject_code":  "reject-code",
		"max_attempts": "max-attempts",
	})
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	registry, err := flows.Load(cfg.CatalogDir)
	if err != nil {
		return fmt.Errorf("failed to load flows: %w", err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	backend, err := service.Start(ctx, service.Options{
		DataDir:    cfg.DataDir,
		RejectCode: cfg.RejectCode,
		Timeout:    cfg.Timeout(),
	})
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

	srv := mcpserver.New(registry, mcpserver.Options{
		Addr: serveFlags.addr,
		Env: flows.Env{
			Submitter:   submitter,
			Codes:       backend.Client(),
			Cooldown:    cfg.Cooldown(),
			MaxAttempts: cfg.MaxAttempts,
		},
		History: backend,
	})
	if _, err := srv.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = srv.Stop() }()

	fmt.Printf("Serving %d flows at %s\n", len(registry.IDs()), srv.URL())
	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}
