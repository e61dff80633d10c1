package main

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/mark3labs/stepguard/internal/config"
	"github.com/mark3labs/stepguard/internal/logger"
	"github.com/mark3labs/stepguard/internal/tui/theme"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	logoText1 = "█▀▀ ▀█▀ █▀▀ █▀█ █▀▀ █ █ ▄▀█ █▀█ █▀▄"
	logoText2 = "▄▄█  █  ██▄ █▀▀ █▄█ █▄█ █▀█ █▀▄ █▄▀"
)

// Version set via ldflags during build
var version = "dev"

func main() {
	defer func() { _ = logger.Close() }()

	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		logger.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stepguard",
	Short: "Guarded multi-step flows with identity verification",
}

// renderLogo creates the logo with gradient colors
func renderLogo() string {
	t := theme.NewCatppuccinMocha()
	line1 := theme.ApplyGradient(logoText1, t.Primary, t.Secondary)
	line2 := theme.ApplyGradient(logoText2, t.Primary, t.Secondary)
	return strings.Join([]string{line1, line2}, "\n")
}

func init() {
	rootCmd.Long = renderLogo() + `

stepguard hosts guarded multi-step flows in the terminal: benefits
enrollment, dependents, beneficiaries, bank accounts, card activation and
preferences. Each flow walks a step catalog, blocks leaving with unsaved
work behind a confirmation prompt, and embeds a one-time-code identity
check where the flow asks for one. Submissions go to an in-process mock
backend on embedded NATS.`

	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to this file")
	rootCmd.PersistentFlags().String("catalog-dir", "", "Directory of catalog overrides")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(flowsCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadConfig loads configuration with the command's flags taking precedence
// and configures the logger from it.
func loadConfig(cmd *cobra.Command, flags map[string]string) (*config.Config, error) {
	v := viper.New()
	bind := map[string]string{
		"log_level":   "log-level",
		"log_file":    "log-file",
		"catalog_dir": "catalog-dir",
	}
	for key, name := range flags {
		bind[key] = name
	}
	for key, name := range bind {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	cfg, err := config.LoadWith(v)
	if err != nil {
		return nil, err
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, err
	}
	return cfg, nil
}
