package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/x/editor"
	"github.com/mark3labs/stepguard/internal/config"
	"github.com/spf13/cobra"
)

var configFlags struct {
	project bool
	force   bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage stepguard configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a stepguard configuration file",
	Long: `Create a stepguard configuration file with the default values.

By default, creates a global config at ~/.config/stepguard/stepguard.yml.
Use --project to create a project-local config in the current directory.

Configuration is loaded from multiple sources with the following precedence:
  CLI flags > Environment variables (STEPGUARD_*) > Project config > Global config > Defaults`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the configuration file in $EDITOR",
	Long: `Open the global configuration file (or the project one with --project)
in $VISUAL or $EDITOR, creating it with the default values first if needed.`,
	Args: cobra.NoArgs,
	RunE: runConfigEdit,
}

func init() {
	configEditCmd.Flags().BoolVarP(&configFlags.project, "project", "p", false, "Edit the config in the current directory")
	configInitCmd.Flags().BoolVarP(&configFlags.project, "project", "p", false, "Create config in current directory instead of global location")
	configInitCmd.Flags().BoolVarP(&configFlags.force, "force", "f", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	targetPath := config.GlobalPath()
	if configFlags.project {
		targetPath = config.ProjectPath()
	}

	if !configFlags.force && config.FileExists(targetPath) {
		return fmt.Errorf("config file already exists at %s\n\nUse --force to overwrite", targetPath)
	}

	cfg := config.Defaults()
	var err error
	if configFlags.project {
		err = config.WriteProject(cfg)
	} else {
		err = config.WriteGlobal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Config written to: %s\n\n", targetPath)
	fmt.Println("Run 'stepguard flows' to see what you can run.")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(stdout(), highlight(string(data), "stepguard.yml"))
	return err
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	path := config.GlobalPath()
	if configFlags.project {
		path = config.ProjectPath()
	}

	if !config.FileExists(path) {
		var err error
		if configFlags.project {
			err = config.WriteProject(config.Defaults())
		} else {
			err = config.WriteGlobal(config.Defaults())
		}
		if err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	c, err := editor.Command("stepguard", path)
	if err != nil {
		return fmt.Errorf("failed to prepare editor: %w", err)
	}
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("editor exited: %w", err)
	}

	// Reject the edit early rather than on the next run.
	if _, err := loadConfig(cmd, nil); err != nil {
		return fmt.Errorf("%s is no longer valid: %w", path, err)
	}
	fmt.Printf("Config saved: %s\n", path)
	return nil
}
