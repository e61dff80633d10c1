// Package hooks runs user shell commands when a flow's submission is
// accepted by the backend.
package hooks

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/mark3labs/stepguard/internal/logger"
	"github.com/mark3labs/stepguard/internal/wizard"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the hooks configuration file.
const ConfigFileName = ".stepguard.hooks.yml"

// LoadConfig loads the hooks configuration from dir.
// Returns nil if the config file doesn't exist (hooks are optional).
func LoadConfig(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("No hooks config found at %s", configPath)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read hooks config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse hooks config: %w", err)
	}
	for i, h := range cfg.Hooks.OnSubmit {
		if h == nil || strings.TrimSpace(h.Command) == "" {
			return nil, fmt.Errorf("hooks config: on_submit[%d] has no command", i)
		}
	}

	logger.Debug("Loaded hooks config from %s (version: %d)", configPath, cfg.Version)
	return &cfg, nil
}

// Variables holds the values {{flow}}, {{submission}} and {{reference}}
// expand to in hook commands. They are also exported to the command as
// STEPGUARD_FLOW, STEPGUARD_SUBMISSION and STEPGUARD_REFERENCE.
type Variables struct {
	Flow       string
	Submission string
	Reference  string
}

func (v Variables) env() []string {
	return []string{
		"STEPGUARD_FLOW=" + v.Flow,
		"STEPGUARD_SUBMISSION=" + v.Submission,
		"STEPGUARD_REFERENCE=" + v.Reference,
	}
}

// Execute runs a hook command and returns its output.
// On failure the error is folded into the output and a nil error is
// returned; only context cancellation is reported as an error.
func Execute(ctx context.Context, hook *HookConfig, workDir string, vars Variables) (string, error) {
	if hook == nil || hook.Command == "" {
		return "", nil
	}

	command := expandVariables(hook.Command, vars)
	logger.Debug("Executing hook command: %s", command)

	timeout := hook.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "sh", "-c", command)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(), vars.env()...)
	// Children of sh may outlive the kill and hold the output pipes open.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	if execCtx.Err() == context.DeadlineExceeded {
		logger.Warn("Hook command timed out after %ds: %s", timeout, command)
		return fmt.Sprintf("[Hook timed out after %ds]\n%s", timeout, stdout.String()), nil
	}

	if err != nil {
		logger.Warn("Hook command failed: %v", err)
		output := stdout.String()
		if stderr.Len() > 0 {
			output += "\n[stderr]\n" + stderr.String()
		}
		return fmt.Sprintf("[Hook command failed: %v]\n%s", err, output), nil
	}

	output := stdout.String()
	if stderr.Len() > 0 {
		logger.Debug("Hook stderr: %s", stderr.String())
		output += "\n[stderr]\n" + stderr.String()
	}
	return output, nil
}

// RunSubmit runs the on_submit hooks that apply to vars.Flow, in order.
func RunSubmit(ctx context.Context, cfg *Config, workDir string, vars Variables) error {
	if cfg == nil {
		return nil
	}
	for _, h := range cfg.Hooks.OnSubmit {
		if len(h.Flows) > 0 && !slices.Contains(h.Flows, vars.Flow) {
			continue
		}
		out, err := Execute(ctx, h, workDir, vars)
		if err != nil {
			return err
		}
		if out = strings.TrimSpace(out); out != "" {
			logger.Info("hook %q: %s", h.Command, out)
		}
	}
	return nil
}

// Submitter runs the on_submit hooks after next accepts a submission. A
// hook never turns an accepted submission into a failure.
type Submitter struct {
	next    wizard.Submitter
	cfg     *Config
	workDir string
}

// WrapSubmitter returns next unchanged when cfg has no on_submit hooks.
func WrapSubmitter(next wizard.Submitter, cfg *Config, workDir string) wizard.Submitter {
	if cfg == nil || len(cfg.Hooks.OnSubmit) == 0 {
		return next
	}
	return &Submitter{next: next, cfg: cfg, workDir: workDir}
}

// Submit forwards s and then runs the hooks with the receipt.
func (h *Submitter) Submit(ctx context.Context, s wizard.Submission) (wizard.Receipt, error) {
	receipt, err := h.next.Submit(ctx, s)
	if err != nil {
		return receipt, err
	}
	vars := Variables{Flow: s.FlowID, Submission: s.ID, Reference: receipt.Reference}
	if err := RunSubmit(ctx, h.cfg, h.workDir, vars); err != nil {
		logger.Warn("on_submit hooks for %s interrupted: %v", s.FlowID, err)
	}
	return receipt, nil
}

// expandVariables replaces {{variable}} placeholders in the command string.
func expandVariables(command string, vars Variables) string {
	replacements := map[string]string{
		"{{flow}}":       vars.Flow,
		"{{submission}}": vars.Submission,
		"{{reference}}":  vars.Reference,
	}

	result := command
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}
