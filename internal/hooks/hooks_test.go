package hooks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/stepguard/internal/wizard"
)

type stubSubmitter struct {
	receipt wizard.Receipt
	err     error
}

func (s stubSubmitter) Submit(context.Context, wizard.Submission) (wizard.Receipt, error) {
	return s.receipt, s.err
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	workDir := t.TempDir()
	vars := Variables{Flow: "enrollment", Submission: "sub-1", Reference: "SG-0000BEEF"}

	tests := []struct {
		name     string
		hook     *HookConfig
		expected string
		prefix   bool
	}{
		{name: "nil hook", hook: nil, expected: ""},
		{name: "placeholders", hook: &HookConfig{Command: "echo {{flow}} {{reference}}"}, expected: "enrollment SG-0000BEEF\n"},
		{name: "environment", hook: &HookConfig{Command: "echo $STEPGUARD_SUBMISSION"}, expected: "sub-1\n"},
		{name: "failure folds into output", hook: &HookConfig{Command: "exit 3"}, expected: "[Hook command failed:", prefix: true},
		{name: "timeout", hook: &HookConfig{Command: "sleep 5", Timeout: 1}, expected: "[Hook timed out after 1s]", prefix: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := Execute(ctx, tt.hook, workDir, vars)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if tt.prefix {
				if !strings.HasPrefix(output, tt.expected) {
					t.Errorf("Execute() output = %q, expected prefix %q", output, tt.expected)
				}
				return
			}
			if output != tt.expected {
				t.Errorf("Execute() output = %q, expected %q", output, tt.expected)
			}
		})
	}
}

func TestExecute_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Execute(ctx, &HookConfig{Command: "echo test"}, t.TempDir(), Variables{})
	if err == nil {
		t.Error("Execute() expected error for cancelled context, got nil")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	if err != nil || cfg != nil {
		t.Fatalf("LoadConfig() on empty dir = %v, %v; want nil, nil", cfg, err)
	}

	content := "version: 1\nhooks:\n  on_submit:\n    - command: echo done\n      flows: [enrollment]\n"
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if len(cfg.Hooks.OnSubmit) != 1 || cfg.Hooks.OnSubmit[0].Flows[0] != "enrollment" {
		t.Errorf("unexpected config: %+v", cfg.Hooks)
	}

	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("hooks:\n  on_submit:\n    - timeout: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(dir); err == nil {
		t.Error("LoadConfig() expected error for hook without command")
	}
}

func TestSubmitter_RunsHooksForMatchingFlows(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "log")
	cfg := &Config{Hooks: HooksConfig{OnSubmit: []*HookConfig{
		{Command: "echo {{flow}}:{{reference}} >> " + out},
		{Command: "echo only-bank >> " + out, Flows: []string{"bankaccount"}},
	}}}

	sub := WrapSubmitter(stubSubmitter{receipt: wizard.Receipt{Reference: "SG-1"}}, cfg, dir)
	if _, err := sub.Submit(context.Background(), wizard.Submission{ID: "s", FlowID: "enrollment"}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "enrollment:SG-1\n" {
		t.Errorf("hook log = %q", data)
	}
}

func TestSubmitter_SkipsHooksOnFailure(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "log")
	cfg := &Config{Hooks: HooksConfig{OnSubmit: []*HookConfig{{Command: "touch " + out}}}}
	want := errors.New("backend down")

	sub := WrapSubmitter(stubSubmitter{err: want}, cfg, dir)
	if _, err := sub.Submit(context.Background(), wizard.Submission{FlowID: "enrollment"}); !errors.Is(err, want) {
		t.Fatalf("Submit() error = %v, want %v", err, want)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("hook ran after a failed submission")
	}
}

func TestWrapSubmitter_NoHooks(t *testing.T) {
	next := stubSubmitter{}
	if got := WrapSubmitter(next, nil, ""); got != wizard.Submitter(next) {
		t.Error("WrapSubmitter() should return next unchanged without hooks")
	}
}
