// Package config provides centralized configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration values for stepguard.
type Config struct {
	LogLevel        string `mapstructure:"log_level" yaml:"log_level"`
	LogFile         string `mapstructure:"log_file" yaml:"log_file"`
	CooldownSeconds int    `mapstructure:"cooldown_seconds" yaml:"cooldown_seconds"`
	MaxAttempts     int    `mapstructure:"max_attempts" yaml:"max_attempts"`
	RejectCode      string `mapstructure:"reject_code" yaml:"reject_code"`
	ToastSeconds    int    `mapstructure:"toast_seconds" yaml:"toast_seconds"`
	CatalogDir      string `mapstructure:"catalog_dir" yaml:"catalog_dir"`
	RequestTimeout  string `mapstructure:"request_timeout" yaml:"request_timeout"`
	DataDir         string `mapstructure:"data_dir" yaml:"data_dir"`
}

// Defaults mirrors the values registered with viper in Load.
func Defaults() *Config {
	return &Config{
		LogLevel:        "info",
		CooldownSeconds: 45,
		MaxAttempts:     0,
		RejectCode:      "000000",
		ToastSeconds:    3,
		RequestTimeout:  "2s",
		DataDir:         DefaultDataDir(),
	}
}

// DefaultDataDir is where the embedded backend keeps submission history:
// $XDG_DATA_HOME/stepguard or ~/.local/share/stepguard.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "stepguard")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "stepguard")
}

// Cooldown returns the verification resend cooldown.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// ToastDuration returns how long toasts stay visible.
func (c *Config) ToastDuration() time.Duration {
	return time.Duration(c.ToastSeconds) * time.Second
}

// Timeout parses RequestTimeout, falling back to two seconds when it is
// empty or malformed.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// Validate checks values that would otherwise produce a broken flow.
func (c *Config) Validate() error {
	if c.CooldownSeconds <= 0 {
		return fmt.Errorf("cooldown_seconds must be positive, got %d", c.CooldownSeconds)
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must not be negative, got %d", c.MaxAttempts)
	}
	if c.RejectCode != "" && len(c.RejectCode) != 6 {
		return fmt.Errorf("reject_code must be 6 digits, got %q", c.RejectCode)
	}
	return nil
}

var envKeys = []string{
	"log_level",
	"log_file",
	"cooldown_seconds",
	"max_attempts",
	"reject_code",
	"toast_seconds",
	"catalog_dir",
	"request_timeout",
	"data_dir",
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars > project config > XDG global config > defaults
func Load() (*Config, error) {
	return LoadWith(viper.New())
}

// LoadWith loads configuration into the given viper instance. Commands bind
// their flags to v before calling it so flags take precedence.
func LoadWith(v *viper.Viper) (*Config, error) {
	v.SetConfigType("yaml")
	v.SetConfigName("stepguard")

	d := Defaults()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("cooldown_seconds", d.CooldownSeconds)
	v.SetDefault("max_attempts", d.MaxAttempts)
	v.SetDefault("reject_code", d.RejectCode)
	v.SetDefault("toast_seconds", d.ToastSeconds)
	v.SetDefault("catalog_dir", d.CatalogDir)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("data_dir", d.DataDir)

	v.SetEnvPrefix("STEPGUARD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Explicit bindings so ints parse from env
	for _, key := range envKeys {
		if err := v.BindEnv(key, "STEPGUARD_"+strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	globalPath := GlobalPath()
	if FileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	projectPath := ProjectPath()
	if FileExists(projectPath) {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return FileExists(GlobalPath()) || FileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/stepguard/stepguard.yml or $XDG_CONFIG_HOME/stepguard/stepguard.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "stepguard", "stepguard.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "stepguard", "stepguard.yml")
}

// ProjectPath returns the project-local config path.
func ProjectPath() string {
	return "stepguard.yml"
}

// WriteGlobal writes the config to the XDG global location.
func WriteGlobal(cfg *Config) error {
	path := GlobalPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return write(path, cfg)
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	return write(ProjectPath(), cfg)
}

// Marshal encodes cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

func write(path string, cfg *Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
