package hooks

// Config is the top-level configuration for hooks loaded from
// .stepguard.hooks.yml.
type Config struct {
	Version int         `yaml:"version"`
	Hooks   HooksConfig `yaml:"hooks"`
}

// HooksConfig contains all hook configurations.
type HooksConfig struct {
	// OnSubmit runs after every accepted submission, in order.
	OnSubmit []*HookConfig `yaml:"on_submit"`
}

// HookConfig defines a single hook's configuration.
type HookConfig struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout"` // seconds, default 30
	// Flows limits the hook to these flow ids. Empty runs it for every flow.
	Flows []string `yaml:"flows"`
}

// DefaultTimeout is the default timeout for hook execution in seconds.
const DefaultTimeout = 30
