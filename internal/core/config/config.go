// Package config handles configuration loading and validation for claude-assistant.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	// Model is the default model short name or full identifier.
	Model string `yaml:"model"`
	// Models maps short names to concrete oracle model identifiers.
	// User entries are merged over the built-in table.
	Models map[string]string `yaml:"models"`
	// AgentCommand is the external code-execution agent binary. Prompt task
	// content is piped to it on stdin.
	AgentCommand string `yaml:"agent_command"`
	// InputCommand optionally names an external capture command (e.g. a
	// speech-to-text helper) used to collect the initial request when no
	// text is given. Its stdout becomes the task description.
	InputCommand string `yaml:"input_command"`
	APIKey       string `yaml:"api_key"`
	Limits       Limits `yaml:"limits"`
	DataDir      string `yaml:"-"` // set by caller, not from config file
}

// Limits holds the loop safety bounds and per-task timeouts.
type Limits struct {
	MaxIterations  int           `yaml:"max_iterations"`
	PromptTimeout  time.Duration `yaml:"prompt_timeout"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
	InputTimeout   time.Duration `yaml:"input_timeout"`
	IterationDelay time.Duration `yaml:"iteration_delay"`
}

// UnmarshalYAML accepts durations as strings ("30s", "2m") since yaml.v3
// has no native time.Duration support.
func (l *Limits) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		MaxIterations  int    `yaml:"max_iterations"`
		PromptTimeout  string `yaml:"prompt_timeout"`
		CommandTimeout string `yaml:"command_timeout"`
		InputTimeout   string `yaml:"input_timeout"`
		IterationDelay string `yaml:"iteration_delay"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	l.MaxIterations = raw.MaxIterations

	set := func(dst *time.Duration, s, field string) error {
		if s == "" {
			return nil
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("limits.%s: %w", field, err)
		}
		*dst = d
		return nil
	}
	if err := set(&l.PromptTimeout, raw.PromptTimeout, "prompt_timeout"); err != nil {
		return err
	}
	if err := set(&l.CommandTimeout, raw.CommandTimeout, "command_timeout"); err != nil {
		return err
	}
	if err := set(&l.InputTimeout, raw.InputTimeout, "input_timeout"); err != nil {
		return err
	}
	return set(&l.IterationDelay, raw.IterationDelay, "iteration_delay")
}

// MarshalYAML writes durations back as strings so generated config files
// stay human-editable.
func (l Limits) MarshalYAML() (any, error) {
	return struct {
		MaxIterations  int    `yaml:"max_iterations"`
		PromptTimeout  string `yaml:"prompt_timeout"`
		CommandTimeout string `yaml:"command_timeout"`
		InputTimeout   string `yaml:"input_timeout"`
		IterationDelay string `yaml:"iteration_delay"`
	}{
		MaxIterations:  l.MaxIterations,
		PromptTimeout:  l.PromptTimeout.String(),
		CommandTimeout: l.CommandTimeout.String(),
		InputTimeout:   l.InputTimeout.String(),
		IterationDelay: l.IterationDelay.String(),
	}, nil
}

// builtinModels is the default short-name table. "sonnet-new" is a legacy
// alias kept for compatibility with older session configs.
var builtinModels = map[string]string{
	"opus-4.1":   "claude-opus-4-1-20250805",
	"opus":       "claude-3-opus-20240229",
	"sonnet":     "claude-3-5-sonnet-20241022",
	"sonnet-new": "claude-3-5-sonnet-20241022",
	"haiku":      "claude-3-haiku-20240307",
}

// DefaultModel is the short name used when no model is configured.
const DefaultModel = "opus-4.1"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Model:        DefaultModel,
		Models:       map[string]string{},
		AgentCommand: "claude-code",
		Limits: Limits{
			MaxIterations:  15,
			PromptTimeout:  120 * time.Second,
			CommandTimeout: 60 * time.Second,
			InputTimeout:   60 * time.Second,
			IterationDelay: time.Second,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Model == "" {
		c.Model = defaults.Model
	}
	if c.AgentCommand == "" {
		c.AgentCommand = defaults.AgentCommand
	}
	if c.Limits.MaxIterations == 0 {
		c.Limits.MaxIterations = defaults.Limits.MaxIterations
	}
	if c.Limits.PromptTimeout == 0 {
		c.Limits.PromptTimeout = defaults.Limits.PromptTimeout
	}
	if c.Limits.CommandTimeout == 0 {
		c.Limits.CommandTimeout = defaults.Limits.CommandTimeout
	}
	if c.Limits.InputTimeout == 0 {
		c.Limits.InputTimeout = defaults.Limits.InputTimeout
	}
	if c.Limits.IterationDelay == 0 {
		c.Limits.IterationDelay = defaults.Limits.IterationDelay
	}
}

// ModelTable returns the effective short-name table: built-ins merged with
// user overrides.
func (c *Config) ModelTable() map[string]string {
	table := make(map[string]string, len(builtinModels)+len(c.Models))
	for k, v := range builtinModels {
		table[k] = v
	}
	for k, v := range c.Models {
		table[k] = v
	}
	return table
}

// Validate checks structural invariants. Field errors are aggregated so the
// operator sees every problem at once.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("data_dir", c.DataDir, notEmpty),
		criterio.Run("agent_command", c.AgentCommand, notEmpty),
		c.validateLimits(),
		c.validateModels(),
	)
}

func notEmpty(s string) error {
	if s == "" {
		return fmt.Errorf("cannot be empty")
	}
	return nil
}

func (c *Config) validateLimits() error {
	var errs criterio.FieldErrorsBuilder
	if c.Limits.MaxIterations < 1 {
		errs = errs.Append("limits.max_iterations", fmt.Errorf("must be at least 1"))
	}
	if c.Limits.PromptTimeout <= 0 {
		errs = errs.Append("limits.prompt_timeout", fmt.Errorf("must be positive"))
	}
	if c.Limits.CommandTimeout <= 0 {
		errs = errs.Append("limits.command_timeout", fmt.Errorf("must be positive"))
	}
	return errs.ToError()
}

func (c *Config) validateModels() error {
	var errs criterio.FieldErrorsBuilder
	for name, id := range c.Models {
		if name == "" || id == "" {
			errs = errs.Append(fmt.Sprintf("models[%q]", name), fmt.Errorf("short name and identifier must be non-empty"))
		}
	}
	return errs.ToError()
}

// SessionsDir returns the path where per-session artifacts are stored.
func (c *Config) SessionsDir() string {
	return filepath.Join(c.DataDir, "sessions")
}

// SessionDir returns the artifact directory for a single session.
func (c *Config) SessionDir(sessionID string) string {
	return filepath.Join(c.SessionsDir(), sessionID)
}
