package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("", "/tmp/data")
	require.NoError(t, err)

	assert.Equal(t, "opus-4.1", cfg.Model)
	assert.Equal(t, "claude-code", cfg.AgentCommand)
	assert.Equal(t, 15, cfg.Limits.MaxIterations)
	assert.Equal(t, 120*time.Second, cfg.Limits.PromptTimeout)
	assert.Equal(t, 60*time.Second, cfg.Limits.CommandTimeout)
	assert.Equal(t, time.Second, cfg.Limits.IterationDelay)
	assert.Equal(t, "/tmp/data", cfg.DataDir)
}

func TestLoad_ReadsYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
model: sonnet
agent_command: claude
limits:
  max_iterations: 5
  command_timeout: 30s
models:
  local: my-local-model
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, err := Load(configPath, dir)
	require.NoError(t, err)

	assert.Equal(t, "sonnet", cfg.Model)
	assert.Equal(t, "claude", cfg.AgentCommand)
	assert.Equal(t, 5, cfg.Limits.MaxIterations)
	assert.Equal(t, 30*time.Second, cfg.Limits.CommandTimeout)
	// Unset limits fall back to defaults
	assert.Equal(t, 120*time.Second, cfg.Limits.PromptTimeout)
	assert.Equal(t, "my-local-model", cfg.Models["local"])
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("model: [unclosed"), 0o644))

	_, err := Load(configPath, dir)
	assert.Error(t, err)
}

func TestModelTable_MergesUserOverBuiltin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Models = map[string]string{
		"sonnet": "my-pinned-sonnet",
		"local":  "my-local-model",
	}

	table := cfg.ModelTable()

	assert.Equal(t, "my-pinned-sonnet", table["sonnet"], "user entry overrides built-in")
	assert.Equal(t, "my-local-model", table["local"])
	assert.Equal(t, "claude-opus-4-1-20250805", table["opus-4.1"], "built-ins preserved")
	assert.Equal(t, table["sonnet-new"], "claude-3-5-sonnet-20241022")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:      "empty data dir",
			mutate:    func(c *Config) { c.DataDir = "" },
			wantField: "data_dir",
		},
		{
			name:      "empty agent command",
			mutate:    func(c *Config) { c.AgentCommand = "" },
			wantField: "agent_command",
		},
		{
			name:      "zero iterations",
			mutate:    func(c *Config) { c.Limits.MaxIterations = 0 },
			wantField: "limits.max_iterations",
		},
		{
			name:      "negative timeout",
			mutate:    func(c *Config) { c.Limits.CommandTimeout = -time.Second },
			wantField: "limits.command_timeout",
		},
		{
			name:      "empty model id",
			mutate:    func(c *Config) { c.Models = map[string]string{"x": ""} },
			wantField: `models["x"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DataDir = "/tmp/data"
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var fieldErrs criterio.FieldErrors
			require.ErrorAs(t, err, &fieldErrs)
			require.Len(t, fieldErrs, 1)
			assert.Contains(t, fieldErrs[0].Field, tt.wantField)
		})
	}
}

func TestValidate_AggregatesLimitErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/tmp/data"
	cfg.Limits.MaxIterations = 0
	cfg.Limits.CommandTimeout = -time.Second

	err := cfg.Validate()

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Len(t, fieldErrs, 2)
}

func TestSessionDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/data"

	assert.Equal(t, filepath.Join("/data", "sessions", "20250101_abcd"), cfg.SessionDir("20250101_abcd"))
}
