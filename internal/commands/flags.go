// Package commands wires the CLI surface: run, models, sessions, and init.
package commands

import (
	"os"
	"path/filepath"

	"github.com/saralegui-solutions/claude-assistant/internal/core/config"
	"github.com/saralegui-solutions/claude-assistant/internal/data/stores"
	"github.com/saralegui-solutions/claude-assistant/internal/oracle"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config

	// Store and oracle wiring, also populated in the Before hook
	Store    *stores.SessionStore
	Selector *oracle.Selector
	Planner  *oracle.Client
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "claude-assistant", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "claude-assistant")
}
