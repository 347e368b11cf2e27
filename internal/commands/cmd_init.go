package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/saralegui-solutions/claude-assistant/internal/core/config"
	"github.com/saralegui-solutions/claude-assistant/internal/core/styles"
)

type InitCmd struct {
	flags *Flags
}

// NewInitCmd creates a new init command
func NewInitCmd(flags *Flags) *InitCmd {
	return &InitCmd{flags: flags}
}

// Register adds the init command to the application
func (cmd *InitCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "init",
		Usage:     "Write a default config file",
		UsageText: "claude-assistant init",
		Action:    cmd.run,
	})

	return app
}

func (cmd *InitCmd) run(ctx context.Context, c *cli.Command) error {
	path := cmd.flags.ConfigPath

	if _, err := os.Stat(path); err == nil {
		var overwrite bool
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Config already exists at %s. Overwrite?", path)).
				Value(&overwrite),
		))
		if err := form.RunWithContext(ctx); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println(styles.Warnf("Aborted"))
			return nil
		}
	}

	cfg := config.DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Println(styles.Okf("Wrote %s", path))
	return nil
}
