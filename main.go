package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/saralegui-solutions/claude-assistant/internal/commands"
	"github.com/saralegui-solutions/claude-assistant/internal/core/config"
	"github.com/saralegui-solutions/claude-assistant/internal/data/db"
	"github.com/saralegui-solutions/claude-assistant/internal/data/stores"
	"github.com/saralegui-solutions/claude-assistant/internal/oracle"
	"github.com/saralegui-solutions/claude-assistant/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		database  *db.DB
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "claude-assistant",
		Usage:     "Orchestrate iterative AI coding sessions",
		UsageText: "claude-assistant [global options] command [command options]",
		Description: `claude-assistant runs an iterative plan/execute loop: a planning model
breaks your request into concrete tasks (agent prompts, file creation, shell
commands), executes them locally, and feeds the results back until the work
is complete.

Run 'claude-assistant run <task>' to start a session.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("CLAUDE_ASSISTANT_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/assistant.log)",
				Sources:     cli.EnvVars("CLAUDE_ASSISTANT_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("CLAUDE_ASSISTANT_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("CLAUDE_ASSISTANT_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Pick up ANTHROPIC_API_KEY and friends from a local .env if present.
			_ = godotenv.Load()

			// Always log to a file; use explicit path or default to <datadir>/assistant.log
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "assistant.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			database, err = db.Open(cfg.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("open database: %w", err)
			}

			flags.Store = stores.NewSessionStore(database)
			flags.Selector = oracle.NewSelector(cfg.ModelTable(), cfg.Model)
			flags.Planner = oracle.NewClient(
				cfg.APIKey,
				flags.Selector,
				log.With().Str("component", "oracle").Logger(),
			)

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			// Close database connection
			if database != nil {
				if err := database.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			// Close log file
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewRunCmd(flags).Register(app)
	app = commands.NewModelsCmd(flags).Register(app)
	app = commands.NewSessionsCmd(flags).Register(app)
	app = commands.NewInitCmd(flags).Register(app)

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
