package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/saralegui-solutions/claude-assistant/internal/core/input"
	"github.com/saralegui-solutions/claude-assistant/internal/core/styles"
	"github.com/saralegui-solutions/claude-assistant/internal/oracle"
	"github.com/saralegui-solutions/claude-assistant/internal/orchestrator"
	"github.com/saralegui-solutions/claude-assistant/pkg/logutils"
	"github.com/saralegui-solutions/claude-assistant/pkg/randid"
)

type RunCmd struct {
	flags *Flags

	// flags
	model         string
	selectModel   bool
	maxIterations int
	workDir       string
}

// NewRunCmd creates a new run command
func NewRunCmd(flags *Flags) *RunCmd {
	return &RunCmd{flags: flags}
}

// Register adds the run command to the application
func (cmd *RunCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "run",
		Usage:     "Run an orchestrated session",
		UsageText: "claude-assistant run [options] [task description]",
		Description: `Starts an iterative planning and execution session. The task description
comes from the arguments, or from the configured input command, or from an
interactive prompt, in that order.

The session pauses at checkpoints the planner requests; press Ctrl+C at any
time to stop and persist the session.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "model",
				Aliases:     []string{"m"},
				Usage:       "model short name or identifier for this session",
				Destination: &cmd.model,
			},
			&cli.BoolFlag{
				Name:        "select-model",
				Usage:       "pick the model interactively before starting",
				Destination: &cmd.selectModel,
			},
			&cli.IntFlag{
				Name:        "max-iterations",
				Usage:       "override the iteration cap for this session",
				Destination: &cmd.maxIterations,
			},
			&cli.StringFlag{
				Name:        "dir",
				Aliases:     []string{"d"},
				Usage:       "working directory for tasks (defaults to the current directory)",
				Destination: &cmd.workDir,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *RunCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	selector := cmd.flags.Selector

	if cmd.model != "" {
		if err := selector.Set(cmd.model); err != nil {
			// Not a short name; treat it as a raw identifier. The planner
			// holds the same selector pointer, so replace in place.
			log.Debug().Str("model", cmd.model).Msg("using model as raw identifier")
			*selector = *oracle.NewSelector(cfg.ModelTable(), cmd.model)
		}
	}
	if cmd.selectModel {
		if err := pickModel(ctx, selector); err != nil {
			return err
		}
	}

	workDir := cmd.workDir
	if workDir == "" {
		var err error
		if workDir, err = os.Getwd(); err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
	}

	task, err := cmd.captureTask(ctx, c)
	if err != nil {
		return err
	}

	sessionID := fmt.Sprintf("%s_%s", time.Now().Format("20060102_150405"), randid.Generate(4))
	sessionDir := cfg.SessionDir(sessionID)
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	// Each session gets its own log file next to its prompt and summary
	// artifacts, in addition to the global application log.
	logger, logCloser, err := logutils.New(cmd.flags.LogLevel, filepath.Join(sessionDir, "session.log"))
	if err != nil {
		return fmt.Errorf("setup session logger: %w", err)
	}
	defer logCloser()
	logger = logger.With().Str("session_id", sessionID).Logger()

	maxIterations := cfg.Limits.MaxIterations
	if cmd.maxIterations > 0 {
		maxIterations = cmd.maxIterations
	}

	executor := orchestrator.NewExecutor(
		workDir,
		sessionDir,
		cfg.AgentCommand,
		cfg.Limits.PromptTimeout,
		cfg.Limits.CommandTimeout,
		logger,
	)

	controller := &orchestrator.InteractiveController{
		Models: selector,
		Input: &input.Source{
			Command: cfg.InputCommand,
			Timeout: cfg.Limits.InputTimeout,
			Prompt:  input.TextPrompt("Additional input"),
			Log:     logger,
		},
		Out: os.Stdout,
	}

	loop := orchestrator.NewLoop(orchestrator.LoopOptions{
		SessionID:     sessionID,
		SessionDir:    sessionDir,
		MaxIterations: maxIterations,
		Delay:         cfg.Limits.IterationDelay,
		Planner:       cmd.flags.Planner,
		Executor:      executor,
		Checkpoint:    controller,
		Models:        selector,
		Store:         cmd.flags.Store,
		Log:           logger,
		Out:           os.Stdout,
	})

	fmt.Println(styles.Banner("Session %s", sessionID))
	fmt.Println(styles.Muted.Render("Model: " + selector.Current()))

	// Ctrl+C cancels the session; the loop persists before returning.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	sum, err := loop.Run(ctx, task)
	if err != nil {
		return err
	}

	printSummary(sum)
	return nil
}

// captureTask resolves the task description: CLI arguments first, then the
// configured input command, then an interactive prompt.
func (cmd *RunCmd) captureTask(ctx context.Context, c *cli.Command) (string, error) {
	if args := c.Args().Slice(); len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	src := &input.Source{
		Command: cmd.flags.Config.InputCommand,
		Timeout: cmd.flags.Config.Limits.InputTimeout,
		Prompt:  input.TextPrompt("What would you like to work on?"),
		Log:     log.Logger,
	}
	task, err := src.Capture(ctx)
	if err != nil {
		return "", fmt.Errorf("capture task description: %w", err)
	}
	return task, nil
}

func pickModel(ctx context.Context, selector interface {
	Names() []string
	Describe(string) string
	Set(string) error
}) error {
	names := selector.Names()
	opts := make([]huh.Option[string], 0, len(names))
	for _, name := range names {
		opts = append(opts, huh.NewOption(selector.Describe(name), name))
	}

	var choice string
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Select model").
			Options(opts...).
			Value(&choice),
	))
	if err := form.RunWithContext(ctx); err != nil {
		return fmt.Errorf("select model: %w", err)
	}
	return selector.Set(choice)
}

func printSummary(sum orchestrator.Summary) {
	fmt.Println(styles.Banner("Session %s finished", sum.SessionID))
	fmt.Printf("  Phase:      %s\n", sum.Phase)
	fmt.Printf("  Reason:     %s\n", sum.Reason)
	fmt.Printf("  Iterations: %d\n", sum.Iterations)
	fmt.Printf("  Duration:   %s\n", sum.EndedAt.Sub(sum.StartedAt).Round(time.Second))
	if len(sum.Artifacts) > 0 {
		fmt.Println("  Files created:")
		for _, path := range sum.Artifacts {
			fmt.Println("    " + path)
		}
	}
}
