package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/saralegui-solutions/claude-assistant/pkg/executil"
)

// Executor runs one concrete task against the local system and returns a
// structured outcome. It never returns an error: every fault, including a
// timeout or an unknown task type, becomes TaskOutcome{Success: false}.
// Retry policy belongs to the loop, which re-plans rather than re-executes.
type Executor struct {
	// WorkDir is the session working directory. Created files and shell
	// commands resolve against it.
	WorkDir string
	// SessionDir receives audit copies of prompts handed to the agent.
	SessionDir string
	// AgentCommand is the external code-execution agent binary.
	AgentCommand string
	// PromptTimeout bounds a single agent invocation.
	PromptTimeout time.Duration
	// CommandTimeout bounds a single shell command.
	CommandTimeout time.Duration

	Log zerolog.Logger

	// now is swappable for deterministic artifact names in tests.
	now func() time.Time
	// createdFiles records files written by file_creation tasks.
	createdFiles []string
}

// NewExecutor returns an Executor with the design-default timeouts applied
// for any zero value.
func NewExecutor(workDir, sessionDir, agentCommand string, promptTimeout, commandTimeout time.Duration, log zerolog.Logger) *Executor {
	if promptTimeout <= 0 {
		promptTimeout = 120 * time.Second
	}
	if commandTimeout <= 0 {
		commandTimeout = 60 * time.Second
	}
	return &Executor{
		WorkDir:        workDir,
		SessionDir:     sessionDir,
		AgentCommand:   agentCommand,
		PromptTimeout:  promptTimeout,
		CommandTimeout: commandTimeout,
		Log:            log,
		now:            time.Now,
	}
}

// CreatedFiles returns the paths written by file_creation tasks so far, in
// creation order.
func (e *Executor) CreatedFiles() []string {
	out := make([]string, len(e.createdFiles))
	copy(out, e.createdFiles)
	return out
}

// Execute dispatches a task by type and returns its outcome.
func (e *Executor) Execute(ctx context.Context, task Task) TaskOutcome {
	e.Log.Info().
		Str("type", string(task.Type)).
		Str("description", task.Description).
		Msg("executing task")

	switch task.Type {
	case TaskPrompt:
		return e.runPrompt(ctx, task)
	case TaskFileCreation:
		return e.createFile(task)
	case TaskShellCommand:
		return e.runCommand(ctx, task)
	default:
		return TaskOutcome{
			Success: false,
			Error:   fmt.Sprintf("unknown task type: %s", task.Type),
		}
	}
}

func (e *Executor) runPrompt(ctx context.Context, task Task) TaskOutcome {
	// Persist the prompt for audit before handing it to the agent.
	if e.SessionDir != "" {
		promptFile := filepath.Join(e.SessionDir, fmt.Sprintf("prompt_%d.txt", e.now().Unix()))
		if err := os.WriteFile(promptFile, []byte(task.Content), 0o644); err != nil {
			e.Log.Warn().Err(err).Str("path", promptFile).Msg("failed to persist prompt audit copy")
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.PromptTimeout)
	defer cancel()

	res, err := executil.RunPipe(ctx, e.WorkDir, task.Content, e.AgentCommand)
	return e.outcomeFromResult(res, err, e.PromptTimeout)
}

func (e *Executor) createFile(task Task) TaskOutcome {
	filename := task.Filename
	if filename == "" {
		filename = fmt.Sprintf("file_%d.txt", e.now().Unix())
	}

	// Created in the working directory, not the session directory: later
	// shell commands in the same plan expect to find it there.
	path := filename
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.WorkDir, filename)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return TaskOutcome{Success: false, Error: Truncate(err.Error(), executil.DefaultMaxStderr)}
	}
	if err := os.WriteFile(path, []byte(task.Content), 0o644); err != nil {
		return TaskOutcome{Success: false, Error: Truncate(err.Error(), executil.DefaultMaxStderr)}
	}

	e.createdFiles = append(e.createdFiles, path)
	return TaskOutcome{Success: true, Output: fmt.Sprintf("Created %s", filename)}
}

func (e *Executor) runCommand(ctx context.Context, task Task) TaskOutcome {
	ctx, cancel := context.WithTimeout(ctx, e.CommandTimeout)
	defer cancel()

	res, err := executil.RunShell(ctx, e.WorkDir, task.Content, executil.DefaultLimits())
	return e.outcomeFromResult(res, err, e.CommandTimeout)
}

func (e *Executor) outcomeFromResult(res executil.Result, err error, timeout time.Duration) TaskOutcome {
	if err != nil {
		return TaskOutcome{Success: false, Error: Truncate(err.Error(), executil.DefaultMaxStderr)}
	}
	if res.TimedOut {
		return TaskOutcome{
			Success: false,
			Output:  res.Stdout,
			Error:   fmt.Sprintf("timed out after %s", timeout),
		}
	}
	return TaskOutcome{
		Success: res.ExitCode == 0,
		Output:  res.Stdout,
		Error:   strings.TrimRight(res.Stderr, "\n"),
	}
}
