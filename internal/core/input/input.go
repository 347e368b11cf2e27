// Package input collects the operator's task description, preferring an
// external capture command (such as a speech-to-text helper) and falling
// back to an interactive prompt.
package input

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog"

	"github.com/saralegui-solutions/claude-assistant/pkg/executil"
)

// captureStdoutLimit is generous compared to task-output limits: a dictated
// request can legitimately run long.
const captureStdoutLimit = 16 * 1024

// Source tries capture methods in order: the external command first, then
// the interactive prompt. A method that errors, times out, or yields only
// whitespace hands off to the next one.
type Source struct {
	// Command is an optional shell command whose stdout becomes the input.
	Command string
	// Timeout bounds the command; zero means 60 seconds.
	Timeout time.Duration
	// Prompt is the interactive fallback. Nil disables it.
	Prompt func(ctx context.Context) (string, error)

	Log zerolog.Logger
}

// Capture returns the operator's request text, trimmed.
func (s *Source) Capture(ctx context.Context) (string, error) {
	if s.Command != "" {
		if text, ok := s.captureCommand(ctx); ok {
			return text, nil
		}
	}
	if s.Prompt != nil {
		text, err := s.Prompt(ctx)
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return strings.TrimSpace(text), nil
	}
	return "", fmt.Errorf("no input captured")
}

func (s *Source) captureCommand(ctx context.Context) (string, bool) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := executil.RunShell(ctx, "", s.Command, executil.Limits{
		Stdout: captureStdoutLimit,
		Stderr: executil.DefaultMaxStderr,
	})
	if err != nil {
		s.Log.Warn().Err(err).Str("command", s.Command).Msg("input command failed, falling back")
		return "", false
	}
	if res.TimedOut || res.ExitCode != 0 {
		s.Log.Warn().
			Bool("timed_out", res.TimedOut).
			Int("exit_code", res.ExitCode).
			Msg("input command unsuccessful, falling back")
		return "", false
	}

	text := strings.TrimSpace(res.Stdout)
	if text == "" {
		s.Log.Warn().Str("command", s.Command).Msg("input command produced no text, falling back")
		return "", false
	}
	return text, true
}

// TextPrompt returns an interactive multi-line prompt suitable as a Source
// fallback.
func TextPrompt(title string) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		var text string
		form := huh.NewForm(huh.NewGroup(
			huh.NewText().
				Title(title).
				Placeholder("Describe what you want to build or fix").
				Value(&text),
		))
		if err := form.RunWithContext(ctx); err != nil {
			return "", err
		}
		return text, nil
	}
}
