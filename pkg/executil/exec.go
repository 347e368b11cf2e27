// Package executil provides shell execution utilities with bounded output capture.
package executil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Default capture caps. Large or ANSI-polluted process output would otherwise
// corrupt logs and blow up oracle feedback messages.
const (
	DefaultMaxStdout = 1000
	DefaultMaxStderr = 500
)

// Limits bounds the number of bytes captured from each stream.
type Limits struct {
	Stdout int64
	Stderr int64
}

// DefaultLimits returns the standard capture caps.
func DefaultLimits() Limits {
	return Limits{Stdout: DefaultMaxStdout, Stderr: DefaultMaxStderr}
}

// Result holds the captured outcome of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// limitedWriter caps writes to a bytes.Buffer at a maximum byte count.
// Bytes beyond the limit are silently discarded.
type limitedWriter struct {
	buf *bytes.Buffer
	n   int64
	max int64
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if w.n >= w.max {
		return len(p), nil
	}
	remaining := w.max - w.n
	origLen := len(p)
	if int64(origLen) > remaining {
		p = p[:remaining]
	}
	n, err := w.buf.Write(p)
	w.n += int64(n)
	if err != nil {
		return n, err
	}
	return origLen, nil
}

// RunShell executes command through `sh -c` in dir (empty means inherit cwd)
// and captures stdout/stderr up to the given limits. A non-zero exit is not an
// error: it is reported through Result.ExitCode. The returned error is non-nil
// only when the process could not be run at all.
//
// Deadline the context to enforce a timeout; expiry is reported via
// Result.TimedOut rather than an error so callers can treat it as a task
// failure, not a fault.
func RunShell(ctx context.Context, dir, command string, limits Limits) (Result, error) {
	c := exec.CommandContext(ctx, "sh", "-c", command)
	if dir != "" {
		c.Dir = dir
	}
	return run(ctx, c, limits)
}

// RunPipe executes name with args in dir, feeding stdin to the process and
// capturing output under the default caps.
func RunPipe(ctx context.Context, dir, stdin, name string, args ...string) (Result, error) {
	return RunPipeLimits(ctx, dir, stdin, DefaultLimits(), name, args...)
}

// RunPipeLimits is RunPipe with explicit capture limits.
func RunPipeLimits(ctx context.Context, dir, stdin string, limits Limits, name string, args ...string) (Result, error) {
	c := exec.CommandContext(ctx, name, args...)
	if dir != "" {
		c.Dir = dir
	}
	c.Stdin = strings.NewReader(stdin)
	return run(ctx, c, limits)
}

func run(ctx context.Context, c *exec.Cmd, limits Limits) (Result, error) {
	var outBuf, errBuf bytes.Buffer
	c.Stdout = &limitedWriter{buf: &outBuf, max: limits.Stdout}
	c.Stderr = &limitedWriter{buf: &errBuf, max: limits.Stderr}

	err := c.Run()
	res := Result{
		Stdout: outBuf.String(),
		Stderr: errBuf.String(),
	}

	if err == nil {
		return res, nil
	}

	// Context expiry kills the process; surface it as a timeout, keeping
	// whatever output was captured before the kill.
	if ctx.Err() != nil {
		res.TimedOut = true
		res.ExitCode = -1
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	return res, fmt.Errorf("exec %s: %w", c.Path, err)
}
