// Package methods provides the executable install methods and probes behind
// the declarative catalog: package-manager installs, user pip installs,
// shell scripts, and direct binary downloads, plus the exec-backed probe
// that verifies actual presence.
package methods

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ExecResult is the captured outcome of one external command.
type ExecResult struct {
	// ExitCode is the command's exit status.
	ExitCode int

	// Stdout and Stderr hold the captured output.
	Stdout string
	Stderr string

	// Duration is the wall-clock execution time.
	Duration time.Duration
}

// Output returns the most useful diagnostic text: stderr when present,
// stdout otherwise, trimmed.
func (r *ExecResult) Output() string {
	if s := strings.TrimSpace(r.Stderr); s != "" {
		return s
	}
	return strings.TrimSpace(r.Stdout)
}

// Tail returns the last n lines of Output, for compact diagnostics.
func (r *ExecResult) Tail(n int) string {
	lines := strings.Split(r.Output(), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// CommandRunner executes external commands. Methods and probes take it as an
// interface so tests can substitute a fake.
type CommandRunner interface {
	// Run executes a command with arguments.
	Run(ctx context.Context, name string, args ...string) (*ExecResult, error)

	// RunShell executes a script through the shell.
	RunShell(ctx context.Context, script string) (*ExecResult, error)
}

// ShellRunner runs commands on the local machine. Commands block for as long
// as they take: installs may download or compile, and this layer imposes no
// timeout of its own. Cancellation comes from the context.
type ShellRunner struct {
	shell string
	env   []string
}

// NewRunner creates a runner using /bin/sh for script execution and the
// current process environment.
func NewRunner() *ShellRunner {
	return &ShellRunner{shell: "/bin/sh", env: os.Environ()}
}

// Run implements CommandRunner.
func (r *ShellRunner) Run(ctx context.Context, name string, args ...string) (*ExecResult, error) {
	return r.execute(exec.CommandContext(ctx, name, args...))
}

// RunShell implements CommandRunner.
func (r *ShellRunner) RunShell(ctx context.Context, script string) (*ExecResult, error) {
	return r.execute(exec.CommandContext(ctx, r.shell, "-c", script))
}

// execute runs the prepared command. A non-zero exit status is a normal
// result, not an error; an error return means the command could not be
// started at all.
func (r *ShellRunner) execute(cmd *exec.Cmd) (*ExecResult, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = r.env

	start := time.Now()
	err := cmd.Run()
	result := &ExecResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, fmt.Errorf("failed to execute %s: %w", cmd.Path, err)
	}
	return result, nil
}
