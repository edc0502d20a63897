// Package shell runs external commands and returns their text output.
// It is the single collaborator through which every device query is issued.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrCommandExecutionFailed is matched by every error returned from a Runner
// when the command could not be run or exited non-zero.
var ErrCommandExecutionFailed = errors.New("command execution failed")

// Runner executes a command string and returns its standard output.
type Runner interface {
	Execute(ctx context.Context, command string) (string, error)
}

// CommandError describes a failed command invocation.
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("shell run cmd failed: %s", e.Command)
	if e.ExitCode > 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying exec error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrCommandExecutionFailed.
func (e *CommandError) Is(target error) bool {
	return target == ErrCommandExecutionFailed
}

// ExecRunner runs commands through a local shell.
type ExecRunner struct {
	// Shell is the interpreter used to run command strings (defaults to /bin/sh).
	Shell string

	logger zerolog.Logger
}

// NewExecRunner creates a runner that invokes commands via /bin/sh -c.
func NewExecRunner(logger zerolog.Logger) *ExecRunner {
	return &ExecRunner{
		Shell:  "/bin/sh",
		logger: logger.With().Str("component", "shell").Logger(),
	}
}

// Execute runs command and returns its stdout.
// A non-zero exit status or a failure to start yields a *CommandError.
func (r *ExecRunner) Execute(ctx context.Context, command string) (string, error) {
	sh := r.Shell
	if sh == "" {
		sh = "/bin/sh"
	}

	//nolint:gosec // G204: command strings are built by internal/adb.
	cmd := exec.CommandContext(ctx, sh, "-c", command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	r.logger.Trace().
		Str("cmd", command).
		Dur("took", time.Since(start)).
		Msg("Executed command")

	if err != nil {
		cmdErr := &CommandError{
			Command: command,
			Stderr:  stderr.String(),
			Err:     err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		return "", cmdErr
	}

	return stdout.String(), nil
}
