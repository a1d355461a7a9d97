package pnpm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// ExitError is returned when the package manager exits with a non-zero status
type ExitError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("pnpm %s exited with code %d", strings.Join(e.Args, " "), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + strings.TrimSpace(e.Stderr)
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Runner executes package manager commands
type Runner interface {
	// Output runs the command and returns its stdout
	Output(ctx context.Context, args ...string) ([]byte, error)

	// Stream runs the command with stdout and stderr attached to the terminal
	Stream(ctx context.Context, args ...string) error
}

// ExecRunner runs the package manager binary as a subprocess.
// The working directory and environment are passed through unmodified.
type ExecRunner struct {
	Binary string
	Dir    string
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

func NewExecRunner(binary, dir string) *ExecRunner {
	if binary == "" {
		binary = "pnpm"
	}
	return &ExecRunner{
		Binary: binary,
		Dir:    dir,
		Env:    os.Environ(),
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func (r *ExecRunner) command(ctx context.Context, args []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Dir = r.Dir
	cmd.Env = r.Env
	return cmd
}

func (r *ExecRunner) Output(ctx context.Context, args ...string) ([]byte, error) {
	log.Trace().Str("binary", r.Binary).Strs("args", args).Msg("running package manager")

	var stdout, stderr bytes.Buffer
	cmd := r.command(ctx, args)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, exitError(args, stderr.String(), err)
	}
	return stdout.Bytes(), nil
}

func (r *ExecRunner) Stream(ctx context.Context, args ...string) error {
	log.Debug().Str("binary", r.Binary).Strs("args", args).Msg("running package manager")

	cmd := r.command(ctx, args)
	cmd.Stdin = os.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		return exitError(args, "", err)
	}
	return nil
}

func exitError(args []string, stderr string, err error) error {
	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	return &ExitError{
		Args:     args,
		ExitCode: exitCode,
		Stderr:   stderr,
		Err:      err,
	}
}
