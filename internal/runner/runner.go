// Package runner executes the external build command wrapped by `build run`.
package runner

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/gcstr/buildversions/internal/apperr"
)

// Options controls one command execution.
type Options struct {
	Dir     string
	Env     []string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Timeout time.Duration
}

// Result describes a finished command.
type Result struct {
	ExitCode int
	Duration time.Duration
}

// Event phases.
const (
	PhaseStart  = "start"
	PhaseFinish = "finish"
)

// Event describes a loggable moment in command execution.
type Event struct {
	Phase    string // PhaseStart or PhaseFinish
	Args     []string
	Dir      string
	Duration time.Duration
	ExitCode int
	Err      error
}

// Hook receives start and finish events.
type Hook func(Event)

// Runner runs commands on the host, streaming their output.
type Runner struct {
	Hook Hook
}

// Run executes args[0] with the remaining arguments. A non-zero exit is an
// External error; hitting the timeout is a Timeout error.
func (r Runner) Run(ctx context.Context, opts Options, args ...string) (Result, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return Result{}, apperr.New("runner.Run", apperr.InvalidInput, "no command given")
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	r.emit(Event{Phase: PhaseStart, Args: args, Dir: opts.Dir})
	start := time.Now()

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Env = append(os.Environ(), opts.Env...)
	cmd.Dir = opts.Dir
	cmd.Stdin = opts.Stdin
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	runErr := cmd.Run()

	res := Result{ExitCode: -1, Duration: time.Since(start)}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	r.emit(Event{Phase: PhaseFinish, Args: args, Dir: opts.Dir, Duration: res.Duration, ExitCode: res.ExitCode, Err: runErr})

	if runErr == nil {
		return res, nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return res, apperr.Wrap("runner.Run", apperr.Timeout, ctx.Err(), "%s timed out after %s", args[0], opts.Timeout)
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return res, apperr.Wrap("runner.Run", apperr.External, runErr, "%s exited with status %d", args[0], res.ExitCode)
	}
	if errors.Is(runErr, exec.ErrNotFound) {
		return res, apperr.Wrap("runner.Run", apperr.NotFound, runErr, "command %s not found", args[0])
	}
	return res, apperr.Wrap("runner.Run", apperr.External, runErr, "run %s", args[0])
}

func (r Runner) emit(e Event) {
	if r.Hook != nil {
		r.Hook(e)
	}
}
