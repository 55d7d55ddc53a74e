package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync/atomic"
	"time"

	m "gooze.dev/pkg/darwin/internal/model"
)

// ErrSpawn reports that a command could not be launched at all, as opposed to
// a command that ran and exited nonzero.
var ErrSpawn = errors.New("command could not be started")

const defaultWaitDelay = 5 * time.Second

// CommandSpec describes one external command invocation.
type CommandSpec struct {
	Args []string
	Dir  m.Path
	// Env entries (KEY=VALUE) are appended to the current environment.
	Env []string
	// Timeout bounds the wall-clock run time; zero means unbounded.
	Timeout time.Duration
}

// ProcessResult is the observed outcome of a finished command.
type ProcessResult struct {
	// Output is stdout and stderr interleaved in arrival order.
	Output   string
	ExitCode int
	// TimedOut is set when the process tree was killed because Timeout elapsed.
	TimedOut bool
	// Canceled is set when the process tree was killed because the caller's
	// context was cancelled.
	Canceled bool
	Elapsed  time.Duration
}

// CommandRunnerAdapter abstracts running the build and test toolchain.
type CommandRunnerAdapter interface {
	// Run executes spec and blocks until the command and every process it
	// spawned have exited or been killed.
	Run(ctx context.Context, spec CommandSpec) (ProcessResult, error)
}

// LocalCommandRunnerAdapter runs commands with os/exec in their own process
// group so a timeout can take down the whole tree.
type LocalCommandRunnerAdapter struct {
	waitDelay time.Duration
}

// NewLocalCommandRunnerAdapter constructs a LocalCommandRunnerAdapter.
func NewLocalCommandRunnerAdapter() *LocalCommandRunnerAdapter {
	return &LocalCommandRunnerAdapter{
		waitDelay: defaultWaitDelay,
	}
}

// Run starts the command described by spec and waits for it.
func (a *LocalCommandRunnerAdapter) Run(ctx context.Context, spec CommandSpec) (ProcessResult, error) {
	if len(spec.Args) == 0 {
		return ProcessResult{}, fmt.Errorf("%w: empty command", ErrSpawn)
	}

	if ctx.Err() != nil {
		return ProcessResult{Canceled: true}, nil
	}

	runCtx := ctx

	if spec.Timeout > 0 {
		var cancel context.CancelFunc

		runCtx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	// #nosec G204 - the command line comes from the user's own configuration
	cmd := exec.CommandContext(runCtx, spec.Args[0], spec.Args[1:]...)
	cmd.Dir = string(spec.Dir)
	cmd.Env = append(os.Environ(), spec.Env...)

	var output bytes.Buffer

	cmd.Stdout = &output
	cmd.Stderr = &output

	configureProcessGroup(cmd)

	var killed atomic.Bool

	cmd.Cancel = func() error {
		killed.Store(true)
		slog.Debug("Killing process tree", "command", spec.Args[0], "pid", cmd.Process.Pid, "dir", spec.Dir)

		return killProcessTree(cmd)
	}
	cmd.WaitDelay = a.waitDelay

	start := time.Now()

	if err := cmd.Start(); err != nil {
		// exec.Cmd.Start fails with the context error when it was cancelled.
		if ctx.Err() != nil {
			return ProcessResult{Canceled: true, Elapsed: time.Since(start)}, nil
		}

		slog.Error("Failed to start command", "command", spec.Args, "dir", spec.Dir, "error", err)
		return ProcessResult{}, fmt.Errorf("%w: %s: %w", ErrSpawn, spec.Args[0], err)
	}

	waitErr := cmd.Wait()

	result := ProcessResult{
		Output:   output.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
		Elapsed:  time.Since(start),
	}

	if killed.Load() {
		waitProcessTreeExit(cmd.Process.Pid, a.waitDelay)

		if ctx.Err() != nil {
			result.Canceled = true
		} else {
			result.TimedOut = true
		}

		return result, nil
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) && !errors.Is(waitErr, exec.ErrWaitDelay) {
			return result, fmt.Errorf("failed to wait for %s: %w", spec.Args[0], waitErr)
		}
	}

	return result, nil
}
