package domain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gooze.dev/pkg/darwin/internal/adapter"
	m "gooze.dev/pkg/darwin/internal/model"
)

// ExecState is a state of the build/test state machine.
type ExecState int

// Building and Testing are transient; every other state is terminal.
const (
	StateBuilding ExecState = iota
	StateTesting
	StateKilled
	StateOK
	StateMissing
	StateTimeout
	StateAborted
)

func (s ExecState) String() string {
	switch s {
	case StateBuilding:
		return "Building"
	case StateTesting:
		return "Testing"
	case StateKilled:
		return "Killed"
	case StateOK:
		return "OK"
	case StateMissing:
		return "Missing"
	case StateTimeout:
		return "Timeout"
	case StateAborted:
		return "Aborted"
	default:
		return fmt.Sprintf("ExecState(%d)", int(s))
	}
}

// Terminal reports whether s ends the state machine.
func (s ExecState) Terminal() bool {
	return s != StateBuilding && s != StateTesting
}

// Execution is what the executor observed for one workspace.
type Execution struct {
	State ExecState
	Build m.Output
	// Test is nil unless the test command was started.
	Test *m.Output
}

// ExecutorOptions holds the toolchain commands and their time bounds.
type ExecutorOptions struct {
	BuildCommand []string
	TestCommand  []string
	Env          []string
	TestTimeout  time.Duration
	// BuildTimeout of zero leaves the build unbounded.
	BuildTimeout time.Duration
}

// Executor builds and tests a workspace.
type Executor interface {
	// Run returns an error wrapping ErrSpawn when a command cannot be started
	// and ErrBuildTimeout when the build exceeds its bound. Test timeouts are
	// reported through StateTimeout, not as errors.
	Run(ctx context.Context, ws Workspace) (Execution, error)
}

type executor struct {
	runner  adapter.CommandRunnerAdapter
	options ExecutorOptions
}

// NewExecutor constructs an Executor on top of runner.
func NewExecutor(runner adapter.CommandRunnerAdapter, options ExecutorOptions) Executor {
	return &executor{
		runner:  runner,
		options: options,
	}
}

func (e *executor) Run(ctx context.Context, ws Workspace) (Execution, error) {
	execution := Execution{State: StateBuilding}

	if ctx.Err() != nil {
		execution.State = StateAborted
		return execution, nil
	}

	slog.Debug("Building mutant", "id", ws.ID, "dir", ws.Dir, "command", e.options.BuildCommand)

	build, err := e.runner.Run(ctx, adapter.CommandSpec{
		Args:    e.options.BuildCommand,
		Dir:     ws.Dir,
		Env:     e.options.Env,
		Timeout: e.options.BuildTimeout,
	})
	if err != nil {
		return execution, fmt.Errorf("build command: %w", err)
	}

	execution.Build = toOutput(build)

	switch {
	case build.Canceled:
		execution.State = StateAborted
		return execution, nil
	case build.TimedOut:
		slog.Warn("Build timed out", "id", ws.ID, "timeout", e.options.BuildTimeout)
		return execution, fmt.Errorf("%w after %s", ErrBuildTimeout, e.options.BuildTimeout)
	case build.ExitCode != 0:
		execution.State = StateKilled
		return execution, nil
	}

	if ctx.Err() != nil {
		execution.State = StateAborted
		return execution, nil
	}

	execution.State = StateTesting

	slog.Debug("Testing mutant", "id", ws.ID, "dir", ws.Dir, "command", e.options.TestCommand)

	test, err := e.runner.Run(ctx, adapter.CommandSpec{
		Args:    e.options.TestCommand,
		Dir:     ws.Dir,
		Env:     e.options.Env,
		Timeout: e.options.TestTimeout,
	})
	if err != nil {
		return execution, fmt.Errorf("test command: %w", err)
	}

	testOutput := toOutput(test)
	execution.Test = &testOutput

	switch {
	case test.Canceled:
		execution.State = StateAborted
	case test.TimedOut:
		slog.Debug("Test timed out", "id", ws.ID, "timeout", e.options.TestTimeout)
		execution.State = StateTimeout
	case test.ExitCode == 0:
		execution.State = StateMissing
	default:
		execution.State = StateOK
	}

	return execution, nil
}

func toOutput(result adapter.ProcessResult) m.Output {
	return m.Output{
		Text:     result.Output,
		ExitCode: result.ExitCode,
		Elapsed:  result.Elapsed,
	}
}
