// Package controller provides output adapters for displaying mutation testing results.
package controller

import (
	"context"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	m "gooze.dev/pkg/darwin/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeList StartMode = iota
	ModeRun
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// WithListMode sets the UI to dry-run listing mode.
func WithListMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeList
	}
}

// WithRunMode sets the UI to execution mode.
func WithRunMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeRun
	}
}

func newStartConfig(options ...StartOption) StartConfig {
	config := StartConfig{mode: ModeRun}
	for _, option := range options {
		option(&config)
	}

	return config
}

// RunInfo describes a run before its first candidate starts.
type RunInfo struct {
	RunID        string
	Project      m.Path
	MutationPath m.Path
	Candidates   int
	Workers      int
	TestTimeout  time.Duration
	Keep         bool
}

// UI defines the interface for displaying candidates and results.
// Implementations can use different output methods (simple text, TUI, etc).
// Display methods may be called from several workers at once.
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	DisplayCandidates(ctx context.Context, candidates []m.Candidate, showDiff bool) error
	DisplayRunInfo(ctx context.Context, info RunInfo)
	DisplayStartingCandidate(ctx context.Context, candidate m.Candidate, workerID int)
	DisplayCompletedCandidate(ctx context.Context, candidate m.Candidate, result m.Result)
	DisplaySummary(ctx context.Context, report m.Report)
	DisplayMutationScore(ctx context.Context, score float64)
}

// statusLegend mirrors Status.Meaning for the four published statuses.
func statusLegend() [][2]string {
	legend := make([][2]string, 0, len(m.Statuses))
	for _, status := range m.Statuses {
		legend = append(legend, [2]string{status.String(), status.Meaning()})
	}

	return legend
}

// IsTTY reports whether f is an interactive terminal.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewUI returns the Bubble Tea progress view on terminals and plain
// command output otherwise.
func NewUI(cmd *cobra.Command, tty bool) UI {
	if tty {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}
