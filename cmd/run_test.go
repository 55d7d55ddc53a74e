package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/darwin/internal/domain"
	domainmocks "gooze.dev/pkg/darwin/internal/domain/mocks"
	m "gooze.dev/pkg/darwin/internal/model"
)

func newTestRunCmd(t *testing.T) (*domainmocks.MockWorkflow, *bytes.Buffer) {
	t.Helper()

	mockWorkflow := domainmocks.NewMockWorkflow(t)

	originalWorkflow := workflow
	workflow = mockWorkflow
	t.Cleanup(func() { workflow = originalWorkflow })

	return mockWorkflow, &bytes.Buffer{}
}

func executeRun(t *testing.T, stderr *bytes.Buffer, args ...string) error {
	t.Helper()

	cmd := newRootCmd()
	cmd.AddCommand(newRunCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(stderr)
	cmd.SetArgs(append([]string{"run"}, args...))

	return cmd.Execute()
}

func TestRunCmd_Defaults(t *testing.T) {
	mockWorkflow, stderr := newTestRunCmd(t)

	mockWorkflow.On("Run", mock.Anything, mock.MatchedBy(func(args domain.RunArgs) bool {
		return args.Project == m.Path(".") &&
			args.MutationPath == m.Path(defaultMutationPath()) &&
			args.Workers == 0 &&
			args.TestTimeout == 60*time.Second &&
			args.BuildTimeout == 0 &&
			!args.Keep &&
			!args.DryRun &&
			assert.ObjectsAreEqual([]string{"cargo", "build"}, args.BuildCommand) &&
			assert.ObjectsAreEqual([]string{"cargo", "test"}, args.TestCommand) &&
			assert.ObjectsAreEqual(defaultEnv, args.Env) &&
			assert.ObjectsAreEqual([]string{".rs"}, args.Extensions) &&
			assert.ObjectsAreEqual([]string{"test", "tokio::test"}, args.Markers) &&
			assert.ObjectsAreEqual([]string{".git", "target"}, args.ExcludeDirs)
	})).Return(m.Report{}, nil)

	require.NoError(t, executeRun(t, stderr))
}

func TestRunCmd_Flags(t *testing.T) {
	mockWorkflow, stderr := newTestRunCmd(t)

	mockWorkflow.On("Run", mock.Anything, mock.MatchedBy(func(args domain.RunArgs) bool {
		return args.Project == m.Path("./playground") &&
			args.MutationPath == m.Path("/tmp/mutants") &&
			args.Workers == 2 &&
			args.TestTimeout == 5*time.Second &&
			args.BuildTimeout == time.Minute &&
			args.Keep &&
			assert.ObjectsAreEqual([]string{"cargo", "build", "--release"}, args.BuildCommand) &&
			assert.ObjectsAreEqual([]string{"cargo", "nextest", "run"}, args.TestCommand) &&
			assert.ObjectsAreEqual([]string{"CARGO_TERM_COLOR=never"}, args.Env) &&
			assert.ObjectsAreEqual([]string{"test", "rstest"}, args.Markers)
	})).Return(m.Report{}, nil)

	err := executeRun(t, stderr,
		"--parallel", "2",
		"--test-timeout", "5s",
		"--build-timeout", "1m",
		"--keep",
		"--mutation-path", "/tmp/mutants",
		"--build-command", "cargo build --release",
		"--test-command", "cargo nextest run",
		"--env", "CARGO_TERM_COLOR=never",
		"--marker", "test",
		"--marker", "rstest",
		"./playground",
	)
	require.NoError(t, err)
}

func TestRunCmd_DryRunAndDiff(t *testing.T) {
	mockWorkflow, stderr := newTestRunCmd(t)

	mockWorkflow.On("Run", mock.Anything, mock.MatchedBy(func(args domain.RunArgs) bool {
		return args.DryRun && args.ShowDiff
	})).Return(m.Report{}, nil)

	require.NoError(t, executeRun(t, stderr, "--dry-run", "--diff"))
}

func TestRunCmd_ReceivesCommandContext(t *testing.T) {
	mockWorkflow, stderr := newTestRunCmd(t)

	mockWorkflow.On("Run", mock.Anything, mock.Anything).
		Return(func(ctx context.Context, _ domain.RunArgs) (m.Report, error) {
			if ctx == nil {
				return m.Report{}, errors.New("nil context")
			}

			return m.Report{}, nil
		})

	require.NoError(t, executeRun(t, stderr))
}

func TestRunCmd_WorkflowError(t *testing.T) {
	mockWorkflow, stderr := newTestRunCmd(t)

	mockWorkflow.On("Run", mock.Anything, mock.Anything).
		Return(m.Report{}, domain.ErrInvalidArgs)

	err := executeRun(t, stderr)
	require.ErrorIs(t, err, domain.ErrInvalidArgs)
	assert.Contains(t, stderr.String(), domain.ErrInvalidArgs.Error())
}

func TestRunCmd_FailOnMissing(t *testing.T) {
	report := m.Report{Results: []m.Result{
		{ID: 0, Status: m.OK},
		{ID: 1, Status: m.Missing},
		{ID: 2, Status: m.Killed},
	}}

	t.Run("missing mutations fail the command", func(t *testing.T) {
		mockWorkflow, stderr := newTestRunCmd(t)
		mockWorkflow.On("Run", mock.Anything, mock.Anything).Return(report, nil)

		err := executeRun(t, stderr, "--fail-on-missing")
		require.ErrorIs(t, err, ErrMissingMutations)
		assert.Contains(t, err.Error(), "1 of 3")
	})

	t.Run("missing mutations are reported but not fatal by default", func(t *testing.T) {
		mockWorkflow, stderr := newTestRunCmd(t)
		mockWorkflow.On("Run", mock.Anything, mock.Anything).Return(report, nil)

		require.NoError(t, executeRun(t, stderr))
	})
}

func TestRunCmd_TooManyArgs(t *testing.T) {
	_, stderr := newTestRunCmd(t)

	require.Error(t, executeRun(t, stderr, "./a", "./b"))
}

func TestCheckMissing(t *testing.T) {
	tests := []struct {
		name          string
		report        m.Report
		failOnMissing bool
		wantErr       bool
	}{
		{"no results", m.Report{}, true, false},
		{"all caught", m.Report{Results: []m.Result{{Status: m.OK}, {Status: m.Timeout}}}, true, false},
		{"missing with policy", m.Report{Results: []m.Result{{Status: m.Missing}}}, true, true},
		{"missing without policy", m.Report{Results: []m.Result{{Status: m.Missing}}}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkMissing(tt.report, tt.failOnMissing)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMissingMutations)
				return
			}

			require.NoError(t, err)
		})
	}
}
