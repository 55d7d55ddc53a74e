package domain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/darwin/internal/adapter"
	adaptermocks "gooze.dev/pkg/darwin/internal/adapter/mocks"
	controllermocks "gooze.dev/pkg/darwin/internal/controller/mocks"
	m "gooze.dev/pkg/darwin/internal/model"
)

func newQuietUI(t *testing.T) *controllermocks.MockUI {
	t.Helper()

	ui := controllermocks.NewMockUI(t)
	ui.On("Start", mock.Anything, mock.Anything).Return(nil).Maybe()
	ui.On("Close", mock.Anything).Maybe()
	ui.On("DisplayCandidates", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	ui.On("DisplayRunInfo", mock.Anything, mock.Anything).Maybe()
	ui.On("DisplayStartingCandidate", mock.Anything, mock.Anything, mock.Anything).Maybe()
	ui.On("DisplayCompletedCandidate", mock.Anything, mock.Anything, mock.Anything).Maybe()
	ui.On("DisplaySummary", mock.Anything, mock.Anything).Maybe()
	ui.On("DisplayMutationScore", mock.Anything, mock.Anything).Maybe()

	return ui
}

func newTestWorkflow(runner adapter.CommandRunnerAdapter, ui *controllermocks.MockUI) Workflow {
	return NewWorkflow(
		adapter.NewLocalSourceFSAdapter(),
		adapter.NewLocalRustFileAdapter(),
		runner,
		adapter.NewLocalReportStore(),
		ui,
		DefaultCatalog(),
	)
}

func testRunArgs(project, mutationPath m.Path) RunArgs {
	return RunArgs{
		Project:      project,
		MutationPath: mutationPath,
		Workers:      2,
		TestTimeout:  5 * time.Second,
		BuildCommand: []string{"cargo", "build"},
		TestCommand:  []string{"cargo", "test"},
	}
}

func subProject(t *testing.T) m.Path {
	t.Helper()

	return writeProject(t, map[string]string{
		"Cargo.toml":    "[package]\nname = \"playground\"\n",
		"src/a/toto.rs": subSource,
	})
}

func numericDirs(t *testing.T, dir m.Path) []string {
	t.Helper()

	entries, err := os.ReadDir(string(dir))
	require.NoError(t, err)

	var names []string

	for _, entry := range entries {
		if isArtifact(entry) && entry.Name() != adapter.ReportsDirName {
			names = append(names, entry.Name())
		}
	}

	return names
}

func TestWorkflow_Run_RealProcesses(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	project := subProject(t)
	mutationPath := m.Path(filepath.Join(t.TempDir(), "darwin"))

	args := testRunArgs(project, mutationPath)
	// The build rejects `&&` on integers; the tests only pass on the original source.
	args.BuildCommand = []string{"sh", "-c", "! grep -q '&&' src/a/toto.rs"}
	args.TestCommand = []string{"sh", "-c", "grep -q 'x - y' src/a/toto.rs"}

	report, err := newTestWorkflow(adapter.NewLocalCommandRunnerAdapter(), newQuietUI(t)).Run(context.Background(), args)
	require.NoError(t, err)

	require.Len(t, report.Results, 3)
	assert.Equal(t, m.OK, report.Results[0].Status)
	assert.Equal(t, m.OK, report.Results[1].Status)
	assert.Equal(t, m.Killed, report.Results[2].Status)
	assert.Nil(t, report.Results[2].Test)
	assert.NotNil(t, report.Results[0].Test)

	assert.Equal(t,
		`[Killed] : Mutation #2 replace - by && in function "sub" of file src/a/toto.rs at line 2:7`,
		report.Summary[2])

	assert.NotEmpty(t, report.RunID)
	assert.Len(t, report.DetailLogs, 3)
	assert.FileExists(t, filepath.Join(string(mutationPath), "reports", "summary"))
	assert.FileExists(t, filepath.Join(string(mutationPath), "reports", "results.yaml"))
	assert.FileExists(t, filepath.Join(string(mutationPath), "reports", "mutation_0.log"))
	assert.Empty(t, numericDirs(t, mutationPath))
}

func TestWorkflow_Run_Statuses(t *testing.T) {
	project := writeProject(t, map[string]string{"src/lib.rs": addSource})
	mutationPath := m.Path(t.TempDir())

	runner := adaptermocks.NewMockCommandRunnerAdapter(t)
	runner.On("Run", mock.Anything, isCommand([]string{"cargo", "build"})).
		Return(adapter.ProcessResult{Output: "Finished"}, nil).Times(2)
	runner.On("Run", mock.Anything, isCommand([]string{"cargo", "test"})).
		Return(adapter.ProcessResult{Output: "test result: ok"}, nil).Once()
	runner.On("Run", mock.Anything, isCommand([]string{"cargo", "test"})).
		Return(adapter.ProcessResult{ExitCode: -1, TimedOut: true}, nil).Once()

	args := testRunArgs(project, mutationPath)
	args.Workers = 1

	report, err := newTestWorkflow(runner, newQuietUI(t)).Run(context.Background(), args)
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	assert.Equal(t, m.Missing, report.Results[0].Status)
	assert.Equal(t, m.Timeout, report.Results[1].Status)
	assert.InDelta(t, 0.0, MutationScore(report), 1e-9)
}

func TestWorkflow_Run_Keep(t *testing.T) {
	project := writeProject(t, map[string]string{"src/lib.rs": addSource})
	mutationPath := m.Path(t.TempDir())

	runner := adaptermocks.NewMockCommandRunnerAdapter(t)
	runner.On("Run", mock.Anything, mock.Anything).Return(adapter.ProcessResult{ExitCode: 101}, nil)

	args := testRunArgs(project, mutationPath)
	args.Keep = true

	report, err := newTestWorkflow(runner, newQuietUI(t)).Run(context.Background(), args)
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	assert.Equal(t, m.Killed, report.Results[0].Status)
	assert.ElementsMatch(t, []string{"0", "1"}, numericDirs(t, mutationPath))

	mutated, err := os.ReadFile(filepath.Join(string(mutationPath), "1", "src", "lib.rs"))
	require.NoError(t, err)
	assert.Contains(t, string(mutated), "x * y")
}

func TestWorkflow_Run_RemovesPreviousArtifacts(t *testing.T) {
	project := writeProject(t, map[string]string{"src/lib.rs": addSource})
	mutationPath := m.Path(t.TempDir())

	for _, dir := range []string{"12", "reports/old"} {
		require.NoError(t, os.MkdirAll(filepath.Join(string(mutationPath), dir), 0o755))
	}

	notes := filepath.Join(string(mutationPath), "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("mine"), 0o644))

	runner := adaptermocks.NewMockCommandRunnerAdapter(t)
	runner.On("Run", mock.Anything, mock.Anything).Return(adapter.ProcessResult{ExitCode: 1}, nil)

	_, err := newTestWorkflow(runner, newQuietUI(t)).Run(context.Background(), testRunArgs(project, mutationPath))
	require.NoError(t, err)

	assert.NoDirExists(t, filepath.Join(string(mutationPath), "12"))
	assert.NoDirExists(t, filepath.Join(string(mutationPath), "reports", "old"))
	assert.FileExists(t, notes)
}

func TestWorkflow_Run_DryRun(t *testing.T) {
	project := subProject(t)
	mutationPath := m.Path(filepath.Join(t.TempDir(), "darwin"))

	runner := adaptermocks.NewMockCommandRunnerAdapter(t)

	var listed []m.Candidate

	ui := controllermocks.NewMockUI(t)
	ui.On("Start", mock.Anything, mock.Anything).Return(nil).Once()
	ui.On("Close", mock.Anything).Once()
	ui.On("DisplayCandidates", mock.Anything, mock.Anything, true).
		Run(func(args mock.Arguments) { listed = args.Get(1).([]m.Candidate) }).
		Return(nil).Once()

	args := testRunArgs(project, mutationPath)
	args.DryRun = true
	args.ShowDiff = true

	report, err := newTestWorkflow(runner, ui).Run(context.Background(), args)
	require.NoError(t, err)
	assert.Empty(t, report.Results)

	assert.NoDirExists(t, string(mutationPath))
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)

	require.Len(t, listed, 3)
	assert.Equal(t, planProject(t, project), listed)
}

func TestWorkflow_List(t *testing.T) {
	project := subProject(t)

	candidates, err := newTestWorkflow(adaptermocks.NewMockCommandRunnerAdapter(t), newQuietUI(t)).
		List(context.Background(), testRunArgs(project, m.Path(t.TempDir())))
	require.NoError(t, err)

	require.Len(t, candidates, 3)
	assert.Equal(t, "replace - by &&", candidates[2].Description())
}

func TestWorkflow_Run_SpawnFailureAbortsRun(t *testing.T) {
	project := subProject(t)
	mutationPath := m.Path(t.TempDir())

	runner := adaptermocks.NewMockCommandRunnerAdapter(t)
	runner.On("Run", mock.Anything, isCommand([]string{"cargo", "build"})).
		Return(adapter.ProcessResult{}, fmt.Errorf("%w: cargo: executable file not found", adapter.ErrSpawn)).Once()

	args := testRunArgs(project, mutationPath)
	args.Workers = 1

	report, err := newTestWorkflow(runner, newQuietUI(t)).Run(context.Background(), args)
	require.ErrorIs(t, err, ErrSpawn)

	require.NotEmpty(t, report.Results)
	assert.Equal(t, m.Errored, report.Results[0].Status)
	assert.Less(t, len(report.Results), 3)

	for _, result := range report.Results[1:] {
		assert.Equal(t, m.Aborted, result.Status)
	}

	assert.FileExists(t, filepath.Join(string(mutationPath), "reports", "summary"))
	assert.Empty(t, numericDirs(t, mutationPath))
}

func TestWorkflow_Run_Cancelled(t *testing.T) {
	tests := []struct {
		name       string
		workers    int
		maxResults int
	}{
		{name: "single worker", workers: 1, maxResults: 1},
		{name: "two workers", workers: 2, maxResults: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project := subProject(t)
			mutationPath := m.Path(t.TempDir())

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			runner := adaptermocks.NewMockCommandRunnerAdapter(t)
			runner.On("Run", mock.Anything, mock.Anything).Return(
				func(ctx context.Context, _ adapter.CommandSpec) (adapter.ProcessResult, error) {
					cancel()
					<-ctx.Done()

					return adapter.ProcessResult{ExitCode: -1, Canceled: true}, nil
				})

			args := testRunArgs(project, mutationPath)
			args.Workers = tt.workers

			report, err := newTestWorkflow(runner, newQuietUI(t)).Run(ctx, args)
			require.ErrorIs(t, err, context.Canceled)

			// Three candidates exist; only those already started are recorded.
			require.NotEmpty(t, report.Results)
			assert.LessOrEqual(t, len(report.Results), tt.maxResults)

			for _, result := range report.Results {
				assert.Equal(t, m.Aborted, result.Status)
			}

			assert.FileExists(t, filepath.Join(string(mutationPath), "reports", "summary"))
			assert.Empty(t, numericDirs(t, mutationPath))
		})
	}
}

func TestWorkflow_Run_InvalidArgs(t *testing.T) {
	project := subProject(t)

	tests := []struct {
		name   string
		mutate func(args *RunArgs)
	}{
		{name: "missing project", mutate: func(args *RunArgs) { args.Project = m.Path(filepath.Join(string(project), "missing")) }},
		{name: "empty mutation path", mutate: func(args *RunArgs) { args.MutationPath = "" }},
		{name: "mutation path is the project", mutate: func(args *RunArgs) { args.MutationPath = project }},
		{name: "mutation path contains the project", mutate: func(args *RunArgs) { args.MutationPath = m.Path(filepath.Dir(string(project))) }},
		{name: "no test command", mutate: func(args *RunArgs) { args.TestCommand = nil }},
		{name: "empty build argument", mutate: func(args *RunArgs) { args.BuildCommand = []string{""} }},
		{name: "zero test timeout", mutate: func(args *RunArgs) { args.TestTimeout = 0 }},
		{name: "negative workers", mutate: func(args *RunArgs) { args.Workers = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := testRunArgs(project, m.Path(t.TempDir()))
			tt.mutate(&args)

			_, err := newTestWorkflow(adaptermocks.NewMockCommandRunnerAdapter(t), newQuietUI(t)).Run(context.Background(), args)
			require.ErrorIs(t, err, ErrInvalidArgs)
		})
	}
}

func TestWorkflow_Clean(t *testing.T) {
	ctx := context.Background()
	wf := newTestWorkflow(adaptermocks.NewMockCommandRunnerAdapter(t), newQuietUI(t))

	t.Run("removes darwin artifacts and the empty root", func(t *testing.T) {
		mutationPath := filepath.Join(t.TempDir(), "darwin")
		require.NoError(t, os.MkdirAll(filepath.Join(mutationPath, "reports"), 0o755))
		require.NoError(t, os.MkdirAll(filepath.Join(mutationPath, "3", "src"), 0o755))

		require.NoError(t, wf.Clean(ctx, CleanArgs{MutationPath: m.Path(mutationPath)}))
		assert.NoDirExists(t, mutationPath)
	})

	t.Run("keeps foreign entries", func(t *testing.T) {
		mutationPath := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(mutationPath, "reports"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(mutationPath, "keep.txt"), []byte("x"), 0o644))

		require.NoError(t, wf.Clean(ctx, CleanArgs{MutationPath: m.Path(mutationPath)}))
		assert.NoDirExists(t, filepath.Join(mutationPath, "reports"))
		assert.FileExists(t, filepath.Join(mutationPath, "keep.txt"))
	})

	t.Run("missing path is a no-op", func(t *testing.T) {
		require.NoError(t, wf.Clean(ctx, CleanArgs{MutationPath: m.Path(filepath.Join(t.TempDir(), "none"))}))
	})

	t.Run("requires a path", func(t *testing.T) {
		require.ErrorIs(t, wf.Clean(ctx, CleanArgs{}), ErrInvalidArgs)
	})
}

func TestWorkflow_View(t *testing.T) {
	project := writeProject(t, map[string]string{"src/lib.rs": addSource})
	mutationPath := m.Path(t.TempDir())

	runner := adaptermocks.NewMockCommandRunnerAdapter(t)
	runner.On("Run", mock.Anything, mock.Anything).Return(adapter.ProcessResult{ExitCode: 101}, nil)

	wf := newTestWorkflow(runner, newQuietUI(t))

	ran, err := wf.Run(context.Background(), testRunArgs(project, mutationPath))
	require.NoError(t, err)

	viewed, err := wf.View(context.Background(), ViewArgs{MutationPath: mutationPath})
	require.NoError(t, err)

	assert.Equal(t, ran.RunID, viewed.RunID)
	assert.Equal(t, ran.Summary, viewed.Summary)
	assert.Equal(t, ran.DetailLogs, viewed.DetailLogs)
	require.Len(t, viewed.Results, 2)
	assert.Equal(t, m.Killed, viewed.Results[1].Status)

	_, err = wf.View(context.Background(), ViewArgs{MutationPath: m.Path(t.TempDir())})
	require.Error(t, err)
}

func TestIsWithin(t *testing.T) {
	assert.True(t, isWithin("/a/b", "/a/b"))
	assert.True(t, isWithin("/a/b/c", "/a/b"))
	assert.False(t, isWithin("/a/bc", "/a/b"))
	assert.False(t, isWithin("/a", "/a/b"))
	assert.False(t, isWithin("/x/..y", "/x/..z"))
}
