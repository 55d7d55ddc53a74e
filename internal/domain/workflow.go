package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"gooze.dev/pkg/darwin/internal/adapter"
	"gooze.dev/pkg/darwin/internal/controller"
	m "gooze.dev/pkg/darwin/internal/model"
)

// RunArgs contains the arguments for a mutation run.
type RunArgs struct {
	Project      m.Path `validate:"required,dir"`
	MutationPath m.Path `validate:"required"`
	DryRun       bool
	ShowDiff     bool
	Keep         bool
	// Workers of zero uses runtime.GOMAXPROCS(0).
	Workers      int           `validate:"gte=0"`
	TestTimeout  time.Duration `validate:"gt=0"`
	BuildTimeout time.Duration `validate:"gte=0"`
	BuildCommand []string      `validate:"required,min=1,dive,required"`
	TestCommand  []string      `validate:"required,min=1,dive,required"`
	Env          []string
	Extensions   []string
	Markers      []string
	ExcludeDirs  []string
}

// CleanArgs identifies the mutation path to clean.
type CleanArgs struct {
	MutationPath m.Path `validate:"required"`
}

// ViewArgs identifies the mutation path whose last run is displayed.
type ViewArgs struct {
	MutationPath m.Path `validate:"required"`
}

// Workflow defines the interface for the mutation testing workflow.
type Workflow interface {
	// Run analyzes the project, evaluates every candidate and writes the
	// reports. A spawn failure aborts the run; the partial report is
	// returned along with an error wrapping ErrSpawn.
	Run(ctx context.Context, args RunArgs) (m.Report, error)
	// List analyzes the project and displays the candidates without
	// creating any workspace.
	List(ctx context.Context, args RunArgs) ([]m.Candidate, error)
	// Clean removes the reports and workspaces of previous runs.
	Clean(ctx context.Context, args CleanArgs) error
	// View displays the results persisted by the last run.
	View(ctx context.Context, args ViewArgs) (m.Report, error)
}

type workflow struct {
	adapter.SourceFSAdapter
	adapter.ReportStore
	controller.UI
	Analyzer
	Applier

	runner adapter.CommandRunnerAdapter
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	fileAdapter adapter.SourceFileAdapter,
	runner adapter.CommandRunnerAdapter,
	reportStore adapter.ReportStore,
	ui controller.UI,
	catalog *Catalog,
) Workflow {
	if catalog == nil {
		catalog = DefaultCatalog()
	}

	return &workflow{
		SourceFSAdapter: fsAdapter,
		ReportStore:     reportStore,
		UI:              ui,
		Analyzer:        NewAnalyzer(fsAdapter, fileAdapter, catalog),
		Applier:         NewApplier(catalog),
		runner:          runner,
	}
}

func validateArgs(args any) error {
	if err := validate.Struct(args); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgs, err)
	}

	return nil
}

func (w *workflow) Run(ctx context.Context, args RunArgs) (m.Report, error) {
	if args.DryRun {
		_, err := w.List(ctx, args)
		return m.Report{Project: args.Project, MutationPath: args.MutationPath}, err
	}

	if err := validateArgs(args); err != nil {
		return m.Report{}, err
	}

	project, mutationPath, err := w.resolvePaths(ctx, args.Project, args.MutationPath)
	if err != nil {
		return m.Report{}, err
	}

	analysis, candidates, err := w.plan(ctx, args, project, mutationPath)
	if err != nil {
		return m.Report{}, err
	}

	if err := w.prepareMutationPath(ctx, mutationPath); err != nil {
		return m.Report{}, err
	}

	runID := uuid.NewString()
	workers := args.Workers

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	slog.Info("Starting mutation run", "run", runID, "project", project, "mutation_path", mutationPath,
		"candidates", len(candidates), "workers", workers)

	aggregator := NewAggregator(w.ReportStore, AggregatorOptions{
		RunID:        runID,
		Project:      project,
		MutationPath: mutationPath,
		Warnings:     analysis.Warnings,
	})

	unit := &candidateUnit{
		ui: w.UI,
		workspaces: NewWorkspaceManager(ctx, w.SourceFSAdapter, WorkspaceOptions{
			Project:      project,
			MutationRoot: mutationPath,
			ExcludeDirs:  orDefault(args.ExcludeDirs, DefaultExcludeDirs),
			Keep:         args.Keep,
		}),
		executor: NewExecutor(w.runner, ExecutorOptions{
			BuildCommand: args.BuildCommand,
			TestCommand:  args.TestCommand,
			Env:          args.Env,
			TestTimeout:  args.TestTimeout,
			BuildTimeout: args.BuildTimeout,
		}),
		aggregator: aggregator,
	}

	if err := w.Start(ctx, controller.WithRunMode()); err != nil {
		return m.Report{}, fmt.Errorf("failed to start UI: %w", err)
	}

	w.DisplayRunInfo(ctx, controller.RunInfo{
		RunID:        runID,
		Project:      project,
		MutationPath: mutationPath,
		Candidates:   len(candidates),
		Workers:      workers,
		TestTimeout:  args.TestTimeout,
		Keep:         args.Keep,
	})

	runErr := w.evaluate(ctx, candidates, workers, unit)

	finalCtx := context.WithoutCancel(ctx)

	report, err := aggregator.Finalize(finalCtx)
	if err != nil {
		slog.Warn("Reports incomplete", "error", err)
	}

	w.DisplaySummary(finalCtx, report)
	w.DisplayMutationScore(finalCtx, MutationScore(report))
	w.Close(finalCtx)

	if runErr != nil {
		slog.Error("Mutation run aborted", "run", runID, "error", runErr)
		return report, fmt.Errorf("mutation run aborted: %w", runErr)
	}

	if err := ctx.Err(); err != nil {
		slog.Warn("Mutation run cancelled", "run", runID, "recorded", len(report.Results))
		return report, fmt.Errorf("mutation run cancelled: %w", err)
	}

	slog.Info("Mutation run complete", "run", runID, "results", len(report.Results))

	return report, nil
}

func (w *workflow) List(ctx context.Context, args RunArgs) ([]m.Candidate, error) {
	if err := validateArgs(args); err != nil {
		return nil, err
	}

	project, mutationPath, err := w.resolvePaths(ctx, args.Project, args.MutationPath)
	if err != nil {
		return nil, err
	}

	analysis, candidates, err := w.plan(ctx, args, project, mutationPath)
	if err != nil {
		return nil, err
	}

	if err := w.Start(ctx, controller.WithListMode()); err != nil {
		return nil, fmt.Errorf("failed to start UI: %w", err)
	}
	defer w.Close(context.WithoutCancel(ctx))

	if err := w.DisplayCandidates(ctx, candidates, args.ShowDiff); err != nil {
		return nil, fmt.Errorf("failed to display candidates: %w", err)
	}

	for _, warning := range analysis.Warnings {
		slog.Warn("Analysis warning", "warning", warning)
	}

	return candidates, nil
}

// plan runs analysis and numbering. It completes before any workspace exists.
func (w *workflow) plan(ctx context.Context, args RunArgs, project, mutationPath m.Path) (Analysis, []m.Candidate, error) {
	analysis, err := w.Analyze(ctx, project, AnalyzeOptions{
		Extensions:   args.Extensions,
		Markers:      args.Markers,
		ExcludeDirs:  args.ExcludeDirs,
		MutationRoot: mutationPath,
	})
	if err != nil {
		return Analysis{}, nil, fmt.Errorf("failed to analyze %s: %w", project, err)
	}

	candidates, err := w.Apply(analysis.Sites, analysis.Sources)
	if err != nil {
		return Analysis{}, nil, fmt.Errorf("failed to build candidates: %w", err)
	}

	slog.Debug("Planned mutations", "files", len(analysis.Sources), "sites", len(analysis.Sites),
		"candidates", len(candidates), "warnings", len(analysis.Warnings))

	return analysis, candidates, nil
}

// resolvePaths makes both paths absolute and rejects a mutation path that
// would contain the project it copies.
func (w *workflow) resolvePaths(ctx context.Context, project, mutationPath m.Path) (m.Path, m.Path, error) {
	absProject, err := w.AbsPath(ctx, project)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve project %s: %w", project, err)
	}

	absMutation, err := w.AbsPath(ctx, mutationPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve mutation path %s: %w", mutationPath, err)
	}

	if isWithin(absProject, absMutation) {
		return "", "", fmt.Errorf("%w: mutation path %s must not contain the project %s",
			ErrInvalidArgs, absMutation, absProject)
	}

	return absProject, absMutation, nil
}

// isWithin reports whether path equals dir or lies below it.
func isWithin(path, dir m.Path) bool {
	rel, err := filepath.Rel(string(dir), string(path))
	if err != nil {
		return false
	}

	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// prepareMutationPath creates the mutation path and clears what previous runs left.
func (w *workflow) prepareMutationPath(ctx context.Context, mutationPath m.Path) error {
	if err := w.MkdirAll(ctx, mutationPath); err != nil {
		slog.Error("Failed to create mutation path", "path", mutationPath, "error", err)
		return fmt.Errorf("failed to create mutation path %s: %w", mutationPath, err)
	}

	_, err := w.removeArtifacts(ctx, mutationPath)

	return err
}

// removeArtifacts deletes the reports directory and numeric workspace
// directories under mutationPath and returns how many entries remain.
func (w *workflow) removeArtifacts(ctx context.Context, mutationPath m.Path) (int, error) {
	entries, err := w.ReadDir(ctx, mutationPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read mutation path %s: %w", mutationPath, err)
	}

	remaining := 0

	for _, entry := range entries {
		if !isArtifact(entry) {
			remaining++
			continue
		}

		path := w.JoinPath(ctx, string(mutationPath), entry.Name())

		slog.Debug("Removing previous run artifact", "path", path)

		if err := w.RemoveAll(ctx, path); err != nil {
			slog.Error("Failed to remove previous run artifact", "path", path, "error", err)
			return 0, fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}

	return remaining, nil
}

func isArtifact(entry os.DirEntry) bool {
	if !entry.IsDir() {
		return false
	}

	if entry.Name() == adapter.ReportsDirName {
		return true
	}

	_, err := strconv.ParseUint(entry.Name(), 10, 64)

	return err == nil
}

// evaluate schedules every candidate on a bounded pool. It stops scheduling
// once ctx is cancelled or a unit fails fatally.
func (w *workflow) evaluate(ctx context.Context, candidates []m.Candidate, workers int, unit *candidateUnit) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	workerIDs := make(chan int, workers)
	for id := 1; id <= workers; id++ {
		workerIDs <- id
	}

	for _, candidate := range candidates {
		if groupCtx.Err() != nil {
			break
		}

		group.Go(func() error {
			// Go may block on the limit past cancellation.
			if groupCtx.Err() != nil {
				return nil
			}

			workerID := <-workerIDs
			defer func() { workerIDs <- workerID }()

			return unit.run(groupCtx, candidate, workerID)
		})
	}

	return group.Wait()
}

// candidateUnit takes one candidate from workspace to recorded result.
type candidateUnit struct {
	ui         controller.UI
	workspaces WorkspaceManager
	executor   Executor
	aggregator Aggregator
}

func (u *candidateUnit) run(ctx context.Context, candidate m.Candidate, workerID int) error {
	u.ui.DisplayStartingCandidate(ctx, candidate, workerID)

	start := time.Now()
	result, fatal := u.evaluate(ctx, candidate)
	result.ID = candidate.ID
	result.Elapsed = time.Since(start)

	recordCtx := context.WithoutCancel(ctx)

	if err := u.aggregator.Record(recordCtx, candidate, result); err != nil {
		slog.Error("Failed to record result", "id", candidate.ID, "error", err)
	}

	u.ui.DisplayCompletedCandidate(recordCtx, candidate, result)

	slog.Debug("Candidate finished", "id", candidate.ID, "status", result.Status, "elapsed", result.Elapsed)

	return fatal
}

// evaluate returns the candidate result and, for spawn failures, the error
// that aborts the run.
func (u *candidateUnit) evaluate(ctx context.Context, candidate m.Candidate) (m.Result, error) {
	var result m.Result

	if ctx.Err() != nil {
		result.Status = m.Aborted
		return result, nil
	}

	ws, err := u.workspaces.Acquire(ctx, candidate)
	if err != nil {
		result.Status = m.Errored
		if ctx.Err() != nil {
			result.Status = m.Aborted
		}

		result.Err = err

		return result, nil
	}

	defer func() {
		if err := u.workspaces.Release(context.WithoutCancel(ctx), ws); err != nil {
			slog.Warn("Workspace left behind", "id", candidate.ID, "dir", ws.Dir, "error", err)
		}
	}()

	execution, err := u.executor.Run(ctx, ws)

	result.Build = execution.Build
	result.Test = execution.Test

	switch {
	case errors.Is(err, ErrSpawn):
		result.Status = m.Errored
		result.Err = err

		return result, fmt.Errorf("candidate #%d: %w", candidate.ID, err)
	case err != nil:
		result.Status = m.Errored
		result.Err = err
	default:
		result.Status = Classify(execution.State)
	}

	return result, nil
}

func (w *workflow) Clean(ctx context.Context, args CleanArgs) error {
	if err := validateArgs(args); err != nil {
		return err
	}

	mutationPath, err := w.AbsPath(ctx, args.MutationPath)
	if err != nil {
		return fmt.Errorf("failed to resolve mutation path %s: %w", args.MutationPath, err)
	}

	if _, err := w.FileInfo(ctx, mutationPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("Nothing to clean", "path", mutationPath)
			return nil
		}

		return fmt.Errorf("failed to stat %s: %w", mutationPath, err)
	}

	remaining, err := w.removeArtifacts(ctx, mutationPath)
	if err != nil {
		return err
	}

	if remaining > 0 {
		slog.Info("Mutation path kept, it holds foreign entries", "path", mutationPath, "entries", remaining)
		return nil
	}

	if err := w.RemoveAll(ctx, mutationPath); err != nil {
		slog.Error("Failed to remove mutation path", "path", mutationPath, "error", err)
		return fmt.Errorf("failed to remove %s: %w", mutationPath, err)
	}

	slog.Info("Removed mutation path", "path", mutationPath)

	return nil
}

func (w *workflow) View(ctx context.Context, args ViewArgs) (m.Report, error) {
	if err := validateArgs(args); err != nil {
		return m.Report{}, err
	}

	mutationPath, err := w.AbsPath(ctx, args.MutationPath)
	if err != nil {
		return m.Report{}, fmt.Errorf("failed to resolve mutation path %s: %w", args.MutationPath, err)
	}

	doc, err := w.LoadResults(ctx, ReportsDir(mutationPath))
	if err != nil {
		return m.Report{}, fmt.Errorf("failed to load results: %w", err)
	}

	report, err := reportFromDocument(doc)
	if err != nil {
		return m.Report{}, err
	}

	if err := w.Start(ctx, controller.WithListMode()); err != nil {
		return m.Report{}, fmt.Errorf("failed to start UI: %w", err)
	}
	defer w.Close(context.WithoutCancel(ctx))

	w.DisplaySummary(ctx, report)
	w.DisplayMutationScore(ctx, MutationScore(report))

	return report, nil
}

func reportFromDocument(doc adapter.ResultsDocument) (m.Report, error) {
	report := m.Report{
		RunID:        doc.RunID,
		Project:      m.Path(doc.Project),
		MutationPath: m.Path(doc.MutationPath),
		Warnings:     doc.Warnings,
	}

	for _, record := range doc.Results {
		status, err := m.ParseStatus(record.Status)
		if err != nil {
			return m.Report{}, fmt.Errorf("result #%d: %w", record.ID, err)
		}

		candidate := m.Candidate{
			ID: record.ID,
			Site: m.Site{
				Rel:      m.Path(filepath.FromSlash(record.File)),
				Line:     record.Line,
				Column:   record.Column,
				Function: record.Function,
				Operator: record.Operator,
			},
			Replacement: record.Replacement,
		}

		result := m.Result{ID: record.ID, Status: status, Elapsed: record.Elapsed}
		if record.Error != "" {
			result.Err = errors.New(record.Error)
		}

		report.Results = append(report.Results, result)
		report.Summary = append(report.Summary, FormatSummaryLine(candidate, status))

		if record.DetailLog != "" {
			report.DetailLogs = append(report.DetailLogs, m.Path(record.DetailLog))
		}
	}

	return report, nil
}
