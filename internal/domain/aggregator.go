package domain

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"gooze.dev/pkg/darwin/internal/adapter"
	m "gooze.dev/pkg/darwin/internal/model"
)

// AggregatorOptions identifies the run the aggregator reports on.
type AggregatorOptions struct {
	RunID        string
	Project      m.Path
	MutationPath m.Path
	// Warnings raised before execution, e.g. skipped source files.
	Warnings []string
}

// Aggregator collects results and persists run reports.
type Aggregator interface {
	// Record stores the result of a candidate and writes its detail log.
	// Each id may be recorded once; a second call returns ErrDuplicateResult.
	Record(ctx context.Context, candidate m.Candidate, result m.Result) error
	// Finalize writes the summary and results.yaml in ascending id order.
	// Write failures are reported as warnings and an ErrReportWrite error;
	// the returned report is complete either way.
	Finalize(ctx context.Context) (m.Report, error)
}

type recorded struct {
	candidate m.Candidate
	result    m.Result
	detailLog m.Path
}

type aggregator struct {
	store      adapter.ReportStore
	options    AggregatorOptions
	reportsDir m.Path

	mu       sync.Mutex
	results  map[uint]*recorded
	warnings []string
}

// NewAggregator constructs an Aggregator writing into <mutationPath>/reports.
func NewAggregator(store adapter.ReportStore, options AggregatorOptions) Aggregator {
	return &aggregator{
		store:      store,
		options:    options,
		reportsDir: ReportsDir(options.MutationPath),
		results:    make(map[uint]*recorded),
		warnings:   append([]string(nil), options.Warnings...),
	}
}

// ReportsDir returns the reports directory under a mutation path.
func ReportsDir(mutationPath m.Path) m.Path {
	return m.Path(filepath.Join(string(mutationPath), adapter.ReportsDirName))
}

func (a *aggregator) Record(ctx context.Context, candidate m.Candidate, result m.Result) error {
	result.ID = candidate.ID

	a.mu.Lock()

	if _, ok := a.results[candidate.ID]; ok {
		a.mu.Unlock()
		return fmt.Errorf("%w: candidate #%d", ErrDuplicateResult, candidate.ID)
	}

	entry := &recorded{candidate: candidate, result: result}
	a.results[candidate.ID] = entry

	a.mu.Unlock()

	path, err := a.store.WriteDetail(ctx, a.reportsDir, candidate.ID, FormatDetailLog(candidate, result))
	if err != nil {
		slog.Warn("Failed to write detail log", "id", candidate.ID, "error", err)
		a.warn(fmt.Errorf("%w: detail log for #%d: %w", ErrReportWrite, candidate.ID, err))

		return nil
	}

	a.mu.Lock()
	entry.detailLog = path
	a.mu.Unlock()

	return nil
}

func (a *aggregator) warn(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.warnings = append(a.warnings, err.Error())
}

func (a *aggregator) Finalize(ctx context.Context) (m.Report, error) {
	a.mu.Lock()

	ids := make([]uint, 0, len(a.results))
	for id := range a.results {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	entries := make([]recorded, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, *a.results[id])
	}

	a.mu.Unlock()

	report := m.Report{
		RunID:        a.options.RunID,
		Project:      a.options.Project,
		MutationPath: a.options.MutationPath,
	}

	doc := adapter.ResultsDocument{
		RunID:        a.options.RunID,
		Project:      string(a.options.Project),
		MutationPath: string(a.options.MutationPath),
		Results:      make([]adapter.ResultRecord, 0, len(entries)),
	}

	for _, entry := range entries {
		report.Results = append(report.Results, entry.result)
		report.Summary = append(report.Summary, FormatSummaryLine(entry.candidate, entry.result.Status))

		if entry.detailLog != "" {
			report.DetailLogs = append(report.DetailLogs, entry.detailLog)
		}

		doc.Results = append(doc.Results, toResultRecord(entry))
	}

	var writeErr error

	summaryPath, err := a.store.WriteSummary(ctx, a.reportsDir, report.Summary)
	if err != nil {
		slog.Warn("Failed to write summary", "dir", a.reportsDir, "error", err)
		writeErr = fmt.Errorf("%w: summary: %w", ErrReportWrite, err)
		a.warn(writeErr)
	}

	report.SummaryPath = summaryPath

	a.mu.Lock()
	doc.Warnings = append([]string(nil), a.warnings...)
	a.mu.Unlock()

	resultsPath, err := a.store.SaveResults(ctx, a.reportsDir, doc)
	if err != nil {
		slog.Warn("Failed to write results", "dir", a.reportsDir, "error", err)

		resultsErr := fmt.Errorf("%w: results: %w", ErrReportWrite, err)
		a.warn(resultsErr)

		if writeErr == nil {
			writeErr = resultsErr
		}
	}

	report.ResultsPath = resultsPath

	a.mu.Lock()
	report.Warnings = append([]string(nil), a.warnings...)
	a.mu.Unlock()

	return report, writeErr
}

func toResultRecord(entry recorded) adapter.ResultRecord {
	record := adapter.ResultRecord{
		ID:          entry.candidate.ID,
		Status:      entry.result.Status.String(),
		File:        filepath.ToSlash(string(entry.candidate.Site.Rel)),
		Line:        entry.candidate.Site.Line,
		Column:      entry.candidate.Site.Column,
		Function:    entry.candidate.Site.Function,
		Operator:    entry.candidate.Site.Operator,
		Replacement: entry.candidate.Replacement,
		Elapsed:     entry.result.Elapsed,
		DetailLog:   string(entry.detailLog),
	}

	if entry.result.Err != nil {
		record.Error = entry.result.Err.Error()
	}

	return record
}
