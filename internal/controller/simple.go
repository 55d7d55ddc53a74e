package controller

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "gooze.dev/pkg/darwin/internal/model"
)

// SimpleUI implements UI using cobra Command's output.
type SimpleUI struct {
	cmd *cobra.Command
	mu  sync.Mutex
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(_ context.Context) {}

// DisplayCandidates prints the candidate table and, optionally, every diff.
func (s *SimpleUI) DisplayCandidates(ctx context.Context, candidates []m.Candidate, showDiff bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("\n%s", renderCandidateTable(candidates))

	if showDiff {
		for _, candidate := range candidates {
			s.printf("\nMutation #%d %s\n%s", candidate.ID, candidate.Description(), candidate.Diff)
		}
	}

	return nil
}

func renderCandidateTable(candidates []m.Candidate) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"ID", "File", "Line", "Function", "Mutation"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
	})

	files := make(map[m.Path]struct{})

	for _, candidate := range candidates {
		files[candidate.Site.Rel] = struct{}{}
		table.Append([]string{
			fmt.Sprintf("%d", candidate.ID),
			string(candidate.Site.Rel),
			fmt.Sprintf("%d:%d", candidate.Site.Line, candidate.Site.Column),
			candidate.Site.Function,
			candidate.Description(),
		})
	}

	table.SetFooter([]string{"", fmt.Sprintf("Total Files %d", len(files)), "", "", fmt.Sprintf("%d mutations", len(candidates))})

	table.Render()

	return tableBuffer.String()
}

// DisplayRunInfo shows what is about to run and how to read the results.
func (s *SimpleUI) DisplayRunInfo(ctx context.Context, info RunInfo) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Running %d mutations with %d worker(s) on %s\n", info.Candidates, info.Workers, info.Project)
	s.printf("Reports: %s\n", info.MutationPath)

	for _, entry := range statusLegend() {
		s.printf("  %-8s %s\n", entry[0], entry[1])
	}
}

// DisplayStartingCandidate shows that a worker picked up a candidate.
func (s *SimpleUI) DisplayStartingCandidate(ctx context.Context, candidate m.Candidate, workerID int) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Starting mutation #%d (worker %d) %s %s\n", candidate.ID, workerID, candidate.Description(), candidate.Location())
}

// DisplayCompletedCandidate shows the outcome of a candidate; surviving
// mutants also get their diff.
func (s *SimpleUI) DisplayCompletedCandidate(_ context.Context, candidate m.Candidate, result m.Result) {
	s.printf("Completed mutation #%d -> %s\n", candidate.ID, result.Status)

	if result.Status == m.Missing && candidate.Diff != "" {
		s.printf("%s", candidate.Diff)
	}
}

// DisplaySummary prints the ordered summary and the per-status totals.
func (s *SimpleUI) DisplaySummary(_ context.Context, report m.Report) {
	for _, line := range report.Summary {
		s.printf("%s\n", line)
	}

	s.printf("\n%s", renderStatusTable(report))

	for _, warning := range report.Warnings {
		s.printf("warning: %s\n", warning)
	}

	if report.SummaryPath != "" {
		s.printf("Summary written to %s\n", report.SummaryPath)
	}
}

func renderStatusTable(report m.Report) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Status", "Meaning", "Count"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER})

	for _, status := range []m.Status{m.OK, m.Missing, m.Timeout, m.Killed, m.Errored, m.Aborted} {
		count := report.Count(status)
		if count == 0 && (status == m.Errored || status == m.Aborted) {
			continue
		}

		table.Append([]string{status.String(), status.Meaning(), fmt.Sprintf("%d", count)})
	}

	table.SetFooter([]string{"Total", "", fmt.Sprintf("%d", len(report.Results))})

	table.Render()

	return tableBuffer.String()
}

// DisplayMutationScore prints the final mutation score.
func (s *SimpleUI) DisplayMutationScore(ctx context.Context, score float64) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Mutation score: %.2f%%\n", score*100)
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
