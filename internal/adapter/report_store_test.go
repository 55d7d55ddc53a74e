package adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/darwin/internal/model"
)

func TestLocalReportStore_WriteDetail(t *testing.T) {
	store := NewLocalReportStore()
	dir := m.Path(filepath.Join(t.TempDir(), ReportsDirName))

	path, err := store.WriteDetail(context.Background(), dir, 7, "Mutation of file src/lib.rs\n")
	require.NoError(t, err)

	assert.Equal(t, m.Path(filepath.Join(string(dir), "mutation_7.log")), path)

	data, err := os.ReadFile(string(path))
	require.NoError(t, err)
	assert.Equal(t, "Mutation of file src/lib.rs\n", string(data))
}

func TestLocalReportStore_WriteSummary(t *testing.T) {
	store := NewLocalReportStore()
	dir := m.Path(t.TempDir())

	path, err := store.WriteSummary(context.Background(), dir, []string{"first", "second"})
	require.NoError(t, err)

	data, err := os.ReadFile(string(path))
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
	assert.Equal(t, SummaryFileName, filepath.Base(string(path)))
}

func TestLocalReportStore_SaveAndLoadResults(t *testing.T) {
	store := NewLocalReportStore()
	dir := m.Path(t.TempDir())

	doc := ResultsDocument{
		RunID:        "run-1",
		Project:      "/work/playground",
		MutationPath: "/tmp/darwin",
		Results: []ResultRecord{
			{
				ID: 0, Status: "OK", File: "src/lib.rs", Line: 2, Column: 7,
				Function: "add", Operator: "+", Replacement: "-", Elapsed: 1500 * time.Millisecond,
				DetailLog: "/tmp/darwin/reports/mutation_0.log",
			},
			{
				ID: 1, Status: "Errored", File: "src/lib.rs", Line: 2, Column: 7,
				Function: "add", Operator: "+", Replacement: "*", Error: "copy failed",
			},
		},
		Warnings: []string{"skipped src/broken.rs"},
	}

	path, err := store.SaveResults(context.Background(), dir, doc)
	require.NoError(t, err)
	assert.Equal(t, ResultsFileName, filepath.Base(string(path)))

	loaded, err := store.LoadResults(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)
}

func TestLocalReportStore_LoadResults_Missing(t *testing.T) {
	store := NewLocalReportStore()

	_, err := store.LoadResults(context.Background(), m.Path(t.TempDir()))
	require.Error(t, err)
}

func TestLocalReportStore_WriteFailure(t *testing.T) {
	store := NewLocalReportStore()

	// A regular file where the reports directory should be.
	blocker := filepath.Join(t.TempDir(), "reports")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := store.WriteDetail(context.Background(), m.Path(blocker), 0, "content")
	require.Error(t, err)
}

func TestDetailLogName(t *testing.T) {
	assert.Equal(t, "mutation_0.log", DetailLogName(0))
	assert.Equal(t, "mutation_42.log", DetailLogName(42))
}
