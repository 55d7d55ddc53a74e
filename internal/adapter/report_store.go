package adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	m "gooze.dev/pkg/darwin/internal/model"
)

// File names inside the reports directory.
const (
	ReportsDirName   = "reports"
	SummaryFileName  = "summary"
	ResultsFileName  = "results.yaml"
	detailLogPrefix  = "mutation_"
	detailLogSuffix  = ".log"
	reportFileMode   = 0o600
	reportFolderMode = 0o750
)

// ResultsDocument is the machine-readable form of a finished run.
type ResultsDocument struct {
	RunID        string         `yaml:"run_id"`
	Project      string         `yaml:"project"`
	MutationPath string         `yaml:"mutation_path"`
	Results      []ResultRecord `yaml:"results"`
	Warnings     []string       `yaml:"warnings,omitempty"`
}

// ResultRecord is one candidate outcome inside a ResultsDocument.
type ResultRecord struct {
	ID          uint          `yaml:"id"`
	Status      string        `yaml:"status"`
	File        string        `yaml:"file"`
	Line        int           `yaml:"line"`
	Column      int           `yaml:"column"`
	Function    string        `yaml:"function"`
	Operator    string        `yaml:"operator"`
	Replacement string        `yaml:"replacement"`
	Elapsed     time.Duration `yaml:"elapsed"`
	Error       string        `yaml:"error,omitempty"`
	DetailLog   string        `yaml:"detail_log,omitempty"`
}

// ReportStore persists run artifacts under a reports directory.
type ReportStore interface {
	// WriteDetail writes mutation_<id>.log and returns its path.
	WriteDetail(ctx context.Context, dir m.Path, id uint, content string) (m.Path, error)
	// WriteSummary writes one line per entry, in the given order.
	WriteSummary(ctx context.Context, dir m.Path, lines []string) (m.Path, error)
	// SaveResults writes results.yaml.
	SaveResults(ctx context.Context, dir m.Path, doc ResultsDocument) (m.Path, error)
	// LoadResults reads results.yaml back.
	LoadResults(ctx context.Context, dir m.Path) (ResultsDocument, error)
}

// LocalReportStore is the filesystem-backed ReportStore.
type LocalReportStore struct{}

// NewLocalReportStore constructs a LocalReportStore.
func NewLocalReportStore() *LocalReportStore {
	return &LocalReportStore{}
}

// DetailLogName returns the file name of the detail log for a candidate id.
func DetailLogName(id uint) string {
	return detailLogPrefix + strconv.FormatUint(uint64(id), 10) + detailLogSuffix
}

// WriteDetail persists the detail log of one candidate.
func (s *LocalReportStore) WriteDetail(ctx context.Context, dir m.Path, id uint, content string) (m.Path, error) {
	return s.write(ctx, dir, DetailLogName(id), []byte(content))
}

// WriteSummary persists the ordered summary lines.
func (s *LocalReportStore) WriteSummary(ctx context.Context, dir m.Path, lines []string) (m.Path, error) {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	return s.write(ctx, dir, SummaryFileName, []byte(b.String()))
}

// SaveResults encodes doc as YAML.
func (s *LocalReportStore) SaveResults(ctx context.Context, dir m.Path, doc ResultsDocument) (m.Path, error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode results: %w", err)
	}

	return s.write(ctx, dir, ResultsFileName, data)
}

// LoadResults decodes results.yaml from dir.
func (s *LocalReportStore) LoadResults(ctx context.Context, dir m.Path) (ResultsDocument, error) {
	if err := ctx.Err(); err != nil {
		return ResultsDocument{}, err
	}

	path := filepath.Join(string(dir), ResultsFileName)

	// #nosec G304 - path is built from the configured mutation path
	data, err := os.ReadFile(path)
	if err != nil {
		return ResultsDocument{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc ResultsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return ResultsDocument{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return doc, nil
}

func (s *LocalReportStore) write(ctx context.Context, dir m.Path, name string, data []byte) (m.Path, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(string(dir), reportFolderMode); err != nil {
		return "", fmt.Errorf("failed to create reports directory %s: %w", dir, err)
	}

	path := filepath.Join(string(dir), name)
	if err := os.WriteFile(path, data, reportFileMode); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return m.Path(path), nil
}
