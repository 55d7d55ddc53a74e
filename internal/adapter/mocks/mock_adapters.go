// Package mocks provides testify mocks of the adapter interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gooze.dev/pkg/darwin/internal/adapter"
	m "gooze.dev/pkg/darwin/internal/model"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockCommandRunnerAdapter is a mock implementation of adapter.CommandRunnerAdapter.
type MockCommandRunnerAdapter struct {
	mock.Mock
}

// NewMockCommandRunnerAdapter creates a MockCommandRunnerAdapter whose
// expectations are asserted on cleanup.
func NewMockCommandRunnerAdapter(t testingT) *MockCommandRunnerAdapter {
	runner := &MockCommandRunnerAdapter{}
	runner.Mock.Test(t)

	t.Cleanup(func() { runner.AssertExpectations(t) })

	return runner
}

// Run provides a mock function for adapter.CommandRunnerAdapter.Run.
func (_m *MockCommandRunnerAdapter) Run(ctx context.Context, spec adapter.CommandSpec) (adapter.ProcessResult, error) {
	ret := _m.Called(ctx, spec)

	if fn, ok := ret.Get(0).(func(context.Context, adapter.CommandSpec) (adapter.ProcessResult, error)); ok {
		return fn(ctx, spec)
	}

	result, _ := ret.Get(0).(adapter.ProcessResult)

	return result, ret.Error(1)
}

// MockReportStore is a mock implementation of adapter.ReportStore.
type MockReportStore struct {
	mock.Mock
}

// NewMockReportStore creates a MockReportStore whose expectations are
// asserted on cleanup.
func NewMockReportStore(t testingT) *MockReportStore {
	store := &MockReportStore{}
	store.Mock.Test(t)

	t.Cleanup(func() { store.AssertExpectations(t) })

	return store
}

// WriteDetail provides a mock function for adapter.ReportStore.WriteDetail.
func (_m *MockReportStore) WriteDetail(ctx context.Context, dir m.Path, id uint, content string) (m.Path, error) {
	ret := _m.Called(ctx, dir, id, content)

	path, _ := ret.Get(0).(m.Path)

	return path, ret.Error(1)
}

// WriteSummary provides a mock function for adapter.ReportStore.WriteSummary.
func (_m *MockReportStore) WriteSummary(ctx context.Context, dir m.Path, lines []string) (m.Path, error) {
	ret := _m.Called(ctx, dir, lines)

	path, _ := ret.Get(0).(m.Path)

	return path, ret.Error(1)
}

// SaveResults provides a mock function for adapter.ReportStore.SaveResults.
func (_m *MockReportStore) SaveResults(ctx context.Context, dir m.Path, doc adapter.ResultsDocument) (m.Path, error) {
	ret := _m.Called(ctx, dir, doc)

	path, _ := ret.Get(0).(m.Path)

	return path, ret.Error(1)
}

// LoadResults provides a mock function for adapter.ReportStore.LoadResults.
func (_m *MockReportStore) LoadResults(ctx context.Context, dir m.Path) (adapter.ResultsDocument, error) {
	ret := _m.Called(ctx, dir)

	doc, _ := ret.Get(0).(adapter.ResultsDocument)

	return doc, ret.Error(1)
}

var (
	_ adapter.CommandRunnerAdapter = (*MockCommandRunnerAdapter)(nil)
	_ adapter.ReportStore          = (*MockReportStore)(nil)
)
