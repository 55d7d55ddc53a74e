// Package mocks provides testify mocks of the controller interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gooze.dev/pkg/darwin/internal/controller"
	m "gooze.dev/pkg/darwin/internal/model"
)

// MockUI is a mock implementation of controller.UI.
type MockUI struct {
	mock.Mock
}

// NewMockUI creates a MockUI whose expectations are asserted on cleanup.
func NewMockUI(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUI {
	ui := &MockUI{}
	ui.Mock.Test(t)

	t.Cleanup(func() { ui.AssertExpectations(t) })

	return ui
}

// Start provides a mock function for controller.UI.Start.
func (_m *MockUI) Start(ctx context.Context, options ...controller.StartOption) error {
	ret := _m.Called(ctx, options)

	return ret.Error(0)
}

// Close provides a mock function for controller.UI.Close.
func (_m *MockUI) Close(ctx context.Context) {
	_m.Called(ctx)
}

// DisplayCandidates provides a mock function for controller.UI.DisplayCandidates.
func (_m *MockUI) DisplayCandidates(ctx context.Context, candidates []m.Candidate, showDiff bool) error {
	ret := _m.Called(ctx, candidates, showDiff)

	return ret.Error(0)
}

// DisplayRunInfo provides a mock function for controller.UI.DisplayRunInfo.
func (_m *MockUI) DisplayRunInfo(ctx context.Context, info controller.RunInfo) {
	_m.Called(ctx, info)
}

// DisplayStartingCandidate provides a mock function for controller.UI.DisplayStartingCandidate.
func (_m *MockUI) DisplayStartingCandidate(ctx context.Context, candidate m.Candidate, workerID int) {
	_m.Called(ctx, candidate, workerID)
}

// DisplayCompletedCandidate provides a mock function for controller.UI.DisplayCompletedCandidate.
func (_m *MockUI) DisplayCompletedCandidate(ctx context.Context, candidate m.Candidate, result m.Result) {
	_m.Called(ctx, candidate, result)
}

// DisplaySummary provides a mock function for controller.UI.DisplaySummary.
func (_m *MockUI) DisplaySummary(ctx context.Context, report m.Report) {
	_m.Called(ctx, report)
}

// DisplayMutationScore provides a mock function for controller.UI.DisplayMutationScore.
func (_m *MockUI) DisplayMutationScore(ctx context.Context, score float64) {
	_m.Called(ctx, score)
}

var _ controller.UI = (*MockUI)(nil)
