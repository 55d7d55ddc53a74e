// Package mocks provides testify mocks of the domain interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gooze.dev/pkg/darwin/internal/domain"
	m "gooze.dev/pkg/darwin/internal/model"
)

// MockWorkflow is a mock implementation of domain.Workflow.
type MockWorkflow struct {
	mock.Mock
}

// NewMockWorkflow creates a MockWorkflow whose expectations are asserted on cleanup.
func NewMockWorkflow(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWorkflow {
	mockWorkflow := &MockWorkflow{}
	mockWorkflow.Mock.Test(t)

	t.Cleanup(func() { mockWorkflow.AssertExpectations(t) })

	return mockWorkflow
}

// Run provides a mock function for domain.Workflow.Run.
func (_m *MockWorkflow) Run(ctx context.Context, args domain.RunArgs) (m.Report, error) {
	ret := _m.Called(ctx, args)

	if fn, ok := ret.Get(0).(func(context.Context, domain.RunArgs) (m.Report, error)); ok {
		return fn(ctx, args)
	}

	report, _ := ret.Get(0).(m.Report)

	return report, ret.Error(1)
}

// List provides a mock function for domain.Workflow.List.
func (_m *MockWorkflow) List(ctx context.Context, args domain.RunArgs) ([]m.Candidate, error) {
	ret := _m.Called(ctx, args)

	candidates, _ := ret.Get(0).([]m.Candidate)

	return candidates, ret.Error(1)
}

// Clean provides a mock function for domain.Workflow.Clean.
func (_m *MockWorkflow) Clean(ctx context.Context, args domain.CleanArgs) error {
	ret := _m.Called(ctx, args)

	return ret.Error(0)
}

// View provides a mock function for domain.Workflow.View.
func (_m *MockWorkflow) View(ctx context.Context, args domain.ViewArgs) (m.Report, error) {
	ret := _m.Called(ctx, args)

	report, _ := ret.Get(0).(m.Report)

	return report, ret.Error(1)
}

var _ domain.Workflow = (*MockWorkflow)(nil)
