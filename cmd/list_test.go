package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/darwin/internal/domain"
	domainmocks "gooze.dev/pkg/darwin/internal/domain/mocks"
	m "gooze.dev/pkg/darwin/internal/model"
)

func TestListCmd_PassesProjectAndAnalysisFlags(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)

	cmd := newRootCmd()
	cmd.AddCommand(newListCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	originalWorkflow := workflow
	workflow = mockWorkflow
	defer func() { workflow = originalWorkflow }()

	mockWorkflow.On("List", mock.Anything, mock.MatchedBy(func(args domain.RunArgs) bool {
		return args.Project == m.Path("./playground") &&
			args.ShowDiff &&
			assert.ObjectsAreEqual([]string{".rs", ".rs.in"}, args.Extensions) &&
			assert.ObjectsAreEqual([]string{"test", "tokio::test"}, args.Markers)
	})).Return([]m.Candidate{}, nil)

	cmd.SetArgs([]string{"list", "--diff", "--ext", ".rs", "--ext", ".rs.in", "./playground"})
	err := cmd.Execute()
	require.NoError(t, err)
}

func TestListCmd_DefaultsToCurrentDirectory(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)

	cmd := newRootCmd()
	cmd.AddCommand(newListCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	originalWorkflow := workflow
	workflow = mockWorkflow
	defer func() { workflow = originalWorkflow }()

	mockWorkflow.On("List", mock.Anything, mock.MatchedBy(func(args domain.RunArgs) bool {
		return args.Project == m.Path(".") && !args.ShowDiff && !args.DryRun
	})).Return(nil, nil)

	cmd.SetArgs([]string{"list"})
	err := cmd.Execute()
	require.NoError(t, err)
}

func TestListCmd_WorkflowError(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)

	cmd := newRootCmd()
	cmd.AddCommand(newListCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	originalWorkflow := workflow
	workflow = mockWorkflow
	defer func() { workflow = originalWorkflow }()

	mockWorkflow.On("List", mock.Anything, mock.Anything).Return(nil, domain.ErrInvalidArgs)

	cmd.SetArgs([]string{"list", "./missing"})
	err := cmd.Execute()
	require.ErrorIs(t, err, domain.ErrInvalidArgs)
}
