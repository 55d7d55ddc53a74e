package cmd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/darwin/internal/domain"
	domainmocks "gooze.dev/pkg/darwin/internal/domain/mocks"
	m "gooze.dev/pkg/darwin/internal/model"
)

func TestCleanCmd_PassesMutationPath(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)

	cmd := newRootCmd()
	cmd.AddCommand(newCleanCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	originalWorkflow := workflow
	workflow = mockWorkflow
	defer func() { workflow = originalWorkflow }()

	mockWorkflow.On("Clean", mock.Anything, domain.CleanArgs{MutationPath: m.Path("/tmp/mutants")}).Return(nil)

	cmd.SetArgs([]string{"clean", "--mutation-path", "/tmp/mutants"})
	err := cmd.Execute()
	require.NoError(t, err)
}

func TestCleanCmd_ReturnsWorkflowError(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)

	cmd := newRootCmd()
	cmd.AddCommand(newCleanCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	originalWorkflow := workflow
	workflow = mockWorkflow
	defer func() { workflow = originalWorkflow }()

	cleanErr := errors.New("permission denied")
	mockWorkflow.On("Clean", mock.Anything, mock.Anything).Return(cleanErr)

	cmd.SetArgs([]string{"clean"})
	err := cmd.Execute()
	require.ErrorIs(t, err, cleanErr)
}
