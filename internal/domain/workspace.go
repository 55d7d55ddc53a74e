package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"gooze.dev/pkg/darwin/internal/adapter"
	m "gooze.dev/pkg/darwin/internal/model"
)

// Workspace is an isolated copy of the project with one mutation applied.
type Workspace struct {
	ID   uint
	Dir  m.Path
	File m.Path // the mutated file inside Dir
}

// WorkspaceOptions configures where and how workspaces are materialized.
type WorkspaceOptions struct {
	Project      m.Path
	MutationRoot m.Path
	ExcludeDirs  []string
	// Keep leaves released workspaces on disk for inspection.
	Keep bool
}

// WorkspaceManager owns the per-candidate directories under the mutation root.
type WorkspaceManager interface {
	// Acquire copies the project into <mutationRoot>/<id> and applies the
	// candidate. Failures wrap ErrWorkspace.
	Acquire(ctx context.Context, candidate m.Candidate) (Workspace, error)
	// Release removes the workspace unless Keep is set.
	Release(ctx context.Context, ws Workspace) error
}

type workspaceManager struct {
	fsAdapter adapter.SourceFSAdapter
	options   WorkspaceOptions
	skip      adapter.SkipFunc
}

// NewWorkspaceManager constructs a WorkspaceManager.
func NewWorkspaceManager(ctx context.Context, fsAdapter adapter.SourceFSAdapter, options WorkspaceOptions) WorkspaceManager {
	return &workspaceManager{
		fsAdapter: fsAdapter,
		options:   options,
		skip:      newSkipFunc(ctx, fsAdapter, options.ExcludeDirs, options.MutationRoot),
	}
}

// WorkspaceDir returns the directory used for candidate id under root.
func WorkspaceDir(ctx context.Context, fsAdapter adapter.SourceFSAdapter, root m.Path, id uint) m.Path {
	return fsAdapter.JoinPath(ctx, string(root), strconv.FormatUint(uint64(id), 10))
}

func (wm *workspaceManager) Acquire(ctx context.Context, candidate m.Candidate) (Workspace, error) {
	ws := Workspace{
		ID:  candidate.ID,
		Dir: WorkspaceDir(ctx, wm.fsAdapter, wm.options.MutationRoot, candidate.ID),
	}
	ws.File = wm.fsAdapter.JoinPath(ctx, string(ws.Dir), string(candidate.Site.Rel))

	if err := wm.materialize(ctx, ws, candidate); err != nil {
		if !wm.options.Keep {
			if rmErr := wm.fsAdapter.RemoveAll(context.WithoutCancel(ctx), ws.Dir); rmErr != nil {
				slog.Error("Failed to remove partial workspace", "dir", ws.Dir, "error", rmErr)
			}
		}

		return Workspace{}, fmt.Errorf("%w: candidate #%d: %w", ErrWorkspace, candidate.ID, err)
	}

	slog.Debug("Workspace ready", "id", candidate.ID, "dir", ws.Dir, "file", ws.File)

	return ws, nil
}

func (wm *workspaceManager) materialize(ctx context.Context, ws Workspace, candidate m.Candidate) error {
	if err := wm.fsAdapter.RemoveAll(ctx, ws.Dir); err != nil {
		return fmt.Errorf("failed to remove stale workspace: %w", err)
	}

	if err := wm.fsAdapter.CopyDir(ctx, wm.options.Project, ws.Dir, wm.skip); err != nil {
		slog.Error("Failed to copy project", "project", wm.options.Project, "dir", ws.Dir, "error", err)
		return fmt.Errorf("failed to copy project: %w", err)
	}

	content, err := wm.fsAdapter.ReadFile(ctx, ws.File)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", ws.File, err)
	}

	mutated, err := MutateSource(content, candidate.Site.Offset, candidate.Site.Operator, candidate.Replacement)
	if err != nil {
		return err
	}

	info, err := wm.fsAdapter.FileInfo(ctx, ws.File)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", ws.File, err)
	}

	if err := wm.fsAdapter.WriteFile(ctx, ws.File, mutated, info.Mode().Perm()); err != nil {
		slog.Error("Failed to write mutated file", "path", ws.File, "error", err)
		return fmt.Errorf("failed to write mutated file: %w", err)
	}

	return nil
}

func (wm *workspaceManager) Release(ctx context.Context, ws Workspace) error {
	if wm.options.Keep {
		slog.Debug("Keeping workspace", "id", ws.ID, "dir", ws.Dir)
		return nil
	}

	if err := wm.fsAdapter.RemoveAll(ctx, ws.Dir); err != nil {
		slog.Error("Failed to remove workspace", "dir", ws.Dir, "error", err)
		return fmt.Errorf("failed to remove workspace %s: %w", ws.Dir, err)
	}

	return nil
}
