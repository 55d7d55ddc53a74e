package domain

import (
	"errors"

	"gooze.dev/pkg/darwin/internal/adapter"
)

// Errors returned by the mutation engine. Callers match them with errors.Is.
var (
	// ErrAnalysis marks a source file that could not be analyzed; the file is skipped.
	ErrAnalysis = errors.New("analysis failed")
	// ErrWorkspace marks a candidate whose workspace could not be prepared.
	ErrWorkspace = errors.New("workspace preparation failed")
	// ErrSpawn marks a build or test command that could not be launched. It aborts the run.
	ErrSpawn = adapter.ErrSpawn
	// ErrBuildTimeout marks a build that exceeded the configured build timeout.
	ErrBuildTimeout = errors.New("build timed out")
	// ErrReportWrite marks a report artifact that could not be persisted.
	ErrReportWrite = errors.New("report write failed")
	// ErrDuplicateResult is returned when a candidate id is recorded twice.
	ErrDuplicateResult = errors.New("result already recorded")
	// ErrInvalidArgs is returned when run arguments fail validation.
	ErrInvalidArgs = errors.New("invalid arguments")
)
