package model

import (
	"fmt"
	"time"
)

// Status is the classification of a mutation candidate run.
type Status int

const (
	// OK means the mutant built and the test suite failed: the mutation was caught.
	OK Status = iota
	// Missing means the mutant built and the tests passed: a suspected test gap.
	Missing
	// Timeout means the test phase exceeded its time budget: inconclusive.
	Timeout
	// Killed means the mutant did not build.
	Killed
	// Errored means the candidate could not be evaluated (workspace or execution error).
	Errored
	// Aborted means the run was cancelled before the candidate reached a terminal state.
	Aborted
)

// Statuses lists the four published mutation statuses.
var Statuses = []Status{OK, Missing, Timeout, Killed}

func (s Status) String() string {
	switch s {
	case OK:
		return "OK"
	case Missing:
		return "Missing"
	case Timeout:
		return "Timeout"
	case Killed:
		return "Killed"
	case Errored:
		return "Errored"
	case Aborted:
		return "Aborted"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Meaning explains the status in detail logs.
func (s Status) Meaning() string {
	switch s {
	case OK:
		return "Mutation Caught"
	case Missing:
		return "Mutation Not Caught"
	case Killed:
		return "Non-buildable"
	case Timeout:
		return "Inconclusive"
	case Errored:
		return "Mutation Not Evaluated"
	case Aborted:
		return "Run Cancelled"
	default:
		return "Unknown"
	}
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(value string) (Status, error) {
	for _, s := range []Status{OK, Missing, Timeout, Killed, Errored, Aborted} {
		if s.String() == value {
			return s, nil
		}
	}

	return 0, fmt.Errorf("unknown status %q", value)
}

// Output is the captured combined stdout/stderr of one command.
type Output struct {
	Text     string
	ExitCode int
	Elapsed  time.Duration
}

// Result is the outcome of evaluating one candidate. It is written once and
// never modified afterwards.
type Result struct {
	ID     uint
	Status Status
	Build  Output
	// Test is nil when the test phase never ran (Killed, and some
	// Errored/Aborted results).
	Test    *Output
	Elapsed time.Duration
	Err     error
}

// Report is the outcome of a whole run, with results ordered by candidate id.
type Report struct {
	RunID        string
	Project      Path
	MutationPath Path
	Results      []Result
	Summary      []string
	SummaryPath  Path
	ResultsPath  Path
	DetailLogs   []Path
	Warnings     []string
}

// Count returns the number of results with the given status.
func (r Report) Count(status Status) int {
	count := 0

	for _, result := range r.Results {
		if result.Status == status {
			count++
		}
	}

	return count
}
