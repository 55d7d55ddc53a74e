package domain

import m "gooze.dev/pkg/darwin/internal/model"

// MutationScore is the share of conclusive mutants caught by the tests:
// OK / (OK + Missing). Killed, Timeout, Errored and Aborted results are
// excluded from the denominator. With nothing conclusive the score is 1.
func MutationScore(report m.Report) float64 {
	caught := report.Count(m.OK)
	total := caught + report.Count(m.Missing)

	if total == 0 {
		return 1.0
	}

	return float64(caught) / float64(total)
}
