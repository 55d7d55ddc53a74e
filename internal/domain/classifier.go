package domain

import m "gooze.dev/pkg/darwin/internal/model"

// Classify maps an executor state to a result status. States that never
// reached a terminal outcome classify as Aborted.
func Classify(state ExecState) m.Status {
	switch state {
	case StateKilled:
		return m.Killed
	case StateOK:
		return m.OK
	case StateMissing:
		return m.Missing
	case StateTimeout:
		return m.Timeout
	default:
		return m.Aborted
	}
}
