package domain

import (
	"fmt"
	"strings"

	m "gooze.dev/pkg/darwin/internal/model"
)

// FormatSummaryLine renders the one-line summary entry of a result.
func FormatSummaryLine(candidate m.Candidate, status m.Status) string {
	return fmt.Sprintf("[%s] : Mutation #%d %s %s", status, candidate.ID, candidate.Description(), candidate.Location())
}

// FormatDetailLog renders the per-candidate detail log.
func FormatDetailLog(candidate m.Candidate, result m.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Mutation of file %s\n", candidate.Site.Rel)
	fmt.Fprintf(&b, "Mutation reason: %s\n", candidate.Description())
	fmt.Fprintf(&b, "Status : %s => %s\n", result.Status, result.Status.Meaning())

	if result.Err != nil {
		fmt.Fprintf(&b, "Error : %v\n", result.Err)
	}

	b.WriteString("\nMutation diff:\n")
	b.WriteString(candidate.Diff)
	ensureNewline(&b)

	if result.Build.Text != "" || result.Test != nil {
		fmt.Fprintf(&b, "\nBuild output (exit code %d):\n", result.Build.ExitCode)
		b.WriteString(result.Build.Text)
		ensureNewline(&b)
	}

	if result.Test != nil {
		fmt.Fprintf(&b, "\nTest output (exit code %d):\n", result.Test.ExitCode)
		b.WriteString(result.Test.Text)
		ensureNewline(&b)
	}

	return b.String()
}

func ensureNewline(b *strings.Builder) {
	s := b.String()
	if s != "" && !strings.HasSuffix(s, "\n") {
		b.WriteByte('\n')
	}
}
