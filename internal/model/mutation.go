package model

import "fmt"

// Site is a located binary operator eligible for replacement.
type Site struct {
	File     Path // absolute path of the source file
	Rel      Path // path relative to the project root
	Line     int  // 1-based
	Column   int  // 1-based byte column of the operator token
	Offset   int  // byte offset of the operator token
	Function string
	Operator string
}

// Candidate is one (site, replacement) pair with its run-wide id.
type Candidate struct {
	ID          uint
	Site        Site
	Replacement string
	Diff        string
}

// Description returns the human readable mutation, e.g. "replace + by -".
func (c Candidate) Description() string {
	return fmt.Sprintf("replace %s by %s", c.Site.Operator, c.Replacement)
}

// Location describes where the candidate applies, in summary-line form.
func (c Candidate) Location() string {
	return fmt.Sprintf("in function %q of file %s at line %d:%d",
		c.Site.Function, c.Site.Rel, c.Site.Line, c.Site.Column)
}
