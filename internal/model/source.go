// Package model defines the data structures for mutation testing.
package model

// Path represents a file system path.
type Path string

// SourceFile is a project file loaded for analysis. It is never modified
// once read; mutations are applied to workspace copies only.
type SourceFile struct {
	Path    Path // absolute path inside the project
	Rel     Path // path relative to the project root
	Content []byte
}

// Function is a function definition discovered while scanning a source file.
type Function struct {
	Name        string
	File        Path
	StartLine   int
	EndLine     int
	StartOffset int
	EndOffset   int
	// TestExempt is true when the function, or a scope enclosing it, carries
	// a recognized test marker. Exempt functions never produce sites.
	TestExempt bool
}

// TokenKind classifies lexical tokens produced by a source file adapter.
type TokenKind int

// Token kinds.
const (
	TokenIdent TokenKind = iota
	TokenNumber
	TokenString
	TokenChar
	TokenLifetime
	TokenPunct
)

// Token is a single lexical token with its byte offset in the file.
// Comments and whitespace never produce tokens.
type Token struct {
	Kind   TokenKind
	Text   string
	Offset int
}
