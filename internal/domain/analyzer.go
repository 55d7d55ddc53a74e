package domain

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"gooze.dev/pkg/darwin/internal/adapter"
	m "gooze.dev/pkg/darwin/internal/model"
)

// Defaults used when AnalyzeOptions leaves a field empty.
var (
	DefaultExtensions  = []string{".rs"}
	DefaultMarkers     = []string{"test", "tokio::test"}
	DefaultExcludeDirs = []string{".git", "target"}
)

// AnalyzeOptions selects which files are scanned and which attributes exempt
// a function from mutation.
type AnalyzeOptions struct {
	Extensions []string
	// Markers are attribute paths such as "test" or "tokio::test". Glob
	// patterns are accepted ("*::test"). A leading "#[" and trailing "]" are ignored.
	Markers []string
	// ExcludeDirs are directory base names never descended into.
	ExcludeDirs []string
	// MutationRoot is skipped when it lives inside the project.
	MutationRoot m.Path
}

// Analysis is the immutable outcome of scanning a project.
type Analysis struct {
	Root      m.Path
	Sources   []m.SourceFile
	Functions []m.Function
	Sites     []m.Site
	Warnings  []string
}

// Source returns the analyzed file at path.
func (a Analysis) Source(path m.Path) (m.SourceFile, bool) {
	for _, source := range a.Sources {
		if source.Path == path {
			return source, true
		}
	}

	return m.SourceFile{}, false
}

// Analyzer locates mutable operator sites in a project.
type Analyzer interface {
	Analyze(ctx context.Context, root m.Path, options AnalyzeOptions) (Analysis, error)
	AnalyzeSource(ctx context.Context, source m.SourceFile, markers []string) ([]m.Function, []m.Site, error)
}

type analyzer struct {
	fsAdapter   adapter.SourceFSAdapter
	fileAdapter adapter.SourceFileAdapter
	catalog     *Catalog
}

// NewAnalyzer constructs an Analyzer that reports sites for catalog keys only.
func NewAnalyzer(fsAdapter adapter.SourceFSAdapter, fileAdapter adapter.SourceFileAdapter, catalog *Catalog) Analyzer {
	return &analyzer{
		fsAdapter:   fsAdapter,
		fileAdapter: fileAdapter,
		catalog:     catalog,
	}
}

func (a *analyzer) Analyze(ctx context.Context, root m.Path, options AnalyzeOptions) (Analysis, error) {
	absRoot, err := a.fsAdapter.AbsPath(ctx, root)
	if err != nil {
		return Analysis{}, fmt.Errorf("failed to resolve project root %s: %w", root, err)
	}

	extensions := orDefault(options.Extensions, DefaultExtensions)
	markers := orDefault(options.Markers, DefaultMarkers)

	files, err := a.fsAdapter.ListFiles(ctx, absRoot, extensions, a.skipFunc(ctx, options))
	if err != nil {
		slog.Error("Failed to list source files", "root", absRoot, "error", err)
		return Analysis{}, fmt.Errorf("failed to list source files: %w", err)
	}

	analysis := Analysis{Root: absRoot}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return Analysis{}, err
		}

		var (
			functions []m.Function
			sites     []m.Site
		)

		source, err := a.loadSource(ctx, absRoot, file)
		if err == nil {
			functions, sites, err = a.AnalyzeSource(ctx, source, markers)
		}

		if err != nil {
			if ctx.Err() != nil {
				return Analysis{}, ctx.Err()
			}

			warning := fmt.Errorf("%w: skipping %s: %w", ErrAnalysis, file, err)
			slog.Warn("Skipping source file", "file", file, "error", err)

			analysis.Warnings = append(analysis.Warnings, warning.Error())

			continue
		}

		analysis.Sources = append(analysis.Sources, source)
		analysis.Functions = append(analysis.Functions, functions...)
		analysis.Sites = append(analysis.Sites, sites...)
	}

	slog.Debug("Analysis complete", "root", absRoot, "files", len(analysis.Sources), "sites", len(analysis.Sites))

	return analysis, nil
}

func (a *analyzer) loadSource(ctx context.Context, root, file m.Path) (m.SourceFile, error) {
	content, err := a.fsAdapter.ReadFile(ctx, file)
	if err != nil {
		return m.SourceFile{}, err
	}

	rel, err := a.fsAdapter.RelPath(ctx, root, file)
	if err != nil {
		return m.SourceFile{}, err
	}

	return m.SourceFile{Path: file, Rel: rel, Content: content}, nil
}

func (a *analyzer) skipFunc(ctx context.Context, options AnalyzeOptions) adapter.SkipFunc {
	return newSkipFunc(ctx, a.fsAdapter, options.ExcludeDirs, options.MutationRoot)
}

// newSkipFunc prunes excluded directory names and the mutation root.
func newSkipFunc(ctx context.Context, fsAdapter adapter.SourceFSAdapter, exclude []string, mutationRoot m.Path) adapter.SkipFunc {
	exclude = orDefault(exclude, DefaultExcludeDirs)

	var absMutationRoot m.Path

	if mutationRoot != "" {
		if abs, err := fsAdapter.AbsPath(ctx, mutationRoot); err == nil {
			absMutationRoot = abs
		}
	}

	return func(p m.Path, isDir bool) bool {
		if !isDir {
			return false
		}

		if absMutationRoot != "" && p == absMutationRoot {
			return true
		}

		return slices.Contains(exclude, filepath.Base(string(p)))
	}
}

func (a *analyzer) AnalyzeSource(ctx context.Context, source m.SourceFile, markers []string) ([]m.Function, []m.Site, error) {
	tokens, err := a.fileAdapter.Tokenize(ctx, source.Content)
	if err != nil {
		return nil, nil, err
	}

	s := &scanner{
		source:     source,
		tokens:     tokens,
		catalog:    a.catalog,
		markers:    newMarkerSet(markers),
		lineStarts: lineStarts(source.Content),
	}
	s.run()

	return s.functions, s.sites, nil
}

// Tokens that cannot end an operand even though they lex as identifiers.
var nonOperandKeywords = map[string]bool{
	"as": true, "async": true, "become": true, "box": true, "break": true, "const": true,
	"continue": true, "do": true, "dyn": true, "else": true, "enum": true, "extern": true,
	"fn": true, "for": true, "if": true, "impl": true, "in": true, "let": true, "loop": true,
	"match": true, "mod": true, "move": true, "mut": true, "pub": true, "ref": true,
	"return": true, "static": true, "struct": true, "trait": true, "type": true,
	"unsafe": true, "use": true, "where": true, "while": true, "yield": true,
}

type braceScope struct {
	function string
	exempt   bool
	fnIndex  int // index into functions when the brace opens a function body, else -1
}

type pendingFunction struct {
	name   string
	exempt bool
	offset int
	braces int
	groups int
}

// scanner walks a token stream once, tracking brace scopes and emitting sites.
type scanner struct {
	source     m.SourceFile
	tokens     []m.Token
	catalog    *Catalog
	markers    markerSet
	lineStarts []int

	scopes    []braceScope
	groups    int // open ( and [
	pending   *pendingFunction
	marked    bool
	operand   bool

	// typeBound is set inside a `dyn`/`impl` bound list, opened at group
	// depth boundGroups, where `+` joins traits.
	typeBound   bool
	boundGroups int

	// generics counts open `<` of an item's generic parameter list. header
	// is set from an item keyword or `where` up to the item body, opened at
	// group depth headerGroups. `+` joins bounds in both.
	generics     int
	header       bool
	headerGroups int

	functions []m.Function
	sites     []m.Site
}

func (s *scanner) current() braceScope {
	if len(s.scopes) == 0 {
		return braceScope{fnIndex: -1}
	}

	return s.scopes[len(s.scopes)-1]
}

func (s *scanner) run() {
	for i := 0; i < len(s.tokens); i++ {
		tok := s.tokens[i]

		if tok.Kind == m.TokenPunct && tok.Text == "#" {
			if end, ok := s.attribute(i); ok {
				i = end
				s.operand = false

				continue
			}
		}

		if s.typeBound && tok.Kind == m.TokenPunct && s.endsBound(tok.Text) {
			s.typeBound = false
		}

		if tok.Kind == m.TokenPunct && s.genericBracket(i) {
			s.operand = false

			continue
		}

		switch tok.Kind {
		case m.TokenIdent:
			s.ident(i)
		case m.TokenNumber, m.TokenString, m.TokenChar:
			s.operand = true
		case m.TokenLifetime:
			s.operand = false
		case m.TokenPunct:
			s.punct(tok)
		}
	}
}

func (s *scanner) ident(i int) {
	tok := s.tokens[i]

	switch tok.Text {
	case "fn":
		if i+1 < len(s.tokens) && s.tokens[i+1].Kind == m.TokenIdent {
			s.pending = &pendingFunction{
				name:   s.tokens[i+1].Text,
				exempt: s.marked || s.current().exempt,
				offset: tok.Offset,
				braces: len(s.scopes),
				groups: s.groups,
			}
			s.marked = false
		}
	case "dyn", "impl":
		s.typeBound = true
		s.boundGroups = s.groups
	case "where":
		s.openHeader()
	default:
		if genericItemKeywords[tok.Text] && i+1 < len(s.tokens) && s.tokens[i+1].Kind == m.TokenIdent {
			s.openHeader()
		}
	}

	s.operand = !nonOperandKeywords[tok.Text]
}

// endsBound reports whether a punctuation token closes the current bound list.
// Parentheses of `Fn(..)` sugar open deeper groups and do not.
func (s *scanner) endsBound(text string) bool {
	switch text {
	case "{", "}":
		return true
	case ")", "]":
		return s.groups <= s.boundGroups
	case ",", ";", "=", ">":
		return s.groups == s.boundGroups
	}

	return false
}

// Item keywords whose name may be followed by a generic parameter list.
var genericItemKeywords = map[string]bool{
	"enum": true, "struct": true, "trait": true, "type": true, "union": true,
}

// genericBracket tracks the angle brackets of generic parameter lists and
// reports whether the token at i was one of them.
func (s *scanner) genericBracket(i int) bool {
	switch text := s.tokens[i].Text; text {
	case "<":
		if s.generics > 0 || s.opensGenerics(i) {
			s.generics++

			return true
		}
	case ">", ">>":
		if s.generics > 0 {
			s.generics = max(0, s.generics-len(text))

			return true
		}
	case "{", "}":
		s.generics = 0
		s.header = false
	case ";":
		s.generics = 0
		s.header = s.header && s.groups > s.headerGroups
	}

	return false
}

func (s *scanner) openHeader() {
	if !s.header {
		s.header = true
		s.headerGroups = s.groups
	}
}

func (s *scanner) opensGenerics(i int) bool {
	if i < 1 || s.tokens[i-1].Kind != m.TokenIdent {
		return false
	}

	if s.tokens[i-1].Text == "impl" {
		return true
	}

	return i >= 2 && s.tokens[i-2].Kind == m.TokenIdent && genericItemKeywords[s.tokens[i-2].Text]
}

func (s *scanner) punct(tok m.Token) {
	switch tok.Text {
	case "{":
		s.openBrace()
		s.operand = false
	case "}":
		s.closeBrace(tok)
		s.operand = false
	case "(", "[":
		s.groups++
		s.operand = false
	case ")", "]":
		s.groups--
		s.operand = true
	case "?":
		s.operand = true
	case ";":
		s.marked = false
		if s.pending != nil && s.pending.braces == len(s.scopes) && s.pending.groups == s.groups {
			s.pending = nil
		}

		s.operand = false
	default:
		if s.operand && s.isSite() && s.catalog.Has(tok.Text) {
			s.addSite(tok)
		}

		s.operand = false
	}
}

func (s *scanner) isSite() bool {
	scope := s.current()

	return s.pending == nil && !s.typeBound && s.generics == 0 && !s.header && scope.function != "" && !scope.exempt
}

func (s *scanner) openBrace() {
	parent := s.current()

	if p := s.pending; p != nil && p.braces == len(s.scopes) && p.groups == s.groups {
		s.functions = append(s.functions, m.Function{
			Name:        p.name,
			File:        s.source.Path,
			StartLine:   s.line(p.offset),
			StartOffset: p.offset,
			TestExempt:  p.exempt,
		})
		s.scopes = append(s.scopes, braceScope{function: p.name, exempt: p.exempt, fnIndex: len(s.functions) - 1})
		s.pending = nil

		return
	}

	s.scopes = append(s.scopes, braceScope{
		function: parent.function,
		exempt:   parent.exempt || s.marked,
		fnIndex:  -1,
	})
	s.marked = false
}

func (s *scanner) closeBrace(tok m.Token) {
	if len(s.scopes) == 0 {
		return
	}

	scope := s.scopes[len(s.scopes)-1]
	s.scopes = s.scopes[:len(s.scopes)-1]

	if scope.fnIndex >= 0 {
		s.functions[scope.fnIndex].EndLine = s.line(tok.Offset)
		s.functions[scope.fnIndex].EndOffset = tok.Offset + 1
	}
}

func (s *scanner) addSite(tok m.Token) {
	line := s.line(tok.Offset)

	s.sites = append(s.sites, m.Site{
		File:     s.source.Path,
		Rel:      s.source.Rel,
		Line:     line,
		Column:   tok.Offset - s.lineStarts[line-1] + 1,
		Offset:   tok.Offset,
		Function: s.current().function,
		Operator: tok.Text,
	})
}

// attribute consumes #[...] or #![...] starting at i and returns the index of
// the closing bracket. Outer attributes matching a marker arm s.marked.
func (s *scanner) attribute(i int) (int, bool) {
	j := i + 1
	inner := false

	if j < len(s.tokens) && s.tokens[j].Text == "!" {
		inner = true
		j++
	}

	if j >= len(s.tokens) || s.tokens[j].Text != "[" {
		return i, false
	}

	depth := 0
	end := -1

	for k := j; k < len(s.tokens); k++ {
		switch s.tokens[k].Text {
		case "[":
			depth++
		case "]":
			depth--
		}

		if depth == 0 {
			end = k
			break
		}
	}

	if end < 0 {
		return i, false
	}

	if inner {
		return end, true
	}

	var attrPath, full strings.Builder

	inPath := true

	for _, tok := range s.tokens[j+1 : end] {
		if tok.Text == "(" || tok.Text == "=" {
			inPath = false
		}

		if inPath {
			attrPath.WriteString(tok.Text)
		}

		full.WriteString(tok.Text)
	}

	if s.markers.matches(attrPath.String(), full.String()) {
		s.marked = true
	}

	return end, true
}

func (s *scanner) line(offset int) int {
	return sort.Search(len(s.lineStarts), func(i int) bool { return s.lineStarts[i] > offset })
}

func lineStarts(content []byte) []int {
	starts := []int{0}

	for i, b := range content {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}

	return starts
}

type markerSet []string

func newMarkerSet(markers []string) markerSet {
	set := make(markerSet, 0, len(markers))

	for _, marker := range markers {
		normalized := normalizeMarker(marker)
		if normalized != "" {
			set = append(set, normalized)
		}
	}

	return set
}

func normalizeMarker(marker string) string {
	marker = strings.Join(strings.Fields(marker), "")
	marker = strings.TrimPrefix(marker, "#[")
	marker = strings.TrimSuffix(marker, "]")

	return marker
}

func (ms markerSet) matches(attrPath, full string) bool {
	for _, pattern := range ms {
		if pattern == attrPath || pattern == full {
			return true
		}

		if ok, _ := path.Match(pattern, attrPath); ok {
			return true
		}

		if ok, _ := path.Match(pattern, full); ok {
			return true
		}
	}

	return false
}

func orDefault(values, defaults []string) []string {
	if len(values) == 0 {
		return defaults
	}

	return values
}
