package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	m "gooze.dev/pkg/darwin/internal/model"
)

// Lexing failures. Any of them makes the file unusable for analysis.
var (
	ErrInvalidEncoding = errors.New("source is not valid UTF-8")
	ErrUnterminated    = errors.New("unterminated literal or comment")
	ErrUnbalanced      = errors.New("unbalanced delimiters")
)

// SourceFileAdapter encapsulates language-specific lexing so the domain layer
// can focus on scope tracking and mutation rules.
type SourceFileAdapter interface {
	// Tokenize turns source text into significant tokens. Comments, whitespace
	// and the insides of literals never yield operator tokens.
	Tokenize(ctx context.Context, content []byte) ([]m.Token, error)
}

// LocalRustFileAdapter lexes Rust source files.
type LocalRustFileAdapter struct{}

// NewLocalRustFileAdapter constructs a LocalRustFileAdapter.
func NewLocalRustFileAdapter() *LocalRustFileAdapter {
	return &LocalRustFileAdapter{}
}

// Tokenize lexes content and verifies that (), [] and {} are balanced.
func (a *LocalRustFileAdapter) Tokenize(ctx context.Context, content []byte) ([]m.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !utf8.Valid(content) {
		return nil, ErrInvalidEncoding
	}

	lx := &rustLexer{src: content}

	return lx.run()
}

// Multi-character punctuation, longest first so matching is maximal munch.
var rustPunctuation = []string{
	">>=", "<<=", "...", "..=",
	"::", "->", "=>", "==", "!=", "<=", ">=", "&&", "||",
	"+=", "-=", "*=", "/=", "%=", "^=", "&=", "|=", "<<", ">>", "..",
}

var closingDelimiter = map[byte]byte{')': '(', ']': '[', '}': '{'}

type rustLexer struct {
	src    []byte
	pos    int
	tokens []m.Token
	delims []int // offsets of currently open delimiters
}

func (lx *rustLexer) run() ([]m.Token, error) {
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]

		var err error

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			lx.pos++
		case c == '/' && lx.peek(1) == '/':
			lx.skipLineComment()
		case c == '/' && lx.peek(1) == '*':
			err = lx.skipBlockComment()
		case c == '"':
			err = lx.lexString(lx.pos, lx.pos)
		case c == '\'':
			err = lx.lexQuote()
		case isDigit(c):
			lx.lexNumber()
		case lx.isIdentStart(lx.pos):
			err = lx.lexIdent()
		default:
			err = lx.lexPunct()
		}

		if err != nil {
			return nil, err
		}
	}

	if len(lx.delims) > 0 {
		open := lx.delims[len(lx.delims)-1]
		return nil, fmt.Errorf("%w: %q opened at offset %d is never closed", ErrUnbalanced, lx.src[open], open)
	}

	return lx.tokens, nil
}

func (lx *rustLexer) peek(n int) byte {
	if lx.pos+n < len(lx.src) {
		return lx.src[lx.pos+n]
	}

	return 0
}

func (lx *rustLexer) emit(kind m.TokenKind, start int) {
	lx.tokens = append(lx.tokens, m.Token{Kind: kind, Text: string(lx.src[start:lx.pos]), Offset: start})
}

func (lx *rustLexer) skipLineComment() {
	end := bytes.IndexByte(lx.src[lx.pos:], '\n')
	if end < 0 {
		lx.pos = len(lx.src)
		return
	}

	lx.pos += end + 1
}

// skipBlockComment honours nesting: /* a /* b */ c */ is one comment.
func (lx *rustLexer) skipBlockComment() error {
	start := lx.pos
	depth := 0

	for lx.pos < len(lx.src) {
		switch {
		case lx.src[lx.pos] == '/' && lx.peek(1) == '*':
			depth++
			lx.pos += 2
		case lx.src[lx.pos] == '*' && lx.peek(1) == '/':
			depth--
			lx.pos += 2

			if depth == 0 {
				return nil
			}
		default:
			lx.pos++
		}
	}

	return fmt.Errorf("%w: block comment at offset %d", ErrUnterminated, start)
}

// lexString consumes a quoted string whose opening quote is at quote; start
// may precede it for prefixed literals such as b"..".
func (lx *rustLexer) lexString(start, quote int) error {
	lx.pos = quote + 1

	for lx.pos < len(lx.src) {
		switch lx.src[lx.pos] {
		case '\\':
			lx.pos += 2
		case '"':
			lx.pos++
			lx.emit(m.TokenString, start)

			return nil
		default:
			lx.pos++
		}
	}

	return fmt.Errorf("%w: string at offset %d", ErrUnterminated, start)
}

// lexRawString consumes r"..", r#".."#, br##".."## and friends. lx.pos
// points right after the prefix letters.
func (lx *rustLexer) lexRawString(start int) error {
	hashes := 0
	for lx.peek(0) == '#' {
		hashes++
		lx.pos++
	}

	if lx.peek(0) != '"' {
		return fmt.Errorf("%w: raw string at offset %d", ErrUnterminated, start)
	}

	closing := append([]byte{'"'}, bytes.Repeat([]byte{'#'}, hashes)...)

	end := bytes.Index(lx.src[lx.pos+1:], closing)
	if end < 0 {
		return fmt.Errorf("%w: raw string at offset %d", ErrUnterminated, start)
	}

	lx.pos += 1 + end + len(closing)
	lx.emit(m.TokenString, start)

	return nil
}

// lexQuote disambiguates char literals ('a', '\n') from lifetimes and labels ('a).
func (lx *rustLexer) lexQuote() error {
	start := lx.pos
	if start+1 >= len(lx.src) {
		return fmt.Errorf("%w: quote at offset %d", ErrUnterminated, start)
	}

	if lx.src[start+1] == '\\' {
		return lx.lexChar(start, start)
	}

	_, size := utf8.DecodeRune(lx.src[start+1:])
	if start+1+size < len(lx.src) && lx.src[start+1+size] == '\'' {
		lx.pos = start + 2 + size
		lx.emit(m.TokenChar, start)

		return nil
	}

	if lx.isIdentStart(start + 1) {
		lx.pos = lx.scanIdent(start + 1)
		lx.emit(m.TokenLifetime, start)

		return nil
	}

	return fmt.Errorf("%w: quote at offset %d", ErrUnterminated, start)
}

func (lx *rustLexer) lexChar(start, quote int) error {
	lx.pos = quote + 1

	for lx.pos < len(lx.src) {
		switch lx.src[lx.pos] {
		case '\\':
			lx.pos += 2
		case '\'':
			lx.pos++
			lx.emit(m.TokenChar, start)

			return nil
		case '\n':
			return fmt.Errorf("%w: char literal at offset %d", ErrUnterminated, start)
		default:
			lx.pos++
		}
	}

	return fmt.Errorf("%w: char literal at offset %d", ErrUnterminated, start)
}

// lexNumber keeps exponent signs inside the literal, so 1e-5 never exposes
// a '-' operator, and stops before range dots (0..n) and method calls (1.max).
// A bare trailing dot belongs to the literal, as in the float `1.`.
func (lx *rustLexer) lexNumber() {
	start := lx.pos

	if lx.src[lx.pos] == '0' {
		switch lx.peek(1) {
		case 'x', 'o', 'b':
			lx.pos += 2
			for lx.pos < len(lx.src) && isIdentContinueByte(lx.src[lx.pos]) {
				lx.pos++
			}

			lx.emit(m.TokenNumber, start)

			return
		}
	}

	fraction := false

	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]

		switch {
		case isDigit(c) || c == '_':
			lx.pos++
		case c == '.' && !fraction && isDigit(lx.peek(1)):
			fraction = true
			lx.pos++
		case c == '.' && !fraction && lx.peek(1) != '.' && !lx.isIdentStart(lx.pos+1):
			lx.pos++
			lx.emit(m.TokenNumber, start)

			return
		case (c == 'e' || c == 'E') && isDigit(lx.peek(1)):
			lx.pos += 2
		case (c == 'e' || c == 'E') && (lx.peek(1) == '+' || lx.peek(1) == '-') && isDigit(lx.peek(2)):
			lx.pos += 3
		case isIdentContinueByte(c):
			lx.pos++
		default:
			lx.emit(m.TokenNumber, start)
			return
		}
	}

	lx.emit(m.TokenNumber, start)
}

func (lx *rustLexer) lexIdent() error {
	start := lx.pos
	lx.pos = lx.scanIdent(lx.pos)
	word := string(lx.src[start:lx.pos])

	switch word {
	case "r", "br", "cr":
		if lx.peek(0) == '"' || (lx.peek(0) == '#' && lx.rawStringAhead()) {
			return lx.lexRawString(start)
		}

		if word == "r" && lx.peek(0) == '#' && lx.isIdentStart(lx.pos+1) {
			// Raw identifier such as r#type.
			lx.pos = lx.scanIdent(lx.pos + 1)
		}
	case "b", "c":
		if lx.peek(0) == '"' {
			return lx.lexString(start, lx.pos)
		}

		if word == "b" && lx.peek(0) == '\'' {
			return lx.lexChar(start, lx.pos)
		}
	}

	lx.emit(m.TokenIdent, start)

	return nil
}

func (lx *rustLexer) rawStringAhead() bool {
	i := lx.pos
	for i < len(lx.src) && lx.src[i] == '#' {
		i++
	}

	return i < len(lx.src) && lx.src[i] == '"'
}

func (lx *rustLexer) lexPunct() error {
	start := lx.pos
	c := lx.src[lx.pos]

	switch c {
	case '(', '[', '{':
		lx.delims = append(lx.delims, start)
		lx.pos++
		lx.emit(m.TokenPunct, start)

		return nil
	case ')', ']', '}':
		if len(lx.delims) == 0 || lx.src[lx.delims[len(lx.delims)-1]] != closingDelimiter[c] {
			return fmt.Errorf("%w: unexpected %q at offset %d", ErrUnbalanced, c, start)
		}

		lx.delims = lx.delims[:len(lx.delims)-1]
		lx.pos++
		lx.emit(m.TokenPunct, start)

		return nil
	}

	for _, punct := range rustPunctuation {
		if bytes.HasPrefix(lx.src[lx.pos:], []byte(punct)) {
			lx.pos += len(punct)
			lx.emit(m.TokenPunct, start)

			return nil
		}
	}

	_, size := utf8.DecodeRune(lx.src[lx.pos:])
	lx.pos += size
	lx.emit(m.TokenPunct, start)

	return nil
}

func (lx *rustLexer) isIdentStart(pos int) bool {
	if pos >= len(lx.src) {
		return false
	}

	c := lx.src[pos]
	if c < utf8.RuneSelf {
		return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
	}

	r, _ := utf8.DecodeRune(lx.src[pos:])

	return unicode.IsLetter(r)
}

func (lx *rustLexer) scanIdent(pos int) int {
	for pos < len(lx.src) {
		c := lx.src[pos]
		if c < utf8.RuneSelf {
			if !isIdentContinueByte(c) {
				return pos
			}

			pos++

			continue
		}

		r, size := utf8.DecodeRune(lx.src[pos:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return pos
		}

		pos += size
	}

	return pos
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentContinueByte(c byte) bool {
	return c == '_' || isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
