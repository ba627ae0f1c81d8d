// Package tokenizer splits a decoded character stream into rows of field
// tokens.
//
// Column delimiters are matched longest first. The row delimiter is checked
// before any column delimiter and always ends the row. Quoted content is
// literal; inside it an escape character takes the next character verbatim.
// When the escape equals the quote, a doubled quote yields one quote character.
// Rows starting with the comment marker are skipped, and a comment marker
// inside an unquoted token ends the row.
package tokenizer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultWhitespace is trimmed from both ends of unquoted tokens.
const DefaultWhitespace = " \t"

// ErrInterrupted is returned when the interrupt check fires between tokens.
var ErrInterrupted = errors.New("tokenizer: interrupted")

// Config controls how the input is split.
type Config struct {
	ColumnDelimiters []string
	// RowDelimiter defaults to "\n". With "\n", "\r\n" also ends a row.
	RowDelimiter string
	Quote        string
	Escape       string
	Comment      string
	// Whitespace lists characters trimmed around unquoted tokens. Nil means
	// DefaultWhitespace; an empty string disables trimming.
	Whitespace *string
	// IgnoreTrailingDelimiters drops empty unquoted tokens at row end whose
	// preceding delimiter consists of whitespace only.
	IgnoreTrailingDelimiters bool
	// RejectNewlineInQuotes fails on a line break inside a quoted field.
	RejectNewlineInQuotes bool
}

// Token is one field of a raw row.
type Token struct {
	Text   string
	Line   int
	Quoted bool
	// Delimiter is the column delimiter that ended the token, empty at row end.
	Delimiter string
}

// RawRow is the token sequence between two row delimiters.
type RawRow struct {
	Tokens []Token
	Line   int
}

// TokenizeError reports malformed quoting or escaping.
type TokenizeError struct {
	Line   int
	Reason string
}

func (e *TokenizeError) Error() string {
	return fmt.Sprintf("tokenize error at line %d: %s", e.Line, e.Reason)
}

type boundary int

const (
	boundaryColumn boundary = iota
	boundaryRow
	boundaryEOF
)

// Tokenizer produces raw rows from a reader. It is not safe for concurrent use.
type Tokenizer struct {
	r          *bufio.Reader
	colDelims  []string
	rowDelim   string
	crlf       bool
	quote      string
	escape     string
	comment    string
	whitespace string
	cfg        Config

	line      int
	err       error
	interrupt func() bool
}

// New returns a tokenizer reading from r.
func New(r io.Reader, cfg Config) *Tokenizer {
	delims := make([]string, 0, len(cfg.ColumnDelimiters))
	for _, d := range cfg.ColumnDelimiters {
		if d != "" {
			delims = append(delims, d)
		}
	}
	sort.SliceStable(delims, func(i, j int) bool { return len(delims[i]) > len(delims[j]) })

	rowDelim := cfg.RowDelimiter
	if rowDelim == "" {
		rowDelim = "\n"
	}
	ws := DefaultWhitespace
	if cfg.Whitespace != nil {
		ws = *cfg.Whitespace
	}

	br, ok := r.(*bufio.Reader)
	if !ok || br.Size() < 4096 {
		br = bufio.NewReaderSize(r, 64*1024)
	}

	return &Tokenizer{
		r:          br,
		colDelims:  delims,
		rowDelim:   rowDelim,
		crlf:       rowDelim == "\n",
		quote:      cfg.Quote,
		escape:     cfg.Escape,
		comment:    cfg.Comment,
		whitespace: ws,
		cfg:        cfg,
		line:       1,
	}
}

// SetInterrupt installs a check consulted before each token.
func (t *Tokenizer) SetInterrupt(check func() bool) {
	t.interrupt = check
}

// Line is the 1-based line of the read position.
func (t *Tokenizer) Line() int {
	return t.line
}

// Next returns the next raw row, or io.EOF once the input is exhausted.
// An empty line yields a row without tokens. After a failure the same error
// is returned on every call.
func (t *Tokenizer) Next() (*RawRow, error) {
	if t.err != nil {
		return nil, t.err
	}
	for {
		row, skipped, err := t.readRow()
		if err != nil {
			t.err = err
			return nil, err
		}
		if skipped {
			continue
		}
		return row, nil
	}
}

func (t *Tokenizer) readRow() (*RawRow, bool, error) {
	if t.atEOF() {
		return nil, false, io.EOF
	}
	row := &RawRow{Line: t.line}
	if t.comment != "" && t.match(t.comment) {
		t.skipLine()
		return nil, true, nil
	}

	sawDelimiter := false
	for {
		if t.interrupt != nil && t.interrupt() {
			return nil, false, ErrInterrupted
		}
		tok, b, delim, err := t.readToken()
		if err != nil {
			return nil, false, err
		}
		tok.Delimiter = delim
		row.Tokens = append(row.Tokens, tok)
		if b != boundaryColumn {
			break
		}
		sawDelimiter = true
	}

	if !sawDelimiter && len(row.Tokens) == 1 && !row.Tokens[0].Quoted && row.Tokens[0].Text == "" {
		row.Tokens = nil
	}
	if t.cfg.IgnoreTrailingDelimiters {
		row.Tokens = dropTrailingEmpty(row.Tokens)
	}
	return row, false, nil
}

// dropTrailingEmpty removes empty unquoted tokens at the end of a row as long
// as the delimiter before each of them is whitespace.
func dropTrailingEmpty(tokens []Token) []Token {
	for n := len(tokens); n > 1; n-- {
		last := tokens[n-1]
		if last.Quoted || last.Text != "" || !isBlank(tokens[n-2].Delimiter) {
			break
		}
		tokens = tokens[:n-1]
		tokens[n-2].Delimiter = ""
	}
	return tokens
}

func isBlank(s string) bool {
	return s != "" && strings.TrimFunc(s, unicode.IsSpace) == ""
}

func (t *Tokenizer) readToken() (Token, boundary, string, error) {
	tok := Token{Line: t.line}
	t.skipWhitespace()

	var quoted strings.Builder
	if t.quote != "" && t.match(t.quote) {
		t.advance(len(t.quote))
		tok.Quoted = true
		if err := t.readQuoted(&quoted, tok.Line); err != nil {
			return tok, boundaryEOF, "", err
		}
	}

	var rest strings.Builder
	b, delim := t.readUnquoted(&rest)
	if tok.Quoted {
		tok.Text = quoted.String() + strings.Trim(rest.String(), t.whitespace)
	} else {
		tok.Text = strings.TrimRight(rest.String(), t.whitespace)
	}
	return tok, b, delim, nil
}

func (t *Tokenizer) readUnquoted(buf *strings.Builder) (boundary, string) {
	for {
		if t.atEOF() {
			return boundaryEOF, ""
		}
		if n := t.rowDelimiterAt(); n > 0 {
			t.advance(n)
			return boundaryRow, ""
		}
		if d := t.columnDelimiterAt(); d != "" {
			t.advance(len(d))
			return boundaryColumn, d
		}
		if t.comment != "" && t.match(t.comment) {
			t.skipLine()
			return boundaryRow, ""
		}
		r, ok := t.readRune()
		if !ok {
			return boundaryEOF, ""
		}
		buf.WriteRune(r)
	}
}

func (t *Tokenizer) readQuoted(buf *strings.Builder, startLine int) error {
	doubling := t.escape == t.quote
	for {
		if t.atEOF() {
			return &TokenizeError{Line: startLine, Reason: "unterminated quoted field"}
		}
		if t.escape != "" && !doubling && t.match(t.escape) {
			t.advance(len(t.escape))
			r, ok := t.readRune()
			if !ok {
				return &TokenizeError{Line: t.line, Reason: "unterminated escape sequence"}
			}
			buf.WriteRune(r)
			continue
		}
		if t.match(t.quote) {
			t.advance(len(t.quote))
			if doubling && t.match(t.quote) {
				t.advance(len(t.quote))
				buf.WriteString(t.quote)
				continue
			}
			return nil
		}
		line := t.line
		r, ok := t.readRune()
		if !ok {
			return &TokenizeError{Line: startLine, Reason: "unterminated quoted field"}
		}
		if r == '\n' && t.cfg.RejectNewlineInQuotes {
			return &TokenizeError{Line: line, Reason: "new line in quoted string"}
		}
		buf.WriteRune(r)
	}
}

func (t *Tokenizer) skipWhitespace() {
	for !t.atEOF() {
		if t.rowDelimiterAt() > 0 || t.columnDelimiterAt() != "" {
			return
		}
		r, _, err := t.r.ReadRune()
		if err != nil {
			return
		}
		if !strings.ContainsRune(t.whitespace, r) {
			_ = t.r.UnreadRune()
			return
		}
		if r == '\n' {
			t.line++
		}
	}
}

// skipLine consumes everything up to and including the next row delimiter.
func (t *Tokenizer) skipLine() {
	for !t.atEOF() {
		if n := t.rowDelimiterAt(); n > 0 {
			t.advance(n)
			return
		}
		if _, ok := t.readRune(); !ok {
			return
		}
	}
}

func (t *Tokenizer) rowDelimiterAt() int {
	if t.crlf && t.match("\r\n") {
		return 2
	}
	if t.match(t.rowDelim) {
		return len(t.rowDelim)
	}
	return 0
}

func (t *Tokenizer) columnDelimiterAt() string {
	for _, d := range t.colDelims {
		if t.match(d) {
			return d
		}
	}
	return ""
}

func (t *Tokenizer) match(p string) bool {
	b, err := t.r.Peek(len(p))
	if err != nil && len(b) < len(p) {
		return false
	}
	return string(b) == p
}

func (t *Tokenizer) atEOF() bool {
	_, err := t.r.Peek(1)
	return err != nil
}

// advance discards n bytes, all of which have been matched by a peek.
func (t *Tokenizer) advance(n int) {
	b, _ := t.r.Peek(n)
	t.line += strings.Count(string(b), "\n")
	_, _ = t.r.Discard(n)
}

func (t *Tokenizer) readRune() (rune, bool) {
	r, size, err := t.r.ReadRune()
	if err != nil || size == 0 {
		return utf8.RuneError, false
	}
	if r == '\n' {
		t.line++
	}
	return r, true
}
