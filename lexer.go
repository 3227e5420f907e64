package edn

import (
	"unicode"
	"unicode/utf8"
)

// stream is a character cursor over EDN source text with line/column
// tracking. The parser drives it rune by rune; no token list is
// materialized, and nothing at this layer can fail — ambiguous
// classification (`-` as sign vs. symbol) belongs to the parser's atom
// resolution step.
type stream struct {
	src  string
	cur  int // byte offset
	line int // 0-based
	col  int // 0-based within line
}

func newStream(src string) *stream { return &stream{src: src} }

// location is a source position, 0-based on both axes. Rendered messages
// add one to each.
type location struct {
	line int
	col  int
}

func (s *stream) loc() location { return location{line: s.line, col: s.col} }

func (s *stream) isAtEnd() bool { return s.cur >= len(s.src) }

func (s *stream) peek() (rune, bool) {
	if s.isAtEnd() {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(s.src[s.cur:])
	return r, true
}

func (s *stream) advance() (rune, bool) {
	if s.isAtEnd() {
		return 0, false
	}
	r, size := utf8.DecodeRuneInString(s.src[s.cur:])
	s.cur += size
	if r == '\n' {
		s.line++
		s.col = 0
	} else {
		s.col++
	}
	return r, true
}

// skipSpace consumes whitespace, commas, and line comments. Commas are
// separators in EDN, not tokens; ';' begins a comment discarded to end of
// line.
func (s *stream) skipSpace() {
	for !s.isAtEnd() {
		ch, _ := s.peek()
		switch {
		case ch == ';':
			for !s.isAtEnd() {
				r, _ := s.advance()
				if r == '\n' {
					break
				}
			}
		case ch == ',' || unicode.IsSpace(ch):
			s.advance()
		default:
			return
		}
	}
}

// isDelimiter reports a rune that terminates a bare token. The double quote
// is included so a tag reads cleanly in `#inst"2024-01-01"`.
func isDelimiter(r rune) bool {
	switch r {
	case '(', ')', '[', ']', '{', '}', ';', ',', '"':
		return true
	}
	return unicode.IsSpace(r)
}

// readToken accumulates runes up to the next delimiter or end of input. An
// empty result means the cursor already sat on a delimiter.
func (s *stream) readToken() string {
	start := s.cur
	for !s.isAtEnd() {
		r, _ := s.peek()
		if isDelimiter(r) {
			break
		}
		s.advance()
	}
	return s.src[start:s.cur]
}

// charNames maps the whitespace character literal names (`\space`,
// `\newline`, `\tab`) to their runes; runeNames is the reverse table used
// when rendering.
var charNames = map[string]rune{
	"space":   ' ',
	"newline": '\n',
	"tab":     '\t',
}

var runeNames = map[rune]string{
	' ':  "space",
	'\n': "newline",
	'\t': "tab",
}
