// parser.go — recursive-descent EDN reader over the cursor stream.
//
// Every parse failure carries the source location of the opening construct
// (unterminated collections, odd map counts) or of the offending token
// (bad escapes, bad numbers), 0-based internally and rendered 1-based.
// Parsing either yields one complete Value or an error; there is no
// partial-result mode.
package edn

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// ParseError is a structural or lexical failure with its source position.
// Line and Col are 0-based; the rendered message is 1-based. Incomplete
// marks failures caused by running out of input mid-form, which a REPL
// treats as "keep reading" rather than a hard error.
type ParseError struct {
	Line       int
	Col        int
	Msg        string
	Incomplete bool
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Line+1, e.Col+1, e.Msg)
}

// IsIncomplete reports whether err is (or wraps) a parse error produced by
// reaching end of input inside an unfinished form.
func IsIncomplete(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Incomplete
}

// Parse reads every top-level form in src. Two or more forms wrap in an
// implicit (do form1 form2 ...) list so a file of expressions behaves as a
// sequential program; zero forms yield nil.
func Parse(src string) (Value, error) {
	forms, err := ParseForms(src)
	if err != nil {
		return Value{}, err
	}
	switch len(forms) {
	case 0:
		return Nil(), nil
	case 1:
		return forms[0], nil
	default:
		return List(append([]Value{Symbol("do")}, forms...)...), nil
	}
}

// ParseForms reads the top-level forms in src without the implicit do wrap
// of Parse. The formatter uses this to lay out each form on its own.
func ParseForms(src string) ([]Value, error) {
	p := &parser{s: newStream(src)}
	var forms []Value
	for {
		p.s.skipSpace()
		if p.s.isAtEnd() {
			return forms, nil
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		forms = append(forms, v)
	}
}

////////////////////////////////////////////////////////////////////////////////
//                                  PARSER
////////////////////////////////////////////////////////////////////////////////

type parser struct {
	s *stream
}

func errAt(loc location, msg string) *ParseError {
	return &ParseError{Line: loc.line, Col: loc.col, Msg: msg}
}

// errEOF marks the error as incomplete input in addition to locating it.
func errEOF(loc location, msg string) *ParseError {
	return &ParseError{Line: loc.line, Col: loc.col, Msg: msg, Incomplete: true}
}

// parseValue reads exactly one value, dispatching on the leading rune.
func (p *parser) parseValue() (Value, error) {
	p.s.skipSpace()
	loc := p.s.loc()
	ch, ok := p.s.peek()
	if !ok {
		return Value{}, errEOF(loc, "unexpected end of input")
	}
	switch ch {
	case '"':
		return p.parseString()
	case '\\':
		return p.parseCharacter()
	case ':':
		return p.parseKeyword()
	case '(':
		p.s.advance()
		items, err := p.parseUntil(')', "list", loc)
		if err != nil {
			return Value{}, err
		}
		return List(items...), nil
	case '[':
		p.s.advance()
		items, err := p.parseUntil(']', "vector", loc)
		if err != nil {
			return Value{}, err
		}
		return Vector(items...), nil
	case '{':
		return p.parseMap()
	case '#':
		return p.parseHash()
	case '\'':
		p.s.advance()
		elem, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		return Quote(elem), nil
	case ')', ']', '}':
		return Value{}, errAt(loc, "unexpected closing delimiter: "+string(ch))
	default:
		tok := p.s.readToken()
		if tok == "" {
			return Value{}, errAt(loc, "empty token")
		}
		return p.atom(tok, loc)
	}
}

// parseUntil collects values up to the closing delimiter. End of input
// before the close is fatal at the opening location.
func (p *parser) parseUntil(close rune, what string, open location) ([]Value, error) {
	var items []Value
	for {
		p.s.skipSpace()
		ch, ok := p.s.peek()
		if !ok {
			return nil, errEOF(open, "unterminated "+what)
		}
		if ch == close {
			p.s.advance()
			return items, nil
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
}

func (p *parser) parseString() (Value, error) {
	open := p.s.loc()
	p.s.advance()
	var b strings.Builder
	for {
		if p.s.isAtEnd() {
			return Value{}, errEOF(open, "unterminated string")
		}
		at := p.s.loc()
		r, _ := p.s.advance()
		switch r {
		case '"':
			return String(b.String()), nil
		case '\\':
			if p.s.isAtEnd() {
				return Value{}, errEOF(open, "unterminated string")
			}
			esc, _ := p.s.advance()
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			default:
				return Value{}, errAt(at, `invalid escape sequence: \`+string(esc))
			}
		default:
			b.WriteRune(r)
		}
	}
}

// parseCharacter reads `\x` or a named whitespace literal (`\space`,
// `\newline`, `\tab`). Any other multi-rune name is an error.
func (p *parser) parseCharacter() (Value, error) {
	loc := p.s.loc()
	p.s.advance()
	name := p.s.readToken()
	if name == "" {
		return Value{}, errAt(loc, "empty character literal")
	}
	if r, ok := charNames[name]; ok {
		return Char(r), nil
	}
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		return Char(r), nil
	}
	return Value{}, errAt(loc, "unknown character name: "+name)
}

func (p *parser) parseKeyword() (Value, error) {
	loc := p.s.loc()
	p.s.advance()
	name := p.s.readToken()
	if name == "" {
		return Value{}, errAt(loc, "empty keyword")
	}
	return Keyword(name), nil
}

// parseMap reads `{k v ...}`. The parity check reports at the opening brace
// so the message points at the structure, not the stray element. Duplicate
// keys keep the last occurrence.
func (p *parser) parseMap() (Value, error) {
	open := p.s.loc()
	p.s.advance()
	items, err := p.parseUntil('}', "map", open)
	if err != nil {
		return Value{}, err
	}
	if len(items)%2 != 0 {
		return Value{}, errAt(open, "map expects an even number of elements")
	}
	entries := make([]MapEntry, 0, len(items)/2)
	for i := 0; i < len(items); i += 2 {
		entries = append(entries, MapEntry{Key: items[i], Val: items[i+1]})
	}
	return MapFromEntries(entries), nil
}

// parseHash dispatches `#{...}` sets and `#tag value` tagged elements. The
// tag is the next token with no space after the hash; whitespace before the
// tagged value is fine.
func (p *parser) parseHash() (Value, error) {
	loc := p.s.loc()
	p.s.advance()
	ch, ok := p.s.peek()
	if !ok {
		return Value{}, errEOF(loc, "unexpected end after #")
	}
	if ch == '{' {
		p.s.advance()
		items, err := p.parseUntil('}', "set", loc)
		if err != nil {
			return Value{}, err
		}
		return Set(items...), nil
	}
	tag := p.s.readToken()
	if tag == "" {
		return Value{}, errAt(loc, "expected tag name after #")
	}
	elem, err := p.parseValue()
	if err != nil {
		return Value{}, err
	}
	return Tag(tag, elem), nil
}

////////////////////////////////////////////////////////////////////////////////
//                               ATOM RESOLUTION
////////////////////////////////////////////////////////////////////////////////

// atom classifies a bare token, first match wins: nil/true/false, then
// numbers when the token looks numeric, then symbol. A numeric-looking
// token that fails to parse is a fatal error, never a silent symbol.
func (p *parser) atom(tok string, loc location) (Value, error) {
	switch tok {
	case "nil":
		return Nil(), nil
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	}
	if looksNumeric(tok) {
		if strings.ContainsAny(tok, ".eE") {
			f, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return Value{}, errAt(loc, "invalid floating point number: "+tok)
			}
			return Float(f), nil
		}
		n, err := strconv.ParseInt(tok, 10, 32)
		if err != nil {
			return Value{}, errAt(loc, "invalid integer: "+tok)
		}
		return Int(int32(n)), nil
	}
	return Symbol(tok), nil
}

// looksNumeric reports a token that must resolve as a number: a leading
// digit, or a sign directly followed by a digit. A bare `-` stays a symbol.
func looksNumeric(tok string) bool {
	if tok == "" {
		return false
	}
	if tok[0] >= '0' && tok[0] <= '9' {
		return true
	}
	return len(tok) > 1 && (tok[0] == '+' || tok[0] == '-') && tok[1] >= '0' && tok[1] <= '9'
}
