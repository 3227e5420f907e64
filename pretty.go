// pretty.go — width-aware, optionally colorized rendering built entirely on
// the public introspection surface (kind checks, accessors, Repr). Small
// collections of simple elements stay on one line; anything else breaks one
// element per line with indentation.
package edn

import (
	"io"
	"strings"
)

// ANSI escape codes for the default terminal palette.
const (
	ansiReset   = "\033[0m"
	ansiRed     = "\033[31m"
	ansiGreen   = "\033[32m"
	ansiYellow  = "\033[33m"
	ansiBlue    = "\033[34m"
	ansiMagenta = "\033[35m"
	ansiCyan    = "\033[36m"
	ansiWhite   = "\033[37m"
)

// ColorScheme assigns an ANSI sequence to each value class. The pretty
// printer emits Reset after every colored span.
type ColorScheme struct {
	Reset string

	Nil       string
	Boolean   string
	Number    string
	Character string
	String    string
	Symbol    string
	Keyword   string
	Tag       string

	Bracket string
	Paren   string
	Brace   string
}

// DefaultColorScheme is the palette the REPL uses.
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Reset:     ansiReset,
		Nil:       ansiWhite,
		Boolean:   ansiYellow,
		Number:    ansiCyan,
		Character: ansiGreen,
		String:    ansiGreen,
		Symbol:    ansiBlue,
		Keyword:   ansiMagenta,
		Tag:       ansiBlue,
		Bracket:   ansiWhite,
		Paren:     ansiWhite,
		Brace:     ansiWhite,
	}
}

// PrettyOptions configures the layout. Colors nil means plain text.
type PrettyOptions struct {
	Indent          int
	MaxInlineLength int
	CompactMaps     bool
	Colors          *ColorScheme
}

// DefaultPrettyOptions returns indent 2, inline limit 60, regular maps, no
// color.
func DefaultPrettyOptions() PrettyOptions {
	return PrettyOptions{Indent: 2, MaxInlineLength: 60}
}

// PrettyPrint writes the formatted rendering of v plus a trailing newline.
func PrettyPrint(w io.Writer, v Value, opts PrettyOptions) error {
	_, err := io.WriteString(w, PrettyString(v, opts))
	return err
}

// PrettyString renders like PrettyPrint and returns the text.
func PrettyString(v Value, opts PrettyOptions) string {
	var b strings.Builder
	p := &prettyPrinter{b: &b, opts: opts}
	p.printValue(v, false)
	b.WriteByte('\n')
	return b.String()
}

type prettyPrinter struct {
	b      *strings.Builder
	opts   PrettyOptions
	indent int
}

func (p *prettyPrinter) write(s string) { p.b.WriteString(s) }
func (p *prettyPrinter) newline()       { p.b.WriteByte('\n') }
func (p *prettyPrinter) pad()           { p.b.WriteString(strings.Repeat(" ", p.indent)) }

// delim writes a bracketing token in its color, if any.
func (p *prettyPrinter) delim(s, color string) {
	if p.opts.Colors != nil && color != "" {
		p.write(color)
		p.write(s)
		p.write(p.opts.Colors.Reset)
		return
	}
	p.write(s)
}

// writeInline renders v through plain Repr, wrapped in the color for its
// class.
func (p *prettyPrinter) writeInline(v Value) {
	p.delim(Repr(v), p.colorFor(v))
}

func (p *prettyPrinter) colorFor(v Value) string {
	c := p.opts.Colors
	if c == nil {
		return ""
	}
	switch v.Kind {
	case KindNil:
		return c.Nil
	case KindBool:
		return c.Boolean
	case KindInt, KindFloat:
		return c.Number
	case KindChar:
		return c.Character
	case KindString:
		return c.String
	case KindSymbol:
		return c.Symbol
	case KindKeyword:
		return c.Keyword
	default:
		return c.Reset
	}
}

// isSimpleValue reports a value that never forces a line break.
func isSimpleValue(v Value) bool {
	switch v.Kind {
	case KindVector, KindList, KindSet, KindMap:
		return false
	default:
		return true
	}
}

func allSimple(items []Value) bool {
	for _, it := range items {
		if !isSimpleValue(it) {
			return false
		}
	}
	return true
}

func (p *prettyPrinter) printValue(v Value, inlineMode bool) {
	colors := p.opts.Colors
	pick := func(f func(*ColorScheme) string) string {
		if colors == nil {
			return ""
		}
		return f(colors)
	}
	switch v.Kind {
	case KindVector:
		p.printSeq(v, "[", "]", pick(func(c *ColorScheme) string { return c.Bracket }), inlineMode)
	case KindList:
		p.printSeq(v, "(", ")", pick(func(c *ColorScheme) string { return c.Paren }), inlineMode)
	case KindSet:
		p.printSeq(v, "#{", "}", pick(func(c *ColorScheme) string { return c.Brace }), inlineMode)
	case KindMap:
		p.printMap(v, pick(func(c *ColorScheme) string { return c.Brace }), inlineMode)
	case KindTagged:
		t := v.Data.(Tagged)
		p.delim("#"+t.Tag, pick(func(c *ColorScheme) string { return c.Tag }))
		p.write(" ")
		p.printValue(t.Elem, inlineMode)
	case KindQuoted:
		p.delim("'", pick(func(c *ColorScheme) string { return c.Tag }))
		p.printValue(v.Data.(Value), inlineMode)
	default:
		p.writeInline(v)
	}
}

// printSeq lays out vectors, lists, and sets: inline when allowed (small and
// simple, or forced by the caller) and short enough, one element per
// indented line otherwise.
func (p *prettyPrinter) printSeq(v Value, open, close, color string, inlineMode bool) {
	items := v.Data.([]Value)
	p.delim(open, color)
	if len(items) == 0 {
		p.delim(close, color)
		return
	}
	shouldInline := inlineMode || (len(items) <= 3 && allSimple(items))
	if shouldInline && len(Repr(v)) < p.opts.MaxInlineLength {
		for i, it := range items {
			if i > 0 {
				p.write(" ")
			}
			p.writeInline(it)
		}
	} else {
		p.indent += p.opts.Indent
		for _, it := range items {
			p.newline()
			p.pad()
			p.printValue(it, false)
		}
		p.indent -= p.opts.Indent
		p.newline()
		p.pad()
	}
	p.delim(close, color)
}

// printMap keeps `key value` pairs on shared lines. Compact mode hugs the
// braces and uses a two-space hang; inline maps need compact mode, at most
// two simple pairs, and an inline-mode caller.
func (p *prettyPrinter) printMap(v Value, color string, inlineMode bool) {
	entries := v.Data.([]MapEntry)
	p.delim("{", color)
	if len(entries) == 0 {
		p.delim("}", color)
		return
	}
	simplePairs := true
	for _, e := range entries {
		if !isSimpleValue(e.Key) || !isSimpleValue(e.Val) {
			simplePairs = false
			break
		}
	}
	if p.opts.CompactMaps && inlineMode && len(entries) <= 2 && simplePairs {
		for i, e := range entries {
			if i > 0 {
				p.write(" ")
			}
			p.writeInline(e.Key)
			p.write(" ")
			p.writeInline(e.Val)
		}
		p.delim("}", color)
		return
	}
	inc := p.opts.Indent
	if p.opts.CompactMaps {
		inc = 2
	}
	p.indent += inc
	for i, e := range entries {
		if i == 0 && p.opts.CompactMaps {
			p.write(" ")
		} else {
			p.newline()
			p.pad()
		}
		p.printValue(e.Key, true)
		p.write(" ")
		p.printValue(e.Val, true)
	}
	p.indent -= inc
	p.newline()
	p.pad()
	p.delim("}", color)
}
