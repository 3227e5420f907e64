package edn

import (
	"strconv"
	"strings"
)

// Repr renders v in machine-readable EDN syntax: strings quoted and
// escaped, characters through the whitespace-name table, keywords with a
// leading colon. Parsing the result yields an equal value (callables
// excepted; they have no literal syntax).
func Repr(v Value) string {
	var b strings.Builder
	writeRepr(&b, v)
	return b.String()
}

// Str renders v for humans: a string prints unquoted, a character prints as
// its raw rune, everything else matches Repr.
func Str(v Value) string {
	switch v.Kind {
	case KindString:
		return v.Data.(string)
	case KindChar:
		return string(v.Data.(rune))
	default:
		return Repr(v)
	}
}

// String implements fmt.Stringer as the Repr form.
func (v Value) String() string { return Repr(v) }

func writeRepr(b *strings.Builder, v Value) {
	switch v.Kind {
	case KindNil:
		b.WriteString("nil")
	case KindBool:
		b.WriteString(strconv.FormatBool(v.Data.(bool)))
	case KindInt:
		b.WriteString(strconv.FormatInt(int64(v.Data.(int32)), 10))
	case KindFloat:
		b.WriteString(formatFloat(v.Data.(float64)))
	case KindChar:
		b.WriteByte('\\')
		r := v.Data.(rune)
		if name, ok := runeNames[r]; ok {
			b.WriteString(name)
		} else {
			b.WriteRune(r)
		}
	case KindString:
		b.WriteString(quoteString(v.Data.(string)))
	case KindSymbol:
		b.WriteString(v.Data.(string))
	case KindKeyword:
		b.WriteByte(':')
		b.WriteString(v.Data.(string))
	case KindVector:
		writeSeq(b, "[", "]", v.Data.([]Value))
	case KindList:
		writeSeq(b, "(", ")", v.Data.([]Value))
	case KindSet:
		writeSeq(b, "#{", "}", v.Data.([]Value))
	case KindMap:
		b.WriteByte('{')
		for i, e := range v.Data.([]MapEntry) {
			if i > 0 {
				b.WriteString(", ")
			}
			writeRepr(b, e.Key)
			b.WriteByte(' ')
			writeRepr(b, e.Val)
		}
		b.WriteByte('}')
	case KindTagged:
		t := v.Data.(Tagged)
		b.WriteByte('#')
		b.WriteString(t.Tag)
		b.WriteByte(' ')
		writeRepr(b, t.Elem)
	case KindQuoted:
		b.WriteByte('\'')
		writeRepr(b, v.Data.(Value))
	default: // KindCallable
		b.WriteString("<< callable >>")
	}
}

func writeSeq(b *strings.Builder, open, close string, xs []Value) {
	b.WriteString(open)
	for i, x := range xs {
		if i > 0 {
			b.WriteByte(' ')
		}
		writeRepr(b, x)
	}
	b.WriteString(close)
}

// formatFloat keeps a decimal point (or exponent) in the output so the text
// reads back as a float, not an integer.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// quoteString escapes exactly the set the parser resolves, so quoted output
// round-trips.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
