// pretty_test.go
package edn

import (
	"strings"
	"testing"
)

// ---- helpers ----

func wantPretty(t *testing.T, v Value, opts PrettyOptions, want string) {
	t.Helper()
	if got := PrettyString(v, opts); got != want {
		t.Fatalf("pretty mismatch\n--- want ---\n%q\n--- got ---\n%q", want, got)
	}
}

// ---- tests ----

func Test_Pretty_Scalars_Inline(t *testing.T) {
	opts := DefaultPrettyOptions()
	wantPretty(t, Int(42), opts, "42\n")
	wantPretty(t, String("hi"), opts, "\"hi\"\n")
	wantPretty(t, Keyword("k"), opts, ":k\n")
	wantPretty(t, Nil(), opts, "nil\n")
}

func Test_Pretty_Small_Simple_Collections_Stay_Inline(t *testing.T) {
	opts := DefaultPrettyOptions()
	wantPretty(t, Vector(Int(1), Int(2), Int(3)), opts, "[1 2 3]\n")
	wantPretty(t, List(Symbol("a"), Symbol("b")), opts, "(a b)\n")
	wantPretty(t, Set(Int(1), Int(2)), opts, "#{1 2}\n")
}

func Test_Pretty_Empty_Collections(t *testing.T) {
	opts := DefaultPrettyOptions()
	wantPretty(t, Vector(), opts, "[]\n")
	wantPretty(t, List(), opts, "()\n")
	wantPretty(t, Set(), opts, "#{}\n")
	wantPretty(t, Map(), opts, "{}\n")
}

func Test_Pretty_Large_Sequence_Breaks_Per_Element(t *testing.T) {
	opts := DefaultPrettyOptions()
	v := Vector(Int(1), Int(2), Int(3), Int(4))
	wantPretty(t, v, opts, "[\n  1\n  2\n  3\n  4\n]\n")

	s := Set(Int(1), Int(2), Int(3), Int(4))
	wantPretty(t, s, opts, "#{\n  1\n  2\n  3\n  4\n}\n")
}

func Test_Pretty_MaxInlineLength_Forces_Break(t *testing.T) {
	opts := DefaultPrettyOptions()
	opts.MaxInlineLength = 5
	wantPretty(t, Vector(Int(1), Int(2), Int(3)), opts, "[\n  1\n  2\n  3\n]\n")
}

func Test_Pretty_Nested_Sequences_Inline_Inner(t *testing.T) {
	opts := DefaultPrettyOptions()
	v := Vector(Vector(Int(1), Int(2)), Vector(Int(3), Int(4)))
	wantPretty(t, v, opts, "[\n  [1 2]\n  [3 4]\n]\n")
}

func Test_Pretty_Map_Default_Layout(t *testing.T) {
	opts := DefaultPrettyOptions()
	m := Map(Keyword("a"), Int(1), Keyword("b"), Int(2))
	wantPretty(t, m, opts, "{\n  :a 1\n  :b 2\n}\n")
}

func Test_Pretty_Map_Values_Render_Inline(t *testing.T) {
	opts := DefaultPrettyOptions()
	m := Map(Keyword("xs"), Vector(Int(1), Int(2), Int(3), Int(4)))
	wantPretty(t, m, opts, "{\n  :xs [1 2 3 4]\n}\n")
}

func Test_Pretty_Compact_Maps_Hug_The_Brace(t *testing.T) {
	opts := DefaultPrettyOptions()
	opts.CompactMaps = true
	m := Map(Keyword("a"), Int(1), Keyword("b"), Int(2))
	wantPretty(t, m, opts, "{ :a 1\n  :b 2\n}\n")
}

func Test_Pretty_Compact_Nested_Map_Inlines(t *testing.T) {
	opts := DefaultPrettyOptions()
	opts.CompactMaps = true
	m := Map(Keyword("cfg"), Map(Keyword("x"), Int(1)))
	wantPretty(t, m, opts, "{ :cfg {:x 1}\n}\n")
}

func Test_Pretty_Indent_Width_Is_Configurable(t *testing.T) {
	opts := DefaultPrettyOptions()
	opts.Indent = 4
	v := Vector(Int(1), Int(2), Int(3), Int(4))
	wantPretty(t, v, opts, "[\n    1\n    2\n    3\n    4\n]\n")
}

func Test_Pretty_Tagged_And_Quoted(t *testing.T) {
	opts := DefaultPrettyOptions()
	wantPretty(t, Tag("inst", String("2024-01-01T00:00:00Z")), opts, "#inst \"2024-01-01T00:00:00Z\"\n")
	wantPretty(t, Quote(Symbol("x")), opts, "'x\n")
}

func Test_Pretty_Colors_Wrap_Values(t *testing.T) {
	opts := DefaultPrettyOptions()
	opts.Colors = DefaultColorScheme()

	out := PrettyString(Int(42), opts)
	if !strings.Contains(out, "\x1b[36m42\x1b[0m") {
		t.Fatalf("number not colorized: %q", out)
	}

	out = PrettyString(Keyword("k"), opts)
	if !strings.Contains(out, "\x1b[35m:k\x1b[0m") {
		t.Fatalf("keyword not colorized: %q", out)
	}

	out = PrettyString(Vector(Int(1)), opts)
	if !strings.HasPrefix(out, "\x1b[37m[\x1b[0m") {
		t.Fatalf("bracket not colorized: %q", out)
	}
}

func Test_Pretty_Plain_Output_Has_No_Escapes(t *testing.T) {
	opts := DefaultPrettyOptions()
	out := PrettyString(Vector(Int(1), String("x")), opts)
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("uncolored output contains ANSI escapes: %q", out)
	}
}

func Test_Pretty_Always_Ends_With_Newline(t *testing.T) {
	opts := DefaultPrettyOptions()
	for _, v := range []Value{Int(1), Vector(Int(1), Int(2), Int(3), Int(4)), Map(Keyword("a"), Int(1))} {
		if out := PrettyString(v, opts); !strings.HasSuffix(out, "\n") {
			t.Fatalf("missing trailing newline: %q", out)
		}
	}
}

func Test_Pretty_PrettyPrint_Writes_Same_Text(t *testing.T) {
	opts := DefaultPrettyOptions()
	v := Map(Keyword("a"), Vector(Int(1), Int(2)))
	var sb strings.Builder
	if err := PrettyPrint(&sb, v, opts); err != nil {
		t.Fatalf("PrettyPrint error: %v", err)
	}
	if sb.String() != PrettyString(v, opts) {
		t.Fatalf("writer and string renderings differ:\n%q\n%q", sb.String(), PrettyString(v, opts))
	}
}
