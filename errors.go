// errors.go: user-facing error wrapping and caret-snippet rendering
//
// Turns parse diagnostics into readable snippets with a caret pointing at
// the offending column:
//
//	PARSE ERROR in config.edn at 3:12: unterminated vector
//
//	   2 | {:name "box"
//	   3 |  :dims [1 2
//	     |        ^
//	   4 | }
//
// The snippet shows up to one line of context before and after, numbers the
// lines, and places the caret under the 1-based column. Errors that carry
// no source location (evaluation errors, io errors) pass through unchanged.
package edn

import (
	"errors"
	"fmt"
	"strings"
)

// WrapErrorWithSource augments a parse error with a caret-annotated snippet
// of src. Any other error is returned as-is.
func WrapErrorWithSource(err error, src string) error {
	return WrapErrorWithName(err, "", src)
}

// WrapErrorWithName is WrapErrorWithSource with a source label (usually a
// file name) in the header.
func WrapErrorWithName(err error, srcName, src string) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		return fmt.Errorf("%s", snippetString(src, srcName, pe.Line+1, pe.Col+1, pe.Msg))
	}
	return err
}

// snippetString builds the snippet. Coordinates are 1-based here and
// clamped to the source bounds so rendering never fails.
func snippetString(src, name string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	if line > len(lines) {
		line = len(lines)
	}

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "PARSE ERROR in %s at %d:%d: %s\n\n", name, line, col, msg)
	} else {
		fmt.Fprintf(&b, "PARSE ERROR at %d:%d: %s\n\n", line, col, msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lines[line-1])
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
