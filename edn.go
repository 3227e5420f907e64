// Package edn is a parser, an immutable value model, and a small
// interpreter for EDN (extensible data notation).
//
// The layers stack strictly:
//
//   - value.go holds the closed Value type with its constructors,
//     accessors, equality, and total ordering
//   - lexer.go and parser.go turn source text into values, reporting
//     positioned errors and flagging truncated input for REPL use
//   - printer.go renders values back to parseable text; pretty.go adds a
//     width-aware, colorizable layout
//   - interpreter.go evaluates values as a minimal Lisp with lexical
//     scoping, immutable bindings, and native function registration
//   - codec.go bridges Go structs and edn values by reflection
//
// Lower layers never import the ones above them; the evaluator and the
// codec consume only the public value surface.
package edn

// Version is the library version, printed by the edn command.
const Version = "0.3.1"
