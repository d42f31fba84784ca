// Package lang implements the formula language: a small lisp-like
// expression grammar, its abstract syntax tree, and the canonical
// text rendering.
//
// A formula is an s-expression such as:
//
//	(add (series "gas-spot" #:fill "ffill") (* 2 (series "gas-fwd")))
//
// Calls open with an operator name, take positional arguments until
// the first #:keyword marker, and keyword/value pairs after it.
// Literals are integers, floats, double-quoted strings, the booleans
// #t and #f, and nil.
//
// Parsing is total and deterministic: the same text always yields a
// structurally identical tree, and Render is its exact inverse
// (parse-render-parse is the identity).
package lang
