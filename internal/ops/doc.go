// Package ops defines the operator registry and the stock operator
// set of the formula language.
//
// A Registry maps operator names to typed definitions: positional
// arity, keyword schema with defaults, a commutativity flag and an
// evaluation function. It is the single extension point for adding
// operators; parser and evaluator never change. Registries freeze
// after initialization and are then safe for any number of
// concurrent readers.
//
// The package also carries the evaluation error taxonomy shared
// with the evaluator, since operators raise most of it.
package ops
