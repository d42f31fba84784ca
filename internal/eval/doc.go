// Package eval walks formula expression trees and produces series.
//
// Evaluation is a pure computation over immutable inputs: the tree,
// a frozen operator registry and a snapshot-consistent series
// provider. Any number of evaluations may run concurrently.
//
// A request-scoped cache keyed by series name guarantees that a
// formula referenced several times inside one evaluation (diamond
// dependencies) is computed once. A visited set along the recursion
// catches referencing cycles that slipped past registration-time
// checks instead of overflowing the stack.
//
// The staircase path serves "the series as it looked as of each of
// several insertion dates". When the formula's whole operator
// closure is order-insensitive to later inputs, successive
// snapshots reuse the unchanged prefix of the previous one; the
// fallback recomputes fully per snapshot and agrees exactly with
// the fast path wherever both are defined.
package eval
