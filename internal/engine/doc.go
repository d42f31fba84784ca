// Package engine is the public surface of the formula system: it
// ties the parser, the operator registry, the evaluator and the
// persisted dependency graph into registration, evaluation and
// lifecycle operations on named formulas.
package engine
