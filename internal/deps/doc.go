// Package deps maintains the formula dependency graph.
//
// Every registered formula gets one edge per series it references,
// nested references included. The graph is kept acyclic: a
// registration that would close a cycle is rejected inside its own
// transaction, leaving the stored graph untouched.
package deps
