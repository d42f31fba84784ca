// Package store provides durable storage for the formula registry:
// named nodes (raw series and formulas), their dependency edges,
// and group formulas with their bindings.
//
// Backed by SQLite with WAL mode for concurrent read access. All
// graph mutations run inside transactions so that acyclicity
// validation and edge replacement commit atomically.
package store
