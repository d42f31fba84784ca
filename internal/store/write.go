package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// EnsureNode inserts a registry row if the name is new and returns
// its id. An existing row keeps its id, kind and text (first
// reference of a raw series must not demote a formula).
func EnsureNode(ctx context.Context, tx *sql.Tx, name, kind string) (int64, error) {
	name = NormalizeName(name)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO registry (name, kind) VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, kind)
	if err != nil {
		return 0, fmt.Errorf("ensure node %q: %w", name, err)
	}
	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM registry WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("ensure node %q: %w", name, err)
	}
	return id, nil
}

// UpsertFormula writes a formula node's text and metadata, creating
// the row when needed, and returns its id.
func UpsertFormula(ctx context.Context, tx *sql.Tx, name, text string, meta Metadata) (int64, error) {
	name = NormalizeName(name)
	rawMeta, err := marshalMetadata(meta)
	if err != nil {
		return 0, err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO registry (name, kind, text, metadata)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE
		SET kind = excluded.kind, text = excluded.text, metadata = excluded.metadata
	`, name, KindFormula, text, rawMeta)
	if err != nil {
		return 0, fmt.Errorf("upsert formula %q: %w", name, err)
	}
	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM registry WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("upsert formula %q: %w", name, err)
	}
	return id, nil
}

// ReplaceEdges swaps a formula's whole edge set: remove-all then
// insert, inside the caller's transaction.
func ReplaceEdges(ctx context.Context, tx *sql.Tx, sid int64, needs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM dependent WHERE sid = ?`, sid); err != nil {
		return fmt.Errorf("clear edges: %w", err)
	}
	for _, need := range needs {
		// the unique constraint collapses duplicate references
		_, err := tx.ExecContext(ctx, `
			INSERT INTO dependent (sid, needs) VALUES (?, ?)
			ON CONFLICT DO NOTHING
		`, sid, need)
		if err != nil {
			return fmt.Errorf("insert edge %d->%d: %w", sid, need, err)
		}
	}
	return nil
}

// Edges loads the whole dependency graph as adjacency lists, for
// in-transaction acyclicity validation.
func Edges(ctx context.Context, tx *sql.Tx) (map[int64][]int64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT sid, needs FROM dependent`)
	if err != nil {
		return nil, fmt.Errorf("load edges: %w", err)
	}
	defer rows.Close()

	graph := make(map[int64][]int64)
	for rows.Next() {
		var sid, needs int64
		if err := rows.Scan(&sid, &needs); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		graph[sid] = append(graph[sid], needs)
	}
	return graph, rows.Err()
}

// NodeName resolves a registry id to its name inside the caller's
// transaction, so uncommitted rows resolve too.
func NodeName(ctx context.Context, tx *sql.Tx, id int64) (string, error) {
	var name string
	if err := tx.QueryRowContext(ctx, `SELECT name FROM registry WHERE id = ?`, id).Scan(&name); err != nil {
		return "", fmt.Errorf("resolve node %d: %w", id, err)
	}
	return name, nil
}

// DeleteNode removes a registry row; foreign keys cascade every
// edge where it appears as either endpoint.
func (s *Store) DeleteNode(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM registry WHERE name = ?`, NormalizeName(name))
	if err != nil {
		return fmt.Errorf("delete node %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// NodeID resolves a name to its registry id inside the caller's
// transaction, ErrNotFound when absent.
func NodeID(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM registry WHERE name = ?`,
		NormalizeName(name)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("resolve node %q: %w", name, err)
	}
	return id, nil
}

// RenameNode renames a registry row inside the caller's
// transaction, keeping its id and edges.
func RenameNode(ctx context.Context, tx *sql.Tx, oldname, newname string) error {
	res, err := tx.ExecContext(ctx, `UPDATE registry SET name = ? WHERE name = ?`,
		NormalizeName(newname), NormalizeName(oldname))
	if err != nil {
		return fmt.Errorf("rename node %q: %w", oldname, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateFormulaText rewrites a stored formula's text inside the
// caller's transaction, used when a renamed dependency forces
// rewriting its dependents.
func UpdateFormulaText(ctx context.Context, tx *sql.Tx, name, text string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE registry SET text = ? WHERE name = ? AND kind = ?
	`, text, NormalizeName(name), KindFormula)
	if err != nil {
		return fmt.Errorf("update formula text %q: %w", name, err)
	}
	return nil
}

// UpsertGroupFormula writes a group formula template.
func (s *Store) UpsertGroupFormula(ctx context.Context, name, text string, meta Metadata) (int64, error) {
	name = NormalizeName(name)
	rawMeta, err := marshalMetadata(meta)
	if err != nil {
		return 0, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO group_formula (name, text, metadata) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET text = excluded.text, metadata = excluded.metadata
	`, name, text, rawMeta)
	if err != nil {
		return 0, fmt.Errorf("upsert group formula %q: %w", name, err)
	}
	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM group_formula WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// UpsertGroupBinding writes a binding for a group name.
func (s *Store) UpsertGroupBinding(ctx context.Context, groupname, seriesname string, binding Binding, meta Metadata) (int64, error) {
	groupname = NormalizeName(groupname)
	rawBinding, err := marshalBinding(binding)
	if err != nil {
		return 0, err
	}
	rawMeta, err := marshalMetadata(meta)
	if err != nil {
		return 0, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO group_binding (groupname, seriesname, binding, metadata)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(groupname) DO UPDATE
		SET seriesname = excluded.seriesname, binding = excluded.binding, metadata = excluded.metadata
	`, groupname, NormalizeName(seriesname), rawBinding, rawMeta)
	if err != nil {
		return 0, fmt.Errorf("upsert group binding %q: %w", groupname, err)
	}
	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM group_binding WHERE groupname = ?`, groupname).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// DeleteGroupFormula removes a template by name.
func (s *Store) DeleteGroupFormula(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM group_formula WHERE name = ?`, NormalizeName(name))
	if err != nil {
		return fmt.Errorf("delete group formula %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// IsNotFound reports whether err is the registry miss sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
