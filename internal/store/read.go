package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound reports a missing registry row.
var ErrNotFound = errors.New("not found in registry")

// Node is one registry row.
type Node struct {
	ID       int64
	Name     string
	Kind     string
	Text     string // empty for primary nodes
	Metadata Metadata
}

// Node fetches a registry row by name.
func (s *Store) Node(ctx context.Context, name string) (*Node, error) {
	return s.scanNode(s.db.QueryRowContext(ctx, `
		SELECT id, name, kind, COALESCE(text, ''), metadata
		FROM registry WHERE name = ?
	`, NormalizeName(name)))
}

// NodeByID fetches a registry row by id.
func (s *Store) NodeByID(ctx context.Context, id int64) (*Node, error) {
	return s.scanNode(s.db.QueryRowContext(ctx, `
		SELECT id, name, kind, COALESCE(text, ''), metadata
		FROM registry WHERE id = ?
	`, id))
}

func (s *Store) scanNode(row *sql.Row) (*Node, error) {
	var n Node
	var rawMeta string
	err := row.Scan(&n.ID, &n.Name, &n.Kind, &n.Text, &rawMeta)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read node: %w", err)
	}
	if n.Metadata, err = unmarshalMetadata(rawMeta); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListNodes returns all nodes of a kind ("" for every kind),
// ordered by name.
func (s *Store) ListNodes(ctx context.Context, kind string) ([]*Node, error) {
	query := `
		SELECT id, name, kind, COALESCE(text, ''), metadata
		FROM registry`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// Dependents returns the nodes directly needing the named node:
// the formulas to invalidate when it changes.
func (s *Store) Dependents(ctx context.Context, name string) ([]*Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.name, f.kind, COALESCE(f.text, ''), f.metadata
		FROM registry AS f
		JOIN dependent AS d ON d.sid = f.id
		JOIN registry AS target ON d.needs = target.id
		WHERE target.name = ?
		ORDER BY f.name
	`, NormalizeName(name))
	if err != nil {
		return nil, fmt.Errorf("dependents: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// Dependencies returns the nodes the named formula directly needs.
func (s *Store) Dependencies(ctx context.Context, name string) ([]*Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT target.id, target.name, target.kind, COALESCE(target.text, ''), target.metadata
		FROM registry AS target
		JOIN dependent AS d ON d.needs = target.id
		JOIN registry AS f ON d.sid = f.id
		WHERE f.name = ?
		ORDER BY target.name
	`, NormalizeName(name))
	if err != nil {
		return nil, fmt.Errorf("dependencies: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

func scanNodes(rows *sql.Rows) ([]*Node, error) {
	var nodes []*Node
	for rows.Next() {
		var n Node
		var rawMeta string
		if err := rows.Scan(&n.ID, &n.Name, &n.Kind, &n.Text, &rawMeta); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		meta, err := unmarshalMetadata(rawMeta)
		if err != nil {
			return nil, err
		}
		n.Metadata = meta
		nodes = append(nodes, &n)
	}
	return nodes, rows.Err()
}

// EdgeCount reports the total number of dependency edges; tests use
// it to verify cascades and failed-registration rollbacks.
func (s *Store) EdgeCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dependent`).Scan(&n)
	return n, err
}

// GroupFormulaRow is one group formula template.
type GroupFormulaRow struct {
	ID       int64
	Name     string
	Text     string
	Metadata Metadata
}

// GroupFormula fetches a group formula by name.
func (s *Store) GroupFormula(ctx context.Context, name string) (*GroupFormulaRow, error) {
	var g GroupFormulaRow
	var rawMeta string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, text, metadata FROM group_formula WHERE name = ?
	`, NormalizeName(name)).Scan(&g.ID, &g.Name, &g.Text, &rawMeta)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read group formula: %w", err)
	}
	if g.Metadata, err = unmarshalMetadata(rawMeta); err != nil {
		return nil, err
	}
	return &g, nil
}

// GroupBindingRow maps a group name to a concrete series and the
// slot-filling document.
type GroupBindingRow struct {
	ID         int64
	GroupName  string
	SeriesName string
	Binding    Binding
	Metadata   Metadata
}

// GroupBinding fetches a binding by group name.
func (s *Store) GroupBinding(ctx context.Context, groupname string) (*GroupBindingRow, error) {
	var b GroupBindingRow
	var rawBinding, rawMeta string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, groupname, seriesname, binding, metadata
		FROM group_binding WHERE groupname = ?
	`, NormalizeName(groupname)).Scan(&b.ID, &b.GroupName, &b.SeriesName, &rawBinding, &rawMeta)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read group binding: %w", err)
	}
	if b.Binding, err = unmarshalBinding(rawBinding); err != nil {
		return nil, err
	}
	if b.Metadata, err = unmarshalMetadata(rawMeta); err != nil {
		return nil, err
	}
	return &b, nil
}
