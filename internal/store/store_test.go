package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM registry").Scan(&count); err != nil {
		t.Errorf("query failed: %v", err)
	}
}

func TestEnsureNode_KeepsExistingRow(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	first, err := EnsureNode(ctx, tx, "gas-spot", KindPrimary)
	if err != nil {
		t.Fatalf("EnsureNode() failed: %v", err)
	}
	second, err := EnsureNode(ctx, tx, "gas-spot", KindPrimary)
	if err != nil {
		t.Fatalf("second EnsureNode() failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}

	if first != second {
		t.Errorf("ids differ: %d != %d", first, second)
	}
}

func TestUpsertFormula_RoundTrip(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	id, err := UpsertFormula(ctx, tx, "double", `(* 2 (series "base"))`, Metadata{"tzaware": true})
	if err != nil {
		t.Fatalf("UpsertFormula() failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}

	n, err := s.Node(ctx, "double")
	if err != nil {
		t.Fatalf("Node() failed: %v", err)
	}
	if n.ID != id || n.Kind != KindFormula {
		t.Errorf("node = %+v", n)
	}
	if n.Text != `(* 2 (series "base"))` {
		t.Errorf("text = %q", n.Text)
	}
	if aware, ok := n.Metadata["tzaware"].(bool); !ok || !aware {
		t.Errorf("metadata = %#v", n.Metadata)
	}

	// re-registering keeps the id stable
	tx, _ = s.Begin(ctx)
	id2, err := UpsertFormula(ctx, tx, "double", `(* 3 (series "base"))`, nil)
	if err != nil {
		t.Fatalf("re-UpsertFormula() failed: %v", err)
	}
	tx.Commit()
	if id2 != id {
		t.Errorf("id changed on re-register: %d != %d", id2, id)
	}
}

func TestReplaceEdges_DeduplicatesAndCascades(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	tx, _ := s.Begin(ctx)
	fid, _ := UpsertFormula(ctx, tx, "f", `(add (series "a") (series "a"))`, nil)
	aid, _ := EnsureNode(ctx, tx, "a", KindPrimary)
	if err := ReplaceEdges(ctx, tx, fid, []int64{aid, aid}); err != nil {
		t.Fatalf("ReplaceEdges() failed: %v", err)
	}
	tx.Commit()

	n, err := s.EdgeCount(ctx)
	if err != nil {
		t.Fatalf("EdgeCount() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("edges = %d, want 1 (duplicate reference collapses)", n)
	}

	// deleting the endpoint cascades the edge
	if err := s.DeleteNode(ctx, "a"); err != nil {
		t.Fatalf("DeleteNode() failed: %v", err)
	}
	if n, _ = s.EdgeCount(ctx); n != 0 {
		t.Errorf("edges after cascade = %d, want 0", n)
	}
}

func TestDependents_Dependencies(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	tx, _ := s.Begin(ctx)
	fid, _ := UpsertFormula(ctx, tx, "f", `(add (series "a") (series "b"))`, nil)
	aid, _ := EnsureNode(ctx, tx, "a", KindPrimary)
	bid, _ := EnsureNode(ctx, tx, "b", KindPrimary)
	ReplaceEdges(ctx, tx, fid, []int64{aid, bid})
	tx.Commit()

	deps, err := s.Dependencies(ctx, "f")
	if err != nil {
		t.Fatalf("Dependencies() failed: %v", err)
	}
	if len(deps) != 2 || deps[0].Name != "a" || deps[1].Name != "b" {
		t.Errorf("dependencies = %v", deps)
	}

	whoNeedsA, err := s.Dependents(ctx, "a")
	if err != nil {
		t.Fatalf("Dependents() failed: %v", err)
	}
	if len(whoNeedsA) != 1 || whoNeedsA[0].Name != "f" {
		t.Errorf("dependents = %v", whoNeedsA)
	}
}

func TestRenameNode(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	tx, _ := s.Begin(ctx)
	id, _ := EnsureNode(ctx, tx, "old", KindPrimary)
	tx.Commit()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	if err := RenameNode(ctx, tx, "old", "new"); err != nil {
		t.Fatalf("RenameNode() failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}

	n, err := s.Node(ctx, "new")
	if err != nil {
		t.Fatalf("Node(new) failed: %v", err)
	}
	if n.ID != id {
		t.Errorf("id changed on rename")
	}
	if _, err := s.Node(ctx, "old"); !IsNotFound(err) {
		t.Errorf("old name still resolves: %v", err)
	}

	tx, _ = s.Begin(ctx)
	if err := RenameNode(ctx, tx, "gone", "x"); !IsNotFound(err) {
		t.Errorf("renaming a missing node: %v", err)
	}
	tx.Rollback()
}

func TestNodeID(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	tx, _ := s.Begin(ctx)
	want, _ := EnsureNode(ctx, tx, "a", KindPrimary)
	got, err := NodeID(ctx, tx, "a")
	if err != nil {
		t.Fatalf("NodeID() failed: %v", err)
	}
	if got != want {
		t.Errorf("NodeID() = %d, want %d", got, want)
	}
	if _, err := NodeID(ctx, tx, "missing"); !IsNotFound(err) {
		t.Errorf("missing name: %v", err)
	}
	tx.Commit()
}

func TestGroupFormulaAndBinding(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	_, err := s.UpsertGroupFormula(ctx, "by-zone", `(add (series ":zone-a") (series ":zone-b"))`, nil)
	if err != nil {
		t.Fatalf("UpsertGroupFormula() failed: %v", err)
	}
	g, err := s.GroupFormula(ctx, "by-zone")
	if err != nil {
		t.Fatalf("GroupFormula() failed: %v", err)
	}
	if g.Text == "" {
		t.Error("empty template text")
	}

	_, err = s.UpsertGroupBinding(ctx, "france", "by-zone",
		Binding{":zone-a": "fr-north", ":zone-b": "fr-south"}, nil)
	if err != nil {
		t.Fatalf("UpsertGroupBinding() failed: %v", err)
	}
	b, err := s.GroupBinding(ctx, "france")
	if err != nil {
		t.Fatalf("GroupBinding() failed: %v", err)
	}
	if b.SeriesName != "by-zone" || b.Binding[":zone-a"] != "fr-north" {
		t.Errorf("binding = %+v", b)
	}

	if _, err := s.GroupBinding(ctx, "mars"); !IsNotFound(err) {
		t.Errorf("missing binding: %v", err)
	}
}

func TestNormalizeName_NFC(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	// e + combining acute composes to the same row as precomposed é
	tx, _ := s.Begin(ctx)
	id1, _ := EnsureNode(ctx, tx, "caf\u00e9", KindPrimary)
	id2, _ := EnsureNode(ctx, tx, "cafe\u0301", KindPrimary)
	tx.Commit()

	if id1 != id2 {
		t.Errorf("NFC-equal names produced distinct rows: %d != %d", id1, id2)
	}
}
