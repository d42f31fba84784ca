package deps

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seriesdb/formula/internal/lang"
	"github.com/seriesdb/formula/internal/store"
)

func newTracker(t *testing.T) (*Tracker, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewTracker(s), s
}

func register(t *testing.T, tr *Tracker, name, text string) error {
	t.Helper()
	expr, err := lang.Parse(text)
	require.NoError(t, err)
	return tr.Register(context.Background(), name, text, expr, nil)
}

func TestExtractReferences(t *testing.T) {
	expr, err := lang.Parse(`(add (series "b") (* 2 (series "a")) (priority (series "b") (series "c" #:fill "ffill")))`)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, ExtractReferences(expr))
}

func TestExtractReferences_NoSeries(t *testing.T) {
	expr, err := lang.Parse(`(+ 1 2)`)
	require.NoError(t, err)
	assert.Empty(t, ExtractReferences(expr))
}

func TestRegister_CreatesEdgesAndPrimaries(t *testing.T) {
	tr, s := newTracker(t)
	ctx := context.Background()

	require.NoError(t, register(t, tr, "f", `(add (series "a") (series "b"))`))

	deps, err := tr.Dependencies(ctx, "f")
	require.NoError(t, err)
	require.Len(t, deps, 2)
	assert.Equal(t, "a", deps[0].Name)
	assert.Equal(t, store.KindPrimary, deps[0].Kind)

	back, err := tr.Dependents(ctx, "a")
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, "f", back[0].Name)

	n, err := s.Node(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, store.KindFormula, n.Kind)
}

func TestRegister_ReplacesEdges(t *testing.T) {
	tr, s := newTracker(t)
	ctx := context.Background()

	require.NoError(t, register(t, tr, "f", `(add (series "a") (series "b"))`))
	require.NoError(t, register(t, tr, "f", `(series "c")`))

	deps, err := tr.Dependencies(ctx, "f")
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, "c", deps[0].Name)

	n, err := s.EdgeCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRegister_FormulaOverFormula(t *testing.T) {
	tr, _ := newTracker(t)
	ctx := context.Background()

	require.NoError(t, register(t, tr, "base", `(series "raw")`))
	require.NoError(t, register(t, tr, "derived", `(* 2 (series "base"))`))

	deps, err := tr.Dependencies(ctx, "derived")
	require.NoError(t, err)
	require.Len(t, deps, 1)
	// referencing an existing formula must not demote it to primary
	assert.Equal(t, store.KindFormula, deps[0].Kind)
}

func TestRegister_SelfReferenceRejected(t *testing.T) {
	tr, s := newTracker(t)
	ctx := context.Background()

	err := register(t, tr, "x", `(* 2 (series "x"))`)
	require.Error(t, err)
	assert.True(t, IsCycle(err))

	var ce *CyclicDependencyError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"x", "x"}, ce.Path)

	// rollback: nothing registered, no edges
	_, err = s.Node(ctx, "x")
	assert.True(t, store.IsNotFound(err))
	n, err := s.EdgeCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRegister_TransitiveCycleRejected(t *testing.T) {
	tr, s := newTracker(t)
	ctx := context.Background()

	require.NoError(t, register(t, tr, "a", `(series "b")`))
	require.NoError(t, register(t, tr, "b", `(series "c")`))

	before, err := s.EdgeCount(ctx)
	require.NoError(t, err)

	err = register(t, tr, "c", `(series "a")`)
	require.Error(t, err)
	assert.True(t, IsCycle(err))

	var ce *CyclicDependencyError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "c", ce.Name)
	assert.Len(t, ce.Path, 4)
	assert.Equal(t, ce.Path[0], ce.Path[len(ce.Path)-1])

	// the failed registration left the graph untouched
	after, err := s.EdgeCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// "c" keeps its pre-registration primary kind
	n, err := s.Node(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, store.KindPrimary, n.Kind)
}

func TestRegister_DiamondIsAcyclic(t *testing.T) {
	tr, _ := newTracker(t)

	require.NoError(t, register(t, tr, "left", `(series "base")`))
	require.NoError(t, register(t, tr, "right", `(* 2 (series "base"))`))
	require.NoError(t, register(t, tr, "top", `(add (series "left") (series "right"))`))
}

func TestDeleteNode_CascadesEdges(t *testing.T) {
	tr, s := newTracker(t)
	ctx := context.Background()

	require.NoError(t, register(t, tr, "f", `(add (series "a") (series "b"))`))
	require.NoError(t, s.DeleteNode(ctx, "f"))

	n, err := s.EdgeCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	// the primaries it referenced survive
	_, err = s.Node(ctx, "a")
	require.NoError(t, err)
}
