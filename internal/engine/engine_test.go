package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seriesdb/formula/internal/deps"
	"github.com/seriesdb/formula/internal/lang"
	"github.com/seriesdb/formula/internal/ops"
	"github.com/seriesdb/formula/internal/series"
	"github.com/seriesdb/formula/internal/store"
	"github.com/seriesdb/formula/internal/testutil"
)

func day(n int) time.Time {
	return time.Date(2026, 1, n, 0, 0, 0, 0, time.UTC)
}

func newEngine(t *testing.T) (*Engine, *testutil.MemoryProvider) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	provider := testutil.NewMemoryProvider()
	return New(s, provider), provider
}

func insert(t *testing.T, p *testutil.MemoryProvider, name string, asOf time.Time, points map[int]float64) {
	t.Helper()
	days := make([]int, 0, len(points))
	for d := range points {
		days = append(days, d)
	}
	// map iteration order does not matter, series.New wants sorted
	for i := 0; i < len(days); i++ {
		for j := i + 1; j < len(days); j++ {
			if days[j] < days[i] {
				days[i], days[j] = days[j], days[i]
			}
		}
	}
	times := make([]time.Time, len(days))
	values := make([]float64, len(days))
	for i, d := range days {
		times[i] = day(d)
		values[i] = points[d]
	}
	s, err := series.New(name, times, values, true)
	require.NoError(t, err)
	p.Insert(name, asOf, s)
}

func TestRegister_StoresCanonicalText(t *testing.T) {
	e, p := newEngine(t)
	ctx := context.Background()
	insert(t, p, "a", day(1), map[int]float64{1: 1})

	id, err := e.Register(ctx, "double", `( *   2 (series "a" ) )`, RegisterOptions{})
	require.NoError(t, err)
	assert.Positive(t, id)

	text, isFormula, err := e.Formula(ctx, "double")
	require.NoError(t, err)
	require.True(t, isFormula)
	assert.Equal(t, `(* 2 (series "a"))`, text)
}

func TestRegister_SyntaxError(t *testing.T) {
	e, _ := newEngine(t)

	_, err := e.Register(context.Background(), "bad", `(add (series "a")`, RegisterOptions{})
	var syn *lang.SyntaxError
	assert.ErrorAs(t, err, &syn)
}

func TestRegister_OperatorChecks(t *testing.T) {
	e, p := newEngine(t)
	ctx := context.Background()
	insert(t, p, "a", day(1), map[int]float64{1: 1})

	_, err := e.Register(ctx, "bad", `(frobnicate (series "a"))`, RegisterOptions{})
	var unknown *ops.UnknownOperatorError
	assert.ErrorAs(t, err, &unknown)

	_, err = e.Register(ctx, "bad", `(series "a" #:fil "ffill")`, RegisterOptions{})
	var kw *ops.UnknownKeywordError
	assert.ErrorAs(t, err, &kw)
}

func TestRegister_RejectsNonSeries(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	for _, text := range []string{
		`(+ 1 2)`,
		`(today)`,
		`(timedelta (today) #:days 1)`,
	} {
		_, err := e.Register(ctx, "scalar", text, RegisterOptions{AllowUnknown: true})
		var notSeries *NotSeriesError
		assert.ErrorAs(t, err, &notSeries, "text %s", text)
	}
}

func TestRegister_UnknownSeries(t *testing.T) {
	e, p := newEngine(t)
	ctx := context.Background()
	insert(t, p, "known", day(1), map[int]float64{1: 1})

	_, err := e.Register(ctx, "f", `(add (series "known") (series "ghost"))`, RegisterOptions{})
	var unknown *UnknownSeriesError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"ghost"}, unknown.Names)

	// override registers anyway
	_, err = e.Register(ctx, "f", `(add (series "known") (series "ghost"))`,
		RegisterOptions{AllowUnknown: true})
	require.NoError(t, err)

	// a registered formula satisfies the check for its dependents
	_, err = e.Register(ctx, "g", `(* 2 (series "f"))`, RegisterOptions{})
	require.NoError(t, err)
}

func TestRegister_CycleRejected(t *testing.T) {
	e, p := newEngine(t)
	ctx := context.Background()
	insert(t, p, "raw", day(1), map[int]float64{1: 1})

	_, err := e.Register(ctx, "a", `(* 2 (series "b"))`, RegisterOptions{AllowUnknown: true})
	require.NoError(t, err)
	_, err = e.Register(ctx, "b", `(* 2 (series "a"))`, RegisterOptions{})
	assert.True(t, deps.IsCycle(err))
}

func TestEvaluate_ByNameAndByText(t *testing.T) {
	e, p := newEngine(t)
	ctx := context.Background()
	insert(t, p, "a", day(1), map[int]float64{1: 1, 2: 2})

	_, err := e.Register(ctx, "double", `(* 2 (series "a"))`, RegisterOptions{})
	require.NoError(t, err)

	byName, err := e.Evaluate(ctx, "double", ops.Window{})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, byName.Values)

	byText, err := e.Evaluate(ctx, `(* 2 (series "a"))`, ops.Window{})
	require.NoError(t, err)
	assert.Equal(t, byName.Values, byText.Values)

	// a raw series name evaluates as itself
	raw, err := e.Evaluate(ctx, "a", ops.Window{})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, raw.Values)
}

func TestEvaluate_MissingSeriesKeepsType(t *testing.T) {
	e, _ := newEngine(t)

	_, err := e.Evaluate(context.Background(), `(series "ghost")`, ops.Window{})
	assert.True(t, ops.IsMissingSeries(err))
}

func TestStaircaseEvaluate(t *testing.T) {
	e, p := newEngine(t)
	ctx := context.Background()
	insert(t, p, "a", day(10), map[int]float64{1: 1, 2: 2})
	insert(t, p, "a", day(20), map[int]float64{1: 1, 2: 2, 3: 3})

	_, err := e.Register(ctx, "double", `(* 2 (series "a"))`, RegisterOptions{})
	require.NoError(t, err)

	out, err := e.StaircaseEvaluate(ctx, "double", []time.Time{day(10), day(20)}, ops.Window{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []float64{2, 4}, out[0].Values)
	assert.Equal(t, []float64{2, 4, 6}, out[1].Values)
}

func TestContentHash_TracksExpansion(t *testing.T) {
	e, p := newEngine(t)
	ctx := context.Background()
	insert(t, p, "a", day(1), map[int]float64{1: 1})
	insert(t, p, "b", day(1), map[int]float64{1: 2})

	_, err := e.Register(ctx, "base", `(series "a")`, RegisterOptions{})
	require.NoError(t, err)
	_, err = e.Register(ctx, "top", `(* 2 (series "base"))`, RegisterOptions{})
	require.NoError(t, err)

	first, err := e.ContentHash(ctx, "top")
	require.NoError(t, err)
	require.Len(t, first, 40)

	// re-registering top over a changed base changes its hash
	_, err = e.Register(ctx, "base", `(series "b")`, RegisterOptions{})
	require.NoError(t, err)
	_, err = e.Register(ctx, "top", `(* 2 (series "base"))`, RegisterOptions{})
	require.NoError(t, err)

	second, err := e.ContentHash(ctx, "top")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestExpandedFormula(t *testing.T) {
	e, p := newEngine(t)
	ctx := context.Background()
	insert(t, p, "a", day(1), map[int]float64{1: 1})
	insert(t, p, "b", day(1), map[int]float64{1: 2})

	_, err := e.Register(ctx, "base", `(add (series "a") (series "b"))`, RegisterOptions{})
	require.NoError(t, err)
	_, err = e.Register(ctx, "top", `(* 2 (series "base"))`, RegisterOptions{})
	require.NoError(t, err)

	expanded, err := e.ExpandedFormula(ctx, "top")
	require.NoError(t, err)
	assert.Equal(t, `(* 2 (add (series "a") (series "b")))`, expanded)

	// stopnames pin a reference unexpanded
	stopped, err := e.ExpandedFormula(ctx, "top", "base")
	require.NoError(t, err)
	assert.Equal(t, `(* 2 (series "base"))`, stopped)

	_, err = e.ExpandedFormula(ctx, "a")
	assert.Error(t, err)
}

func TestRename_RewritesDependents(t *testing.T) {
	e, p := newEngine(t)
	ctx := context.Background()
	insert(t, p, "old", day(1), map[int]float64{1: 1, 2: 2})

	_, err := e.Register(ctx, "double", `(* 2 (series "old"))`, RegisterOptions{})
	require.NoError(t, err)

	require.NoError(t, e.Rename(ctx, "old", "new"))

	text, _, err := e.Formula(ctx, "double")
	require.NoError(t, err)
	assert.Equal(t, `(* 2 (series "new"))`, text)

	// edges follow the renamed node
	back, err := e.Dependents(ctx, "new")
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, "double", back[0].Name)

	// the provider still stores the old name; evaluation needs the
	// data moved too, which is the provider's business
	insert(t, p, "new", day(1), map[int]float64{1: 1, 2: 2})
	out, err := e.Evaluate(ctx, "double", ops.Window{})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, out.Values)
}

func TestRename_RejectsReferencedTarget(t *testing.T) {
	e, p := newEngine(t)
	ctx := context.Background()
	insert(t, p, "a", day(1), map[int]float64{1: 1})
	insert(t, p, "b", day(1), map[int]float64{1: 2})

	_, err := e.Register(ctx, "f", `(* 2 (series "b"))`, RegisterOptions{})
	require.NoError(t, err)

	err = e.Rename(ctx, "a", "b")
	var ref *AlreadyReferencedError
	require.ErrorAs(t, err, &ref)
	assert.Equal(t, []string{"f"}, ref.By)
}

func TestRename_ExistingTargetNode_LeavesDependentsUntouched(t *testing.T) {
	e, p := newEngine(t)
	ctx := context.Background()
	insert(t, p, "a", day(1), map[int]float64{1: 1})
	insert(t, p, "c", day(1), map[int]float64{1: 2})

	_, err := e.Register(ctx, "dep", `(* 2 (series "a"))`, RegisterOptions{})
	require.NoError(t, err)
	// a registered formula over "c" gives it a registry node with no
	// dependents, so only the node-exists check can refuse the rename
	_, err = e.Register(ctx, "other", `(* 3 (series "c"))`, RegisterOptions{})
	require.NoError(t, err)
	require.NoError(t, e.Delete(ctx, "other"))

	err = e.Rename(ctx, "a", "c")
	require.Error(t, err)

	// the failed rename must not have rewritten the dependent
	text, _, err := e.Formula(ctx, "dep")
	require.NoError(t, err)
	assert.Equal(t, `(* 2 (series "a"))`, text)

	// nor renamed the node
	back, err := e.Dependents(ctx, "a")
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, "dep", back[0].Name)
}

func TestDelete_DependentsFailAtEval(t *testing.T) {
	e, p := newEngine(t)
	ctx := context.Background()
	insert(t, p, "a", day(1), map[int]float64{1: 1})

	_, err := e.Register(ctx, "base", `(* 2 (series "a"))`, RegisterOptions{})
	require.NoError(t, err)
	_, err = e.Register(ctx, "top", `(* 2 (series "base"))`, RegisterOptions{})
	require.NoError(t, err)

	require.NoError(t, e.Delete(ctx, "base"))

	ok, err := e.Exists(ctx, "base")
	require.NoError(t, err)
	assert.False(t, ok)

	// top survives textually and now misses its input
	_, err = e.Evaluate(ctx, "top", ops.Window{})
	assert.True(t, ops.IsMissingSeries(err))
}

func TestList_FormulasOnly(t *testing.T) {
	e, p := newEngine(t)
	ctx := context.Background()
	insert(t, p, "a", day(1), map[int]float64{1: 1})

	_, err := e.Register(ctx, "fb", `(* 2 (series "a"))`, RegisterOptions{})
	require.NoError(t, err)
	_, err = e.Register(ctx, "fa", `(* 3 (series "a"))`, RegisterOptions{})
	require.NoError(t, err)

	nodes, err := e.List(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "fa", nodes[0].Name)
	assert.Equal(t, "fb", nodes[1].Name)
}
