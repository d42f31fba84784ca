package eval

import (
	"context"
	"fmt"
	"time"

	"github.com/seriesdb/formula/internal/lang"
	"github.com/seriesdb/formula/internal/ops"
	"github.com/seriesdb/formula/internal/series"
)

// Eligible reports whether a formula qualifies for the staircase
// fast path: every operator in its transitive closure (referenced
// sub-formulas included) is commutative, and every series fill is
// none or a constant. Forward and backward fill pull values across
// the splice point and disqualify.
func (e *Evaluator) Eligible(ctx context.Context, expr lang.Expr) (bool, error) {
	return e.eligible(ctx, expr, map[string]bool{})
}

func (e *Evaluator) eligible(ctx context.Context, expr lang.Expr, seen map[string]bool) (bool, error) {
	call, ok := expr.(*lang.Call)
	if !ok {
		return true, nil
	}
	def, err := e.Registry.Lookup(call.Op)
	if err != nil {
		return false, err
	}
	if !def.Commutative {
		return false, nil
	}

	if call.Op == ops.SeriesOp {
		if fill := call.Kwarg("fill"); fill != nil {
			switch fill.(type) {
			case lang.Number, lang.Float:
				// constant fill keeps rows independent
			default:
				return false, nil
			}
		}
		if name, ok := call.Args[0].(lang.String); ok && e.Resolver != nil && !seen[string(name)] {
			seen[string(name)] = true
			text, isFormula, err := e.Resolver.Formula(ctx, string(name))
			if err != nil {
				return false, err
			}
			if isFormula {
				sub, err := lang.Parse(text)
				if err != nil {
					return false, err
				}
				if ok, err := e.eligible(ctx, sub, seen); !ok || err != nil {
					return false, err
				}
			}
		}
	}

	for _, arg := range call.Args {
		if ok, err := e.eligible(ctx, arg, seen); !ok || err != nil {
			return false, err
		}
	}
	for _, kw := range call.Kwargs {
		if ok, err := e.eligible(ctx, kw.Value, seen); !ok || err != nil {
			return false, err
		}
	}
	return true, nil
}

// Staircase evaluates a registered formula as of each snapshot
// insertion date, in the order given. Eligible formulas go through
// the incremental path; the rest recompute fully per snapshot. Both
// paths produce identical results wherever defined.
func (e *Evaluator) Staircase(ctx context.Context, name string, snapshots []time.Time, w ops.Window) ([]*series.Series, error) {
	if e.Resolver == nil {
		return nil, fmt.Errorf("staircase needs a formula resolver")
	}
	text, isFormula, err := e.Resolver.Formula(ctx, name)
	if err != nil {
		return nil, err
	}
	if !isFormula {
		return nil, &ops.MissingSeriesError{Name: name}
	}
	expr, err := lang.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("stored formula `%s`: %w", name, err)
	}
	if err := Check(expr, e.Registry); err != nil {
		return nil, err
	}

	fast, err := e.Eligible(ctx, expr)
	if err != nil {
		return nil, err
	}
	if fast {
		return e.fastStaircase(ctx, name, expr, snapshots, w)
	}

	results := make([]*series.Series, 0, len(snapshots))
	for _, snap := range snapshots {
		sw := w
		sw.Revision = snap
		s, err := e.Evaluate(ctx, expr, sw)
		if err != nil {
			return nil, err
		}
		s.Name = name
		results = append(results, s)
	}
	return results, nil
}

// fastStaircase reuses, per successive snapshot, the prefix of the
// previous result up to the first timestamp where any raw
// dependency's revision diverged, recomputing only the suffix.
// Legal because every operator in the closure produces its value at
// t from inputs at t alone (commutative, no spanning fills).
func (e *Evaluator) fastStaircase(ctx context.Context, name string, expr lang.Expr, snapshots []time.Time, w ops.Window) ([]*series.Series, error) {
	results := make([]*series.Series, 0, len(snapshots))
	var prev *series.Series
	var prevFetched map[string]*series.Series

	for i, snap := range snapshots {
		sw := w
		sw.Revision = snap

		if i == 0 {
			req := newRequest(e, sw)
			s, err := req.evalToSeries(ctx, expr)
			if err != nil {
				return nil, err
			}
			s.Name = name
			results = append(results, s)
			prev, prevFetched = s, req.fetched
			continue
		}

		// probe every raw dependency at the new revision and find
		// the earliest divergence from the previous snapshot
		fetched := make(map[string]*series.Series, len(prevFetched))
		var cut time.Time
		diverged := false
		for dep, old := range prevFetched {
			cur, err := e.Provider.Get(ctx, dep, snap)
			if err != nil {
				return nil, err
			}
			fetched[dep] = cur.Clone()
			if at, changed := firstDivergence(old, cur); changed {
				if !diverged || at.Before(cut) {
					cut = at
					diverged = true
				}
			}
		}

		if !diverged || (!w.To.IsZero() && cut.After(w.To)) {
			// nothing new inside the window: the previous answer
			// stands as-is
			out := prev.Clone()
			results = append(results, out)
			prev, prevFetched = out, fetched
			continue
		}
		if !w.From.IsZero() && cut.Before(w.From) {
			cut = w.From
		}

		// recompute from the cut on, seeding the request with the
		// probed series so nothing is fetched twice
		sufw := sw
		sufw.From = cut
		req := newRequest(e, sufw)
		for dep, cur := range fetched {
			req.fetched[dep] = cur.Clone()
			sliced := cur.Slice(sufw.From, sufw.To)
			sliced.Name = dep
			req.cache[dep] = sliced
		}
		suffix, err := req.evalToSeries(ctx, expr)
		if err != nil {
			return nil, err
		}

		out := splice(name, prev, suffix, cut)
		results = append(results, out)
		prev, prevFetched = out, fetched
	}
	return results, nil
}

// firstDivergence returns the earliest timestamp at which two
// revisions of one series differ, comparing point by point.
func firstDivergence(old, cur *series.Series) (time.Time, bool) {
	n := old.Len()
	if cur.Len() < n {
		n = cur.Len()
	}
	for i := 0; i < n; i++ {
		if !old.Times[i].Equal(cur.Times[i]) {
			at := old.Times[i]
			if cur.Times[i].Before(at) {
				at = cur.Times[i]
			}
			return at, true
		}
		if old.Values[i] != cur.Values[i] {
			return old.Times[i], true
		}
	}
	if old.Len() > n {
		return old.Times[n], true
	}
	if cur.Len() > n {
		return cur.Times[n], true
	}
	return time.Time{}, false
}

// splice joins prev's points strictly before cut with the
// recomputed suffix.
func splice(name string, prev, suffix *series.Series, cut time.Time) *series.Series {
	out := series.Empty(name, suffix.TZAware)
	for i, t := range prev.Times {
		if !t.Before(cut) {
			break
		}
		out.Times = append(out.Times, t)
		out.Values = append(out.Values, prev.Values[i])
	}
	out.Times = append(out.Times, suffix.Times...)
	out.Values = append(out.Values, suffix.Values...)
	return out
}
