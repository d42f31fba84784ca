package eval

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/seriesdb/formula/internal/lang"
	"github.com/seriesdb/formula/internal/ops"
	"github.com/seriesdb/formula/internal/series"
)

// Provider is the external series storage capability. Get returns
// the series as of the given revision (zero means latest) and a
// *ops.MissingSeriesError when the name does not resolve.
type Provider interface {
	Get(ctx context.Context, name string, asOf time.Time) (*series.Series, error)
	Exists(ctx context.Context, name string) (bool, error)
}

// Resolver maps a name to the stored text of a registered formula.
// The bool result is false when the name is not a formula (a raw
// series, or unknown).
type Resolver interface {
	Formula(ctx context.Context, name string) (string, bool, error)
}

// EvalCycleError reports a referencing cycle hit during evaluation.
// Registration-time acyclicity should prevent this; the runtime
// check is defense in depth against concurrent graph mutation.
type EvalCycleError struct {
	Name string
}

func (e *EvalCycleError) Error() string {
	return fmt.Sprintf("evaluation cycle through `%s`", e.Name)
}

// Evaluator evaluates expression trees against a provider. It holds
// no per-request state and is safe for concurrent use.
type Evaluator struct {
	Registry *ops.Registry
	Provider Provider
	// Resolver recursively expands series references that name
	// registered formulas. Optional: nil treats every reference as a
	// raw series.
	Resolver Resolver
}

// Evaluate runs one expression to a series under the given window.
func (e *Evaluator) Evaluate(ctx context.Context, expr lang.Expr, w ops.Window) (*series.Series, error) {
	if err := Check(expr, e.Registry); err != nil {
		return nil, err
	}
	req := newRequest(e, w)
	s, err := req.evalToSeries(ctx, expr)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", req.id, err)
	}
	return s, nil
}

// request is the per-evaluation state: the request id, the window,
// the result cache and the cycle-detection set.
type request struct {
	eval     *Evaluator
	id       string
	window   ops.Window
	cache    map[string]*series.Series
	visiting map[string]bool
	// fetched records raw provider reads; the staircase fast path
	// uses it to locate revision divergence points.
	fetched map[string]*series.Series
}

func newRequest(e *Evaluator, w ops.Window) *request {
	return &request{
		eval:     e,
		id:       uuid.NewString(),
		window:   w,
		cache:    make(map[string]*series.Series),
		visiting: make(map[string]bool),
		fetched:  make(map[string]*series.Series),
	}
}

func (r *request) evalToSeries(ctx context.Context, expr lang.Expr) (*series.Series, error) {
	val, err := r.evalExpr(ctx, expr)
	if err != nil {
		return nil, err
	}
	sv, ok := val.(ops.SeriesVal)
	if !ok {
		return nil, &ops.TypeMismatchError{
			Op:  "formula",
			Msg: fmt.Sprintf("must produce a series, got %s", ops.KindOf(val)),
		}
	}
	return sv.S, nil
}

func (r *request) evalExpr(ctx context.Context, expr lang.Expr) (ops.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch v := expr.(type) {
	case lang.Number:
		return ops.Number(v), nil
	case lang.Float:
		return ops.Number(v), nil
	case lang.String:
		return ops.Str(v), nil
	case lang.Bool:
		return ops.Bool(v), nil
	case lang.Nil:
		return ops.Nil{}, nil
	case lang.Symbol:
		return nil, &ops.TypeMismatchError{
			Op: "formula", Msg: fmt.Sprintf("unbound symbol `%s`", v),
		}
	case *lang.Call:
		return r.evalCall(ctx, v)
	}
	return nil, fmt.Errorf("unhandled expression %T", expr)
}

// evalCall applies one operator. Arity and keyword names were
// validated up front by Check; keyword value kinds are checked here
// once values exist. All children evaluate before the operator
// function runs; there is no short-circuiting.
func (r *request) evalCall(ctx context.Context, call *lang.Call) (ops.Value, error) {
	def, err := r.eval.Registry.Lookup(call.Op)
	if err != nil {
		return nil, err
	}

	args := make([]ops.Value, len(call.Args))
	for i, argExpr := range call.Args {
		if args[i], err = r.evalExpr(ctx, argExpr); err != nil {
			return nil, err
		}
	}
	given := make(map[string]ops.Value, len(call.Kwargs))
	for _, kw := range call.Kwargs {
		val, err := r.evalExpr(ctx, kw.Value)
		if err != nil {
			return nil, err
		}
		given[kw.Name] = val
	}
	kwargs, err := def.BindKwargs(given)
	if err != nil {
		return nil, err
	}

	env := &ops.Env{
		Op:     call.Op,
		Args:   args,
		Kwargs: kwargs,
		Source: r,
	}
	return def.Eval(ctx, env)
}

// Fetch implements ops.Source: resolve a name to a series, going
// through the formula resolver first so that formulas referencing
// formulas evaluate by nested descent. Results are cached for the
// life of the request.
func (r *request) Fetch(ctx context.Context, name string) (*series.Series, error) {
	if s, ok := r.cache[name]; ok {
		return s.Clone(), nil
	}
	if r.visiting[name] {
		return nil, &EvalCycleError{Name: name}
	}

	if r.eval.Resolver != nil {
		text, isFormula, err := r.eval.Resolver.Formula(ctx, name)
		if err != nil {
			return nil, err
		}
		if isFormula {
			expr, err := lang.Parse(text)
			if err != nil {
				return nil, fmt.Errorf("stored formula `%s`: %w", name, err)
			}
			// stored text was validated at registration, but the
			// active registry may have drifted since then
			if err := Check(expr, r.eval.Registry); err != nil {
				return nil, fmt.Errorf("stored formula `%s`: %w", name, err)
			}
			r.visiting[name] = true
			s, err := r.evalToSeries(ctx, expr)
			delete(r.visiting, name)
			if err != nil {
				return nil, err
			}
			s.Name = name
			r.cache[name] = s
			return s.Clone(), nil
		}
	}

	s, err := r.eval.Provider.Get(ctx, name, r.window.Revision)
	if err != nil {
		if ops.IsMissingSeries(err) || ctx.Err() != nil {
			return nil, err
		}
		// a lookup that cannot complete surfaces as missing, never
		// as a hang or a crash
		return nil, &ops.MissingSeriesError{Name: name, Cause: err}
	}
	r.fetched[name] = s.Clone()
	s = s.Slice(r.window.From, r.window.To)
	s.Name = name
	r.cache[name] = s
	return s.Clone(), nil
}
