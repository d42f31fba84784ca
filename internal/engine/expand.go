package engine

import (
	"context"

	"github.com/seriesdb/formula/internal/lang"
)

// expand inlines every series reference naming a registered formula
// into the referencing tree, recursively. Names in stop are left as
// references; raw series always stay references. The input tree is
// not modified.
func (e *Engine) expand(ctx context.Context, expr lang.Expr, stop map[string]bool) (lang.Expr, error) {
	call, ok := expr.(*lang.Call)
	if !ok {
		return expr, nil
	}

	if call.Op == "series" && len(call.Args) > 0 {
		name, ok := call.Args[0].(lang.String)
		if ok && !stop[string(name)] {
			text, isFormula, err := e.Formula(ctx, string(name))
			if err != nil {
				return nil, err
			}
			if isFormula {
				sub, err := lang.Parse(text)
				if err != nil {
					return nil, err
				}
				return e.expand(ctx, sub, stop)
			}
		}
		return call, nil
	}

	out := &lang.Call{Op: call.Op}
	for _, arg := range call.Args {
		ex, err := e.expand(ctx, arg, stop)
		if err != nil {
			return nil, err
		}
		out.Args = append(out.Args, ex)
	}
	for _, kw := range call.Kwargs {
		ex, err := e.expand(ctx, kw.Value, stop)
		if err != nil {
			return nil, err
		}
		out.Kwargs = append(out.Kwargs, lang.Kwarg{Name: kw.Name, Value: ex})
	}
	return out, nil
}

// ExpandedFormula returns the named formula with referenced
// sub-formulas inlined into one tree. Names in stopnames stay as
// series references.
func (e *Engine) ExpandedFormula(ctx context.Context, name string, stopnames ...string) (string, error) {
	text, isFormula, err := e.Formula(ctx, name)
	if err != nil {
		return "", err
	}
	if !isFormula {
		return "", errNotAFormula(name)
	}
	expr, err := lang.Parse(text)
	if err != nil {
		return "", err
	}
	stop := make(map[string]bool, len(stopnames))
	for _, s := range stopnames {
		stop[s] = true
	}
	expanded, err := e.expand(ctx, expr, stop)
	if err != nil {
		return "", err
	}
	return lang.Render(expanded), nil
}
