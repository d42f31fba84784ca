package eval

import (
	"github.com/seriesdb/formula/internal/lang"
	"github.com/seriesdb/formula/internal/ops"
)

// Check statically validates every call in a tree against the
// registry: the operator must exist, the positional arity must fit
// its bounds and every keyword name must belong to its schema.
// Evaluation fails fast here before touching any series; keyword
// value kinds are operator-specific and checked during evaluation.
func Check(expr lang.Expr, reg *ops.Registry) error {
	call, ok := expr.(*lang.Call)
	if !ok {
		return nil
	}
	def, err := reg.Lookup(call.Op)
	if err != nil {
		return err
	}
	keywords := make([]string, len(call.Kwargs))
	for i, kw := range call.Kwargs {
		keywords[i] = kw.Name
	}
	if err := def.CheckCall(len(call.Args), keywords); err != nil {
		return err
	}
	for _, arg := range call.Args {
		if err := Check(arg, reg); err != nil {
			return err
		}
	}
	for _, kw := range call.Kwargs {
		if err := Check(kw.Value, reg); err != nil {
			return err
		}
	}
	return nil
}
