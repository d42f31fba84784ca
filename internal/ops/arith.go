package ops

import (
	"context"
)

// Scalar arithmetic: two operands, each a number or a series. Two
// numbers reduce to a number; a number against a series applies
// element-wise with the index unchanged. Two series must go through
// the aligning combinators (add, mul, div) instead.

func registerArith(r *Registry) {
	for _, op := range []struct {
		name string
		fn   func(a, b float64) float64
	}{
		{"*", func(a, b float64) float64 { return a * b }},
		{"+", func(a, b float64) float64 { return a + b }},
		{"/", func(a, b float64) float64 { return a / b }},
	} {
		fn := op.fn
		r.MustRegister(&Definition{
			Name:        op.name,
			MinArgs:     2,
			MaxArgs:     2,
			Commutative: true,
			Eval: func(ctx context.Context, env *Env) (Value, error) {
				return evalScalarOp(env, fn)
			},
		})
	}
}

func evalScalarOp(env *Env, fn func(a, b float64) float64) (Value, error) {
	left, right := env.Args[0], env.Args[1]

	ln, lIsNum := left.(Number)
	rn, rIsNum := right.(Number)
	if lIsNum && rIsNum {
		return Number(fn(float64(ln), float64(rn))), nil
	}

	if lIsNum {
		sv, err := env.argSeries(1)
		if err != nil {
			return nil, err
		}
		out := sv.S.Map(func(v float64) float64 { return fn(float64(ln), v) })
		return SeriesVal{S: out}, nil
	}
	if rIsNum {
		sv, err := env.argSeries(0)
		if err != nil {
			return nil, err
		}
		out := sv.S.Map(func(v float64) float64 { return fn(v, float64(rn)) })
		return SeriesVal{S: out}, nil
	}

	return nil, &TypeMismatchError{
		Op:  env.Op,
		Msg: "takes a number and a series (or two numbers); use add/mul/div to combine series",
	}
}
