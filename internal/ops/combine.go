package ops

import (
	"context"
	"math"

	"github.com/seriesdb/formula/internal/series"
)

// Multi-series combinators. All of them align their inputs on the
// union of the input timestamps under each series' own fill policy
// and drop rows where a required contributor stays absent.

func registerCombine(r *Registry) {
	r.MustRegister(&Definition{
		Name: "add", MinArgs: 1, MaxArgs: -1, Commutative: true,
		Eval: rowReducer("add", func(row []float64) float64 {
			total := 0.0
			for _, v := range row {
				total += v
			}
			return total
		}),
	})
	r.MustRegister(&Definition{
		Name: "mul", MinArgs: 1, MaxArgs: -1, Commutative: true,
		Eval: rowReducer("mul", func(row []float64) float64 {
			product := 1.0
			for _, v := range row {
				product *= v
			}
			return product
		}),
	})
	r.MustRegister(&Definition{
		Name: "div", MinArgs: 2, MaxArgs: 2, Commutative: true,
		Eval: rowReducer("div", func(row []float64) float64 {
			return row[0] / row[1]
		}),
	})
	r.MustRegister(&Definition{
		Name: "min", MinArgs: 1, MaxArgs: -1, Commutative: true,
		Eval: rowReducer("min", func(row []float64) float64 {
			best := row[0]
			for _, v := range row[1:] {
				if v < best {
					best = v
				}
			}
			return best
		}),
	})
	r.MustRegister(&Definition{
		Name: "max", MinArgs: 1, MaxArgs: -1, Commutative: true,
		Eval: rowReducer("max", func(row []float64) float64 {
			best := row[0]
			for _, v := range row[1:] {
				if v > best {
					best = v
				}
			}
			return best
		}),
	})
	r.MustRegister(&Definition{
		Name: "std", MinArgs: 2, MaxArgs: -1,
		Kwargs: []KwargSpec{
			{Name: "skipna", Kind: KindBool, Default: Bool(true)},
		},
		// row-wise over the whole window; the staircase fast path
		// must not assume prefix stability here
		Commutative: false,
		Eval:        evalStd,
	})
	r.MustRegister(&Definition{
		Name: "row-mean", MinArgs: 1, MaxArgs: -1, Commutative: true,
		Kwargs: []KwargSpec{
			{Name: "skipna", Kind: KindBool, Default: Bool(true)},
		},
		Eval: evalRowMean,
	})
	r.MustRegister(&Definition{
		Name: "priority", MinArgs: 1, MaxArgs: -1, Commutative: true,
		Eval: evalPriority,
	})
}

func rowReducer(name string, fn func(row []float64) float64) func(context.Context, *Env) (Value, error) {
	return func(ctx context.Context, env *Env) (Value, error) {
		frame, err := alignArgs(env)
		if err != nil {
			return nil, err
		}
		return SeriesVal{S: frame.Reduce(name, fn)}, nil
	}
}

func alignArgs(env *Env) (*series.Frame, error) {
	inputs, err := env.gatherInputs()
	if err != nil {
		return nil, err
	}
	frame, err := series.Align(inputs)
	if err != nil {
		return nil, &TypeMismatchError{Op: env.Op, Msg: err.Error()}
	}
	return frame, nil
}

// evalStd computes the row-wise sample standard deviation. With
// skipna, rows keep partial input as long as two values remain;
// without, every input must contribute.
func evalStd(ctx context.Context, env *Env) (Value, error) {
	frame, err := alignArgs(env)
	if err != nil {
		return nil, err
	}
	skipna, _ := env.kwBool("skipna")

	if !skipna {
		return SeriesVal{S: frame.Reduce("std", sampleStd)}, nil
	}
	out := frame.ReducePartial("std", func(row []float64, present []bool) (float64, bool) {
		var vals []float64
		for i, p := range present {
			if p {
				vals = append(vals, row[i])
			}
		}
		if len(vals) < 2 {
			return 0, false
		}
		return sampleStd(vals), true
	})
	return SeriesVal{S: out}, nil
}

func sampleStd(vals []float64) float64 {
	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	acc := 0.0
	for _, v := range vals {
		acc += (v - mean) * (v - mean)
	}
	return math.Sqrt(acc / float64(len(vals)-1))
}

// evalRowMean computes the weighted row mean, honoring per-series
// #:weight declared on the series calls.
func evalRowMean(ctx context.Context, env *Env) (Value, error) {
	frame, err := alignArgs(env)
	if err != nil {
		return nil, err
	}
	skipna, _ := env.kwBool("skipna")

	mean := func(row []float64, present []bool) (float64, bool) {
		var sum, wsum float64
		n := 0
		for i, p := range present {
			if !p {
				continue
			}
			w := frame.Weights[i]
			sum += row[i] * w
			wsum += w
			n++
		}
		if n == 0 {
			return 0, false
		}
		if !skipna && n != len(present) {
			return 0, false
		}
		return sum / wsum, true
	}
	return SeriesVal{S: frame.ReducePartial("row-mean", mean)}, nil
}

// evalPriority picks, per union timestamp, the value of the first
// listed series holding one. Argument order is the precedence
// order; fill policies do not apply, the operator is itself a fill
// policy.
func evalPriority(ctx context.Context, env *Env) (Value, error) {
	inputs, err := env.gatherInputs()
	if err != nil {
		return nil, err
	}
	for i := range inputs {
		inputs[i].Fill = series.NoFill
	}
	frame, err := series.Align(inputs)
	if err != nil {
		return nil, &TypeMismatchError{Op: env.Op, Msg: err.Error()}
	}
	out := frame.ReducePartial("priority", func(row []float64, present []bool) (float64, bool) {
		for i, p := range present {
			if p {
				return row[i], true
			}
		}
		return 0, false
	})
	return SeriesVal{S: out}, nil
}
