package ops

import (
	"context"
	"time"

	"github.com/seriesdb/formula/internal/series"
)

// Single-series shaping operators: clip, slice, resample.

func registerShape(r *Registry) {
	r.MustRegister(&Definition{
		Name: "clip", MinArgs: 1, MaxArgs: 1, Commutative: true,
		Kwargs: []KwargSpec{
			{Name: "min", Kind: KindNumber},
			{Name: "max", Kind: KindNumber},
		},
		Eval: evalClip,
	})
	r.MustRegister(&Definition{
		Name: "slice", MinArgs: 1, MaxArgs: 1, Commutative: true,
		Kwargs: []KwargSpec{
			{Name: "fromdate", Kind: KindTime},
			{Name: "todate", Kind: KindTime},
		},
		Eval: evalSlice,
	})
	r.MustRegister(&Definition{
		Name: "resample", MinArgs: 2, MaxArgs: 3,
		// a bucket stamped at its start aggregates values observed
		// later inside the bucket
		Commutative: false,
		Eval:        evalResample,
	})
}

// evalClip clamps values into [min, max]. Out-of-bound values are
// replaced by the bound, not dropped.
func evalClip(ctx context.Context, env *Env) (Value, error) {
	sv, err := env.argSeries(0)
	if err != nil {
		return nil, err
	}
	lo, hasLo := env.kwNumber("min")
	hi, hasHi := env.kwNumber("max")
	out := sv.S.Map(func(v float64) float64 {
		if hasLo && v < lo {
			return lo
		}
		if hasHi && v > hi {
			return hi
		}
		return v
	})
	return SeriesVal{S: out}, nil
}

// evalSlice restricts a series to the closed window
// [fromdate, todate]; either bound optional and open when absent or
// nil. Bounds must match the series' timezone-awareness.
func evalSlice(ctx context.Context, env *Env) (Value, error) {
	sv, err := env.argSeries(0)
	if err != nil {
		return nil, err
	}
	from, err := sliceBound(env, sv, "fromdate")
	if err != nil {
		return nil, err
	}
	to, err := sliceBound(env, sv, "todate")
	if err != nil {
		return nil, err
	}
	return SeriesVal{S: sv.S.Slice(from, to)}, nil
}

func sliceBound(env *Env, sv SeriesVal, name string) (time.Time, error) {
	bound, ok := env.kwTime(name)
	if !ok {
		return time.Time{}, nil
	}
	if bound.Aware != sv.S.TZAware {
		return time.Time{}, &TypeMismatchError{
			Op:  env.Op,
			Msg: "#:" + name + " timezone-awareness does not match the series",
		}
	}
	return bound.T, nil
}

func evalResample(ctx context.Context, env *Env) (Value, error) {
	sv, err := env.argSeries(0)
	if err != nil {
		return nil, err
	}
	freq, err := env.argString(1)
	if err != nil {
		return nil, err
	}
	method := series.AggMean
	if len(env.Args) == 3 {
		if method, err = env.argString(2); err != nil {
			return nil, err
		}
	}
	out, err := series.Resample(sv.S, freq, method)
	if err != nil {
		return nil, &TypeMismatchError{Op: env.Op, Msg: err.Error()}
	}
	return SeriesVal{S: out}, nil
}
