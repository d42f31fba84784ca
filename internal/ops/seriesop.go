package ops

import (
	"context"

	"github.com/seriesdb/formula/internal/series"
)

// SeriesOp is the reserved operator resolving a stored series or a
// registered formula by name.
const SeriesOp = "series"

func registerSeries(r *Registry) {
	r.MustRegister(&Definition{
		Name:    SeriesOp,
		MinArgs: 1,
		MaxArgs: 1,
		Kwargs: []KwargSpec{
			{Name: "fill", Kind: KindAny},
			{Name: "weight", Kind: KindNumber},
		},
		Commutative: true,
		Eval:        evalSeries,
	})
}

func evalSeries(ctx context.Context, env *Env) (Value, error) {
	name, err := env.argString(0)
	if err != nil {
		return nil, err
	}
	s, err := env.Source.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}

	sv := SeriesVal{S: s}
	if raw, ok := env.Kwargs["fill"]; ok {
		fill, err := series.ParseFill(rawValue(raw))
		if err != nil {
			return nil, &TypeMismatchError{Op: env.Op, Msg: err.Error()}
		}
		sv.Fill = fill
		sv.HasFill = true
	}
	if w, ok := env.kwNumber("weight"); ok {
		sv.Weight = w
	}
	return sv, nil
}

// rawValue lowers a Value to the plain Go type series.ParseFill
// understands.
func rawValue(v Value) any {
	switch val := v.(type) {
	case Number:
		return float64(val)
	case Str:
		return string(val)
	case Bool:
		return bool(val)
	}
	return v
}
