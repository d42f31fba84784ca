package ops

import (
	"fmt"

	"github.com/seriesdb/formula/internal/series"
)

// Argument coercion helpers. Positions in error messages are
// one-based to match how formula authors count.

func (env *Env) argSeries(i int) (SeriesVal, error) {
	sv, ok := env.Args[i].(SeriesVal)
	if !ok {
		return SeriesVal{}, &TypeMismatchError{
			Op: env.Op, What: fmt.Sprintf("argument %d", i+1),
			Want: KindSeries, Got: KindOf(env.Args[i]),
		}
	}
	return sv, nil
}

func (env *Env) argNumber(i int) (float64, error) {
	n, ok := env.Args[i].(Number)
	if !ok {
		return 0, &TypeMismatchError{
			Op: env.Op, What: fmt.Sprintf("argument %d", i+1),
			Want: KindNumber, Got: KindOf(env.Args[i]),
		}
	}
	return float64(n), nil
}

func (env *Env) argString(i int) (string, error) {
	s, ok := env.Args[i].(Str)
	if !ok {
		return "", &TypeMismatchError{
			Op: env.Op, What: fmt.Sprintf("argument %d", i+1),
			Want: KindString, Got: KindOf(env.Args[i]),
		}
	}
	return string(s), nil
}

// kwNumber returns (value, present). Nil counts as absent.
func (env *Env) kwNumber(name string) (float64, bool) {
	v, ok := env.Kwargs[name]
	if !ok {
		return 0, false
	}
	if n, isNum := v.(Number); isNum {
		return float64(n), true
	}
	return 0, false
}

func (env *Env) kwString(name string) (string, bool) {
	v, ok := env.Kwargs[name]
	if !ok {
		return "", false
	}
	if s, isStr := v.(Str); isStr {
		return string(s), true
	}
	return "", false
}

func (env *Env) kwBool(name string) (bool, bool) {
	v, ok := env.Kwargs[name]
	if !ok {
		return false, false
	}
	if b, isBool := v.(Bool); isBool {
		return bool(b), true
	}
	return false, false
}

func (env *Env) kwTime(name string) (Time, bool) {
	v, ok := env.Kwargs[name]
	if !ok {
		return Time{}, false
	}
	if t, isTime := v.(Time); isTime {
		return t, true
	}
	return Time{}, false
}

// gatherInputs converts every positional argument into an alignment
// input, carrying each series' declared fill and weight.
func (env *Env) gatherInputs() ([]series.Input, error) {
	inputs := make([]series.Input, 0, len(env.Args))
	for i := range env.Args {
		sv, err := env.argSeries(i)
		if err != nil {
			return nil, err
		}
		fill := series.NoFill
		if sv.HasFill {
			fill = sv.Fill
		}
		inputs = append(inputs, series.Input{S: sv.S, Fill: fill, Weight: sv.Weight})
	}
	return inputs, nil
}
