package series

import (
	"fmt"

	"github.com/pkg/errors"
)

// FillKind selects the policy for synthesizing a value at a
// timestamp where a series has none.
type FillKind int

const (
	FillNone     FillKind = iota // absent stays absent
	FillForward                  // most recent earlier value
	FillBackward                 // nearest later value
	FillConstant                 // fixed configured value
)

// Fill is a per-series missing-data policy.
type Fill struct {
	Kind     FillKind
	Constant float64
}

// NoFill is the default policy.
var NoFill = Fill{Kind: FillNone}

// Constant returns a constant-fill policy.
func Constant(v float64) Fill {
	return Fill{Kind: FillConstant, Constant: v}
}

// ParseFill interprets a #:fill keyword value: the strings "ffill"
// and "bfill", or a numeric constant.
func ParseFill(v any) (Fill, error) {
	switch val := v.(type) {
	case string:
		switch val {
		case "ffill":
			return Fill{Kind: FillForward}, nil
		case "bfill":
			return Fill{Kind: FillBackward}, nil
		}
		return Fill{}, errors.Errorf(`fill must be "ffill", "bfill" or a number, got %q`, val)
	case float64:
		return Constant(val), nil
	case int64:
		return Constant(float64(val)), nil
	}
	return Fill{}, errors.Errorf("fill must be a string or a number, got %T", v)
}

func (f Fill) String() string {
	switch f.Kind {
	case FillForward:
		return "ffill"
	case FillBackward:
		return "bfill"
	case FillConstant:
		return fmt.Sprintf("fill(%g)", f.Constant)
	}
	return "none"
}
