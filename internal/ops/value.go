package ops

import (
	"time"

	"github.com/seriesdb/formula/internal/series"
)

// Value is a sealed interface over the kinds an operator argument or
// result can take. Only Number, Str, Bool, Nil, Time and SeriesVal
// implement it.
type Value interface {
	value() // sealed
}

// Number is a numeric value; integer and float literals both resolve
// to it.
type Number float64

func (Number) value() {}

// Str is a string value.
type Str string

func (Str) value() {}

// Bool is a boolean value.
type Bool bool

func (Bool) value() {}

// Nil is the nil value, used for optional open-ended arguments.
type Nil struct{}

func (Nil) value() {}

// Time is a timestamp value. Aware distinguishes timezone-aware
// instants from naive local times; the two never interconvert
// implicitly.
type Time struct {
	T     time.Time
	Aware bool
}

func (Time) value() {}

// SeriesVal wraps a series together with the options declared on
// the call that produced it. Fill and Weight ride along so that an
// enclosing combinator can apply them during alignment.
type SeriesVal struct {
	S       *series.Series
	Fill    series.Fill
	HasFill bool
	Weight  float64 // 0 means unset
}

func (SeriesVal) value() {}

// Kind names a value kind for keyword schemas and error messages.
type Kind int

const (
	KindAny Kind = iota
	KindNumber
	KindString
	KindBool
	KindTime
	KindSeries
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindTime:
		return "timestamp"
	case KindSeries:
		return "series"
	}
	return "any"
}

// KindOf classifies a value.
func KindOf(v Value) Kind {
	switch v.(type) {
	case Number:
		return KindNumber
	case Str:
		return KindString
	case Bool:
		return KindBool
	case Time:
		return KindTime
	case SeriesVal:
		return KindSeries
	}
	return KindAny
}
