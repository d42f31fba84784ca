package series

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// Series is a possibly sparse set of time/value tuples. Two
// requirements for proper operation:
//
//  1. Times[i+1] > Times[i]
//  2. Values[i] is the value associated with Times[i]
//
// TZAware distinguishes timezone-aware series (UTC-anchored
// instants) from naive local-time series. The two kinds are distinct
// types for every operation in this package.
type Series struct {
	Name    string
	Times   []time.Time
	Values  []float64
	TZAware bool
}

// New builds a series after validating the tuple invariants.
func New(name string, times []time.Time, values []float64, tzaware bool) (*Series, error) {
	if lt, lv := len(times), len(values); lt != lv {
		return nil, errors.Errorf("non-matching lengths of Times and Values: %d != %d", lt, lv)
	}
	for i := 1; i < len(times); i++ {
		if !times[i].After(times[i-1]) {
			return nil, errors.Errorf("timestamps must strictly increase: %s !> %s",
				times[i], times[i-1])
		}
	}
	return &Series{Name: name, Times: times, Values: values, TZAware: tzaware}, nil
}

// Empty returns a zero-length series with the given awareness.
func Empty(name string, tzaware bool) *Series {
	return &Series{Name: name, TZAware: tzaware}
}

// Len returns the number of points.
func (s *Series) Len() int { return len(s.Times) }

// Clone returns a deep copy. The copy may be mutated freely.
func (s *Series) Clone() *Series {
	out := &Series{
		Name:    s.Name,
		Times:   make([]time.Time, len(s.Times)),
		Values:  make([]float64, len(s.Values)),
		TZAware: s.TZAware,
	}
	copy(out.Times, s.Times)
	copy(out.Values, s.Values)
	return out
}

// At returns the value at an exact timestamp.
func (s *Series) At(t time.Time) (float64, bool) {
	i := searchTime(s.Times, t)
	if i < len(s.Times) && s.Times[i].Equal(t) {
		return s.Values[i], true
	}
	return 0, false
}

// Slice restricts the series to the closed window [from, to].
// A zero bound is open-ended.
func (s *Series) Slice(from, to time.Time) *Series {
	lo := 0
	if !from.IsZero() {
		lo = searchTime(s.Times, from)
	}
	hi := len(s.Times)
	if !to.IsZero() {
		hi = searchTime(s.Times, to)
		if hi < len(s.Times) && s.Times[hi].Equal(to) {
			hi++
		}
	}
	if lo > hi {
		lo = hi
	}
	out := &Series{Name: s.Name, TZAware: s.TZAware}
	out.Times = append(out.Times, s.Times[lo:hi]...)
	out.Values = append(out.Values, s.Values[lo:hi]...)
	return out
}

// Map applies fn to every value, index unchanged.
func (s *Series) Map(fn func(float64) float64) *Series {
	out := s.Clone()
	for i, v := range out.Values {
		out.Values[i] = fn(v)
	}
	return out
}

// Equal reports exact timestamp equality and approximate value
// equality within eps.
func (s *Series) Equal(other *Series, eps float64) bool {
	if s.TZAware != other.TZAware || len(s.Times) != len(other.Times) {
		return false
	}
	for i := range s.Times {
		if !s.Times[i].Equal(other.Times[i]) {
			return false
		}
		if math.Abs(s.Values[i]-other.Values[i]) > eps {
			return false
		}
	}
	return true
}

// searchTime returns the smallest index i with Times[i] >= t.
func searchTime(times []time.Time, t time.Time) int {
	lo, hi := 0, len(times)
	for lo < hi {
		mid := (lo + hi) / 2
		if times[mid].Before(t) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
