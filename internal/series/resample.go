package series

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// Aggregation methods accepted by Resample.
const (
	AggMean  = "mean"
	AggSum   = "sum"
	AggFirst = "first"
	AggLast  = "last"
	AggMin   = "min"
	AggMax   = "max"
)

// Resample buckets a series at the named frequency, emitting one
// point per non-empty bucket stamped at the bucket start.
// Frequencies: "S", "T" (or "min"), "H", "D", "W", "M", "Y".
func Resample(s *Series, freq, method string) (*Series, error) {
	trunc, err := truncator(freq)
	if err != nil {
		return nil, err
	}
	switch method {
	case AggMean, AggSum, AggFirst, AggLast, AggMin, AggMax:
	default:
		return nil, errors.Errorf("unknown resampling method %q", method)
	}

	out := Empty(s.Name, s.TZAware)
	var (
		open   bool
		start  time.Time
		count  float64
		sum    float64
		first  float64
		last   float64
		minVal float64
		maxVal float64
	)
	emit := func() {
		var v float64
		switch method {
		case AggMean:
			v = sum / count
		case AggSum:
			v = sum
		case AggFirst:
			v = first
		case AggLast:
			v = last
		case AggMin:
			v = minVal
		case AggMax:
			v = maxVal
		}
		out.Times = append(out.Times, start)
		out.Values = append(out.Values, v)
	}

	for i, t := range s.Times {
		bucket := trunc(t)
		if !open || !bucket.Equal(start) {
			if open {
				emit()
			}
			open = true
			start = bucket
			count, sum = 0, 0
			minVal, maxVal = math.Inf(1), math.Inf(-1)
			first = s.Values[i]
		}
		v := s.Values[i]
		count++
		sum += v
		last = v
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if open {
		emit()
	}
	return out, nil
}

// truncator maps a frequency name to its bucket-start function.
// Sub-daily buckets follow wall-clock truncation in the timestamp's
// own location; weeks start on Monday.
func truncator(freq string) (func(time.Time) time.Time, error) {
	switch freq {
	case "S":
		return func(t time.Time) time.Time {
			return t.Truncate(time.Second)
		}, nil
	case "T", "min":
		return func(t time.Time) time.Time {
			return t.Truncate(time.Minute)
		}, nil
	case "H":
		return func(t time.Time) time.Time {
			y, m, d := t.Date()
			return time.Date(y, m, d, t.Hour(), 0, 0, 0, t.Location())
		}, nil
	case "D":
		return func(t time.Time) time.Time {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
		}, nil
	case "W":
		return func(t time.Time) time.Time {
			y, m, d := t.Date()
			day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
			offset := (int(day.Weekday()) + 6) % 7
			return day.AddDate(0, 0, -offset)
		}, nil
	case "M":
		return func(t time.Time) time.Time {
			y, m, _ := t.Date()
			return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
		}, nil
	case "Y":
		return func(t time.Time) time.Time {
			return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
		}, nil
	}
	return nil, errors.Errorf("unknown resampling frequency %q", freq)
}
