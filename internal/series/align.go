package series

import (
	"time"

	"github.com/pkg/errors"
)

// Input pairs a series with its fill policy for alignment.
type Input struct {
	S    *Series
	Fill Fill
	// Weight applies to weighted combinators (row-mean); 1 when unset
	// by the caller.
	Weight float64
}

// Frame is the aligned form of several inputs: one row per union
// timestamp, one column per input, with per-cell presence after fill
// application.
type Frame struct {
	Index   []time.Time
	TZAware bool
	// Cells[i][j] is input j's contribution at Index[i], valid only
	// when Present[i][j].
	Cells   [][]float64
	Present [][]bool
	Weights []float64
}

// Align combines inputs onto the sorted union of their timestamps,
// applying each input's fill policy. Mixing tzaware and tznaive
// inputs is an error.
func Align(inputs []Input) (*Frame, error) {
	if len(inputs) == 0 {
		return nil, errors.New("nothing to align")
	}
	tzaware := inputs[0].S.TZAware
	for _, in := range inputs[1:] {
		if in.S.TZAware != tzaware {
			return nil, errors.Errorf(
				"cannot combine tzaware and tznaive series (%q vs %q)",
				inputs[0].S.Name, in.S.Name)
		}
	}

	index := unionIndex(inputs)
	frame := &Frame{
		Index:   index,
		TZAware: tzaware,
		Cells:   make([][]float64, len(index)),
		Present: make([][]bool, len(index)),
		Weights: make([]float64, len(inputs)),
	}
	for j, in := range inputs {
		w := in.Weight
		if w == 0 {
			w = 1
		}
		frame.Weights[j] = w
	}
	for i := range index {
		frame.Cells[i] = make([]float64, len(inputs))
		frame.Present[i] = make([]bool, len(inputs))
	}

	for j, in := range inputs {
		fillColumn(frame, j, in)
	}
	return frame, nil
}

// Reduce produces one output series from a frame, keeping only rows
// where every input contributed a value after fill. Absent rows are
// dropped from the index, never emitted as nulls.
func (f *Frame) Reduce(name string, fn func(row []float64) float64) *Series {
	out := Empty(name, f.TZAware)
	for i, t := range f.Index {
		all := true
		for _, p := range f.Present[i] {
			if !p {
				all = false
				break
			}
		}
		if !all {
			continue
		}
		out.Times = append(out.Times, t)
		out.Values = append(out.Values, fn(f.Cells[i]))
	}
	return out
}

// ReducePartial is Reduce for operators with their own partial-input
// rule (priority): fn receives the row plus the presence mask and
// reports whether it produced a value.
func (f *Frame) ReducePartial(name string, fn func(row []float64, present []bool) (float64, bool)) *Series {
	out := Empty(name, f.TZAware)
	for i, t := range f.Index {
		if v, ok := fn(f.Cells[i], f.Present[i]); ok {
			out.Times = append(out.Times, t)
			out.Values = append(out.Values, v)
		}
	}
	return out
}

// unionIndex merges the strictly increasing time slices of every
// input into one sorted, deduplicated index.
func unionIndex(inputs []Input) []time.Time {
	cursors := make([]int, len(inputs))
	var index []time.Time
	for {
		var best time.Time
		found := false
		for j, in := range inputs {
			if cursors[j] >= in.S.Len() {
				continue
			}
			t := in.S.Times[cursors[j]]
			if !found || t.Before(best) {
				best = t
				found = true
			}
		}
		if !found {
			return index
		}
		index = append(index, best)
		for j, in := range inputs {
			if cursors[j] < in.S.Len() && in.S.Times[cursors[j]].Equal(best) {
				cursors[j]++
			}
		}
	}
}

// fillColumn writes input j's contribution at every union timestamp
// per its fill policy. Forward fill carries the most recent earlier
// value once one exists; backward fill mirrors it from the future;
// constant fill always contributes.
func fillColumn(frame *Frame, j int, in Input) {
	s := in.S
	cursor := 0
	lastIdx := -1 // index into s of the most recent value <= current t
	for i, t := range frame.Index {
		for cursor < s.Len() && !s.Times[cursor].After(t) {
			lastIdx = cursor
			cursor++
		}
		if lastIdx >= 0 && s.Times[lastIdx].Equal(t) {
			frame.Cells[i][j] = s.Values[lastIdx]
			frame.Present[i][j] = true
			continue
		}
		switch in.Fill.Kind {
		case FillForward:
			if lastIdx >= 0 {
				frame.Cells[i][j] = s.Values[lastIdx]
				frame.Present[i][j] = true
			}
		case FillBackward:
			if cursor < s.Len() {
				frame.Cells[i][j] = s.Values[cursor]
				frame.Present[i][j] = true
			}
		case FillConstant:
			frame.Cells[i][j] = in.Fill.Constant
			frame.Present[i][j] = true
		}
	}
}
