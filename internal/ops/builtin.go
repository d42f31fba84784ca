package ops

// Builtin assembles the stock operator set and freezes the result.
// Callers wanting extra operators build their own registry, register
// the extras before freezing, and pass it to the evaluator.
func Builtin() *Registry {
	r := NewRegistry()
	registerSeries(r)
	registerArith(r)
	registerCombine(r)
	registerShape(r)
	registerTime(r)
	r.Freeze()
	return r
}
