package ops

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/seriesdb/formula/internal/series"
)

// Window scopes an evaluation request: the value-date range asked
// for and the revision (insertion date) the data should be read
// as of. Zero bounds are open-ended; a zero Revision means latest.
type Window struct {
	From     time.Time
	To       time.Time
	Revision time.Time
}

// Source is the capability an evaluation hands to operators for
// resolving series by name. The evaluator implements it on top of
// the external series provider, adding formula recursion, the
// request cache and window slicing.
type Source interface {
	Fetch(ctx context.Context, name string) (*series.Series, error)
}

// Env carries the fully resolved inputs of one operator
// application: positional values, keyword values with declared
// defaults already applied, and the series source. The request
// window never reaches operators; the evaluator applies it when
// fetching from the source.
type Env struct {
	Op     string
	Args   []Value
	Kwargs map[string]Value
	Source Source
}

// KwargSpec declares one recognized keyword: expected kind and the
// default used when the call omits it (nil means absent, not an
// error).
type KwargSpec struct {
	Name    string
	Kind    Kind
	Default Value
}

// Definition is a typed operator: positional arity bounds, keyword
// schema, staircase commutativity and the evaluation function.
//
// Commutative means the operator's output at a timestamp depends
// only on input values at timestamps up to and including it, never
// on later ones.
type Definition struct {
	Name        string
	MinArgs     int
	MaxArgs     int // -1 for unbounded
	Kwargs      []KwargSpec
	Commutative bool
	Eval        func(ctx context.Context, env *Env) (Value, error)
}

func (d *Definition) kwarg(name string) *KwargSpec {
	for i := range d.Kwargs {
		if d.Kwargs[i].Name == name {
			return &d.Kwargs[i]
		}
	}
	return nil
}

// CheckCall validates positional arity and keyword names before any
// argument evaluation begins. Keyword value kinds are checked later,
// once values exist.
func (d *Definition) CheckCall(nargs int, keywords []string) error {
	if nargs < d.MinArgs || (d.MaxArgs >= 0 && nargs > d.MaxArgs) {
		return &ArityError{Op: d.Name, Got: nargs, Min: d.MinArgs, Max: d.MaxArgs}
	}
	for _, kw := range keywords {
		if d.kwarg(kw) == nil {
			return &UnknownKeywordError{Op: d.Name, Keyword: kw}
		}
	}
	return nil
}

// BindKwargs merges evaluated keyword values with declared defaults
// and checks their kinds.
func (d *Definition) BindKwargs(given map[string]Value) (map[string]Value, error) {
	bound := make(map[string]Value, len(d.Kwargs))
	for _, spec := range d.Kwargs {
		v, ok := given[spec.Name]
		if !ok {
			if spec.Default != nil {
				bound[spec.Name] = spec.Default
			}
			continue
		}
		if _, isNil := v.(Nil); !isNil && spec.Kind != KindAny && KindOf(v) != spec.Kind {
			return nil, &TypeMismatchError{
				Op: d.Name, What: "#:" + spec.Name, Want: spec.Kind, Got: KindOf(v),
			}
		}
		bound[spec.Name] = v
	}
	return bound, nil
}

// Registry maps operator names to definitions. Register during
// initialization, Freeze, then share read-only across evaluations.
type Registry struct {
	defs   map[string]*Definition
	frozen bool
}

// NewRegistry returns an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds a definition. Fails on duplicate names or after
// Freeze.
func (r *Registry) Register(def *Definition) error {
	if r.frozen {
		return fmt.Errorf("registry is frozen, cannot register `%s`", def.Name)
	}
	if _, ok := r.defs[def.Name]; ok {
		return &DuplicateOperatorError{Name: def.Name}
	}
	r.defs[def.Name] = def
	return nil
}

// MustRegister is Register for init-time wiring of stock operators.
func (r *Registry) MustRegister(def *Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Freeze makes the registry immutable.
func (r *Registry) Freeze() { r.frozen = true }

// Lookup resolves a name.
func (r *Registry) Lookup(name string) (*Definition, error) {
	def, ok := r.defs[name]
	if !ok {
		return nil, &UnknownOperatorError{Name: name}
	}
	return def, nil
}

// Names lists registered operators, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
