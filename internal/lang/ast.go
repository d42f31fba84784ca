package lang

// Expr is a sealed interface over the expression variants.
// Only Number, Float, String, Bool, Nil, Symbol and *Call implement it.
type Expr interface {
	expr() // sealed
}

// Number is an integer literal.
type Number int64

func (Number) expr() {}

// Float is a floating point literal.
type Float float64

func (Float) expr() {}

// String is a double-quoted string literal.
type String string

func (String) expr() {}

// Bool is one of the #t / #f literals.
type Bool bool

func (Bool) expr() {}

// Nil is the nil literal.
type Nil struct{}

func (Nil) expr() {}

// Symbol is a bare token that is not a literal, e.g. a name bound
// by a let form. Operator names are not symbols; they live in
// Call.Op.
type Symbol string

func (Symbol) expr() {}

// Kwarg binds a keyword name to a value expression inside a call's
// trailing keyword section.
type Kwarg struct {
	Name  string
	Value Expr
}

// Call is an operator application: positional arguments first,
// keyword arguments after. Kwargs preserves source order; names are
// unique (the parser rejects duplicates).
type Call struct {
	Op     string
	Args   []Expr
	Kwargs []Kwarg
}

func (*Call) expr() {}

// Kwarg returns the value bound to name, or nil when absent.
func (c *Call) Kwarg(name string) Expr {
	for _, kw := range c.Kwargs {
		if kw.Name == name {
			return kw.Value
		}
	}
	return nil
}

// Equal reports structural equality of two expressions.
// Keyword argument order is significant, matching the round-trip
// guarantee (identical text, identical tree).
func Equal(a, b Expr) bool {
	switch av := a.(type) {
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case Float:
		bv, ok := b.(Float)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Symbol:
		bv, ok := b.(Symbol)
		return ok && av == bv
	case *Call:
		bv, ok := b.(*Call)
		if !ok || av.Op != bv.Op ||
			len(av.Args) != len(bv.Args) || len(av.Kwargs) != len(bv.Kwargs) {
			return false
		}
		for i := range av.Args {
			if !Equal(av.Args[i], bv.Args[i]) {
				return false
			}
		}
		for i := range av.Kwargs {
			if av.Kwargs[i].Name != bv.Kwargs[i].Name ||
				!Equal(av.Kwargs[i].Value, bv.Kwargs[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// Walk calls fn on expr and every descendant, depth first.
// Keyword values are visited after positional arguments.
func Walk(expr Expr, fn func(Expr)) {
	fn(expr)
	if call, ok := expr.(*Call); ok {
		for _, arg := range call.Args {
			Walk(arg, fn)
		}
		for _, kw := range call.Kwargs {
			Walk(kw.Value, fn)
		}
	}
}
