package lang

import (
	"strconv"
	"strings"
)

// Render serializes an expression to canonical formula text.
// Parse(Render(e)) yields a tree structurally equal to e; registered
// formulas are stored in this normalized form.
func Render(e Expr) string {
	var b strings.Builder
	render(&b, e)
	return b.String()
}

func render(b *strings.Builder, e Expr) {
	switch v := e.(type) {
	case Number:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case Float:
		b.WriteString(formatFloat(float64(v)))
	case String:
		b.WriteByte('"')
		b.WriteString(string(v))
		b.WriteByte('"')
	case Bool:
		if v {
			b.WriteString("#t")
		} else {
			b.WriteString("#f")
		}
	case Nil:
		b.WriteString("nil")
	case Symbol:
		b.WriteString(string(v))
	case *Call:
		b.WriteByte('(')
		b.WriteString(v.Op)
		for _, arg := range v.Args {
			b.WriteByte(' ')
			render(b, arg)
		}
		for _, kw := range v.Kwargs {
			b.WriteString(" #:")
			b.WriteString(kw.Name)
			b.WriteByte(' ')
			render(b, kw.Value)
		}
		b.WriteByte(')')
	}
}

// formatFloat keeps a decimal point so the literal parses back as a
// Float, not a Number.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
