package engine

import (
	"github.com/seriesdb/formula/internal/lang"
)

// exprKind is the statically inferred result kind of an expression.
type exprKind int

const (
	kindNumber exprKind = iota
	kindString
	kindBool
	kindNil
	kindTimestamp
	kindSeries
)

func (k exprKind) String() string {
	switch k {
	case kindNumber:
		return "number"
	case kindString:
		return "string"
	case kindBool:
		return "bool"
	case kindNil:
		return "nil"
	case kindTimestamp:
		return "timestamp"
	}
	return "series"
}

// inferKind predicts what a fully evaluated expression yields,
// without touching any data. Scalar arithmetic stays scalar until a
// series flows in; everything else in the stock set combines or
// reshapes series.
func inferKind(expr lang.Expr) exprKind {
	switch e := expr.(type) {
	case lang.Number, lang.Float:
		return kindNumber
	case lang.String, lang.Symbol:
		return kindString
	case lang.Bool:
		return kindBool
	case lang.Nil:
		return kindNil
	case *lang.Call:
		switch e.Op {
		case "date", "today", "timedelta":
			return kindTimestamp
		case "*", "+", "/":
			for _, arg := range e.Args {
				if inferKind(arg) == kindSeries {
					return kindSeries
				}
			}
			return kindNumber
		case "naive":
			if len(e.Args) > 0 && inferKind(e.Args[0]) == kindTimestamp {
				return kindTimestamp
			}
			return kindSeries
		}
		return kindSeries
	}
	return kindSeries
}

// typecheck rejects registering an expression that would not
// evaluate to a series.
func typecheck(text string, expr lang.Expr) error {
	if k := inferKind(expr); k != kindSeries {
		return &NotSeriesError{Formula: text, Got: k.String()}
	}
	return nil
}
