package ops

import (
	"errors"
	"fmt"
)

// The evaluation error taxonomy. Every failure mode of a formula
// evaluation or registration maps to exactly one of these types;
// callers match with errors.As.

// UnknownOperatorError reports a call to an operator the registry
// does not have.
type UnknownOperatorError struct {
	Name string
}

func (e *UnknownOperatorError) Error() string {
	return fmt.Sprintf("unknown operator `%s`", e.Name)
}

// DuplicateOperatorError reports a second registration under an
// already-taken name.
type DuplicateOperatorError struct {
	Name string
}

func (e *DuplicateOperatorError) Error() string {
	return fmt.Sprintf("operator `%s` is already registered", e.Name)
}

// ArityError reports a call whose positional argument count falls
// outside the operator's declared bounds.
type ArityError struct {
	Op   string
	Got  int
	Min  int
	Max  int // -1 when unbounded
}

func (e *ArityError) Error() string {
	if e.Max < 0 {
		return fmt.Sprintf("`%s` wants at least %d argument(s), got %d", e.Op, e.Min, e.Got)
	}
	if e.Min == e.Max {
		return fmt.Sprintf("`%s` wants %d argument(s), got %d", e.Op, e.Min, e.Got)
	}
	return fmt.Sprintf("`%s` wants %d to %d arguments, got %d", e.Op, e.Min, e.Max, e.Got)
}

// UnknownKeywordError reports a keyword name absent from the
// operator's schema.
type UnknownKeywordError struct {
	Op      string
	Keyword string
}

func (e *UnknownKeywordError) Error() string {
	return fmt.Sprintf("`%s` has no keyword `%s`", e.Op, e.Keyword)
}

// TypeMismatchError reports an argument or keyword value of the
// wrong kind.
type TypeMismatchError struct {
	Op   string
	What string // argument position or keyword name
	Want Kind
	Got  Kind
	Msg  string // overrides the generic message when set
}

func (e *TypeMismatchError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("`%s`: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("`%s`: %s must be a %s, got %s", e.Op, e.What, e.Want, e.Got)
}

// MissingSeriesError reports a series name the provider cannot
// resolve, or a provider lookup that could not complete. Terminal
// for the evaluation; never retried here.
type MissingSeriesError struct {
	Name  string
	Cause error
}

func (e *MissingSeriesError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("no series named `%s`: %v", e.Name, e.Cause)
	}
	return fmt.Sprintf("no series named `%s`", e.Name)
}

func (e *MissingSeriesError) Unwrap() error { return e.Cause }

// IsMissingSeries reports whether err is a missing-series failure,
// unwrapping as needed.
func IsMissingSeries(err error) bool {
	var m *MissingSeriesError
	return errors.As(err, &m)
}
