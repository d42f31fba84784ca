package engine

import (
	"fmt"
	"strings"
)

// UnknownSeriesError rejects registering a formula that references
// series known to neither the registry nor the provider.
type UnknownSeriesError struct {
	Formula string
	Names   []string
}

func (e *UnknownSeriesError) Error() string {
	return fmt.Sprintf("formula `%s` references unknown series: %s",
		e.Formula, strings.Join(e.Names, ", "))
}

// AlreadyReferencedError rejects a rename whose new name is already
// referenced by existing formulas. Renaming under it would silently
// rebind those references.
type AlreadyReferencedError struct {
	NewName string
	By      []string
}

func (e *AlreadyReferencedError) Error() string {
	return fmt.Sprintf("new name `%s` is already referenced by `%s`",
		e.NewName, strings.Join(e.By, ", "))
}

// NotSeriesError rejects registering an expression that does not
// produce a series, e.g. a bare scalar or a timestamp computation.
type NotSeriesError struct {
	Formula string
	Got     string
}

func (e *NotSeriesError) Error() string {
	return fmt.Sprintf("formula `%s` yields a %s, not a series", e.Formula, e.Got)
}
