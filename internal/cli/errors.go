package cli

import (
	"errors"

	"github.com/seriesdb/formula/internal/deps"
	"github.com/seriesdb/formula/internal/engine"
	"github.com/seriesdb/formula/internal/lang"
	"github.com/seriesdb/formula/internal/ops"
	"github.com/seriesdb/formula/internal/store"
)

// classify maps domain errors to stable CLI error codes.
func classify(err error) string {
	var (
		syntax   *lang.SyntaxError
		unknown  *ops.UnknownOperatorError
		arity    *ops.ArityError
		keyword  *ops.UnknownKeywordError
		mismatch *ops.TypeMismatchError
		scalar   *engine.NotSeriesError
		ghost    *engine.UnknownSeriesError
	)
	switch {
	case errors.As(err, &syntax):
		return ErrCodeSyntax
	case errors.As(err, &unknown), errors.As(err, &arity),
		errors.As(err, &keyword), errors.As(err, &mismatch),
		errors.As(err, &scalar):
		return ErrCodeCheck
	case errors.As(err, &ghost):
		return ErrCodeUnknown
	case deps.IsCycle(err):
		return ErrCodeCycle
	case ops.IsMissingSeries(err):
		return ErrCodeMissing
	case store.IsNotFound(err):
		return ErrCodeStorage
	}
	return ErrCodeGeneric
}

// fail reports err in the configured format and converts it to a
// failure exit code.
func fail(f *OutputFormatter, err error) error {
	code := classify(err)
	if outErr := f.Error(code, err.Error(), nil); outErr != nil {
		return outErr
	}
	return &ExitError{Code: ExitFailure, Message: err.Error(), Err: err}
}
