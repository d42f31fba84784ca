package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/seriesdb/formula/internal/series"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failure (bad formula, missing series, cycle)
	ExitCommandError = 2 // Command error (invalid paths, database not found)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  *CLIError   `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Series outputs an evaluated series, one timestamped point per
// line in text mode.
func (f *OutputFormatter) Series(s *series.Series) error {
	if f.Format == "json" {
		points := make(map[string]float64, s.Len())
		for i, ts := range s.Times {
			points[ts.Format(timeLayout)] = s.Values[i]
		}
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data: map[string]interface{}{
				"name":    s.Name,
				"tzaware": s.TZAware,
				"points":  points,
			},
		})
	}
	for i, ts := range s.Times {
		fmt.Fprintf(f.Writer, "%s\t%g\n", ts.Format(timeLayout), s.Values[i])
	}
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// When format is JSON, logs go to ErrWriter to avoid corrupting
// the JSON document.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// Error codes reported in CLI responses.
const (
	ErrCodeSyntax  = "E001" // formula does not parse
	ErrCodeCheck   = "E002" // operator or type check failed
	ErrCodeUnknown = "E003" // unknown series reference
	ErrCodeCycle   = "E004" // dependency cycle
	ErrCodeMissing = "E005" // missing series at evaluation
	ErrCodeStorage = "E006" // registry storage failure
	ErrCodeGeneric = "E999"
)
