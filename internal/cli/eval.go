package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/seriesdb/formula/internal/ops"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	From     string
	To       string
	Revision string
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <name-or-formula>",
		Short: "Evaluate a formula over a window",
		Long: `Evaluate a registered formula (by name) or literal formula text
against the series data, optionally restricted to a value-date
window and a revision.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "first value date (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.To, "to", "", "last value date")
	cmd.Flags().StringVar(&opts.Revision, "revision", "", "read data as of this insertion date")

	return cmd
}

func runEval(opts *EvalOptions, target string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	w, err := windowFromFlags(opts.From, opts.To, opts.Revision)
	if err != nil {
		return err
	}

	eng, s, err := openEngine(opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := eng.Evaluate(cmd.Context(), target, w)
	if err != nil {
		return fail(formatter, err)
	}
	formatter.VerboseLog("evaluated %s: %d points", target, result.Len())
	return formatter.Series(result)
}

func windowFromFlags(from, to, revision string) (ops.Window, error) {
	var w ops.Window
	var err error
	if w.From, err = optionalTime(from); err != nil {
		return w, err
	}
	if w.To, err = optionalTime(to); err != nil {
		return w, err
	}
	if w.Revision, err = optionalTime(revision); err != nil {
		return w, err
	}
	return w, nil
}

func optionalTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	ts, err := parseTime(s)
	if err != nil {
		return time.Time{}, &ExitError{Code: ExitCommandError, Message: err.Error()}
	}
	return ts, nil
}
