package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// StaircaseOptions holds flags for the staircase command.
type StaircaseOptions struct {
	*RootOptions
	From      string
	To        string
	Snapshots []string
}

// NewStaircaseCommand creates the staircase command.
func NewStaircaseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StaircaseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "staircase <name>",
		Short: "Evaluate a formula once per snapshot revision",
		Long: `Evaluate a registered formula at each given insertion-date
snapshot, reusing unchanged prefixes where the formula shape
allows it.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStaircase(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "first value date")
	cmd.Flags().StringVar(&opts.To, "to", "", "last value date")
	cmd.Flags().StringArrayVar(&opts.Snapshots, "snapshot", nil, "insertion-date snapshot, repeatable, in ascending order")

	return cmd
}

func runStaircase(opts *StaircaseOptions, name string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if len(opts.Snapshots) == 0 {
		return &ExitError{Code: ExitCommandError, Message: "at least one --snapshot is required"}
	}
	snapshots := make([]time.Time, len(opts.Snapshots))
	for i, s := range opts.Snapshots {
		ts, err := optionalTime(s)
		if err != nil {
			return err
		}
		snapshots[i] = ts
	}

	w, err := windowFromFlags(opts.From, opts.To, "")
	if err != nil {
		return err
	}

	eng, s, err := openEngine(opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := eng.StaircaseEvaluate(cmd.Context(), name, snapshots, w)
	if err != nil {
		return fail(formatter, err)
	}

	for i, result := range results {
		if opts.Format == "text" {
			fmt.Fprintf(cmd.OutOrStdout(), "-- as of %s\n", snapshots[i].Format(timeLayout))
		}
		if err := formatter.Series(result); err != nil {
			return err
		}
	}
	return nil
}
