package cli

import (
	"github.com/spf13/cobra"
)

// ExpandOptions holds flags for the expand command.
type ExpandOptions struct {
	*RootOptions
	Stop []string
}

// NewExpandCommand creates the expand command.
func NewExpandCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExpandOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "expand <name>",
		Short: "Print a formula with sub-formulas inlined",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Stop, "stop", nil, "leave this referenced formula unexpanded, repeatable")

	return cmd
}

func runExpand(opts *ExpandOptions, name string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	eng, s, err := openEngine(opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	expanded, err := eng.ExpandedFormula(cmd.Context(), name, opts.Stop...)
	if err != nil {
		return fail(formatter, err)
	}
	return formatter.Success(expanded)
}
