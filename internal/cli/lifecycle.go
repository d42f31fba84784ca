package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a node from the registry",
		Long: `Remove a node and its dependency edges. Formulas still
referencing the name keep their text and fail at evaluation.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}
			eng, s, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := eng.Delete(cmd.Context(), args[0]); err != nil {
				return fail(formatter, err)
			}
			return formatter.Success(fmt.Sprintf("deleted %s", args[0]))
		},
	}
}

// NewRenameCommand creates the rename command.
func NewRenameCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <oldname> <newname>",
		Short: "Rename a node and rewrite its dependents",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}
			eng, s, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := eng.Rename(cmd.Context(), args[0], args[1]); err != nil {
				return fail(formatter, err)
			}
			return formatter.Success(fmt.Sprintf("renamed %s to %s", args[0], args[1]))
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered formulas",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}
			eng, s, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			nodes, err := eng.List(cmd.Context())
			if err != nil {
				return fail(formatter, err)
			}
			if formatter.Format == "json" {
				type row struct {
					Name string `json:"name"`
					Text string `json:"text"`
				}
				rows := make([]row, len(nodes))
				for i, n := range nodes {
					rows[i] = row{Name: n.Name, Text: n.Text}
				}
				return formatter.Success(rows)
			}
			for _, n := range nodes {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", n.Name, n.Text)
			}
			return nil
		},
	}
}
