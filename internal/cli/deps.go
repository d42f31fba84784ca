package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seriesdb/formula/internal/store"
)

// DepsOptions holds flags for the deps command.
type DepsOptions struct {
	*RootOptions
	Reverse bool
}

// NewDepsCommand creates the deps command.
func NewDepsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DepsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "deps <name>",
		Short: "List a node's direct dependencies",
		Long: `List the series a formula directly needs, or with --reverse the
formulas directly needing a node.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Reverse, "reverse", "r", false, "list dependents instead of dependencies")

	return cmd
}

func runDeps(opts *DepsOptions, name string, cmd *cobra.Command) error {
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

	ctx := cmd.Context()
	var nodes []*store.Node
	if opts.Reverse {
		nodes, err = eng.Dependents(ctx, name)
	} else {
		nodes, err = eng.Dependencies(ctx, name)
	}
	if err != nil {
		return fail(formatter, err)
	}

	return outputNodes(formatter, cmd, nodes)
}

func outputNodes(formatter *OutputFormatter, cmd *cobra.Command, nodes []*store.Node) error {
	if formatter.Format == "json" {
		type row struct {
			Name string `json:"name"`
			Kind string `json:"kind"`
		}
		rows := make([]row, len(nodes))
		for i, n := range nodes {
			rows[i] = row{Name: n.Name, Kind: n.Kind}
		}
		return formatter.Success(rows)
	}
	for _, n := range nodes {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", n.Name, n.Kind)
	}
	return nil
}
