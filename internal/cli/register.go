package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seriesdb/formula/internal/engine"
	"github.com/seriesdb/formula/internal/store"
)

// RegisterOptions holds flags for the register command.
type RegisterOptions struct {
	*RootOptions
	File         string
	AllowUnknown bool
	Group        bool
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegisterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register <name> [formula]",
		Short: "Register a formula under a name",
		Long: `Validate a formula and store it in the registry under a name.

The formula text comes from the second argument or from --file.
Registration replaces any previous formula of the same name and
refreshes its dependency edges.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read the formula text from a file")
	cmd.Flags().BoolVar(&opts.AllowUnknown, "allow-unknown", false, "register even when referenced series are unknown")
	cmd.Flags().BoolVar(&opts.Group, "group", false, "register a group formula template")

	return cmd
}

func runRegister(opts *RegisterOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	name := args[0]
	text, err := formulaText(opts, args)
	if err != nil {
		return err
	}

	eng, s, err := openEngine(opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	var id int64
	if opts.Group {
		id, err = eng.RegisterGroupFormula(ctx, name, text, nil)
	} else {
		id, err = eng.Register(ctx, name, text, engine.RegisterOptions{
			Metadata:     store.Metadata{},
			AllowUnknown: opts.AllowUnknown,
		})
	}
	if err != nil {
		return fail(formatter, err)
	}

	formatter.VerboseLog("registered %s with id %d", name, id)
	return formatter.Success(fmt.Sprintf("registered %s", name))
}

func formulaText(opts *RegisterOptions, args []string) (string, error) {
	if opts.File != "" {
		raw, err := os.ReadFile(opts.File)
		if err != nil {
			return "", &ExitError{Code: ExitCommandError, Message: "reading formula file", Err: err}
		}
		return string(raw), nil
	}
	if len(args) < 2 {
		return "", &ExitError{Code: ExitCommandError, Message: "missing formula text (argument or --file)"}
	}
	return args[1], nil
}
