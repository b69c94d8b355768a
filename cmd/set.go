package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"ndfkit.dev/pkg/ndfkit/internal/domain"
	m "ndfkit.dev/pkg/ndfkit/internal/model"
)

const setLongDescription = `Modify the value at PATH in UNIT and save the file. Every modified value is
recorded in the ledger.

Operators: set (=), add (+), subtract (-), multiply (*),
increase_percent (+%), decrease_percent (-%). Arithmetic operators only apply
to numbers and number lists. A tag set takes a comma separated edit such as
"-Char,+Helo" and only accepts the set operator.
Put -- before a VALUE that starts with a dash.

` + pathSyntaxHelp

// setCmd represents the set command.
var setCmd = newSetCmd()

func newSetCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "set FILE UNIT PATH OP VALUE",
		Short: "Modify a property value",
		Long:  setLongDescription,
		Args:  cobra.ExactArgs(5),
		RunE: withWorkflow(func(ctx context.Context, wf domain.Workflow, args []string) error {
			op, err := m.ParseOperator(args[3])
			if err != nil {
				return err
			}

			return wf.Set(ctx, domain.SetArgs{
				File:   m.Path(args[0]),
				Unit:   args[1],
				Path:   args[2],
				Op:     op,
				Value:  args[4],
				DryRun: dryRun,
			})
		}),
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "show the diff without saving or recording anything")

	return cmd
}

func init() {
	rootCmd.AddCommand(setCmd)
}
