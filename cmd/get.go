package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"ndfkit.dev/pkg/ndfkit/internal/domain"
	m "ndfkit.dev/pkg/ndfkit/internal/model"
)

// getCmd represents the get command.
var getCmd = newGetCmd()

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get FILE UNIT [PATH]",
		Short: "Show property values of a unit",
		Long: `Show the values at PATH in UNIT. Without PATH every leaf value of the unit
is listed.

` + pathSyntaxHelp,
		Args: cobra.RangeArgs(2, 3),
		RunE: withWorkflow(func(ctx context.Context, wf domain.Workflow, args []string) error {
			get := domain.GetArgs{File: m.Path(args[0]), Unit: args[1]}
			if len(args) == 3 {
				get.Path = args[2]
			}

			return wf.Get(ctx, get)
		}),
	}
}

func init() {
	rootCmd.AddCommand(getCmd)
}
