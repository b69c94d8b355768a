package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ndfkit.dev/pkg/ndfkit/internal/domain"
)

// checkCmd represents the check command.
var checkCmd = newCheckCmd()

func newCheckCmd() *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "check PATH...",
		Short: "Verify files survive parse and write unchanged",
		Long: `Parse and write every .ndf file under the given files or directories and
report whether the output is byte for byte identical to the input.`,
		Args: cobra.MinimumNArgs(1),
		RunE: withWorkflow(func(ctx context.Context, wf domain.Workflow, args []string) error {
			return wf.Check(ctx, domain.CheckArgs{
				Paths:     parsePaths(args),
				Recursive: recursive,
				Parallel:  viper.GetInt(runParallelKey),
			})
		}),
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "descend into subdirectories")

	return cmd
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
