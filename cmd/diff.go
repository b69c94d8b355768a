package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"ndfkit.dev/pkg/ndfkit/internal/domain"
	m "ndfkit.dev/pkg/ndfkit/internal/model"
)

// diffCmd represents the diff command.
var diffCmd = newDiffCmd()

func newDiffCmd() *cobra.Command {
	var profile string

	cmd := &cobra.Command{
		Use:   "diff FILE",
		Short: "Preview replaying the ledger or a profile",
		Long: `Replay the ledger, or the profile named by --profile, onto FILE and show the
resulting unified diff. Nothing is saved or recorded.`,
		Args: cobra.ExactArgs(1),
		RunE: withWorkflow(func(ctx context.Context, wf domain.Workflow, args []string) error {
			return wf.Diff(ctx, domain.DiffArgs{
				File:    m.Path(args[0]),
				Profile: domain.ProfileArgs{Dir: profilesDir(), Name: profile},
			})
		}),
	}

	cmd.Flags().StringVar(&profile, "profile", "", "profile to preview instead of the ledger")

	return cmd
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
