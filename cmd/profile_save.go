package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"ndfkit.dev/pkg/ndfkit/internal/domain"
)

func newProfileSaveCmd() *cobra.Command {
	var (
		description string
		source      string
		clearAfter  bool
	)

	cmd := &cobra.Command{
		Use:   "save NAME",
		Short: "Snapshot the ledger into a profile",
		Args:  cobra.ExactArgs(1),
		RunE: withWorkflow(func(ctx context.Context, wf domain.Workflow, args []string) error {
			return wf.SaveProfile(ctx, domain.SaveProfileArgs{
				ProfileArgs: domain.ProfileArgs{Dir: profilesDir(), Name: args[0]},
				SourceFile:  source,
				Description: description,
				Clear:       clearAfter,
			})
		}),
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "what the profile changes")
	cmd.Flags().StringVar(&source, "source", "", "name of the file the records were made against")
	cmd.Flags().BoolVar(&clearAfter, "clear", false, "clear the ledger once the profile is saved")

	return cmd
}
