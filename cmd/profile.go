package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"ndfkit.dev/pkg/ndfkit/internal/domain"
	m "ndfkit.dev/pkg/ndfkit/internal/model"
)

// profileCmd represents the profile command.
var profileCmd = newProfileCmd()

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Save, inspect and replay modification profiles",
		Long: `A profile is a named snapshot of the ledger stored as YAML in the profiles
directory. Profiles can be validated against newer data, retargeted when units
or paths drifted, and replayed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		newProfileSaveCmd(),
		newProfileShowCmd(),
		newProfileListCmd(),
		newProfileValidateCmd(),
		newProfileApplyCmd(),
	)

	return cmd
}

func newProfileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show the records of a profile",
		Args:  cobra.ExactArgs(1),
		RunE: withWorkflow(func(ctx context.Context, wf domain.Workflow, args []string) error {
			return wf.ShowProfile(ctx, domain.ProfileArgs{Dir: profilesDir(), Name: args[0]})
		}),
	}
}

func newProfileListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved profiles",
		Args:  cobra.NoArgs,
		RunE: withWorkflow(func(ctx context.Context, wf domain.Workflow, _ []string) error {
			return wf.ListProfiles(ctx, profilesDir())
		}),
	}
}

func newProfileApplyCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "apply NAME FILE",
		Short: "Replay a profile onto a file",
		Long: `Set every recorded value of the profile in FILE and save it. Records that do
not apply are skipped and reported; run profile validate first to retarget
drifted records.`,
		Args: cobra.ExactArgs(2),
		RunE: withWorkflow(func(ctx context.Context, wf domain.Workflow, args []string) error {
			return wf.ApplyProfile(ctx, domain.ApplyProfileArgs{
				ProfileArgs: domain.ProfileArgs{Dir: profilesDir(), Name: args[0]},
				File:        m.Path(args[1]),
				DryRun:      dryRun,
			})
		}),
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "show the diff without saving or recording anything")

	return cmd
}

func init() {
	rootCmd.AddCommand(profileCmd)
}
