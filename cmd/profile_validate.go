package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"ndfkit.dev/pkg/ndfkit/internal/domain"
	m "ndfkit.dev/pkg/ndfkit/internal/model"
)

const validateLongDescription = `Check every record of the profile against FILE. Records whose unit or path
no longer exists get a suggested replacement scored by name similarity.

With --fix the suggestions are reviewed, interactively on a terminal or one
prompt per record otherwise, and accepted ones are written back to the
profile. --yes accepts every suggestion without asking.`

func newProfileValidateCmd() *cobra.Command {
	var fix, yes bool

	cmd := &cobra.Command{
		Use:   "validate NAME FILE",
		Short: "Check a profile against a file and retarget drifted records",
		Long:  validateLongDescription,
		Args:  cobra.ExactArgs(2),
		RunE: withWorkflow(func(ctx context.Context, wf domain.Workflow, args []string) error {
			return wf.ValidateProfile(ctx, domain.ValidateProfileArgs{
				ProfileArgs: domain.ProfileArgs{Dir: profilesDir(), Name: args[0]},
				File:        m.Path(args[1]),
				Fix:         fix || yes,
				Yes:         yes,
			})
		}),
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "review suggested fixes and save the accepted ones")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "accept every suggested fix")

	return cmd
}
