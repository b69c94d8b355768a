package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"ndfkit.dev/pkg/ndfkit/internal/domain"
)

// ledgerCmd represents the ledger command.
var ledgerCmd = newLedgerCmd()

func newLedgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the modification ledger",
		Long: `The ledger lists every modification recorded by set and profile apply. It is
kept in the journal file configured by ledger.journal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newLedgerShowCmd(), newLedgerClearCmd())

	return cmd
}

func newLedgerShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List recorded modifications and statistics",
		Args:  cobra.NoArgs,
		RunE: withWorkflow(func(ctx context.Context, wf domain.Workflow, _ []string) error {
			return wf.ShowLedger(ctx)
		}),
	}
}

func newLedgerClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget every recorded modification",
		Args:  cobra.NoArgs,
		RunE: withWorkflow(func(ctx context.Context, wf domain.Workflow, _ []string) error {
			return wf.ClearLedger(ctx)
		}),
	}
}

func init() {
	rootCmd.AddCommand(ledgerCmd)
}
