// Package cmd provides the root command and CLI setup for ndfkit.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"ndfkit.dev/pkg/ndfkit/internal/adapter"
	"ndfkit.dev/pkg/ndfkit/internal/controller"
	"ndfkit.dev/pkg/ndfkit/internal/domain"
	m "ndfkit.dev/pkg/ndfkit/internal/model"
	"ndfkit.dev/pkg/ndfkit/pkg"
)

var fsAdapter adapter.SourceFSAdapter
var profileStore adapter.ProfileStore
var scanner domain.Scanner

var profilesDirFlag string
var journalFlag string
var parallelFlag int
var verboseFlag bool
var logFileFlag string

func init() {
	configureRootFlags(rootCmd)

	fsAdapter = adapter.NewLocalSourceFSAdapter()
	profileStore = adapter.NewProfileStore(fsAdapter)
	scanner = domain.NewScanner()
}

const pathSyntaxHelp = `Property paths are dot separated and may index arrays:
  MaxSpeed                          a direct property
  ModulesDescriptors[5].MaxSpeed    an element of an array
  Weapons[*].Damage                 every element that has the property`

const rootLongDescription = `ndfkit edits NDF game data files without disturbing their layout. Values
are changed with type-aware operators, every change is kept in a ledger, and
ledgers can be saved as profiles that are replayed onto newer versions of the
data, with drifted unit names and paths reconciled along the way.

` + pathSyntaxHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "ndfkit",
		Short:        "Lossless editor for NDF game data",
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringVar(&profilesDirFlag, profilesDirFlagName, viper.GetString(profilesDirKey), "directory holding saved profiles")
	bindFlagToConfig(flags.Lookup(profilesDirFlagName), profilesDirKey)

	flags.StringVar(&journalFlag, journalFlagName, viper.GetString(ledgerJournalKey), "ledger journal file (empty keeps the ledger in memory)")
	bindFlagToConfig(flags.Lookup(journalFlagName), ledgerJournalKey)

	flags.IntVarP(&parallelFlag, parallelFlagName, "p", viper.GetInt(runParallelKey), "number of parallel workers for scans and checks")
	bindFlagToConfig(flags.Lookup(parallelFlagName), runParallelKey)

	flags.BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(flags.Lookup(verboseFlagName), logVerboseKey)

	flags.StringVar(&logFileFlag, logFileFlagName, viper.GetString(logFilenameKey), "log file")
	bindFlagToConfig(flags.Lookup(logFileFlagName), logFilenameKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}

// workflowFunc is the body of a command that works on files.
type workflowFunc func(ctx context.Context, wf domain.Workflow, args []string) error

// withWorkflow builds the logger, ledger and workflow for one command run and
// releases the ledger journal afterwards.
func withWorkflow(run workflowFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))

		ledger, closeLedger, err := openLedger(viper.GetString(ledgerJournalKey))
		if err != nil {
			return err
		}

		defer func() {
			err = errors.Join(err, closeLedger())
		}()

		ui := controller.NewUI(cmd, controller.IsTTY(cmd.OutOrStdout()))
		reconciler := domain.NewReconciler(domain.ReconcileOptions{
			UnitThreshold: viper.GetFloat64(unitThresholdKey),
			PathThreshold: viper.GetFloat64(pathThresholdKey),
			Parallel:      viper.GetInt(runParallelKey),
		})

		wf := domain.NewWorkflow(fsAdapter, profileStore, ui, ledger, scanner, reconciler)

		return run(cmd.Context(), wf, args)
	}
}

func openLedger(path string) (domain.Ledger, func() error, error) {
	if strings.TrimSpace(path) == "" {
		return domain.NewLedger(), func() error { return nil }, nil
	}

	journal, err := pkg.OpenJournal[m.ModificationRecord](path)
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger journal: %w", err)
	}

	ledger, err := domain.NewJournaledLedger(journal)
	if err != nil {
		_ = journal.Close()
		return nil, nil, err
	}

	return ledger, journal.Close, nil
}

func profilesDir() m.Path {
	return m.Path(viper.GetString(profilesDirKey))
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}
