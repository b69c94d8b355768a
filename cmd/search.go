package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ndfkit.dev/pkg/ndfkit/internal/domain"
	m "ndfkit.dev/pkg/ndfkit/internal/model"
)

// searchCmd represents the search command.
var searchCmd = newSearchCmd()

func newSearchCmd() *cobra.Command {
	var (
		name     string
		category string
		path     string
	)

	cmd := &cobra.Command{
		Use:   "search FILE",
		Short: "Find units by name, category or property",
		Long: `Search every unit of FILE. --name is a fuzzy pattern, --category a comma
separated list of flags every hit must carry (tank, infantry, aircraft,
helicopter, artillery, antiair, transport, logistics, recon) and --path a
property path whose values are shown for each hit.`,
		Args: cobra.ExactArgs(1),
		RunE: withWorkflow(func(ctx context.Context, wf domain.Workflow, args []string) error {
			flags, err := m.ParseCategory(category)
			if err != nil {
				return err
			}

			return wf.Search(ctx, domain.SearchArgs{
				File:     m.Path(args[0]),
				Query:    domain.ScanQuery{Name: name, Category: flags, Path: path},
				Parallel: viper.GetInt(runParallelKey),
			})
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "fuzzy unit name pattern")
	cmd.Flags().StringVar(&category, "category", "", "required category flags")
	cmd.Flags().StringVar(&path, "path", "", "property path every hit must have")

	return cmd
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
