package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/spent/internal/buildinfo"
)

type globalOptions struct {
	bookDir string
	verbose bool
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "spent",
		Short:   "Record expenses and keep monthly totals",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.bookDir, "book", ".", "book directory")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		newInitCommand(opts),
		newAddCommand(opts),
		newTotalCommand(opts),
		newListCommand(opts),
		newImportCommand(opts),
		newActivityCommand(opts),
	)

	return rootCmd
}
