package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var dir string

	rootCmd := &cobra.Command{
		Use:     "ledger",
		Short:   "Layered multi-currency double-entry ledger",
		Version: buildinfo.Summary(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&dir, "dir", "C", ".", "ledger directory")

	rootCmd.AddCommand(
		newInitCommand(),
		newChartCommand(&dir),
		newAccountCommand(&dir),
		newPostCommand(&dir),
		newCompleteCommand(&dir),
		newReverseCommand(&dir),
		newBalanceCommand(&dir),
	)

	return rootCmd
}
