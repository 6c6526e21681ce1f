package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/chart"
	"github.com/cleared-dev/ledger/internal/store"
)

func newChartCommand(dir *string) *cobra.Command {
	chartCmd := &cobra.Command{
		Use:   "chart",
		Short: "Chart of accounts operations",
	}
	chartCmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Create or update a chart from a YAML or JSON payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			payload, err := chart.DecodeFile(args[0])
			if err != nil {
				return err
			}
			res, err := a.importer().Import(cmd.Context(), payload)
			if err != nil {
				return err
			}
			details := fmt.Sprintf("created=%d updated=%d currencies=%d journals=%d layers=%d rules=%d",
				res.Created, res.Updated, res.CurrenciesAdded, res.JournalsCreated, res.LayersAdded, res.RulesAdded)
			if err := a.commit("chart-import", res.Chart.Code, details, 0); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported chart %s: %s\n", res.Chart.Code, details)
			return nil
		},
	})
	chartCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the charts in the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			return a.store.View(cmd.Context(), func(tx *store.Tx) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "CODE\tCURRENCY\tACCOUNTS\tJOURNALS\tDESCRIPTION")
				for _, c := range tx.Charts() {
					fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
						c.Code, c.Currency, len(tx.Accounts(c.ID))-1, len(tx.Journals(c.ID)), c.Description)
				}
				return w.Flush()
			})
		},
	})
	return chartCmd
}
