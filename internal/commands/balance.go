package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/balance"
	"github.com/cleared-dev/ledger/internal/layer"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/store"
)

func newBalanceCommand(dir *string) *cobra.Command {
	var (
		currency    string
		journalName string
		kindName    string
		asOf        int64
		byLayer     bool
	)

	cmd := &cobra.Command{
		Use:   "balance <account>...",
		Short: "Show account balances",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			if journalName == "" {
				journalName = a.cfg.Ledger.DefaultJournal
			}
			calc := a.calculator()
			out := cmd.OutOrStdout()

			return a.store.View(cmd.Context(), func(tx *store.Tx) error {
				if last := tx.LastEntryID(); asOf < 0 || model.EntryID(asOf) > last {
					return fmt.Errorf("--as-of %d is outside entries 1..%d", asOf, last)
				}

				resolver := accounts.NewCodeResolver(tx, a.cfg.Ledger.Chart)
				accts := make([]model.Account, len(args))
				ids := make([]model.AccountID, len(args))
				for i, addr := range args {
					acct, err := resolver.Resolve(addr)
					if err != nil {
						return err
					}
					if i > 0 && acct.RootID != accts[0].RootID {
						return fmt.Errorf("%q and %q belong to different charts", args[0], addr)
					}
					accts[i], ids[i] = acct, acct.ID
				}
				j, ok := tx.JournalByName(accts[0].RootID, journalName)
				if !ok {
					return fmt.Errorf("%w: %q", model.ErrJournalNotFound, journalName)
				}

				switch {
				case byLayer:
					for _, acct := range accts {
						balances, err := calc.LayerBalances(tx, j.ID, acct.ID)
						if err != nil {
							return err
						}
						prefix := ""
						if len(accts) > 1 {
							prefix = acct.Code + "\t"
						}
						printLayers(out, a.layers, prefix, balances)
					}
					return nil

				case kindName != "":
					kind, err := layer.ParseKind(strings.ToUpper(kindName))
					if err != nil {
						return err
					}
					for _, acct := range accts {
						l, err := a.layers.Resolve(bandOf(acct, currency), kind)
						if err != nil {
							return err
						}
						amts, err := calc.MultiAccountBalances(tx, j.ID, []model.AccountID{acct.ID}, []int{l})
						if err != nil {
							return err
						}
						fmt.Fprintf(out, "%s\t%s\t%d %s\t%s\n", acct.Code, acct.Description, l, kind, amts[acct.ID])
					}
					return nil

				case asOf != 0 || currency != "":
					for _, acct := range accts {
						amt, err := calc.RunningBalanceAsOf(tx, j.ID, acct.ID, bandOf(acct, currency), model.EntryID(asOf))
						if err != nil {
							return err
						}
						fmt.Fprintf(out, "%s\t%s\t%s\n", acct.Code, acct.Description, amt)
					}
					return nil
				}

				amts, err := calc.MultiAccountBalances(tx, j.ID, ids, nil)
				if err != nil {
					return err
				}
				for _, acct := range accts {
					fmt.Fprintf(out, "%s\t%s\t%s\n", acct.Code, acct.Description, amts[acct.ID])
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&currency, "currency", "", "currency band (default the account's)")
	cmd.Flags().StringVar(&journalName, "journal", "", "journal name (default from config)")
	cmd.Flags().StringVar(&kindName, "kind", "", "only the layer of this kind, e.g. PENDING or DAILY_LIMIT")
	cmd.Flags().Int64Var(&asOf, "as-of", 0, "only count entries up to this entry id")
	cmd.Flags().BoolVar(&byLayer, "layers", false, "break the balance down per layer")

	return cmd
}

func bandOf(acct model.Account, currency string) string {
	if currency != "" {
		return currency
	}
	return acct.Currency
}

func printLayers(w io.Writer, layers *layer.Map, prefix string, balances map[int]balance.Amount) {
	ids := make([]int, 0, len(balances))
	for l := range balances {
		ids = append(ids, l)
	}
	sort.Ints(ids)
	for _, l := range ids {
		name := fmt.Sprint(l)
		if c, ok := layers.CurrencyOf(l); ok {
			base, _ := layers.Base(c)
			name = fmt.Sprintf("%d %s/%s", l, c, layer.Kind(l-base))
		}
		fmt.Fprintf(w, "%s%s\t%s\n", prefix, name, balances[l])
	}
}
