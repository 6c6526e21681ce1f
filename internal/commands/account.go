package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/accounts"
)

func newAccountCommand(dir *string) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}
	accountCmd.AddCommand(newAccountCreateCommand(dir), newAccountListCommand(dir))
	return accountCmd
}

func newAccountCreateCommand(dir *string) *cobra.Command {
	var params accounts.CreateParams
	var composite bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Provision an account under a composite parent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			params.Chart = a.cfg.Ledger.Chart
			params.Final = !composite
			if !cmd.Flags().Changed("padding") {
				params.CodePadding = a.cfg.Ledger.CodePadding
			}
			acct, err := a.accounts().Create(cmd.Context(), params)
			if err != nil {
				return err
			}
			if err := a.commit("account-create", acct.Code, acct.Description, 0); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", acct.Code, acct.Description)
			return nil
		},
	}

	cmd.Flags().StringVar(&params.ParentCode, "parent", "", "parent composite code (required)")
	cmd.Flags().StringVar(&params.Description, "description", "", "account description (required)")
	cmd.Flags().StringVar(&params.Currency, "currency", "USD", "account currency")
	cmd.Flags().StringVar(&params.KindTag, "kind", "", "value of the account's type tag, e.g. EXPENSE")
	cmd.Flags().StringToStringVar(&params.Metadata, "meta", nil, "extra tags, e.g. segment=retail")
	cmd.Flags().IntVar(&params.CodePadding, "padding", 3, "digits appended to the parent code")
	cmd.Flags().BoolVar(&composite, "composite", false, "create a composite instead of a final account")
	_ = cmd.MarkFlagRequired("parent")
	_ = cmd.MarkFlagRequired("description")

	return cmd
}

func newAccountListCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the accounts of the chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			list, err := a.accounts().List(cmd.Context(), a.cfg.Ledger.Chart)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tKIND\tCURRENCY\tSIDE\tDESCRIPTION\tTAGS")
			for _, acct := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					acct.Code, acct.Kind, acct.Currency, acct.NormalSide, acct.Description, acct.Tags)
			}
			return w.Flush()
		},
	}
}
