package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/journal"
	"github.com/cleared-dev/ledger/internal/model"
)

func newPostCommand(dir *string) *cobra.Command {
	var (
		file       string
		req        journal.Request
		entry      journal.RequestEntry
		kind       string
		skipLimits bool
	)

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a transfer from flags or a request file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			if file != "" {
				decoded, err := journal.DecodeRequestFile(file)
				if err != nil {
					return err
				}
				req = *decoded
			} else {
				if entry.Debit == "" || entry.Credit == "" || entry.Amount == "" {
					return fmt.Errorf("--debit, --credit and --amount are required without --file")
				}
				entry.Metadata = map[string]string{}
				if kind != "" {
					entry.Metadata[journal.MetaKind] = strings.ToUpper(kind)
				}
				if skipLimits {
					entry.Metadata[journal.MetaSkipLimits] = "true"
				}
				req.Entries = []journal.RequestEntry{entry}
			}

			txn, err := a.journal().Post(cmd.Context(), req)
			if err != nil {
				return err
			}
			if err := a.commit("post", txn.Reference, summary(txn), int64(txn.ID)); err != nil {
				return err
			}
			printTransaction(cmd.OutOrStdout(), txn)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML or JSON request file")
	cmd.Flags().StringVar(&req.Reference, "reference", "", "transaction reference (generated when empty)")
	cmd.Flags().StringVar(&req.Journal, "journal", "", "journal name (default from config)")
	cmd.Flags().StringVar(&req.Type, "type", "", "transaction type")
	cmd.Flags().StringVar(&req.Group, "group", "", "lifecycle group, e.g. INBOUND or BILL_PAYMENT")
	cmd.Flags().BoolVar(&req.Pending, "pending", false, "post as pending")
	cmd.Flags().StringVar(&entry.Debit, "debit", "", "debit account address")
	cmd.Flags().StringVar(&entry.Credit, "credit", "", "credit account address")
	cmd.Flags().StringVar(&entry.Amount, "amount", "", "amount")
	cmd.Flags().StringVar(&entry.Narration, "narration", "", "entry narration")
	cmd.Flags().StringVar(&kind, "kind", "", "entry kind stored as the entry's type metadata: AMOUNT, FEE, COMMISSION or REBATE")
	cmd.Flags().BoolVar(&skipLimits, "skip-limits", false, "do not track limit consumption")

	return cmd
}

func newCompleteCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <reference>",
		Short: "Resolve a pending transaction into final postings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			txn, err := a.journal().Complete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.commit("complete", args[0], summary(txn), int64(txn.ID)); err != nil {
				return err
			}
			printTransaction(cmd.OutOrStdout(), txn)
			return nil
		},
	}
}

func newReverseCommand(dir *string) *cobra.Command {
	var layers []int

	cmd := &cobra.Command{
		Use:   "reverse <reference>",
		Short: "Post the inverse of a transaction, optionally on some layers only",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			txn, err := a.journal().Reverse(cmd.Context(), args[0], layers...)
			if err != nil {
				return err
			}
			if err := a.commit("reverse", args[0], summary(txn), int64(txn.ID)); err != nil {
				return err
			}
			printTransaction(cmd.OutOrStdout(), txn)
			return nil
		},
	}
	cmd.Flags().IntSliceVar(&layers, "layer", nil, "layers to reverse (default all)")
	return cmd
}

func summary(txn model.Transaction) string {
	return fmt.Sprintf("%s, %d entries on layers %v", txn.Status, len(txn.Entries), txn.Layers())
}

func printTransaction(w io.Writer, txn model.Transaction) {
	fmt.Fprintf(w, "%s %s\n", txn.Reference, txn.Status)
	for _, e := range txn.Entries {
		kind := ""
		if e.Tag != nil {
			kind = string(e.Tag.Kind)
		}
		fmt.Fprintf(w, "  %6d  %-6s %12s  layer %d  account %d  %s\n",
			e.ID, e.Direction, e.Amount.StringFixed(2), e.Layer, e.AccountID, kind)
	}
}
