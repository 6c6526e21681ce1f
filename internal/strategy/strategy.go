// Package strategy turns logical transfers into layered ledger postings and
// resolves pending transactions on completion.
package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/layer"
	"github.com/cleared-dev/ledger/internal/model"
)

// Transaction groups with a pending lifecycle.
const (
	GroupInbound     = "INBOUND"
	GroupBillPayment = "BILL_PAYMENT"
)

// TagExpense is the account type a commission must be charged to.
const TagExpense = "EXPENSE"

// TransactionContext selects the lifecycle of a transaction.
type TransactionContext struct {
	Pending bool
	Group   string
}

// Bridges resolves the bridge accounts paired with a final account.
type Bridges interface {
	Asset(acct model.Account) (model.Account, error)
	Liability(acct model.Account) (model.Account, error)
	LiabilityForCurrency(currency string) (model.Account, error)
	IsBridge(acct model.Account) bool
}

// Accounts looks accounts up by id.
type Accounts interface {
	Account(id model.AccountID) (model.Account, error)
}

// Env is what strategies read while building entries.
type Env struct {
	Layers   *layer.Map
	Bridges  Bridges
	Accounts Accounts
}

// Posting is one logical transfer with resolved accounts.
type Posting struct {
	Debit      model.Account
	Credit     model.Account
	Amount     decimal.Decimal
	Kind       model.EntryKind
	Detail     string
	SkipLimits bool
}

// Strategy is one transaction lifecycle.
type Strategy interface {
	Name() string
	BaseLayerEntries(env Env, p Posting) ([]model.EntrySpec, error)
	OffsetLayerEntries(env Env, p Posting) ([]model.EntrySpec, error)
	LimitEntries(env Env, p Posting) ([]model.EntrySpec, error)
	// Complete appends the entries resolving original onto completion.
	Complete(env Env, original model.Transaction, completion *model.Transaction) error
}

// Select returns the strategy for a transaction context. Pending groups
// without a lifecycle fail with ErrUnsupportedLifecycle.
func Select(c TransactionContext) (Strategy, error) {
	switch {
	case !c.Pending:
		return Direct{}, nil
	case c.Group == GroupInbound:
		return PendingInbound{}, nil
	case c.Group == GroupBillPayment:
		return PendingBillPayment{}, nil
	}
	return nil, fmt.Errorf("%w: pending group %q", model.ErrUnsupportedLifecycle, c.Group)
}

func kindTag(k model.EntryKind) *model.EntryTag {
	return &model.EntryTag{Kind: k}
}

func deferTag(k model.EntryKind, side model.Direction, counterparty, bridge model.Account) *model.EntryTag {
	return &model.EntryTag{
		Kind:     k,
		Deferral: &model.Deferral{Side: side, Counterparty: counterparty.ID, Bridge: bridge.ID},
	}
}

func pair(debit, credit model.Account, amount decimal.Decimal, layer int, detail string, debitTag, creditTag *model.EntryTag) []model.EntrySpec {
	return []model.EntrySpec{
		{Account: debit, Amount: amount, Direction: model.Debit, Layer: layer, Detail: detail, Tag: debitTag},
		{Account: credit, Amount: amount, Direction: model.Credit, Layer: layer, Detail: detail, Tag: creditTag},
	}
}
