package model

import (
	"github.com/shopspring/decimal"
)

// Direction is the side a single entry posts on.
type Direction string

const (
	Debit  Direction = "DEBIT"
	Credit Direction = "CREDIT"
)

// Opposite returns the inverse direction.
func (d Direction) Opposite() Direction {
	if d == Debit {
		return Credit
	}
	return Debit
}

// EntryKind classifies the business meaning of a logical entry.
type EntryKind string

const (
	EntryAmount     EntryKind = "AMOUNT"
	EntryFee        EntryKind = "FEE"
	EntryCommission EntryKind = "COMMISSION"
	EntryRebate     EntryKind = "REBATE"
)

// Deferral names the counterparty an intermediate posting must be forwarded
// to when the pending transaction completes. Side is the side the
// counterparty is posted on; Bridge is the account the forward settles
// through (zero means "resolve by currency").
type Deferral struct {
	Side         Direction
	Counterparty AccountID
	Bridge       AccountID
}

// EntryTag is structured metadata attached to an entry.
type EntryTag struct {
	Kind     EntryKind
	Deferral *Deferral
}

// TransactionID identifies a persisted transaction.
type TransactionID int64

// EntryID is assigned monotonically when an entry is persisted.
type EntryID int64

// Entry is one posting of a transaction against a final account.
type Entry struct {
	ID            EntryID
	TransactionID TransactionID
	AccountID     AccountID
	Amount        decimal.Decimal
	Direction     Direction
	Layer         int
	Detail        string
	Tag           *EntryTag
}

// Signed returns the amount positive for debits and negative for credits.
func (e Entry) Signed() decimal.Decimal {
	if e.Direction == Credit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// EntrySpec is a posting produced by a strategy before it is persisted.
type EntrySpec struct {
	Account   Account
	Amount    decimal.Decimal
	Direction Direction
	Layer     int
	Detail    string
	Tag       *EntryTag
}

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	StatusPosted    TransactionStatus = "posted"
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusReversed  TransactionStatus = "reversed"
	StatusReversal  TransactionStatus = "reversal"
	StatusSettled   TransactionStatus = "settled"
)

// Transaction is a balanced set of entries posted to one journal.
type Transaction struct {
	ID           TransactionID
	Reference    string
	JournalID    JournalID
	Type         string
	Group        string
	Pending      bool
	Status       TransactionStatus
	Metadata     map[string]string
	Entries      []Entry
	OriginalID   TransactionID
	CompletionID TransactionID
	ReversalID   TransactionID
}

// Debit appends a debit entry.
func (t *Transaction) Debit(acct AccountID, amount decimal.Decimal, layer int, detail string, tag *EntryTag) {
	t.add(acct, amount, Debit, layer, detail, tag)
}

// Credit appends a credit entry.
func (t *Transaction) Credit(acct AccountID, amount decimal.Decimal, layer int, detail string, tag *EntryTag) {
	t.add(acct, amount, Credit, layer, detail, tag)
}

// Append adds a persisted-to-be entry from a spec.
func (t *Transaction) Append(spec EntrySpec) {
	t.add(spec.Account.ID, spec.Amount, spec.Direction, spec.Layer, spec.Detail, spec.Tag)
}

func (t *Transaction) add(acct AccountID, amount decimal.Decimal, dir Direction, layer int, detail string, tag *EntryTag) {
	t.Entries = append(t.Entries, Entry{
		TransactionID: t.ID,
		AccountID:     acct,
		Amount:        amount,
		Direction:     dir,
		Layer:         layer,
		Detail:        detail,
		Tag:           tag,
	})
}

// Reversal builds an unsaved transaction that inverts every entry whose layer
// is in layers. With no layers given, all entries are inverted.
func (t Transaction) Reversal(layers ...int) Transaction {
	filter := make(map[int]struct{}, len(layers))
	for _, l := range layers {
		filter[l] = struct{}{}
	}

	rev := Transaction{
		JournalID:  t.JournalID,
		Type:       t.Type,
		Group:      t.Group,
		Status:     StatusReversal,
		OriginalID: t.ID,
	}
	for _, e := range t.Entries {
		if len(filter) > 0 {
			if _, ok := filter[e.Layer]; !ok {
				continue
			}
		}
		rev.add(e.AccountID, e.Amount, e.Direction.Opposite(), e.Layer, e.Detail, e.Tag)
	}
	return rev
}

// Layers returns the distinct layers present in the transaction, in order of
// first appearance.
func (t Transaction) Layers() []int {
	seen := make(map[int]bool)
	var out []int
	for _, e := range t.Entries {
		if !seen[e.Layer] {
			seen[e.Layer] = true
			out = append(out, e.Layer)
		}
	}
	return out
}
