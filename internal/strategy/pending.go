package strategy

import (
	"fmt"

	"github.com/cleared-dev/ledger/internal/layer"
	"github.com/cleared-dev/ledger/internal/model"
)

// PendingInbound holds incoming funds on bridge accounts until completion.
type PendingInbound struct{}

func (PendingInbound) Name() string { return "pending-inbound" }

// BaseLayerEntries debits the real debit account and credits the credit
// account's bridge liability, deferring the credit to the real account.
func (PendingInbound) BaseLayerEntries(env Env, p Posting) ([]model.EntrySpec, error) {
	return deferredBase(env, p)
}

// OffsetLayerEntries shows the incoming amount on the pending layer.
func (PendingInbound) OffsetLayerEntries(env Env, p Posting) ([]model.EntrySpec, error) {
	return route(env, p, func(model.Account) (*model.EntryTag, *model.EntryTag) {
		return kindTag(p.Kind), kindTag(p.Kind)
	})
}

func (PendingInbound) LimitEntries(Env, Posting) ([]model.EntrySpec, error) {
	return nil, nil
}

func (PendingInbound) Complete(env Env, original model.Transaction, completion *model.Transaction) error {
	return complete(env, original, completion, nil)
}

// PendingBillPayment holds a bill payment and its rebates or commissions
// until completion.
type PendingBillPayment struct{}

func (PendingBillPayment) Name() string { return "pending-bill-payment" }

// BaseLayerEntries is emitted for AMOUNT transfers only.
func (PendingBillPayment) BaseLayerEntries(env Env, p Posting) ([]model.EntrySpec, error) {
	if p.Kind != model.EntryAmount {
		return nil, nil
	}
	return deferredBase(env, p)
}

// OffsetLayerEntries routes AMOUNT like an inbound transfer. Other kinds are
// parked on the pending layer with both sides deferred through one bridge.
func (PendingBillPayment) OffsetLayerEntries(env Env, p Posting) ([]model.EntrySpec, error) {
	if p.Kind == model.EntryAmount {
		return PendingInbound{}.OffsetLayerEntries(env, p)
	}
	if p.Kind == model.EntryCommission && p.Debit.Type() != TagExpense {
		return nil, fmt.Errorf("%w: %q is not tagged %s:%s", model.ErrExpenseAccountRequired, p.Debit.Code, model.TagType, TagExpense)
	}
	return route(env, p, func(bridge model.Account) (*model.EntryTag, *model.EntryTag) {
		return deferTag(p.Kind, model.Debit, p.Debit, bridge), deferTag(p.Kind, model.Credit, p.Credit, bridge)
	})
}

func (PendingBillPayment) LimitEntries(Env, Posting) ([]model.EntrySpec, error) {
	return nil, nil
}

func (PendingBillPayment) Complete(env Env, original model.Transaction, completion *model.Transaction) error {
	return complete(env, original, completion, func(e model.Entry, recipient model.Account) error {
		if e.Tag.Kind == model.EntryCommission && e.Tag.Deferral.Side == model.Debit && recipient.Type() != TagExpense {
			return fmt.Errorf("%w: %q is not tagged %s:%s", model.ErrExpenseAccountRequired, recipient.Code, model.TagType, TagExpense)
		}
		return nil
	})
}

func deferredBase(env Env, p Posting) ([]model.EntrySpec, error) {
	base, err := env.Layers.Base(p.Debit.Currency)
	if err != nil {
		return nil, err
	}
	bridge, err := env.Bridges.Liability(p.Credit)
	if err != nil {
		return nil, err
	}
	return pair(p.Debit, bridge, p.Amount, base, p.Detail,
		kindTag(p.Kind), deferTag(p.Kind, model.Credit, p.Credit, bridge)), nil
}

// route emits the pending-layer pair between the credit account and one of
// its bridges, picked by the credit account's normal side. tags returns the
// bridge entry's tag and then the credit account entry's tag.
func route(env Env, p Posting, tags func(bridge model.Account) (*model.EntryTag, *model.EntryTag)) ([]model.EntrySpec, error) {
	pending, err := env.Layers.Resolve(p.Credit.Currency, layer.Pending)
	if err != nil {
		return nil, err
	}
	switch p.Credit.NormalSide {
	case model.SideCredit:
		bridge, err := env.Bridges.Asset(p.Credit)
		if err != nil {
			return nil, err
		}
		bridgeTag, acctTag := tags(bridge)
		return pair(bridge, p.Credit, p.Amount, pending, p.Detail, bridgeTag, acctTag), nil
	case model.SideDebit:
		bridge, err := env.Bridges.Liability(p.Credit)
		if err != nil {
			return nil, err
		}
		bridgeTag, acctTag := tags(bridge)
		return pair(p.Credit, bridge, p.Amount, pending, p.Detail, acctTag, bridgeTag), nil
	}
	return nil, fmt.Errorf("%w: %q has normal side %q", model.ErrUnknownAccountType, p.Credit.Code, p.Credit.NormalSide)
}

// complete reverses every offset layer of original onto completion, then
// forwards each deferred entry to its counterparty on the base layer.
func complete(env Env, original model.Transaction, completion *model.Transaction, check func(model.Entry, model.Account) error) error {
	offsets := layer.OffsetLayersFor(env.Layers.Bases())
	var layers []int
	for _, l := range original.Layers() {
		if _, ok := offsets[l]; ok {
			layers = append(layers, l)
		}
	}
	if len(layers) > 0 {
		for _, e := range original.Reversal(layers...).Entries {
			completion.Entries = append(completion.Entries, model.Entry{
				AccountID: e.AccountID,
				Amount:    e.Amount,
				Direction: e.Direction,
				Layer:     e.Layer,
				Detail:    e.Detail,
				Tag:       settledTag(e.Tag),
			})
		}
	}

	for _, e := range original.Entries {
		if e.Tag == nil || e.Tag.Deferral == nil {
			continue
		}
		d := e.Tag.Deferral
		recipient, err := env.Accounts.Account(d.Counterparty)
		if err != nil || !recipient.IsFinal() {
			return fmt.Errorf("%w: entry %d names account %d", model.ErrUnresolvableTaggedRecipient, e.ID, d.Counterparty)
		}
		if check != nil {
			if err := check(e, recipient); err != nil {
				return err
			}
		}
		bridge, err := deferralBridge(env, d, recipient)
		if err != nil {
			return err
		}
		base, err := env.Layers.Base(recipient.Currency)
		if err != nil {
			return err
		}
		tag := kindTag(e.Tag.Kind)
		switch d.Side {
		case model.Credit:
			completion.Debit(bridge.ID, e.Amount, base, e.Detail, tag)
			completion.Credit(recipient.ID, e.Amount, base, e.Detail, tag)
		case model.Debit:
			completion.Debit(recipient.ID, e.Amount, base, e.Detail, tag)
			completion.Credit(bridge.ID, e.Amount, base, e.Detail, tag)
		default:
			return fmt.Errorf("%w: entry %d defers side %q", model.ErrUnresolvableTaggedRecipient, e.ID, d.Side)
		}
	}
	return nil
}

func deferralBridge(env Env, d *model.Deferral, recipient model.Account) (model.Account, error) {
	if d.Bridge == 0 {
		return env.Bridges.LiabilityForCurrency(recipient.Currency)
	}
	bridge, err := env.Accounts.Account(d.Bridge)
	if err != nil {
		return model.Account{}, fmt.Errorf("%w: %v", model.ErrBridgeAccountMissing, err)
	}
	return bridge, nil
}

func settledTag(t *model.EntryTag) *model.EntryTag {
	if t == nil {
		return nil
	}
	return kindTag(t.Kind)
}
