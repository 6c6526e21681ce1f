package strategy

import (
	"fmt"

	"github.com/cleared-dev/ledger/internal/layer"
	"github.com/cleared-dev/ledger/internal/model"
)

// Direct posts final balances immediately.
type Direct struct{}

func (Direct) Name() string { return "direct" }

// BaseLayerEntries emits one pair on the currency's base layer.
func (Direct) BaseLayerEntries(env Env, p Posting) ([]model.EntrySpec, error) {
	base, err := env.Layers.Base(p.Debit.Currency)
	if err != nil {
		return nil, err
	}
	return pair(p.Debit, p.Credit, p.Amount, base, p.Detail, kindTag(p.Kind), kindTag(p.Kind)), nil
}

func (Direct) OffsetLayerEntries(Env, Posting) ([]model.EntrySpec, error) {
	return nil, nil
}

// LimitEntries tracks consumption of AMOUNT transfers on the daily and
// cumulative limit layers against the debit account's bridge-asset account.
func (Direct) LimitEntries(env Env, p Posting) ([]model.EntrySpec, error) {
	if p.Kind != model.EntryAmount || p.SkipLimits || env.Bridges.IsBridge(p.Debit) {
		return nil, nil
	}
	bridge, err := env.Bridges.Asset(p.Debit)
	if err != nil {
		return nil, err
	}
	var out []model.EntrySpec
	for _, k := range []layer.Kind{layer.DailyLimit, layer.CumulativeLimit} {
		l, err := env.Layers.Resolve(p.Debit.Currency, k)
		if err != nil {
			return nil, err
		}
		out = append(out, pair(p.Debit, bridge, p.Amount, l, p.Detail, kindTag(p.Kind), kindTag(p.Kind))...)
	}
	return out, nil
}

func (Direct) Complete(_ Env, original model.Transaction, _ *model.Transaction) error {
	return fmt.Errorf("%w: %q", model.ErrNotPending, original.Reference)
}
