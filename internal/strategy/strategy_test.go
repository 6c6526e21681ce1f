package strategy

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/chart"
	"github.com/cleared-dev/ledger/internal/layer"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/store"
)

type fixture struct {
	m        *store.Memory
	layers   *layer.Map
	cash     model.Account // asset, DEBIT
	alice    model.Account // customer liability, CREDIT
	fees     model.Account // expense, type EXPENSE
	revenue  model.Account // revenue, CREDIT
	bridgeCf accounts.BridgeConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	m := store.NewMemory()
	bases := map[string]int{"USD": 1000}
	_, err := chart.NewImporter(m, true, nil).Import(ctx, accounts.DefaultChart("CHT", "Demo", bases))
	require.NoError(t, err)

	cfg := accounts.DefaultBridgeConfig("CHT")
	svc := accounts.NewService(m, cfg, true, nil)
	create := func(parent, desc, kind string) model.Account {
		a, err := svc.Create(ctx, accounts.CreateParams{
			Chart: "CHT", ParentCode: parent, Currency: "USD", Description: desc,
			CodePadding: 3, Final: true, KindTag: kind,
		})
		require.NoError(t, err)
		return a
	}

	layers, err := layer.NewMap(bases)
	require.NoError(t, err)
	return &fixture{
		m:        m,
		layers:   layers,
		cash:     create("CHT1", "Cash", "ASSET"),
		alice:    create("CHT2", "Alice", "CUSTOMER"),
		fees:     create("CHT5", "Fees", TagExpense),
		revenue:  create("CHT4", "Revenue", "REVENUE"),
		bridgeCf: cfg,
	}
}

// view runs fn with an Env bound to a read-only view of the fixture store.
func (f *fixture) view(t *testing.T, fn func(env Env, b *accounts.Bridges)) {
	t.Helper()
	err := f.m.View(context.Background(), func(tx *store.Tx) error {
		root, ok := tx.ChartByCode("CHT")
		require.True(t, ok)
		b := accounts.NewBridges(tx, root, f.bridgeCf)
		fn(Env{Layers: f.layers, Bridges: b, Accounts: tx}, b)
		return nil
	})
	require.NoError(t, err)
}

func posting(debit, credit model.Account, kind model.EntryKind) Posting {
	return Posting{Debit: debit, Credit: credit, Amount: decimal.NewFromInt(100), Kind: kind, Detail: "test"}
}

// build runs every entry method of s and assembles a transaction the way the
// poster does.
func build(t *testing.T, s Strategy, env Env, pending bool, postings ...Posting) model.Transaction {
	t.Helper()
	var txn model.Transaction
	for _, p := range postings {
		specs, err := s.BaseLayerEntries(env, p)
		require.NoError(t, err)
		if pending {
			more, err := s.OffsetLayerEntries(env, p)
			require.NoError(t, err)
			specs = append(specs, more...)
		} else {
			more, err := s.LimitEntries(env, p)
			require.NoError(t, err)
			specs = append(specs, more...)
		}
		for _, spec := range specs {
			txn.Append(spec)
		}
	}
	for i := range txn.Entries {
		txn.Entries[i].ID = model.EntryID(i + 1)
	}
	return txn
}

type key struct {
	account model.AccountID
	layer   int
}

func net(txns ...model.Transaction) map[key]decimal.Decimal {
	out := make(map[key]decimal.Decimal)
	for _, txn := range txns {
		for _, e := range txn.Entries {
			k := key{e.AccountID, e.Layer}
			out[k] = out[k].Add(e.Signed())
		}
	}
	for k, v := range out {
		if v.IsZero() {
			delete(out, k)
		}
	}
	return out
}

func assertLayersBalance(t *testing.T, txn model.Transaction) {
	t.Helper()
	sums := make(map[int]decimal.Decimal)
	for _, e := range txn.Entries {
		sums[e.Layer] = sums[e.Layer].Add(e.Signed())
	}
	for l, s := range sums {
		assert.True(t, s.IsZero(), "layer %d sums to %s", l, s)
	}
}

func TestSelect(t *testing.T) {
	tests := []struct {
		ctx  TransactionContext
		want string
		err  error
	}{
		{TransactionContext{Pending: false}, "direct", nil},
		{TransactionContext{Pending: false, Group: GroupInbound}, "direct", nil},
		{TransactionContext{Pending: true, Group: GroupInbound}, "pending-inbound", nil},
		{TransactionContext{Pending: true, Group: GroupBillPayment}, "pending-bill-payment", nil},
		{TransactionContext{Pending: true, Group: "OUTBOUND"}, "", model.ErrUnsupportedLifecycle},
		{TransactionContext{Pending: true}, "", model.ErrUnsupportedLifecycle},
	}
	for _, tt := range tests {
		s, err := Select(tt.ctx)
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, s.Name())
	}
}

func TestDirect_BaseAndLimits(t *testing.T) {
	f := newFixture(t)
	f.view(t, func(env Env, b *accounts.Bridges) {
		txn := build(t, Direct{}, env, false, posting(f.cash, f.revenue, model.EntryAmount))
		require.Len(t, txn.Entries, 6)
		assertLayersBalance(t, txn)

		assert.Equal(t, []int{1000, 1004, 1005}, txn.Layers())
		asset, err := b.Asset(f.cash)
		require.NoError(t, err)
		for _, e := range txn.Entries[2:] {
			if e.Direction == model.Debit {
				assert.Equal(t, f.cash.ID, e.AccountID)
			} else {
				assert.Equal(t, asset.ID, e.AccountID)
			}
		}
		off, err := Direct{}.OffsetLayerEntries(env, posting(f.cash, f.revenue, model.EntryAmount))
		require.NoError(t, err)
		assert.Empty(t, off)
	})
}

func TestDirect_NoLimits(t *testing.T) {
	f := newFixture(t)
	f.view(t, func(env Env, b *accounts.Bridges) {
		skipped := posting(f.cash, f.revenue, model.EntryAmount)
		skipped.SkipLimits = true

		bridge, err := b.Asset(f.cash)
		require.NoError(t, err)

		for name, p := range map[string]Posting{
			"skip flag":    skipped,
			"fee kind":     posting(f.cash, f.revenue, model.EntryFee),
			"bridge debit": posting(bridge, f.revenue, model.EntryAmount),
		} {
			specs, err := Direct{}.LimitEntries(env, p)
			require.NoError(t, err, name)
			assert.Empty(t, specs, name)
		}
	})
}

func TestDirect_MissingBridge(t *testing.T) {
	f := newFixture(t)
	f.bridgeCf = accounts.BridgeConfig{AssetsParent: "CHT7", LiabilitiesParent: "CHT7"}
	f.view(t, func(env Env, _ *accounts.Bridges) {
		_, err := Direct{}.LimitEntries(env, posting(f.cash, f.revenue, model.EntryAmount))
		assert.ErrorIs(t, err, model.ErrBridgeAccountMissing)
	})
}

func TestPendingInbound_Entries(t *testing.T) {
	f := newFixture(t)
	f.view(t, func(env Env, b *accounts.Bridges) {
		txn := build(t, PendingInbound{}, env, true, posting(f.cash, f.alice, model.EntryAmount))
		require.Len(t, txn.Entries, 4)
		assertLayersBalance(t, txn)

		liab, err := b.Liability(f.alice)
		require.NoError(t, err)
		asset, err := b.Asset(f.alice)
		require.NoError(t, err)

		base := txn.Entries[:2]
		assert.Equal(t, f.cash.ID, base[0].AccountID)
		assert.Equal(t, liab.ID, base[1].AccountID)
		require.NotNil(t, base[1].Tag.Deferral)
		assert.Equal(t, model.Deferral{Side: model.Credit, Counterparty: f.alice.ID, Bridge: liab.ID}, *base[1].Tag.Deferral)

		pending := txn.Entries[2:]
		assert.Equal(t, 1001, pending[0].Layer)
		assert.Equal(t, asset.ID, pending[0].AccountID)
		assert.Equal(t, model.Debit, pending[0].Direction)
		assert.Equal(t, f.alice.ID, pending[1].AccountID)
		assert.Equal(t, model.Credit, pending[1].Direction)
	})
}

func TestPendingInbound_DebitNormalCredit(t *testing.T) {
	f := newFixture(t)
	f.view(t, func(env Env, b *accounts.Bridges) {
		specs, err := PendingInbound{}.OffsetLayerEntries(env, posting(f.alice, f.cash, model.EntryAmount))
		require.NoError(t, err)
		liab, err := b.Liability(f.cash)
		require.NoError(t, err)
		require.Len(t, specs, 2)
		assert.Equal(t, f.cash.ID, specs[0].Account.ID)
		assert.Equal(t, model.Debit, specs[0].Direction)
		assert.Equal(t, liab.ID, specs[1].Account.ID)
	})
}

func TestPendingInbound_UnknownNormalSide(t *testing.T) {
	f := newFixture(t)
	f.view(t, func(env Env, _ *accounts.Bridges) {
		odd := f.alice
		odd.NormalSide = ""
		_, err := PendingInbound{}.OffsetLayerEntries(env, posting(f.cash, odd, model.EntryAmount))
		assert.ErrorIs(t, err, model.ErrUnknownAccountType)
	})
}

func TestPendingInbound_CompleteNetsToFinal(t *testing.T) {
	f := newFixture(t)
	f.view(t, func(env Env, _ *accounts.Bridges) {
		for _, p := range []Posting{
			posting(f.cash, f.alice, model.EntryAmount),
			posting(f.alice, f.cash, model.EntryAmount),
		} {
			original := build(t, PendingInbound{}, env, true, p)
			var completion model.Transaction
			require.NoError(t, PendingInbound{}.Complete(env, original, &completion))
			assertLayersBalance(t, completion)

			hundred := decimal.NewFromInt(100)
			got := net(original, completion)
			require.Len(t, got, 2, "only the real accounts keep a balance")
			assert.True(t, got[key{p.Debit.ID, 1000}].Equal(hundred))
			assert.True(t, got[key{p.Credit.ID, 1000}].Equal(hundred.Neg()))
		}
	})
}

func TestPendingBillPayment_Entries(t *testing.T) {
	f := newFixture(t)
	f.view(t, func(env Env, _ *accounts.Bridges) {
		s := PendingBillPayment{}
		base, err := s.BaseLayerEntries(env, posting(f.fees, f.revenue, model.EntryCommission))
		require.NoError(t, err)
		assert.Empty(t, base, "only AMOUNT has base entries")

		base, err = s.BaseLayerEntries(env, posting(f.alice, f.revenue, model.EntryAmount))
		require.NoError(t, err)
		assert.Len(t, base, 2)

		_, err = s.OffsetLayerEntries(env, posting(f.cash, f.revenue, model.EntryCommission))
		assert.ErrorIs(t, err, model.ErrExpenseAccountRequired)
	})
}

func TestPendingBillPayment_CompleteNetsToFinal(t *testing.T) {
	f := newFixture(t)
	f.view(t, func(env Env, _ *accounts.Bridges) {
		s := PendingBillPayment{}
		original := build(t, s, env, true,
			posting(f.alice, f.revenue, model.EntryAmount),
			posting(f.fees, f.revenue, model.EntryCommission),
			posting(f.revenue, f.alice, model.EntryRebate),
		)
		assertLayersBalance(t, original)

		var completion model.Transaction
		require.NoError(t, s.Complete(env, original, &completion))
		assertLayersBalance(t, completion)

		got := net(original, completion)
		hundred := decimal.NewFromInt(100)
		assert.Len(t, got, 2)
		assert.True(t, got[key{f.alice.ID, 1000}].IsZero(), "payment and rebate cancel")
		assert.True(t, got[key{f.fees.ID, 1000}].Equal(hundred))
		assert.True(t, got[key{f.revenue.ID, 1000}].Equal(hundred.Neg()))
	})
}

func TestComplete_UnresolvableRecipient(t *testing.T) {
	f := newFixture(t)
	f.view(t, func(env Env, b *accounts.Bridges) {
		liab, err := b.Liability(f.alice)
		require.NoError(t, err)
		var original model.Transaction
		original.Debit(f.cash.ID, decimal.NewFromInt(5), 1000, "x", nil)
		original.Credit(liab.ID, decimal.NewFromInt(5), 1000, "x", &model.EntryTag{
			Kind:     model.EntryAmount,
			Deferral: &model.Deferral{Side: model.Credit, Counterparty: 9999},
		})
		var completion model.Transaction
		err = PendingInbound{}.Complete(env, original, &completion)
		assert.ErrorIs(t, err, model.ErrUnresolvableTaggedRecipient)
	})
}

func TestComplete_BridgeByCurrency(t *testing.T) {
	f := newFixture(t)
	f.view(t, func(env Env, b *accounts.Bridges) {
		liab, err := b.LiabilityForCurrency("USD")
		require.NoError(t, err)
		var original model.Transaction
		original.Debit(f.cash.ID, decimal.NewFromInt(5), 1000, "x", nil)
		original.Credit(liab.ID, decimal.NewFromInt(5), 1000, "x", &model.EntryTag{
			Kind:     model.EntryAmount,
			Deferral: &model.Deferral{Side: model.Credit, Counterparty: f.alice.ID},
		})
		var completion model.Transaction
		require.NoError(t, PendingInbound{}.Complete(env, original, &completion))
		require.Len(t, completion.Entries, 2)
		assert.Equal(t, liab.ID, completion.Entries[0].AccountID)
		assert.Equal(t, f.alice.ID, completion.Entries[1].AccountID)
	})
}

func TestComplete_CommissionNeedsExpense(t *testing.T) {
	f := newFixture(t)
	f.view(t, func(env Env, b *accounts.Bridges) {
		asset, err := b.Asset(f.revenue)
		require.NoError(t, err)
		var original model.Transaction
		original.Debit(asset.ID, decimal.NewFromInt(5), 1001, "x", &model.EntryTag{
			Kind:     model.EntryCommission,
			Deferral: &model.Deferral{Side: model.Debit, Counterparty: f.cash.ID, Bridge: asset.ID},
		})
		original.Credit(f.revenue.ID, decimal.NewFromInt(5), 1001, "x", nil)
		var completion model.Transaction
		err = PendingBillPayment{}.Complete(env, original, &completion)
		assert.ErrorIs(t, err, model.ErrExpenseAccountRequired)
	})
}

func TestDirect_CompleteRejected(t *testing.T) {
	err := Direct{}.Complete(Env{}, model.Transaction{Reference: "r"}, &model.Transaction{})
	assert.ErrorIs(t, err, model.ErrNotPending)
}
