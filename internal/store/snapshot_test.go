package store

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledger/internal/model"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	m := NewMemory()
	chart, a, b, j := seed(t, m)

	err := m.Update(context.Background(), func(tx *Tx) error {
		if _, err := tx.AddCurrency(model.Currency{Code: "USD", Name: "US Dollar", Symbol: "$"}); err != nil {
			return err
		}
		journal, err := tx.Journal(j.ID)
		if err != nil {
			return err
		}
		journal.Rules = append(journal.Rules, model.Rule{Class: "limits.Daily", Params: map[string]string{"max": "100"}, Layers: []int{1004}})
		if err := tx.UpdateJournal(journal); err != nil {
			return err
		}
		txn := pair(j, "T1", a, b, "12.50")
		txn.Metadata = map[string]string{"channel": "app, mobile"}
		txn.Entries[1].Tag.Deferral = &model.Deferral{Side: model.Credit, Counterparty: a.ID, Bridge: b.ID}
		_, err = tx.CreateTransaction(txn)
		return err
	})
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, m.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)

	_ = loaded.View(context.Background(), func(tx *Tx) error {
		got, ok := tx.ChartByCode("CHT")
		require.True(t, ok)
		assert.Equal(t, chart.ID, got.ID)

		acct, err := tx.Account(a.ID)
		require.NoError(t, err)
		assert.Equal(t, "ASSET", acct.Type())

		c, ok := tx.Currency("USD")
		require.True(t, ok)
		assert.Equal(t, "$", c.Symbol)

		jj, err := tx.Journal(j.ID)
		require.NoError(t, err)
		require.Len(t, jj.Rules, 1)
		assert.Equal(t, "100", jj.Rules[0].Params["max"])

		txn, err := tx.TransactionByReference("T1")
		require.NoError(t, err)
		assert.Equal(t, "app, mobile", txn.Metadata["channel"])
		require.Len(t, txn.Entries, 2)
		assert.True(t, txn.Entries[0].Amount.Equal(decimal.RequireFromString("12.50")))
		require.NotNil(t, txn.Entries[1].Tag)
		require.NotNil(t, txn.Entries[1].Tag.Deferral)
		assert.Equal(t, a.ID, txn.Entries[1].Tag.Deferral.Counterparty)
		assert.Equal(t, b.ID, txn.Entries[1].Tag.Deferral.Bridge)
		assert.Nil(t, txn.Entries[0].Tag)
		return nil
	})
}

func TestLoad_MissingDirIsEmpty(t *testing.T) {
	m, err := Load(t.TempDir() + "/missing")
	require.NoError(t, err)
	_ = m.View(context.Background(), func(tx *Tx) error {
		assert.Empty(t, tx.Charts())
		return nil
	})
}

func TestAccountsCSVRoundTrip(t *testing.T) {
	accounts := []model.Account{
		{ID: 1, RootID: 1, Kind: model.KindComposite, Code: "CHT", Description: "Chart, main"},
		{ID: 2, RootID: 1, ParentID: 1, Kind: model.KindFinal, Code: "CHT1", Currency: "USD", NormalSide: model.SideCredit, Tags: model.Tags{{Key: "type", Value: "EXPENSE"}}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, accounts))

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	assert.Equal(t, accounts, got)
}

func TestWriteAccounts_RejectsUnencodableTags(t *testing.T) {
	var buf bytes.Buffer
	err := WriteAccounts(&buf, []model.Account{{ID: 1, Code: "X", Tags: model.Tags{{Key: "note", Value: "a,b"}}}})
	assert.ErrorIs(t, err, model.ErrInvalidTag)
}
