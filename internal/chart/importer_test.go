package chart

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/store"
)

const simplePayload = `
chart: {code: CHT, description: Demo chart, currency: USD}
currencies:
  - {code: USD, name: US Dollar, symbol: "$"}
accounts:
  - code: CHT100
    description: Assets
    composite: true
    type: DEBIT
    children:
      - {code: CHT100001, description: Cash}
journals:
  - name: main
    layers: [1000, 1001]
`

func decode(t *testing.T, doc string) *Payload {
	t.Helper()
	p, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	return p
}

func countKinds(t *testing.T, m *store.Memory, chart model.AccountID) (composites, finals int) {
	t.Helper()
	_ = m.View(context.Background(), func(tx *store.Tx) error {
		for _, a := range tx.Accounts(chart) {
			if a.IsChart() {
				continue
			}
			if a.IsFinal() {
				finals++
			} else {
				composites++
			}
		}
		return nil
	})
	return composites, finals
}

func TestImport_CreatesTree(t *testing.T) {
	m := store.NewMemory()
	im := NewImporter(m, true, nil)

	res, err := im.Import(context.Background(), decode(t, simplePayload))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created, "chart + composite + final")
	assert.Equal(t, 1, res.CurrenciesAdded)
	assert.Equal(t, 1, res.JournalsCreated)
	assert.Equal(t, 2, res.LayersAdded)

	_ = m.View(context.Background(), func(tx *store.Tx) error {
		cash, ok := tx.AccountByCode(res.Chart.ID, model.KindFinal, "CHT100001")
		require.True(t, ok)
		assert.Equal(t, "USD", cash.Currency, "currency inherited from parent")
		assert.Equal(t, model.SideDebit, cash.NormalSide, "type inherited from parent")

		level, err := Level(tx, cash)
		require.NoError(t, err)
		assert.Equal(t, 1, level)
		return nil
	})
}

func TestImport_Idempotent(t *testing.T) {
	m := store.NewMemory()
	im := NewImporter(m, true, nil)

	first, err := im.Import(context.Background(), decode(t, simplePayload))
	require.NoError(t, err)

	second, err := im.Import(context.Background(), decode(t, simplePayload))
	require.NoError(t, err)
	assert.Equal(t, first.Chart.ID, second.Chart.ID)
	assert.Zero(t, second.Created)
	assert.Zero(t, second.Updated)
	assert.Zero(t, second.CurrenciesAdded)
	assert.Zero(t, second.JournalsCreated)
	assert.Zero(t, second.LayersAdded)

	composites, finals := countKinds(t, m, first.Chart.ID)
	assert.Equal(t, 1, composites)
	assert.Equal(t, 1, finals)

	_ = m.View(context.Background(), func(tx *store.Tx) error {
		assert.Len(t, tx.Charts(), 1)
		assert.Len(t, tx.Currencies(), 1)
		assert.Len(t, tx.Journals(first.Chart.ID), 1)
		return nil
	})
}

func TestImport_UpdatesInPlace(t *testing.T) {
	m := store.NewMemory()
	im := NewImporter(m, true, nil)

	first, err := im.Import(context.Background(), decode(t, simplePayload))
	require.NoError(t, err)

	changed := strings.Replace(simplePayload, "description: Cash}", "description: Cash, tags: \"type:ASSET\"}", 1)
	res, err := im.Import(context.Background(), decode(t, changed))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Zero(t, res.Created)

	// Matched by description when the code changes.
	renamed := strings.Replace(simplePayload, "code: CHT100001", "code: CHT100009", 1)
	res, err = im.Import(context.Background(), decode(t, renamed))
	require.NoError(t, err)
	assert.Zero(t, res.Created)
	assert.Equal(t, 1, res.Updated)

	_, finals := countKinds(t, m, first.Chart.ID)
	assert.Equal(t, 1, finals)
}

func TestImport_RulesAppendedEveryCall(t *testing.T) {
	m := store.NewMemory()
	im := NewImporter(m, true, nil)
	doc := simplePayload + `    rules:
      - {class: limits.Daily, params: {max: "500"}, layers: [1004]}
`
	_, err := im.Import(context.Background(), decode(t, doc))
	require.NoError(t, err)
	res, err := im.Import(context.Background(), decode(t, doc))
	require.NoError(t, err)
	assert.Equal(t, 1, res.RulesAdded)

	_ = m.View(context.Background(), func(tx *store.Tx) error {
		j, ok := tx.JournalByName(res.Chart.ID, "main")
		require.True(t, ok)
		assert.Len(t, j.Rules, 2)
		assert.Len(t, j.Layers, 2)
		return nil
	})
}

func TestImport_MissingParentAbortsEverything(t *testing.T) {
	m := store.NewMemory()
	im := NewImporter(m, true, nil)
	doc := `
chart: {code: CHT, description: Demo chart, currency: USD}
currencies:
  - {code: USD}
accounts:
  - {code: CHT100, description: Assets, composite: true, type: DEBIT}
  - {code: CHT200001, description: Orphan, type: CREDIT, parent: CHT200}
`
	_, err := im.Import(context.Background(), decode(t, doc))
	require.ErrorIs(t, err, model.ErrParentNotFound)
	assert.Contains(t, err.Error(), "CHT200")

	_ = m.View(context.Background(), func(tx *store.Tx) error {
		assert.Empty(t, tx.Charts(), "failed import must not leave a partial chart")
		assert.Empty(t, tx.Currencies())
		return nil
	})
}

func TestImport_ParentReference(t *testing.T) {
	m := store.NewMemory()
	im := NewImporter(m, true, nil)
	_, err := im.Import(context.Background(), decode(t, simplePayload))
	require.NoError(t, err)

	extra := `
chart: {code: CHT, description: Demo chart, currency: USD}
accounts:
  - {code: CHT100002, description: Bank, parent: CHT100}
`
	res, err := im.Import(context.Background(), decode(t, extra))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	_, finals := countKinds(t, m, res.Chart.ID)
	assert.Equal(t, 2, finals)
}

func TestImport_StrictCodeViolation(t *testing.T) {
	doc := strings.Replace(simplePayload, "code: CHT100001", "code: XYZ001", 1)

	_, err := NewImporter(store.NewMemory(), true, nil).Import(context.Background(), decode(t, doc))
	assert.ErrorIs(t, err, model.ErrInvalidCode)

	_, err = NewImporter(store.NewMemory(), false, nil).Import(context.Background(), decode(t, doc))
	assert.NoError(t, err, "lenient mode accepts any code")
}

func TestImport_UnknownAccountType(t *testing.T) {
	doc := strings.Replace(simplePayload, "type: DEBIT", "type: SIDEWAYS", 1)
	_, err := NewImporter(store.NewMemory(), true, nil).Import(context.Background(), decode(t, doc))
	assert.ErrorIs(t, err, model.ErrUnknownAccountType)
}

func TestDecode_RequiresChartCode(t *testing.T) {
	_, err := Decode(strings.NewReader("currencies: []\n"))
	assert.Error(t, err)
}

func TestDecode_JSON(t *testing.T) {
	p, err := Decode(strings.NewReader(`{"chart": {"code": "CHT", "description": "Demo"}, "accounts": [{"code": "CHT1", "description": "X", "type": "CREDIT"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "CHT", p.Chart.Code)
	require.Len(t, p.Accounts, 1)
	assert.Equal(t, "CREDIT", p.Accounts[0].Type)
}
