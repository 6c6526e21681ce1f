// Package balance aggregates persisted entries into account balances.
package balance

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/layer"
	"github.com/cleared-dev/ledger/internal/model"
)

// Amount is a monetary value in one currency.
type Amount struct {
	Value    decimal.Decimal
	Currency string
}

func (a Amount) String() string {
	return a.Value.StringFixed(2) + " " + a.Currency
}

// Repository reads the entries balances are computed from.
type Repository interface {
	Account(id model.AccountID) (model.Account, error)
	AccountEntries(journal model.JournalID, account model.AccountID) []model.Entry
}

// Calculator computes balances over the layer band of a currency.
type Calculator struct {
	layers *layer.Map
}

// NewCalculator creates a Calculator.
func NewCalculator(layers *layer.Map) *Calculator {
	return &Calculator{layers: layers}
}

// Balance sums the account's entries on every layer of currency in journal.
// Credit-normal accounts are negated so the balance grows on their normal
// side.
func (c *Calculator) Balance(repo Repository, journal model.JournalID, account model.AccountID, currency string) (Amount, error) {
	return c.RunningBalanceAsOf(repo, journal, account, currency, 0)
}

// RunningBalanceAsOf is Balance restricted to entries with id <= maxEntry.
// A zero maxEntry means no bound.
func (c *Calculator) RunningBalanceAsOf(repo Repository, journal model.JournalID, account model.AccountID, currency string, maxEntry model.EntryID) (Amount, error) {
	band, err := c.layers.Band(currency)
	if err != nil {
		return Amount{}, err
	}
	acct, err := repo.Account(account)
	if err != nil {
		return Amount{}, err
	}
	in := make(map[int]bool, len(band))
	for _, l := range band {
		in[l] = true
	}

	sum := decimal.Zero
	for _, e := range repo.AccountEntries(journal, account) {
		if maxEntry != 0 && e.ID > maxEntry {
			break
		}
		if in[e.Layer] {
			sum = sum.Add(e.Signed())
		}
	}
	return natural(acct, sum), nil
}

// MultiAccountBalances sums each account's entries on layers. With no layers
// every layer of the account's currency is summed.
func (c *Calculator) MultiAccountBalances(repo Repository, journal model.JournalID, accounts []model.AccountID, layers []int) (map[model.AccountID]Amount, error) {
	out := make(map[model.AccountID]Amount, len(accounts))
	for _, id := range accounts {
		if len(layers) == 0 {
			acct, err := repo.Account(id)
			if err != nil {
				return nil, err
			}
			amt, err := c.Balance(repo, journal, id, acct.Currency)
			if err != nil {
				return nil, fmt.Errorf("account %q: %w", acct.Code, err)
			}
			out[id] = amt
			continue
		}
		byLayer, err := c.LayerBalances(repo, journal, id)
		if err != nil {
			return nil, err
		}
		acct, _ := repo.Account(id)
		sum := Amount{Value: decimal.Zero, Currency: acct.Currency}
		for _, l := range layers {
			if amt, ok := byLayer[l]; ok {
				sum.Value = sum.Value.Add(amt.Value)
			}
		}
		out[id] = sum
	}
	return out, nil
}

// LayerBalances breaks an account's balance down per layer.
func (c *Calculator) LayerBalances(repo Repository, journal model.JournalID, account model.AccountID) (map[int]Amount, error) {
	acct, err := repo.Account(account)
	if err != nil {
		return nil, err
	}
	sums := make(map[int]decimal.Decimal)
	for _, e := range repo.AccountEntries(journal, account) {
		sums[e.Layer] = sums[e.Layer].Add(e.Signed())
	}
	out := make(map[int]Amount, len(sums))
	for l, s := range sums {
		out[l] = natural(acct, s)
	}
	return out, nil
}

func natural(acct model.Account, debitPositive decimal.Decimal) Amount {
	if acct.NormalSide == model.SideCredit {
		debitPositive = debitPositive.Neg()
	}
	return Amount{Value: debitPositive, Currency: acct.Currency}
}
