package journal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/layer"
	"github.com/cleared-dev/ledger/internal/model"
)

// ValidationError describes a single invariant violation. Err is the
// sentinel it matches with errors.Is.
type ValidationError struct {
	Err         error
	Layer       int
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%v [layer %d]: %s", e.Err, e.Layer, e.Description)
}

func (e ValidationError) Unwrap() error { return e.Err }

// AccountGetter looks accounts up by id.
type AccountGetter interface {
	Account(id model.AccountID) (model.Account, error)
}

// ValidateEntries checks a transaction's entries before they are persisted:
// every amount is positive, every account is final and in the currency of
// the entry's layer band, and debits equal credits on every layer.
func ValidateEntries(entries []model.Entry, accounts AccountGetter, layers *layer.Map) []ValidationError {
	var errs []ValidationError
	if len(entries) == 0 {
		return []ValidationError{{Err: model.ErrEmptyTransaction, Description: "nothing to post"}}
	}

	sums := make(map[int]decimal.Decimal)
	var order []int
	for _, e := range entries {
		if _, seen := sums[e.Layer]; !seen {
			order = append(order, e.Layer)
			sums[e.Layer] = decimal.Zero
		}
		sums[e.Layer] = sums[e.Layer].Add(e.Signed())

		if !e.Amount.IsPositive() {
			errs = append(errs, ValidationError{
				Err: model.ErrInvalidAmount, Layer: e.Layer,
				Description: fmt.Sprintf("amount %s on account %d must be positive", e.Amount, e.AccountID),
			})
		}

		acct, err := accounts.Account(e.AccountID)
		if err != nil {
			errs = append(errs, ValidationError{Err: model.ErrAccountNotFound, Layer: e.Layer, Description: err.Error()})
			continue
		}
		if !acct.IsFinal() {
			errs = append(errs, ValidationError{
				Err: model.ErrNotPostable, Layer: e.Layer,
				Description: fmt.Sprintf("%q is composite", acct.Code),
			})
		}
		if cur, ok := layers.CurrencyOf(e.Layer); !ok {
			errs = append(errs, ValidationError{
				Err: model.ErrUnknownCurrency, Layer: e.Layer,
				Description: "layer belongs to no currency band",
			})
		} else if cur != acct.Currency {
			errs = append(errs, ValidationError{
				Err: model.ErrCurrencyMismatch, Layer: e.Layer,
				Description: fmt.Sprintf("%q holds %s, layer holds %s", acct.Code, acct.Currency, cur),
			})
		}
	}

	for _, l := range order {
		if !sums[l].IsZero() {
			errs = append(errs, ValidationError{
				Err: model.ErrUnbalanced, Layer: l,
				Description: fmt.Sprintf("debits exceed credits by %s", sums[l]),
			})
		}
	}
	return errs
}
