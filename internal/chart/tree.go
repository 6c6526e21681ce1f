package chart

import (
	"fmt"
	"strings"

	"github.com/cleared-dev/ledger/internal/model"
)

// AccountGetter resolves accounts by id.
type AccountGetter interface {
	Account(id model.AccountID) (model.Account, error)
}

// ValidateChildCode enforces that child.Code extends parent.Code when strict
// is on. Children of a chart root are exempt.
func ValidateChildCode(parent, child model.Account, strict bool) error {
	if !strict || parent.IsChart() {
		return nil
	}
	if !strings.HasPrefix(child.Code, parent.Code) {
		return fmt.Errorf("%w: %q does not extend parent code %q", model.ErrInvalidCode, child.Code, parent.Code)
	}
	return nil
}

// Level counts the composite ancestors between an account and its chart
// root. The root and the root's direct children are both level 0.
func Level(accounts AccountGetter, acct model.Account) (int, error) {
	level := 0
	for p := acct.ParentID; p != 0 && p != acct.RootID; {
		parent, err := accounts.Account(p)
		if err != nil {
			return 0, fmt.Errorf("walking parents of %q: %w", acct.Code, err)
		}
		level++
		p = parent.ParentID
	}
	return level, nil
}
