package accounts

import (
	"fmt"
	"strings"

	"github.com/cleared-dev/ledger/internal/model"
)

// ResolverRepository is the lookup surface address resolution needs.
type ResolverRepository interface {
	ChartByCode(code string) (model.Account, bool)
	AccountByCode(root model.AccountID, kind model.AccountKind, code string) (model.Account, bool)
}

// CodeResolver resolves "CODE" within a default chart or "CHART/CODE"
// addresses to final accounts.
type CodeResolver struct {
	repo         ResolverRepository
	defaultChart string
}

// NewCodeResolver binds address resolution to a repository.
func NewCodeResolver(repo ResolverRepository, defaultChart string) *CodeResolver {
	return &CodeResolver{repo: repo, defaultChart: defaultChart}
}

// Resolve returns the final account an address names.
func (r *CodeResolver) Resolve(address string) (model.Account, error) {
	chartCode, code := r.defaultChart, address
	if c, a, ok := strings.Cut(address, "/"); ok {
		chartCode, code = c, a
	}
	root, ok := r.repo.ChartByCode(chartCode)
	if !ok {
		return model.Account{}, fmt.Errorf("%w: chart %q", model.ErrAccountNotFound, chartCode)
	}
	acct, ok := r.repo.AccountByCode(root.ID, model.KindFinal, code)
	if !ok {
		if _, composite := r.repo.AccountByCode(root.ID, model.KindComposite, code); composite {
			return model.Account{}, fmt.Errorf("%w: %q", model.ErrNotPostable, address)
		}
		return model.Account{}, fmt.Errorf("%w: %q", model.ErrAccountNotFound, address)
	}
	return acct, nil
}
