package accounts

import (
	"fmt"

	"github.com/cleared-dev/ledger/internal/model"
)

// BridgeConfig names the composite parents that hold bridge accounts.
type BridgeConfig struct {
	AssetsParent      string `yaml:"assets_parent"`
	LiabilitiesParent string `yaml:"liabilities_parent"`
}

// BridgeDescription is the description of the bridge twin of acct under
// parent.
func BridgeDescription(parent, acct model.Account) string {
	return parent.Description + "-" + acct.Description
}

// BridgeRepository is the lookup surface bridge resolution needs.
type BridgeRepository interface {
	Account(id model.AccountID) (model.Account, error)
	AccountByCode(root model.AccountID, kind model.AccountKind, code string) (model.Account, bool)
	AccountByDescription(root model.AccountID, kind model.AccountKind, description string) (model.Account, bool)
	Children(parent model.AccountID) []model.Account
}

// Bridges resolves bridge accounts of one chart.
type Bridges struct {
	repo  BridgeRepository
	chart model.Account
	cfg   BridgeConfig
}

// NewBridges binds bridge lookups to a repository and chart.
func NewBridges(repo BridgeRepository, chart model.Account, cfg BridgeConfig) *Bridges {
	return &Bridges{repo: repo, chart: chart, cfg: cfg}
}

// Asset returns the bridge-asset account paired with acct, or the first
// bridge-asset account of acct's currency.
func (b *Bridges) Asset(acct model.Account) (model.Account, error) {
	return b.lookup(b.cfg.AssetsParent, acct)
}

// Liability returns the bridge-liability account paired with acct, or the
// first bridge-liability account of acct's currency.
func (b *Bridges) Liability(acct model.Account) (model.Account, error) {
	return b.lookup(b.cfg.LiabilitiesParent, acct)
}

// LiabilityForCurrency returns the first bridge-liability account of currency.
func (b *Bridges) LiabilityForCurrency(currency string) (model.Account, error) {
	parent, err := b.parent(b.cfg.LiabilitiesParent)
	if err != nil {
		return model.Account{}, err
	}
	return b.byCurrency(parent, currency)
}

// IsBridge reports whether acct sits under a bridge parent.
func (b *Bridges) IsBridge(acct model.Account) bool {
	if acct.ParentID == 0 {
		return false
	}
	parent, err := b.repo.Account(acct.ParentID)
	if err != nil {
		return false
	}
	return parent.Code == b.cfg.AssetsParent || parent.Code == b.cfg.LiabilitiesParent
}

func (b *Bridges) lookup(parentCode string, acct model.Account) (model.Account, error) {
	parent, err := b.parent(parentCode)
	if err != nil {
		return model.Account{}, err
	}
	paired, ok := b.repo.AccountByDescription(b.chart.ID, model.KindFinal, BridgeDescription(parent, acct))
	if ok && paired.ParentID == parent.ID && paired.Currency == acct.Currency {
		return paired, nil
	}
	return b.byCurrency(parent, acct.Currency)
}

func (b *Bridges) parent(code string) (model.Account, error) {
	if code == "" {
		return model.Account{}, fmt.Errorf("%w: no bridge parent configured", model.ErrBridgeAccountMissing)
	}
	parent, ok := b.repo.AccountByCode(b.chart.ID, model.KindComposite, code)
	if !ok {
		return model.Account{}, fmt.Errorf("%w: bridge parent %q not in chart %q", model.ErrBridgeAccountMissing, code, b.chart.Code)
	}
	return parent, nil
}

func (b *Bridges) byCurrency(parent model.Account, currency string) (model.Account, error) {
	for _, c := range b.repo.Children(parent.ID) {
		if c.IsFinal() && c.Currency == currency {
			return c, nil
		}
	}
	return model.Account{}, fmt.Errorf("%w: none under %q for %s", model.ErrBridgeAccountMissing, parent.Code, currency)
}
