package accounts

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cleared-dev/ledger/internal/chart"
	"github.com/cleared-dev/ledger/internal/id"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/store"
)

// Repository is the persistence surface used for provisioning.
type Repository interface {
	Account(id model.AccountID) (model.Account, error)
	ChartByCode(code string) (model.Account, bool)
	AccountByCode(root model.AccountID, kind model.AccountKind, code string) (model.Account, bool)
	AccountByDescription(root model.AccountID, kind model.AccountKind, description string) (model.Account, bool)
	AccountByDescriptionCurrency(root model.AccountID, kind model.AccountKind, description, currency string) (model.Account, bool)
	Children(parent model.AccountID) []model.Account
	MaxChildSuffix(parent model.AccountID) (int, error)
	CreateAccount(a model.Account) (model.Account, error)
}

// Store runs units of work against the ledger state.
type Store interface {
	Update(ctx context.Context, fn func(tx *store.Tx) error) error
	View(ctx context.Context, fn func(tx *store.Tx) error) error
}

// Service provisions accounts on demand.
type Service struct {
	store   Store
	bridges BridgeConfig
	strict  bool
	log     *zap.Logger
}

// NewService creates a provisioning Service.
func NewService(s Store, bridges BridgeConfig, strict bool, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: s, bridges: bridges, strict: strict, log: log}
}

// CreateParams holds parameters for provisioning one account.
type CreateParams struct {
	Chart       string
	ParentCode  string
	Currency    string
	Description string
	Metadata    map[string]string
	CodePadding int
	Final       bool
	KindTag     string
}

// Create provisions an account in its own unit of work.
func (s *Service) Create(ctx context.Context, params CreateParams) (model.Account, error) {
	var acct model.Account
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		var err error
		acct, err = s.CreateIn(tx, params)
		return err
	})
	if err != nil {
		return model.Account{}, err
	}
	return acct, nil
}

// CreateIn provisions an account inside an existing unit of work. An account
// of the same kind, description and currency is returned unchanged. Final
// accounts also get their bridge-liability and bridge-asset twins.
func (s *Service) CreateIn(repo Repository, params CreateParams) (model.Account, error) {
	root, ok := repo.ChartByCode(params.Chart)
	if !ok {
		return model.Account{}, fmt.Errorf("%w: chart %q", model.ErrAccountNotFound, params.Chart)
	}

	kind := model.KindComposite
	if params.Final {
		kind = model.KindFinal
	}
	if existing, ok := repo.AccountByDescriptionCurrency(root.ID, kind, params.Description, params.Currency); ok {
		s.log.Debug("account already provisioned", zap.String("code", existing.Code))
		return existing, nil
	}

	parent, err := compositeParent(repo, root, params.ParentCode)
	if err != nil {
		return model.Account{}, err
	}

	tags, err := buildTags(params.Metadata, params.KindTag)
	if err != nil {
		return model.Account{}, err
	}

	acct, err := s.createChild(repo, root, parent, params.Description, params.Currency, params.CodePadding, params.Final, tags)
	if err != nil {
		return model.Account{}, err
	}
	s.log.Info("account provisioned",
		zap.String("chart", root.Code),
		zap.String("code", acct.Code),
		zap.String("description", acct.Description),
		zap.Bool("final", acct.IsFinal()),
	)

	if params.Final {
		for _, bridgeParent := range []string{s.bridges.LiabilitiesParent, s.bridges.AssetsParent} {
			if err := s.ensureBridge(repo, root, bridgeParent, acct, params.CodePadding); err != nil {
				return model.Account{}, err
			}
		}
	}
	return acct, nil
}

func (s *Service) ensureBridge(repo Repository, root model.Account, parentCode string, acct model.Account, padding int) error {
	parent, err := compositeParent(repo, root, parentCode)
	if err != nil {
		return fmt.Errorf("bridge parent: %w", err)
	}
	description := BridgeDescription(parent, acct)
	if _, ok := repo.AccountByDescription(root.ID, model.KindFinal, description); ok {
		return nil
	}
	bridge, err := s.createChild(repo, root, parent, description, acct.Currency, padding, true, nil)
	if err != nil {
		return err
	}
	s.log.Info("bridge account provisioned", zap.String("code", bridge.Code), zap.String("for", acct.Code))
	return nil
}

func (s *Service) createChild(repo Repository, root, parent model.Account, description, currency string, padding int, final bool, tags model.Tags) (model.Account, error) {
	seq, err := repo.MaxChildSuffix(parent.ID)
	if err != nil {
		return model.Account{}, err
	}
	kind := model.KindComposite
	if final {
		kind = model.KindFinal
	}
	acct := model.Account{
		RootID:      root.ID,
		ParentID:    parent.ID,
		Kind:        kind,
		Code:        id.FormatChildCode(parent.Code, seq+1, padding),
		Description: description,
		Currency:    currency,
		NormalSide:  parent.NormalSide,
		Tags:        tags,
	}
	if final && !acct.NormalSide.Valid() {
		return model.Account{}, fmt.Errorf("%w: parent %q has side %q", model.ErrUnknownAccountType, parent.Code, parent.NormalSide)
	}
	if err := chart.ValidateChildCode(parent, acct, s.strict); err != nil {
		return model.Account{}, err
	}
	return repo.CreateAccount(acct)
}

// List returns the accounts of a chart in id order.
func (s *Service) List(ctx context.Context, chartCode string) ([]model.Account, error) {
	var out []model.Account
	err := s.store.View(ctx, func(tx *store.Tx) error {
		root, ok := tx.ChartByCode(chartCode)
		if !ok {
			return fmt.Errorf("%w: chart %q", model.ErrAccountNotFound, chartCode)
		}
		out = tx.Accounts(root.ID)
		return nil
	})
	return out, err
}

func compositeParent(repo Repository, root model.Account, code string) (model.Account, error) {
	if code == root.Code {
		return root, nil
	}
	p, ok := repo.AccountByCode(root.ID, model.KindComposite, code)
	if !ok {
		return model.Account{}, fmt.Errorf("%w: %q in chart %q", model.ErrParentNotFound, code, root.Code)
	}
	return p, nil
}

func buildTags(metadata map[string]string, kindTag string) (model.Tags, error) {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var tags model.Tags
	for _, k := range keys {
		tags = tags.With(k, metadata[k])
	}
	if kindTag != "" {
		tags = tags.With(model.TagType, kindTag)
	}
	if err := tags.Validate(); err != nil {
		return nil, err
	}
	return tags, nil
}
