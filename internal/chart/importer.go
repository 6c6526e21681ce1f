package chart

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/store"
)

// Repository is the persistence surface the importer needs.
type Repository interface {
	AccountGetter
	ChartByCode(code string) (model.Account, bool)
	ChartByDescription(description string) (model.Account, bool)
	AccountByCode(root model.AccountID, kind model.AccountKind, code string) (model.Account, bool)
	AccountByDescription(root model.AccountID, kind model.AccountKind, description string) (model.Account, bool)
	CreateAccount(a model.Account) (model.Account, error)
	UpdateAccount(a model.Account) error
	AddCurrency(c model.Currency) (bool, error)
	JournalByName(chart model.AccountID, name string) (model.Journal, bool)
	CreateJournal(j model.Journal) (model.Journal, error)
	UpdateJournal(j model.Journal) error
}

// UnitOfWork runs a function atomically.
type UnitOfWork interface {
	Update(ctx context.Context, fn func(tx *store.Tx) error) error
}

// Result summarizes what an import changed.
type Result struct {
	Chart           model.Account
	Created         int
	Updated         int
	CurrenciesAdded int
	JournalsCreated int
	LayersAdded     int
	RulesAdded      int
}

// Importer builds charts from payloads.
type Importer struct {
	uow    UnitOfWork
	strict bool
	log    *zap.Logger
}

// NewImporter creates an Importer. strict enables code-prefix validation.
func NewImporter(uow UnitOfWork, strict bool, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{uow: uow, strict: strict, log: log}
}

// Import applies the payload in a single unit of work. Importing the same
// payload twice leaves the structure unchanged, except that rules are
// appended on every call.
func (im *Importer) Import(ctx context.Context, p *Payload) (Result, error) {
	var res Result
	err := im.uow.Update(ctx, func(tx *store.Tx) error {
		var err error
		res, err = im.apply(tx, p)
		return err
	})
	if err != nil {
		return Result{}, fmt.Errorf("importing chart %q: %w", p.Chart.Code, err)
	}
	im.log.Info("chart imported",
		zap.String("chart", res.Chart.Code),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("currencies_added", res.CurrenciesAdded),
		zap.Int("journals_created", res.JournalsCreated),
	)
	return res, nil
}

type run struct {
	repo   Repository
	strict bool
	res    *Result
}

func (im *Importer) apply(repo Repository, p *Payload) (Result, error) {
	res := Result{}
	r := &run{repo: repo, strict: im.strict, res: &res}

	root, err := r.chart(p.Chart)
	if err != nil {
		return res, err
	}
	res.Chart = root

	for _, c := range p.Currencies {
		added, err := repo.AddCurrency(c)
		if err != nil {
			return res, err
		}
		if added {
			res.CurrenciesAdded++
		}
	}

	for _, spec := range p.Accounts {
		parent := root
		if spec.Parent != "" {
			parent, err = r.parent(root, spec.Parent)
			if err != nil {
				return res, err
			}
		}
		if err := r.node(root, parent, spec); err != nil {
			return res, err
		}
	}

	for _, js := range p.Journals {
		if err := r.journal(root, js); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (r *run) chart(spec ChartSpec) (model.Account, error) {
	tags, err := model.ParseTags(spec.Tags)
	if err != nil {
		return model.Account{}, err
	}

	existing, ok := r.repo.ChartByCode(spec.Code)
	if !ok && spec.Description != "" {
		existing, ok = r.repo.ChartByDescription(spec.Description)
	}
	if ok {
		updated := existing
		updated.Code = spec.Code
		updated.Description = spec.Description
		updated.Currency = spec.Currency
		updated.Tags = tags
		return updated, r.update(existing, updated)
	}

	created, err := r.repo.CreateAccount(model.Account{
		Kind:        model.KindComposite,
		Code:        spec.Code,
		Description: spec.Description,
		Currency:    spec.Currency,
		Tags:        tags,
	})
	if err != nil {
		return model.Account{}, err
	}
	r.res.Created++
	return created, nil
}

func (r *run) parent(root model.Account, code string) (model.Account, error) {
	if code == root.Code {
		return root, nil
	}
	p, ok := r.repo.AccountByCode(root.ID, model.KindComposite, code)
	if !ok {
		return model.Account{}, fmt.Errorf("%w: expected composite %q in chart %q", model.ErrParentNotFound, code, root.Code)
	}
	return p, nil
}

func (r *run) node(root, parent model.Account, spec AccountSpec) error {
	kind := model.KindFinal
	if spec.Composite {
		kind = model.KindComposite
	}
	if kind == model.KindFinal && len(spec.Children) > 0 {
		return fmt.Errorf("%w: final account %q cannot have children", model.ErrInvalidCode, spec.Code)
	}

	tags, err := model.ParseTags(spec.Tags)
	if err != nil {
		return fmt.Errorf("account %q: %w", spec.Code, err)
	}

	want := model.Account{
		RootID:      root.ID,
		ParentID:    parent.ID,
		Kind:        kind,
		Code:        spec.Code,
		Description: spec.Description,
		Currency:    firstNonEmpty(spec.Currency, parent.Currency),
		NormalSide:  model.NormalSide(firstNonEmpty(spec.Type, string(parent.NormalSide))),
		Tags:        tags,
	}
	if want.NormalSide != "" && !want.NormalSide.Valid() {
		return fmt.Errorf("%w: %q on account %q", model.ErrUnknownAccountType, want.NormalSide, spec.Code)
	}
	if kind == model.KindFinal && want.NormalSide == "" {
		return fmt.Errorf("%w: final account %q has no type", model.ErrUnknownAccountType, spec.Code)
	}
	if err := ValidateChildCode(parent, want, r.strict); err != nil {
		return err
	}

	existing, ok := r.repo.AccountByCode(root.ID, kind, spec.Code)
	if !ok && spec.Description != "" {
		existing, ok = r.repo.AccountByDescription(root.ID, kind, spec.Description)
	}

	var acct model.Account
	if ok {
		want.ID = existing.ID
		if err := r.update(existing, want); err != nil {
			return err
		}
		acct = want
	} else {
		acct, err = r.repo.CreateAccount(want)
		if err != nil {
			return err
		}
		r.res.Created++
	}

	for _, child := range spec.Children {
		if err := r.node(root, acct, child); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) update(existing, updated model.Account) error {
	if sameAccount(existing, updated) {
		return nil
	}
	if err := r.repo.UpdateAccount(updated); err != nil {
		return err
	}
	r.res.Updated++
	return nil
}

func (r *run) journal(root model.Account, spec JournalSpec) error {
	j, ok := r.repo.JournalByName(root.ID, spec.Name)
	if !ok {
		created, err := r.repo.CreateJournal(model.Journal{ChartID: root.ID, Name: spec.Name})
		if err != nil {
			return err
		}
		j = created
		r.res.JournalsCreated++
	}

	changed := false
	for _, l := range spec.Layers {
		if !j.HasLayer(l) {
			j.Layers = append(j.Layers, l)
			r.res.LayersAdded++
			changed = true
		}
	}
	if len(spec.Rules) > 0 {
		j.Rules = append(j.Rules, spec.Rules...)
		r.res.RulesAdded += len(spec.Rules)
		changed = true
	}
	if !changed {
		return nil
	}
	return r.repo.UpdateJournal(j)
}

func sameAccount(a, b model.Account) bool {
	return a.ParentID == b.ParentID &&
		a.Code == b.Code &&
		a.Description == b.Description &&
		a.Currency == b.Currency &&
		a.NormalSide == b.NormalSide &&
		a.Tags.String() == b.Tags.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
