package journal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/id"
	"github.com/cleared-dev/ledger/internal/layer"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/store"
	"github.com/cleared-dev/ledger/internal/strategy"
)

// Derived reference actions.
const (
	ActionCompletion = "completion"
	ActionReversal   = "reversal"
)

// AddressResolver turns a request address into a final account.
type AddressResolver interface {
	Resolve(address string) (model.Account, error)
}

// Store runs units of work against the ledger state.
type Store interface {
	Update(ctx context.Context, fn func(tx *store.Tx) error) error
	View(ctx context.Context, fn func(tx *store.Tx) error) error
}

// Config binds a Service to one chart.
type Config struct {
	Chart          string
	DefaultJournal string
	Layers         *layer.Map
	Bridges        accounts.BridgeConfig
}

// Service posts, completes and reverses transactions.
type Service struct {
	store Store
	cfg   Config
	log   *zap.Logger
}

// NewService creates a journal Service.
func NewService(s Store, cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: s, cfg: cfg, log: log}
}

// session is the per-unit-of-work view of the chart.
type session struct {
	tx       *store.Tx
	chart    model.Account
	env      strategy.Env
	resolver AddressResolver
}

func (s *Service) session(tx *store.Tx) (*session, error) {
	root, ok := tx.ChartByCode(s.cfg.Chart)
	if !ok {
		return nil, fmt.Errorf("%w: chart %q", model.ErrAccountNotFound, s.cfg.Chart)
	}
	return &session{
		tx:    tx,
		chart: root,
		env: strategy.Env{
			Layers:   s.cfg.Layers,
			Bridges:  accounts.NewBridges(tx, root, s.cfg.Bridges),
			Accounts: tx,
		},
		resolver: accounts.NewCodeResolver(tx, s.cfg.Chart),
	}, nil
}

func (ss *session) journal(name string) (model.Journal, error) {
	j, ok := ss.tx.JournalByName(ss.chart.ID, name)
	if !ok {
		return model.Journal{}, fmt.Errorf("%w: %q in chart %q", model.ErrJournalNotFound, name, ss.chart.Code)
	}
	return j, nil
}

// Post turns a request into one persisted transaction. Either every entry is
// persisted or none is.
func (s *Service) Post(ctx context.Context, req Request) (model.Transaction, error) {
	if req.Reference == "" {
		req.Reference = id.NewReference()
	}
	if req.Journal == "" {
		req.Journal = s.cfg.DefaultJournal
	}
	strat, err := strategy.Select(strategy.TransactionContext{Pending: req.Pending, Group: req.Group})
	if err != nil {
		return model.Transaction{}, err
	}

	var created model.Transaction
	err = s.store.Update(ctx, func(tx *store.Tx) error {
		ss, err := s.session(tx)
		if err != nil {
			return err
		}
		j, err := ss.journal(req.Journal)
		if err != nil {
			return err
		}

		txn := model.Transaction{
			Reference: req.Reference,
			JournalID: j.ID,
			Type:      req.Type,
			Group:     req.Group,
			Pending:   req.Pending,
			Status:    model.StatusPosted,
			Metadata:  req.Metadata,
		}
		if req.Pending {
			txn.Status = model.StatusPending
		}

		for i, re := range req.Entries {
			specs, err := s.entries(ss, strat, req.Pending, re)
			if err != nil {
				return fmt.Errorf("entry %d: %w", i, err)
			}
			for _, spec := range specs {
				txn.Append(spec)
			}
		}

		if verrs := ValidateEntries(txn.Entries, tx, s.cfg.Layers); len(verrs) > 0 {
			return joinValidation(verrs)
		}
		created, err = tx.CreateTransaction(txn)
		return err
	})
	if err != nil {
		return model.Transaction{}, fmt.Errorf("posting %q: %w", req.Reference, err)
	}

	s.log.Info("transaction posted",
		zap.String("reference", created.Reference),
		zap.String("strategy", strat.Name()),
		zap.Int("entries", len(created.Entries)),
	)
	return created, nil
}

func (s *Service) entries(ss *session, strat strategy.Strategy, pending bool, re RequestEntry) ([]model.EntrySpec, error) {
	amount, err := re.ParseAmount()
	if err != nil {
		return nil, err
	}
	kind, err := re.Kind()
	if err != nil {
		return nil, err
	}
	debit, err := ss.resolver.Resolve(re.Debit)
	if err != nil {
		return nil, err
	}
	credit, err := ss.resolver.Resolve(re.Credit)
	if err != nil {
		return nil, err
	}
	if debit.Currency != credit.Currency {
		return nil, fmt.Errorf("%w: %q is %s, %q is %s", model.ErrCurrencyMismatch,
			debit.Code, debit.Currency, credit.Code, credit.Currency)
	}

	p := strategy.Posting{
		Debit:      debit,
		Credit:     credit,
		Amount:     amount,
		Kind:       kind,
		Detail:     re.Narration,
		SkipLimits: re.SkipLimits(),
	}
	specs, err := strat.BaseLayerEntries(ss.env, p)
	if err != nil {
		return nil, err
	}
	var more []model.EntrySpec
	if pending {
		more, err = strat.OffsetLayerEntries(ss.env, p)
	} else {
		more, err = strat.LimitEntries(ss.env, p)
	}
	if err != nil {
		return nil, err
	}
	return append(specs, more...), nil
}

// Complete resolves a pending transaction into its final base-layer
// postings and links the completion to it.
func (s *Service) Complete(ctx context.Context, reference string) (model.Transaction, error) {
	var created model.Transaction
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		ss, err := s.session(tx)
		if err != nil {
			return err
		}
		original, err := tx.TransactionByReference(reference)
		if err != nil {
			return err
		}
		switch {
		case !original.Pending:
			return fmt.Errorf("%w: %q", model.ErrNotPending, reference)
		case original.CompletionID != 0:
			return fmt.Errorf("%w: %q", model.ErrAlreadyCompleted, reference)
		case original.ReversalID != 0:
			return fmt.Errorf("%w: %q", model.ErrAlreadyReversed, reference)
		}

		strat, err := strategy.Select(strategy.TransactionContext{Pending: original.Pending, Group: original.Group})
		if err != nil {
			return err
		}
		completion := model.Transaction{
			Reference:  id.DerivedReference(reference, ActionCompletion),
			JournalID:  original.JournalID,
			Type:       original.Type,
			Group:      original.Group,
			Status:     model.StatusSettled,
			Metadata:   original.Metadata,
			OriginalID: original.ID,
		}
		if err := strat.Complete(ss.env, original, &completion); err != nil {
			return err
		}
		if verrs := ValidateEntries(completion.Entries, tx, s.cfg.Layers); len(verrs) > 0 {
			return joinValidation(verrs)
		}
		created, err = tx.CreateTransaction(completion)
		if err != nil {
			return err
		}

		original.Status = model.StatusCompleted
		original.CompletionID = created.ID
		return tx.UpdateTransactionLinks(original)
	})
	if err != nil {
		return model.Transaction{}, fmt.Errorf("completing %q: %w", reference, err)
	}

	s.log.Info("transaction completed",
		zap.String("reference", reference),
		zap.String("completion", created.Reference),
		zap.Int("entries", len(created.Entries)),
	)
	return created, nil
}

// Reverse posts the inverse of a transaction's entries on layers, or on every
// layer when none are given. A full reversal links to the original and can
// happen once. A completed pending transaction is not reversible.
func (s *Service) Reverse(ctx context.Context, reference string, layers ...int) (model.Transaction, error) {
	if len(layers) > 0 {
		set := make(map[int]struct{}, len(layers))
		for _, l := range layers {
			set[l] = struct{}{}
		}
		layers = layer.Sorted(set)
	}
	var created model.Transaction
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		original, err := tx.TransactionByReference(reference)
		if err != nil {
			return err
		}
		if original.ReversalID != 0 {
			return fmt.Errorf("%w: %q", model.ErrAlreadyReversed, reference)
		}
		if original.CompletionID != 0 {
			return fmt.Errorf("%w: %q", model.ErrAlreadyCompleted, reference)
		}
		if original.Status == model.StatusReversal && len(layers) == 0 {
			return fmt.Errorf("%w: %q is itself a reversal", model.ErrAlreadyReversed, reference)
		}

		rev := original.Reversal(layers...)
		rev.Reference = id.DerivedReference(reference, reversalAction(layers))
		rev.Metadata = original.Metadata
		if verrs := ValidateEntries(rev.Entries, tx, s.cfg.Layers); len(verrs) > 0 {
			return joinValidation(verrs)
		}
		created, err = tx.CreateTransaction(rev)
		if err != nil {
			return err
		}
		if len(layers) > 0 {
			return nil
		}
		original.Status = model.StatusReversed
		original.ReversalID = created.ID
		return tx.UpdateTransactionLinks(original)
	})
	if err != nil {
		return model.Transaction{}, fmt.Errorf("reversing %q: %w", reference, err)
	}

	s.log.Info("transaction reversed",
		zap.String("reference", reference),
		zap.String("reversal", created.Reference),
		zap.Ints("layers", layers),
	)
	return created, nil
}

// Transaction returns a transaction by reference.
func (s *Service) Transaction(ctx context.Context, reference string) (model.Transaction, error) {
	var t model.Transaction
	err := s.store.View(ctx, func(tx *store.Tx) error {
		var err error
		t, err = tx.TransactionByReference(reference)
		return err
	})
	return t, err
}

// reversalAction names a reversal; partial reversals carry their sorted
// layers so the same layer set cannot be reversed twice.
func reversalAction(layers []int) string {
	if len(layers) == 0 {
		return ActionReversal
	}
	parts := make([]string, len(layers))
	for i, l := range layers {
		parts[i] = strconv.Itoa(l)
	}
	return ActionReversal + "." + strings.Join(parts, ".")
}

func joinValidation(verrs []ValidationError) error {
	errs := make([]error, len(verrs))
	for i, ve := range verrs {
		errs[i] = ve
	}
	return errors.Join(errs...)
}
