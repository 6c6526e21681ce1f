package commands

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/auditlog"
	"github.com/cleared-dev/ledger/internal/balance"
	"github.com/cleared-dev/ledger/internal/chart"
	"github.com/cleared-dev/ledger/internal/config"
	"github.com/cleared-dev/ledger/internal/history"
	"github.com/cleared-dev/ledger/internal/journal"
	"github.com/cleared-dev/ledger/internal/layer"
	"github.com/cleared-dev/ledger/internal/logging"
	"github.com/cleared-dev/ledger/internal/store"
)

// app is one opened ledger directory.
type app struct {
	dir    string
	cfg    *config.Config
	log    *zap.Logger
	store  *store.Memory
	layers *layer.Map
	audit  *auditlog.Recorder
}

func openApp(dir string) (*app, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.Load(filepath.Join(abs, config.FileName))
	if err != nil {
		return nil, err
	}
	return newApp(abs, cfg)
}

func newApp(dir string, cfg *config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.FileName, err)
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	layers, err := cfg.LayerMap()
	if err != nil {
		return nil, err
	}
	m, err := store.Load(filepath.Join(dir, cfg.Ledger.DataDir))
	if err != nil {
		return nil, err
	}
	return &app{
		dir:    dir,
		cfg:    cfg,
		log:    log,
		store:  m,
		layers: layers,
		audit:  auditlog.NewRecorder(dir, cfg.Audit.Actor, cfg.Audit.Enabled),
	}, nil
}

func (a *app) importer() *chart.Importer {
	return chart.NewImporter(a.store, a.cfg.Ledger.StrictCodes, a.log)
}

func (a *app) accounts() *accounts.Service {
	return accounts.NewService(a.store, a.cfg.Bridges, a.cfg.Ledger.StrictCodes, a.log)
}

func (a *app) journal() *journal.Service {
	return journal.NewService(a.store, journal.Config{
		Chart:          a.cfg.Ledger.Chart,
		DefaultJournal: a.cfg.Ledger.DefaultJournal,
		Layers:         a.layers,
		Bridges:        a.cfg.Bridges,
	}, a.log)
}

func (a *app) calculator() *balance.Calculator {
	return balance.NewCalculator(a.layers)
}

// commit persists the store, appends the audit entry and records a history
// commit when enabled.
func (a *app) commit(action, reference, details string, transactionID int64) error {
	defer func() { _ = a.log.Sync() }()

	if err := a.store.Save(filepath.Join(a.dir, a.cfg.Ledger.DataDir)); err != nil {
		return fmt.Errorf("saving ledger: %w", err)
	}
	if err := a.audit.Record(action, reference, details, transactionID); err != nil {
		a.log.Warn("audit log write failed", zap.Error(err))
	}
	if !a.cfg.History.AutoCommit {
		return nil
	}
	repo, err := history.Open(a.dir, a.cfg.History.Author)
	if err != nil {
		return err
	}
	hash, err := repo.Commit(action + ": " + reference)
	if errors.Is(err, history.ErrNoChanges) {
		return nil
	}
	if err != nil {
		return err
	}
	a.log.Debug("history committed", zap.String("hash", hash))
	return nil
}
