package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/ledger/internal/model"
)

// Snapshot file names inside a data directory.
const (
	AccountsFile     = "accounts.csv"
	EntriesFile      = "entries.csv"
	TransactionsFile = "transactions.csv"
	StructureFile    = "structure.yaml"
)

type structureDoc struct {
	Currencies []model.Currency `yaml:"currencies"`
	Journals   []journalDoc     `yaml:"journals"`
}

type journalDoc struct {
	ID     int64        `yaml:"id"`
	Chart  int64        `yaml:"chart"`
	Name   string       `yaml:"name"`
	Layers []int        `yaml:"layers,omitempty"`
	Rules  []model.Rule `yaml:"rules,omitempty"`
}

// Save writes the committed state to dir, creating it if needed.
func (m *Memory) Save(dir string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	s := m.state
	if err := writeFile(filepath.Join(dir, AccountsFile), func(w io.Writer) error {
		return WriteAccounts(w, s.accounts)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, TransactionsFile), func(w io.Writer) error {
		return WriteTransactions(w, s.transactions)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, EntriesFile), func(w io.Writer) error {
		return WriteEntries(w, s.entries)
	}); err != nil {
		return err
	}

	doc := structureDoc{Currencies: (&Tx{s: s}).Currencies()}
	for _, j := range s.journals {
		doc.Journals = append(doc.Journals, journalDoc{
			ID: int64(j.ID), Chart: int64(j.ChartID), Name: j.Name, Layers: j.Layers, Rules: j.Rules,
		})
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling structure: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, StructureFile), data, 0o644); err != nil {
		return fmt.Errorf("writing structure: %w", err)
	}
	return nil
}

// Load reads a data directory written by Save. A missing directory yields an
// empty store.
func Load(dir string) (*Memory, error) {
	s := newState()

	accounts, err := readFile(filepath.Join(dir, AccountsFile), ReadAccounts)
	if err != nil {
		return nil, err
	}
	for i, a := range accounts {
		if int(a.ID) != i+1 {
			return nil, fmt.Errorf("%s: account ids must be dense, got %d at row %d", AccountsFile, a.ID, i+2)
		}
	}
	s.accounts = accounts

	data, err := os.ReadFile(filepath.Join(dir, StructureFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading structure: %w", err)
	}
	var doc structureDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing structure: %w", err)
	}
	for _, c := range doc.Currencies {
		s.currencies[c.Code] = c
	}
	for i, j := range doc.Journals {
		if int(j.ID) != i+1 {
			return nil, fmt.Errorf("%s: journal ids must be dense, got %d", StructureFile, j.ID)
		}
		s.journals = append(s.journals, model.Journal{
			ID: model.JournalID(j.ID), ChartID: model.AccountID(j.Chart), Name: j.Name, Layers: j.Layers, Rules: j.Rules,
		})
	}

	txns, err := readFile(filepath.Join(dir, TransactionsFile), ReadTransactions)
	if err != nil {
		return nil, err
	}
	entries, err := readFile(filepath.Join(dir, EntriesFile), ReadEntries)
	if err != nil {
		return nil, err
	}
	for i, t := range txns {
		if int(t.ID) != i+1 {
			return nil, fmt.Errorf("%s: transaction ids must be dense, got %d", TransactionsFile, t.ID)
		}
		s.byReference[t.Reference] = t.ID
	}
	for i, e := range entries {
		if int(e.ID) != i+1 {
			return nil, fmt.Errorf("%s: entry ids must be dense, got %d", EntriesFile, e.ID)
		}
		if e.TransactionID <= 0 || int(e.TransactionID) > len(txns) {
			return nil, fmt.Errorf("%s: entry %d references unknown transaction %d", EntriesFile, e.ID, e.TransactionID)
		}
		txns[e.TransactionID-1].Entries = append(txns[e.TransactionID-1].Entries, e)
		s.byAccount[e.AccountID] = append(s.byAccount[e.AccountID], e.ID)
	}
	s.transactions = txns
	s.entries = entries

	return &Memory{state: s}, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	out, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return out, nil
}
