package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/cleared-dev/ledger/internal/id"
	"github.com/cleared-dev/ledger/internal/model"
)

// Memory is an in-process ledger store. Every Update runs against a private
// copy of the state that replaces the committed state only when the callback
// returns nil, so a failed unit of work leaves no trace. Writers are fully
// serialized.
type Memory struct {
	mu    sync.RWMutex
	state *state
}

type state struct {
	accounts     []model.Account // index = id-1
	currencies   map[string]model.Currency
	journals     []model.Journal // index = id-1
	transactions []model.Transaction
	byReference  map[string]model.TransactionID
	entries      []model.Entry // index = id-1
	byAccount    map[model.AccountID][]model.EntryID
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{state: newState()}
}

func newState() *state {
	return &state{
		currencies:  make(map[string]model.Currency),
		byReference: make(map[string]model.TransactionID),
		byAccount:   make(map[model.AccountID][]model.EntryID),
	}
}

func (s *state) clone() *state {
	byAccount := make(map[model.AccountID][]model.EntryID, len(s.byAccount))
	for k, v := range s.byAccount {
		byAccount[k] = slices.Clip(v)
	}
	return &state{
		accounts:     slices.Clone(s.accounts),
		currencies:   maps.Clone(s.currencies),
		journals:     slices.Clone(s.journals),
		transactions: slices.Clone(s.transactions),
		byReference:  maps.Clone(s.byReference),
		entries:      slices.Clip(s.entries),
		byAccount:    byAccount,
	}
}

// Update runs fn as one atomic unit of work.
func (m *Memory) Update(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &Tx{s: m.state.clone(), writable: true}
	if err := fn(tx); err != nil {
		return err
	}
	m.state = tx.s
	return nil
}

// View runs fn against a read-only view of the committed state.
func (m *Memory) View(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(&Tx{s: m.state})
}

// Tx is the repository surface available inside a unit of work.
type Tx struct {
	s        *state
	writable bool
}

func (tx *Tx) mustWrite() error {
	if !tx.writable {
		return fmt.Errorf("store: write in read-only view")
	}
	return nil
}

// --- Accounts ---

// Account returns the account with the given id.
func (tx *Tx) Account(aid model.AccountID) (model.Account, error) {
	if aid <= 0 || int(aid) > len(tx.s.accounts) {
		return model.Account{}, fmt.Errorf("%w: id %d", model.ErrAccountNotFound, aid)
	}
	return tx.s.accounts[aid-1], nil
}

// Charts returns every chart root.
func (tx *Tx) Charts() []model.Account {
	var out []model.Account
	for _, a := range tx.s.accounts {
		if a.IsChart() {
			out = append(out, a)
		}
	}
	return out
}

// ChartByCode finds a chart root by code.
func (tx *Tx) ChartByCode(code string) (model.Account, bool) {
	for _, a := range tx.s.accounts {
		if a.IsChart() && a.Code == code {
			return a, true
		}
	}
	return model.Account{}, false
}

// ChartByDescription finds a chart root by description.
func (tx *Tx) ChartByDescription(description string) (model.Account, bool) {
	for _, a := range tx.s.accounts {
		if a.IsChart() && a.Description == description {
			return a, true
		}
	}
	return model.Account{}, false
}

// AccountByCode finds a non-root account of kind within a chart. An empty
// kind matches both kinds.
func (tx *Tx) AccountByCode(root model.AccountID, kind model.AccountKind, code string) (model.Account, bool) {
	return tx.find(root, kind, func(a model.Account) bool { return a.Code == code })
}

// AccountByDescription finds a non-root account of kind within a chart by
// description.
func (tx *Tx) AccountByDescription(root model.AccountID, kind model.AccountKind, description string) (model.Account, bool) {
	return tx.find(root, kind, func(a model.Account) bool { return a.Description == description })
}

// AccountByDescriptionCurrency finds a non-root account of kind by
// description and currency within a chart.
func (tx *Tx) AccountByDescriptionCurrency(root model.AccountID, kind model.AccountKind, description, currency string) (model.Account, bool) {
	return tx.find(root, kind, func(a model.Account) bool {
		return a.Description == description && a.Currency == currency
	})
}

func (tx *Tx) find(root model.AccountID, kind model.AccountKind, match func(model.Account) bool) (model.Account, bool) {
	for _, a := range tx.s.accounts {
		if a.RootID != root || a.IsChart() {
			continue
		}
		if kind != "" && a.Kind != kind {
			continue
		}
		if match(a) {
			return a, true
		}
	}
	return model.Account{}, false
}

// Accounts returns every account of a chart, the root included, in id order.
func (tx *Tx) Accounts(root model.AccountID) []model.Account {
	var out []model.Account
	for _, a := range tx.s.accounts {
		if a.RootID == root {
			out = append(out, a)
		}
	}
	return out
}

// Children returns the direct children of parent in id order.
func (tx *Tx) Children(parent model.AccountID) []model.Account {
	var out []model.Account
	for _, a := range tx.s.accounts {
		if a.ParentID == parent && !a.IsChart() {
			out = append(out, a)
		}
	}
	return out
}

// MaxChildSuffix returns the largest numeric suffix a child of parent adds
// to the parent's code, or zero.
func (tx *Tx) MaxChildSuffix(parent model.AccountID) (int, error) {
	p, err := tx.Account(parent)
	if err != nil {
		return 0, err
	}
	maxSeq := 0
	for _, c := range tx.Children(parent) {
		if seq, ok := id.ParseChildSuffix(p.Code, c.Code); ok && seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq, nil
}

// CreateAccount stores a new account and returns it with its id. An account
// with a zero RootID becomes a chart root.
func (tx *Tx) CreateAccount(a model.Account) (model.Account, error) {
	if err := tx.mustWrite(); err != nil {
		return model.Account{}, err
	}
	if err := tx.checkCode(a); err != nil {
		return model.Account{}, err
	}
	a.ID = model.AccountID(len(tx.s.accounts) + 1)
	if a.RootID == 0 {
		a.RootID = a.ID
		a.ParentID = 0
	}
	tx.s.accounts = append(tx.s.accounts, a)
	return a, nil
}

// UpdateAccount replaces a stored account. Id, root and kind are immutable.
func (tx *Tx) UpdateAccount(a model.Account) error {
	if err := tx.mustWrite(); err != nil {
		return err
	}
	cur, err := tx.Account(a.ID)
	if err != nil {
		return err
	}
	if cur.RootID != a.RootID || cur.Kind != a.Kind {
		return fmt.Errorf("store: account %d root and kind are immutable", a.ID)
	}
	if err := tx.checkCode(a); err != nil {
		return err
	}
	tx.s.accounts[a.ID-1] = a
	return nil
}

func (tx *Tx) checkCode(a model.Account) error {
	for _, other := range tx.s.accounts {
		if other.ID == a.ID || other.Code != a.Code {
			continue
		}
		sameChart := a.RootID != 0 && other.RootID == a.RootID
		bothCharts := a.RootID == 0 || a.RootID == a.ID
		if sameChart || (bothCharts && other.IsChart()) {
			return fmt.Errorf("%w: %q", model.ErrDuplicateCode, a.Code)
		}
	}
	return nil
}

// --- Currencies ---

// Currency returns a known currency.
func (tx *Tx) Currency(code string) (model.Currency, bool) {
	c, ok := tx.s.currencies[code]
	return c, ok
}

// Currencies returns all currencies sorted by code.
func (tx *Tx) Currencies() []model.Currency {
	out := make([]model.Currency, 0, len(tx.s.currencies))
	for _, c := range tx.s.currencies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// AddCurrency inserts a currency; an existing code is left untouched and
// reported as not added.
func (tx *Tx) AddCurrency(c model.Currency) (bool, error) {
	if err := tx.mustWrite(); err != nil {
		return false, err
	}
	if _, ok := tx.s.currencies[c.Code]; ok {
		return false, nil
	}
	tx.s.currencies[c.Code] = c
	return true, nil
}

// --- Journals ---

// Journal returns a journal by id.
func (tx *Tx) Journal(jid model.JournalID) (model.Journal, error) {
	if jid <= 0 || int(jid) > len(tx.s.journals) {
		return model.Journal{}, fmt.Errorf("%w: id %d", model.ErrJournalNotFound, jid)
	}
	return clipJournal(tx.s.journals[jid-1]), nil
}

// JournalByName finds a journal of chart by name.
func (tx *Tx) JournalByName(chart model.AccountID, name string) (model.Journal, bool) {
	for _, j := range tx.s.journals {
		if j.ChartID == chart && j.Name == name {
			return clipJournal(j), true
		}
	}
	return model.Journal{}, false
}

// Journals returns the journals of a chart.
func (tx *Tx) Journals(chart model.AccountID) []model.Journal {
	var out []model.Journal
	for _, j := range tx.s.journals {
		if j.ChartID == chart {
			out = append(out, clipJournal(j))
		}
	}
	return out
}

// CreateJournal stores a new journal.
func (tx *Tx) CreateJournal(j model.Journal) (model.Journal, error) {
	if err := tx.mustWrite(); err != nil {
		return model.Journal{}, err
	}
	if _, ok := tx.JournalByName(j.ChartID, j.Name); ok {
		return model.Journal{}, fmt.Errorf("store: journal %q already exists", j.Name)
	}
	j.ID = model.JournalID(len(tx.s.journals) + 1)
	tx.s.journals = append(tx.s.journals, j)
	return j, nil
}

// UpdateJournal replaces a stored journal.
func (tx *Tx) UpdateJournal(j model.Journal) error {
	if err := tx.mustWrite(); err != nil {
		return err
	}
	if _, err := tx.Journal(j.ID); err != nil {
		return err
	}
	tx.s.journals[j.ID-1] = j
	return nil
}

func clipJournal(j model.Journal) model.Journal {
	j.Layers = slices.Clip(j.Layers)
	j.Rules = slices.Clip(j.Rules)
	return j
}

// --- Transactions and entries ---

// CreateTransaction stores t and its entries, assigning ids.
func (tx *Tx) CreateTransaction(t model.Transaction) (model.Transaction, error) {
	if err := tx.mustWrite(); err != nil {
		return model.Transaction{}, err
	}
	if _, err := tx.Journal(t.JournalID); err != nil {
		return model.Transaction{}, err
	}
	if _, ok := tx.s.byReference[t.Reference]; ok {
		return model.Transaction{}, fmt.Errorf("%w: %q", model.ErrDuplicateReference, t.Reference)
	}

	t.ID = model.TransactionID(len(tx.s.transactions) + 1)
	entries := make([]model.Entry, len(t.Entries))
	for i, e := range t.Entries {
		acct, err := tx.Account(e.AccountID)
		if err != nil {
			return model.Transaction{}, err
		}
		if !acct.IsFinal() {
			return model.Transaction{}, fmt.Errorf("%w: %q", model.ErrNotPostable, acct.Code)
		}
		e.ID = model.EntryID(len(tx.s.entries) + 1)
		e.TransactionID = t.ID
		tx.s.entries = append(tx.s.entries, e)
		tx.s.byAccount[e.AccountID] = append(tx.s.byAccount[e.AccountID], e.ID)
		entries[i] = e
	}
	t.Entries = entries
	tx.s.transactions = append(tx.s.transactions, t)
	tx.s.byReference[t.Reference] = t.ID
	return t, nil
}

// UpdateTransactionLinks stores status and link changes. Entries are
// immutable once persisted and are not touched.
func (tx *Tx) UpdateTransactionLinks(t model.Transaction) error {
	if err := tx.mustWrite(); err != nil {
		return err
	}
	cur, err := tx.Transaction(t.ID)
	if err != nil {
		return err
	}
	cur.Status = t.Status
	cur.CompletionID = t.CompletionID
	cur.ReversalID = t.ReversalID
	tx.s.transactions[t.ID-1] = cur
	return nil
}

// Transaction returns a transaction by id.
func (tx *Tx) Transaction(tid model.TransactionID) (model.Transaction, error) {
	if tid <= 0 || int(tid) > len(tx.s.transactions) {
		return model.Transaction{}, fmt.Errorf("%w: id %d", model.ErrTransactionNotFound, tid)
	}
	t := tx.s.transactions[tid-1]
	t.Entries = slices.Clip(t.Entries)
	return t, nil
}

// TransactionByReference returns a transaction by reference.
func (tx *Tx) TransactionByReference(ref string) (model.Transaction, error) {
	tid, ok := tx.s.byReference[ref]
	if !ok {
		return model.Transaction{}, fmt.Errorf("%w: %q", model.ErrTransactionNotFound, ref)
	}
	return tx.Transaction(tid)
}

// Transactions returns every transaction of a journal in id order.
func (tx *Tx) Transactions(jid model.JournalID) []model.Transaction {
	var out []model.Transaction
	for _, t := range tx.s.transactions {
		if t.JournalID == jid {
			t.Entries = slices.Clip(t.Entries)
			out = append(out, t)
		}
	}
	return out
}

// AccountEntries returns the entries of account posted to journal, in id
// order.
func (tx *Tx) AccountEntries(jid model.JournalID, account model.AccountID) []model.Entry {
	ids := tx.s.byAccount[account]
	out := make([]model.Entry, 0, len(ids))
	for _, eid := range ids {
		e := tx.s.entries[eid-1]
		if tx.s.transactions[e.TransactionID-1].JournalID == jid {
			out = append(out, e)
		}
	}
	return out
}

// LastEntryID returns the id of the most recently persisted entry.
func (tx *Tx) LastEntryID() model.EntryID {
	return model.EntryID(len(tx.s.entries))
}
