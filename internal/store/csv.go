package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/ledger/internal/model"
)

// AccountsHeader is the CSV header of accounts.csv.
const AccountsHeader = "account_id,root_id,parent_id,kind,code,description,currency,normal_side,tags"

const (
	acctNumFields = 9
	acctColID     = 0
	acctColRoot   = 1
	acctColParent = 2
	acctColKind   = 3
	acctColCode   = 4
	acctColDesc   = 5
	acctColCurr   = 6
	acctColSide   = 7
	acctColTags   = 8
)

// EntriesHeader is the CSV header of entries.csv.
const EntriesHeader = "entry_id,transaction_id,account_id,amount,direction,layer,detail,kind,deferred_side,deferred_account,deferred_bridge"

const (
	entNumFields    = 11
	entColID        = 0
	entColTxn       = 1
	entColAcct      = 2
	entColAmount    = 3
	entColDirection = 4
	entColLayer     = 5
	entColDetail    = 6
	entColKind      = 7
	entColDefSide   = 8
	entColDefAcct   = 9
	entColDefBridge = 10
)

// TransactionsHeader is the CSV header of transactions.csv.
const TransactionsHeader = "transaction_id,reference,journal_id,type,group,pending,status,metadata,original_id,completion_id,reversal_id"

const (
	txnNumFields     = 11
	txnColID         = 0
	txnColRef        = 1
	txnColJournal    = 2
	txnColType       = 3
	txnColGroup      = 4
	txnColPending    = 5
	txnColStatus     = 6
	txnColMetadata   = 7
	txnColOriginal   = 8
	txnColCompletion = 9
	txnColReversal   = 10
)

// WriteAccounts writes accounts.csv (including header).
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	return writeRows(w, AccountsHeader, len(accounts), func(i int) ([]string, error) {
		return MarshalAccount(accounts[i])
	})
}

// ReadAccounts reads accounts.csv.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	return readRows(r, acctNumFields, UnmarshalAccount)
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(a model.Account) ([]string, error) {
	if err := a.Tags.Validate(); err != nil {
		return nil, fmt.Errorf("account %q: %w", a.Code, err)
	}
	row := make([]string, acctNumFields)
	row[acctColID] = formatID(int64(a.ID))
	row[acctColRoot] = formatID(int64(a.RootID))
	row[acctColParent] = formatID(int64(a.ParentID))
	row[acctColKind] = string(a.Kind)
	row[acctColCode] = a.Code
	row[acctColDesc] = a.Description
	row[acctColCurr] = a.Currency
	row[acctColSide] = string(a.NormalSide)
	row[acctColTags] = a.Tags.String()
	return row, nil
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	ids, err := parseIDs(record, acctColID, acctColRoot, acctColParent)
	if err != nil {
		return model.Account{}, err
	}
	tags, err := model.ParseTags(record[acctColTags])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing tags %q: %w", record[acctColTags], err)
	}
	return model.Account{
		ID:          model.AccountID(ids[0]),
		RootID:      model.AccountID(ids[1]),
		ParentID:    model.AccountID(ids[2]),
		Kind:        model.AccountKind(record[acctColKind]),
		Code:        record[acctColCode],
		Description: record[acctColDesc],
		Currency:    record[acctColCurr],
		NormalSide:  model.NormalSide(record[acctColSide]),
		Tags:        tags,
	}, nil
}

// WriteEntries writes entries.csv (including header).
func WriteEntries(w io.Writer, entries []model.Entry) error {
	return writeRows(w, EntriesHeader, len(entries), func(i int) ([]string, error) {
		return MarshalEntry(entries[i]), nil
	})
}

// ReadEntries reads entries.csv.
func ReadEntries(r io.Reader) ([]model.Entry, error) {
	return readRows(r, entNumFields, UnmarshalEntry)
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e model.Entry) []string {
	row := make([]string, entNumFields)
	row[entColID] = formatID(int64(e.ID))
	row[entColTxn] = formatID(int64(e.TransactionID))
	row[entColAcct] = formatID(int64(e.AccountID))
	row[entColAmount] = e.Amount.String()
	row[entColDirection] = string(e.Direction)
	row[entColLayer] = strconv.Itoa(e.Layer)
	row[entColDetail] = e.Detail
	if e.Tag != nil {
		row[entColKind] = string(e.Tag.Kind)
		if d := e.Tag.Deferral; d != nil {
			row[entColDefSide] = string(d.Side)
			row[entColDefAcct] = formatID(int64(d.Counterparty))
			row[entColDefBridge] = formatID(int64(d.Bridge))
		}
	}
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (model.Entry, error) {
	ids, err := parseIDs(record, entColID, entColTxn, entColAcct, entColDefAcct, entColDefBridge)
	if err != nil {
		return model.Entry{}, err
	}
	amount, err := decimal.NewFromString(record[entColAmount])
	if err != nil {
		return model.Entry{}, fmt.Errorf("parsing amount %q: %w", record[entColAmount], err)
	}
	layer, err := strconv.Atoi(record[entColLayer])
	if err != nil {
		return model.Entry{}, fmt.Errorf("parsing layer %q: %w", record[entColLayer], err)
	}

	e := model.Entry{
		ID:            model.EntryID(ids[0]),
		TransactionID: model.TransactionID(ids[1]),
		AccountID:     model.AccountID(ids[2]),
		Amount:        amount,
		Direction:     model.Direction(record[entColDirection]),
		Layer:         layer,
		Detail:        record[entColDetail],
	}
	if record[entColKind] != "" || record[entColDefSide] != "" {
		e.Tag = &model.EntryTag{Kind: model.EntryKind(record[entColKind])}
		if record[entColDefSide] != "" {
			e.Tag.Deferral = &model.Deferral{
				Side:         model.Direction(record[entColDefSide]),
				Counterparty: model.AccountID(ids[3]),
				Bridge:       model.AccountID(ids[4]),
			}
		}
	}
	return e, nil
}

// WriteTransactions writes transactions.csv (including header). Entries are
// written separately.
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	return writeRows(w, TransactionsHeader, len(txns), func(i int) ([]string, error) {
		return MarshalTransaction(txns[i])
	})
}

// ReadTransactions reads transactions.csv.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	return readRows(r, txnNumFields, UnmarshalTransaction)
}

// MarshalTransaction converts a Transaction header to a CSV row.
func MarshalTransaction(t model.Transaction) ([]string, error) {
	row := make([]string, txnNumFields)
	row[txnColID] = formatID(int64(t.ID))
	row[txnColRef] = t.Reference
	row[txnColJournal] = formatID(int64(t.JournalID))
	row[txnColType] = t.Type
	row[txnColGroup] = t.Group
	row[txnColPending] = strconv.FormatBool(t.Pending)
	row[txnColStatus] = string(t.Status)
	if len(t.Metadata) > 0 {
		data, err := yaml.Marshal(t.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshaling metadata of %q: %w", t.Reference, err)
		}
		row[txnColMetadata] = strings.TrimSpace(string(data))
	}
	row[txnColOriginal] = formatID(int64(t.OriginalID))
	row[txnColCompletion] = formatID(int64(t.CompletionID))
	row[txnColReversal] = formatID(int64(t.ReversalID))
	return row, nil
}

// UnmarshalTransaction converts a CSV row to a Transaction header.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	ids, err := parseIDs(record, txnColID, txnColJournal, txnColOriginal, txnColCompletion, txnColReversal)
	if err != nil {
		return model.Transaction{}, err
	}
	pending, err := strconv.ParseBool(record[txnColPending])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing pending %q: %w", record[txnColPending], err)
	}
	var metadata map[string]string
	if record[txnColMetadata] != "" {
		if err := yaml.Unmarshal([]byte(record[txnColMetadata]), &metadata); err != nil {
			return model.Transaction{}, fmt.Errorf("parsing metadata: %w", err)
		}
	}
	return model.Transaction{
		ID:           model.TransactionID(ids[0]),
		Reference:    record[txnColRef],
		JournalID:    model.JournalID(ids[1]),
		Type:         record[txnColType],
		Group:        record[txnColGroup],
		Pending:      pending,
		Status:       model.TransactionStatus(record[txnColStatus]),
		Metadata:     metadata,
		OriginalID:   model.TransactionID(ids[2]),
		CompletionID: model.TransactionID(ids[3]),
		ReversalID:   model.TransactionID(ids[4]),
	}, nil
}

func writeRows(w io.Writer, header string, n int, row func(i int) ([]string, error)) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i := 0; i < n; i++ {
		rec, err := row(i)
		if err != nil {
			return err
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func readRows[T any](r io.Reader, numFields int, unmarshal func([]string) (T, error)) ([]T, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var out []T
	for i, rec := range records[1:] {
		v, err := unmarshal(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func formatID(v int64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatInt(v, 10)
}

func parseIDs(record []string, cols ...int) ([]int64, error) {
	out := make([]int64, len(cols))
	for i, c := range cols {
		if record[c] == "" {
			continue
		}
		v, err := strconv.ParseInt(record[c], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing id %q: %w", record[c], err)
		}
		out[i] = v
	}
	return out, nil
}
