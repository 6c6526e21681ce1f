// Package auditlog keeps an append-only CSV trail of ledger writes.
package auditlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Path is the trail's location below a ledger directory.
const Path = "logs/audit-log.csv"

// Header is the first row of the trail.
const Header = "timestamp,actor,action,reference,details,transaction_id"

var columns = strings.Split(Header, ",")

// Entry is one ledger write. TransactionID is zero for writes that post no
// transaction, such as account provisioning.
type Entry struct {
	Timestamp     time.Time
	Actor         string
	Action        string
	Reference     string
	Details       string
	TransactionID int64
}

// Record renders e in column order.
func (e Entry) Record() []string {
	txn := ""
	if e.TransactionID != 0 {
		txn = strconv.FormatInt(e.TransactionID, 10)
	}
	return []string{
		e.Timestamp.UTC().Format(time.RFC3339),
		e.Actor,
		e.Action,
		e.Reference,
		e.Details,
		txn,
	}
}

// ParseRecord is the inverse of Entry.Record.
func ParseRecord(rec []string) (Entry, error) {
	if len(rec) != len(columns) {
		return Entry{}, fmt.Errorf("want %d columns, got %d", len(columns), len(rec))
	}
	ts, err := time.Parse(time.RFC3339, rec[0])
	if err != nil {
		return Entry{}, fmt.Errorf("timestamp: %w", err)
	}
	e := Entry{Timestamp: ts, Actor: rec[1], Action: rec[2], Reference: rec[3], Details: rec[4]}
	if rec[5] != "" {
		if e.TransactionID, err = strconv.ParseInt(rec[5], 10, 64); err != nil {
			return Entry{}, fmt.Errorf("transaction id: %w", err)
		}
	}
	return e, nil
}

// Append adds entries to the trail under root. A new trail starts with the
// header row.
func Append(root string, entries ...Entry) error {
	path := filepath.Join(root, Path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("audit log: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("audit log: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("audit log: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		_ = w.Write(columns)
	}
	for _, e := range entries {
		_ = w.Write(e.Record())
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("audit log: %w", err)
	}
	return f.Close()
}

// Read returns every entry of the trail under root, oldest first. A missing
// trail has no entries.
func Read(root string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(root, Path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("audit log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(columns)
	head, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("audit log header: %w", err)
	}
	if !slices.Equal(head, columns) {
		return nil, fmt.Errorf("audit log header: got %q", strings.Join(head, ","))
	}

	var out []Entry
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("audit log: %w", err)
		}
		e, err := ParseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("audit log line %d: %w", line, err)
		}
		out = append(out, e)
	}
}

// Recorder appends one entry per ledger write on behalf of an actor. A nil
// or disabled Recorder records nothing.
type Recorder struct {
	root    string
	actor   string
	enabled bool
	now     func() time.Time
}

// NewRecorder creates a Recorder writing under root.
func NewRecorder(root, actor string, enabled bool) *Recorder {
	return &Recorder{root: root, actor: actor, enabled: enabled, now: time.Now}
}

// Record appends one audit entry.
func (r *Recorder) Record(action, reference, details string, transactionID int64) error {
	if r == nil || !r.enabled {
		return nil
	}
	return Append(r.root, Entry{
		Timestamp:     r.now(),
		Actor:         r.actor,
		Action:        action,
		Reference:     reference,
		Details:       details,
		TransactionID: transactionID,
	})
}
