package journal

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/ledger/internal/model"
)

// Entry metadata keys read by the poster. MetaKindAlias is accepted when
// MetaKind is absent.
const (
	MetaKind       = "type"
	MetaKindAlias  = "kind"
	MetaSkipLimits = "skip_limits"
)

// Request is a logical transfer to post.
type Request struct {
	Reference string            `yaml:"reference,omitempty"`
	Journal   string            `yaml:"journal,omitempty"`
	Type      string            `yaml:"type,omitempty"`
	Group     string            `yaml:"group,omitempty"`
	Pending   bool              `yaml:"pending,omitempty"`
	Metadata  map[string]string `yaml:"metadata,omitempty"`
	Entries   []RequestEntry    `yaml:"entries"`
}

// RequestEntry is one logical debit/credit movement. Debit and Credit are
// account addresses.
type RequestEntry struct {
	Narration string            `yaml:"narration,omitempty"`
	Amount    string            `yaml:"amount"`
	Debit     string            `yaml:"debit"`
	Credit    string            `yaml:"credit"`
	Metadata  map[string]string `yaml:"metadata,omitempty"`
}

// Kind returns the entry kind from metadata, AMOUNT when unset.
func (e RequestEntry) Kind() (model.EntryKind, error) {
	v := e.Metadata[MetaKind]
	if v == "" {
		v = e.Metadata[MetaKindAlias]
	}
	if v == "" {
		return model.EntryAmount, nil
	}
	switch k := model.EntryKind(v); k {
	case model.EntryAmount, model.EntryFee, model.EntryCommission, model.EntryRebate:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown entry kind %q", model.ErrInvalidTag, v)
}

// SkipLimits reports whether limit tracking is disabled for the entry.
func (e RequestEntry) SkipLimits() bool {
	b, _ := strconv.ParseBool(e.Metadata[MetaSkipLimits])
	return b
}

// ParseAmount parses the entry amount, which must be positive.
func (e RequestEntry) ParseAmount() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(e.Amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", model.ErrInvalidAmount, e.Amount)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s must be positive", model.ErrInvalidAmount, d)
	}
	return d, nil
}

// DecodeRequest reads a YAML (or JSON) request document.
func DecodeRequest(r io.Reader) (*Request, error) {
	var req Request
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	return &req, nil
}

// DecodeRequestFile reads a request document from path.
func DecodeRequestFile(path string) (*Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening request: %w", err)
	}
	defer f.Close()
	return DecodeRequest(f)
}
