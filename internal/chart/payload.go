package chart

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/ledger/internal/model"
)

// Payload is the declarative description of a chart, its currencies, account
// tree and journals. JSON documents decode as well.
type Payload struct {
	Chart      ChartSpec        `yaml:"chart"`
	Currencies []model.Currency `yaml:"currencies,omitempty"`
	Accounts   []AccountSpec    `yaml:"accounts,omitempty"`
	Journals   []JournalSpec    `yaml:"journals,omitempty"`
}

// ChartSpec describes the chart root.
type ChartSpec struct {
	Code        string `yaml:"code"`
	Description string `yaml:"description"`
	Currency    string `yaml:"currency,omitempty"`
	Tags        string `yaml:"tags,omitempty"`
}

// AccountSpec describes one composite or final node. Nested children are
// created under it; Parent attaches a top-level node under an existing
// composite. Currency and Type fall back to the parent's.
type AccountSpec struct {
	Code        string        `yaml:"code"`
	Description string        `yaml:"description"`
	Composite   bool          `yaml:"composite,omitempty"`
	Currency    string        `yaml:"currency,omitempty"`
	Type        string        `yaml:"type,omitempty"` // DEBIT or CREDIT
	Tags        string        `yaml:"tags,omitempty"` // inline "k:v,k:v"
	Parent      string        `yaml:"parent,omitempty"`
	Children    []AccountSpec `yaml:"children,omitempty"`
}

// JournalSpec describes a journal with its layers and rules.
type JournalSpec struct {
	Name   string       `yaml:"name"`
	Layers []int        `yaml:"layers,omitempty"`
	Rules  []model.Rule `yaml:"rules,omitempty"`
}

// Decode reads a payload document.
func Decode(r io.Reader) (*Payload, error) {
	var p Payload
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding chart payload: %w", err)
	}
	if p.Chart.Code == "" {
		return nil, fmt.Errorf("decoding chart payload: chart.code is required")
	}
	return &p, nil
}

// DecodeFile reads a payload document from path.
func DecodeFile(path string) (*Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chart payload: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes a payload document.
func Encode(w io.Writer, p *Payload) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encoding chart payload: %w", err)
	}
	return enc.Close()
}
