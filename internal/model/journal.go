package model

// JournalID identifies a journal within the store.
type JournalID int64

// Journal groups transactions posted against one chart.
type Journal struct {
	ID      JournalID
	ChartID AccountID
	Name    string
	Layers  []int
	Rules   []Rule
}

// HasLayer reports whether layer is declared on the journal.
func (j Journal) HasLayer(layer int) bool {
	for _, l := range j.Layers {
		if l == layer {
			return true
		}
	}
	return false
}

// Rule is a posting rule stored for an external rule evaluator.
type Rule struct {
	Class  string            `yaml:"class"`
	Params map[string]string `yaml:"params,omitempty"`
	Layers []int             `yaml:"layers,omitempty"`
}

// Currency is a currency known to the ledger.
type Currency struct {
	Code   string `yaml:"code"`
	Name   string `yaml:"name,omitempty"`
	Symbol string `yaml:"symbol,omitempty"`
}
