package layer

import (
	"fmt"
	"sort"

	"github.com/cleared-dev/ledger/internal/model"
)

// Kind is a semantic sub-ledger multiplexed onto a currency's layer band.
type Kind int

// Offsets from a currency's base layer. Base itself is offset zero.
const (
	Base             Kind = 0
	Pending          Kind = 1
	OnHold           Kind = 2
	Fee              Kind = 3
	DailyLimit       Kind = 4
	CumulativeLimit  Kind = 5
	CreditAllowances Kind = 6
)

// Span is the width of one currency's layer band. Two base layers must be at
// least Span apart.
const Span = 10

// OffsetKinds lists every non-base kind.
var OffsetKinds = []Kind{Pending, OnHold, Fee, DailyLimit, CumulativeLimit, CreditAllowances}

func (k Kind) String() string {
	switch k {
	case Base:
		return "BASE"
	case Pending:
		return "PENDING"
	case OnHold:
		return "ON_HOLD"
	case Fee:
		return "FEE"
	case DailyLimit:
		return "DAILY_LIMIT"
	case CumulativeLimit:
		return "CUMULATIVE_LIMIT"
	case CreditAllowances:
		return "CREDIT_ALLOWANCES"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(name string) (Kind, error) {
	for _, k := range append([]Kind{Base}, OffsetKinds...) {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown layer kind %q", name)
}

// Map holds the base layer assigned to each currency. It is immutable after
// construction.
type Map struct {
	bases map[string]int
}

// NewMap validates and freezes a currency -> base layer assignment.
func NewMap(bases map[string]int) (*Map, error) {
	type pair struct {
		currency string
		base     int
	}
	pairs := make([]pair, 0, len(bases))
	copied := make(map[string]int, len(bases))
	for c, b := range bases {
		if b < 0 {
			return nil, fmt.Errorf("base layer for %s must not be negative, got %d", c, b)
		}
		pairs = append(pairs, pair{c, b})
		copied[c] = b
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].base < pairs[j].base })
	for i := 1; i < len(pairs); i++ {
		if pairs[i].base-pairs[i-1].base < Span {
			return nil, fmt.Errorf("base layers of %s (%d) and %s (%d) overlap: need %d apart",
				pairs[i-1].currency, pairs[i-1].base, pairs[i].currency, pairs[i].base, Span)
		}
	}
	return &Map{bases: copied}, nil
}

// Base returns the base layer of currency.
func (m *Map) Base(currency string) (int, error) {
	b, ok := m.bases[currency]
	if !ok {
		return 0, fmt.Errorf("%w: no base layer for %q", model.ErrUnknownCurrency, currency)
	}
	return b, nil
}

// Resolve returns the layer id for kind in currency.
func (m *Map) Resolve(currency string, kind Kind) (int, error) {
	b, err := m.Base(currency)
	if err != nil {
		return 0, err
	}
	return b + int(kind), nil
}

// Bases returns a copy of the currency -> base layer assignment.
func (m *Map) Bases() map[string]int {
	out := make(map[string]int, len(m.bases))
	for c, b := range m.bases {
		out[c] = b
	}
	return out
}

// CurrencyOf returns the currency whose band contains layer.
func (m *Map) CurrencyOf(layer int) (string, bool) {
	for c, b := range m.bases {
		if layer >= b && layer < b+Span {
			return c, true
		}
	}
	return "", false
}

// Band returns every layer id of currency's band, base first.
func (m *Map) Band(currency string) ([]int, error) {
	b, err := m.Base(currency)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(OffsetKinds)+1)
	out = append(out, b)
	for _, k := range OffsetKinds {
		out = append(out, b+int(k))
	}
	return out, nil
}

// OffsetLayersFor expands every base layer into the set of its non-base
// layer ids.
func OffsetLayersFor(bases map[string]int) map[int]struct{} {
	out := make(map[int]struct{}, len(bases)*len(OffsetKinds))
	for _, b := range bases {
		for _, k := range OffsetKinds {
			out[b+int(k)] = struct{}{}
		}
	}
	return out
}

// Sorted returns the members of a layer set in ascending order.
func Sorted(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}
