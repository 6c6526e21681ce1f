package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledger/internal/model"
)

func TestOffsetsDistinct(t *testing.T) {
	seen := map[Kind]bool{Base: true}
	for _, k := range OffsetKinds {
		assert.False(t, seen[k], "offset %s reused", k)
		assert.Less(t, int(k), Span, "offset %s must fit in a band", k)
		seen[k] = true
	}
}

func TestResolve(t *testing.T) {
	m, err := NewMap(map[string]int{"USD": 1000, "EUR": 2000})
	require.NoError(t, err)

	tests := []struct {
		currency string
		kind     Kind
		want     int
	}{
		{"USD", Base, 1000},
		{"USD", Pending, 1001},
		{"USD", CumulativeLimit, 1005},
		{"EUR", DailyLimit, 2004},
		{"EUR", CreditAllowances, 2006},
	}
	for _, tt := range tests {
		got, err := m.Resolve(tt.currency, tt.kind)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "Resolve(%s, %s)", tt.currency, tt.kind)
	}
}

func TestResolve_UnknownCurrency(t *testing.T) {
	m, err := NewMap(map[string]int{"USD": 1000})
	require.NoError(t, err)

	_, err = m.Resolve("JPY", Pending)
	assert.ErrorIs(t, err, model.ErrUnknownCurrency)
}

func TestNewMap_RejectsOverlap(t *testing.T) {
	_, err := NewMap(map[string]int{"USD": 1000, "EUR": 1005})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlap")
}

func TestOffsetLayersFor(t *testing.T) {
	set := OffsetLayersFor(map[string]int{"USD": 1000, "EUR": 2000})

	assert.Len(t, set, 2*len(OffsetKinds))
	assert.NotContains(t, set, 1000)
	assert.NotContains(t, set, 2000)
	assert.Contains(t, set, 1001)
	assert.Contains(t, set, 2006)
	assert.Equal(t, []int{1001, 1002, 1003, 1004, 1005, 1006, 2001, 2002, 2003, 2004, 2005, 2006}, Sorted(set))
}

func TestCurrencyOfAndBand(t *testing.T) {
	m, err := NewMap(map[string]int{"USD": 1000, "EUR": 2000})
	require.NoError(t, err)

	c, ok := m.CurrencyOf(2003)
	assert.True(t, ok)
	assert.Equal(t, "EUR", c)

	_, ok = m.CurrencyOf(1500)
	assert.False(t, ok)

	band, err := m.Band("USD")
	require.NoError(t, err)
	assert.Equal(t, []int{1000, 1001, 1002, 1003, 1004, 1005, 1006}, band)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("DAILY_LIMIT")
	require.NoError(t, err)
	assert.Equal(t, DailyLimit, k)

	_, err = ParseKind("NOPE")
	assert.Error(t, err)
}
