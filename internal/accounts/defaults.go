package accounts

import (
	"sort"

	"github.com/cleared-dev/ledger/internal/chart"
	"github.com/cleared-dev/ledger/internal/layer"
	"github.com/cleared-dev/ledger/internal/model"
)

// Suffixes of the top-level composites DefaultChart creates, appended to the
// chart code.
const (
	AssetsSuffix            = "1"
	LiabilitiesSuffix       = "2"
	EquitySuffix            = "3"
	RevenueSuffix           = "4"
	ExpensesSuffix          = "5"
	BridgeAssetsSuffix      = "8"
	BridgeLiabilitiesSuffix = "9"
)

// DefaultJournal is the journal DefaultChart declares.
const DefaultJournal = "main"

var knownCurrencies = map[string]model.Currency{
	"USD": {Code: "USD", Name: "US Dollar", Symbol: "$"},
	"EUR": {Code: "EUR", Name: "Euro", Symbol: "€"},
	"GBP": {Code: "GBP", Name: "Pound Sterling", Symbol: "£"},
	"BRL": {Code: "BRL", Name: "Brazilian Real", Symbol: "R$"},
}

// DefaultBridgeConfig returns the bridge parents DefaultChart creates.
func DefaultBridgeConfig(chartCode string) BridgeConfig {
	return BridgeConfig{
		AssetsParent:      chartCode + BridgeAssetsSuffix,
		LiabilitiesParent: chartCode + BridgeLiabilitiesSuffix,
	}
}

// DefaultChart returns an importable starter chart: the five classic
// composites, the two bridge parents and one journal declaring every layer of
// every configured currency.
func DefaultChart(chartCode, description string, bases map[string]int) *chart.Payload {
	currencies := make([]string, 0, len(bases))
	for c := range bases {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)

	main := ""
	if len(currencies) > 0 {
		main = currencies[0]
		if _, ok := bases["USD"]; ok {
			main = "USD"
		}
	}

	p := &chart.Payload{
		Chart: chart.ChartSpec{Code: chartCode, Description: description, Currency: main},
		Accounts: []chart.AccountSpec{
			{Code: chartCode + AssetsSuffix, Description: "Assets", Composite: true, Type: string(model.SideDebit)},
			{Code: chartCode + LiabilitiesSuffix, Description: "Liabilities", Composite: true, Type: string(model.SideCredit)},
			{Code: chartCode + EquitySuffix, Description: "Equity", Composite: true, Type: string(model.SideCredit)},
			{Code: chartCode + RevenueSuffix, Description: "Revenue", Composite: true, Type: string(model.SideCredit)},
			{Code: chartCode + ExpensesSuffix, Description: "Expenses", Composite: true, Type: string(model.SideDebit)},
			{Code: chartCode + BridgeAssetsSuffix, Description: "Bridge Assets", Composite: true, Type: string(model.SideDebit)},
			{Code: chartCode + BridgeLiabilitiesSuffix, Description: "Bridge Liabilities", Composite: true, Type: string(model.SideCredit)},
		},
	}

	journal := chart.JournalSpec{Name: DefaultJournal}
	for _, c := range currencies {
		cur, ok := knownCurrencies[c]
		if !ok {
			cur = model.Currency{Code: c}
		}
		p.Currencies = append(p.Currencies, cur)
		for k := layer.Base; k <= layer.CreditAllowances; k++ {
			journal.Layers = append(journal.Layers, bases[c]+int(k))
		}
	}
	p.Journals = []chart.JournalSpec{journal}
	return p
}
