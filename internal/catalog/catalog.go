// Package catalog defines the immutable country and indicator tables and
// the fixed dashboard panel layout. Everything here is created once at
// process start and never mutated.
package catalog

import (
	"strings"

	"github.com/macrovista/macrovista/pkg/models"
)

// Source is the upstream data provider credited in the dashboard footer.
const Source = "International Monetary Fund"

// SourceURL links to the upstream data provider.
const SourceURL = "https://www.imf.org"

// MinYear is the earliest selectable year.
const MinYear = 1990

// Countries lists the selectable economies.
var Countries = []models.Country{
	{Code: "USA", Name: "United States", APICode: "US"},
	{Code: "MEX", Name: "Mexico", APICode: "MX"},
	{Code: "BRA", Name: "Brazil", APICode: "BR"},
	{Code: "ESP", Name: "Spain", APICode: "ES"},
	{Code: "ARG", Name: "Argentina", APICode: "AR"},
	{Code: "COL", Name: "Colombia", APICode: "CO"},
	{Code: "CHL", Name: "Chile", APICode: "CL"},
	{Code: "PER", Name: "Peru", APICode: "PE"},
	{Code: "DEU", Name: "Germany", APICode: "DE"},
	{Code: "FRA", Name: "France", APICode: "FR"},
	{Code: "GBR", Name: "United Kingdom", APICode: "GB"},
	{Code: "CHN", Name: "China", APICode: "CN"},
}

// Indicators lists the macroeconomic series known to the DataMapper API.
var Indicators = []models.Indicator{
	{Key: "gdp", APICode: "NGDP_R", Label: "Real GDP", Unit: "USD", Chart: models.ChartBar},
	{Key: "gdp_per_capita", APICode: "NGDPDPC", Label: "GDP per Capita", Unit: "USD", Chart: models.ChartBar},
	{Key: "inflation", APICode: "PCPI", Label: "Inflation Rate", Unit: "%", Chart: models.ChartLine},
	{Key: "exports", APICode: "TXG_FOB_USD", Label: "Exports of Goods", Unit: "USD", Chart: models.ChartBar},
	{Key: "imports", APICode: "TMG_CIF_USD", Label: "Imports of Goods", Unit: "USD", Chart: models.ChartBar},
	{Key: "current_account", APICode: "BCA", Label: "Current Account Balance", Unit: "% GDP", Chart: models.ChartLine},
	{Key: "reserves", APICode: "RAXG", Label: "International Reserves", Unit: "USD", Chart: models.ChartBar},
	{Key: "interest_rate", APICode: "FPOLM_PA", Label: "Policy Interest Rate", Unit: "%", Chart: models.ChartLine},
	{Key: "public_debt", APICode: "GGXWDG", Label: "Public Debt", Unit: "% GDP", Chart: models.ChartBar},
	{Key: "fiscal_balance", APICode: "GGXONLB", Label: "Fiscal Balance", Unit: "% GDP", Chart: models.ChartBar},
	{Key: "gov_spending", APICode: "GGX", Label: "Government Expenditure", Unit: "% GDP", Chart: models.ChartBar},
	{Key: "unemployment", APICode: "LUR", Label: "Unemployment Rate", Unit: "%", Chart: models.ChartBar},
	{Key: "fdi", APICode: "FDI", Label: "Foreign Direct Investment", Unit: "USD", Chart: models.ChartBar},
}

// Indicator keys the trade balance panel depends on.
const (
	TradeExportsKey = "exports"
	TradeImportsKey = "imports"
)

// PanelDef describes one dashboard panel. A PanelDef either names an
// indicator to chart over the selected year range, or marks the special
// single-year trade balance comparison.
type PanelDef struct {
	Slug         string
	Title        string
	IndicatorKey string
	TradeBalance bool
}

// Panels is the fixed dashboard layout, in render order.
var Panels = []PanelDef{
	{Slug: "gdp", Title: "Gross Domestic Product (GDP)", IndicatorKey: "gdp"},
	{Slug: "gdp-per-capita", Title: "GDP per Capita", IndicatorKey: "gdp_per_capita"},
	{Slug: "inflation", Title: "Annual Inflation", IndicatorKey: "inflation"},
	{Slug: "trade-balance", Title: "Trade Balance (Latest Year)", TradeBalance: true},
	{Slug: "current-account", Title: "Current Account (% GDP)", IndicatorKey: "current_account"},
	{Slug: "reserves", Title: "International Reserves", IndicatorKey: "reserves"},
	{Slug: "interest-rate", Title: "Monetary Policy Interest Rates", IndicatorKey: "interest_rate"},
	{Slug: "public-debt", Title: "Public Debt (% GDP)", IndicatorKey: "public_debt"},
	{Slug: "fiscal-balance", Title: "Fiscal Balance (% GDP)", IndicatorKey: "fiscal_balance"},
	{Slug: "gov-spending", Title: "Government Expenditure (% GDP)", IndicatorKey: "gov_spending"},
	{Slug: "unemployment", Title: "Unemployment Rate (%)", IndicatorKey: "unemployment"},
	{Slug: "fdi", Title: "Foreign Direct Investment (USD)", IndicatorKey: "fdi"},
}

// CountryByCode looks up a country by its internal 3-letter code.
// Matching is case-insensitive and tolerates surrounding whitespace.
func CountryByCode(code string) (models.Country, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range Countries {
		if c.Code == code {
			return c, true
		}
	}
	return models.Country{}, false
}

// IndicatorByKey looks up an indicator by its internal key.
func IndicatorByKey(key string) (models.Indicator, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, ind := range Indicators {
		if ind.Key == key {
			return ind, true
		}
	}
	return models.Indicator{}, false
}

// CountryCodes returns all internal country codes in catalog order.
func CountryCodes() []string {
	codes := make([]string, len(Countries))
	for i, c := range Countries {
		codes[i] = c.Code
	}
	return codes
}

// IndicatorKeys returns all indicator keys in catalog order.
func IndicatorKeys() []string {
	keys := make([]string, len(Indicators))
	for i, ind := range Indicators {
		keys[i] = ind.Key
	}
	return keys
}
