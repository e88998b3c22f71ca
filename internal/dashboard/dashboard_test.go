package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/macrovista/macrovista/internal/catalog"
	"github.com/macrovista/macrovista/pkg/models"
	"github.com/macrovista/macrovista/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Test helpers
// ════════════════════════════════════════════════════════════════════

type fetchCall struct {
	country, indicator string
	start, end         int
}

// fakeSource is an in-memory SeriesSource keyed by country|indicator.
type fakeSource struct {
	mu     sync.Mutex
	calls  []fetchCall
	series map[string]models.SeriesResult
	errs   map[string]error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		series: make(map[string]models.SeriesResult),
		errs:   make(map[string]error),
	}
}

func (f *fakeSource) put(country, indicator string, points ...models.ObservationPoint) {
	f.series[country+"|"+indicator] = models.SeriesResult{
		CountryCode:   country,
		IndicatorCode: indicator,
		Points:        points,
	}
}

func (f *fakeSource) fail(country, indicator string, err error) {
	f.errs[country+"|"+indicator] = err
}

func (f *fakeSource) Fetch(ctx context.Context, country, indicator string, start, end int) (models.SeriesResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fetchCall{country, indicator, start, end})
	f.mu.Unlock()

	empty := models.SeriesResult{
		CountryCode:   country,
		IndicatorCode: indicator,
		StartYear:     start,
		EndYear:       end,
	}
	key := country + "|" + indicator
	if err, ok := f.errs[key]; ok {
		return empty, err
	}
	stored, ok := f.series[key]
	if !ok {
		return empty, nil
	}

	out := empty
	for _, p := range stored.Points {
		if p.Year >= start && p.Year <= end {
			out.Points = append(out.Points, p)
		}
	}
	return out, nil
}

func (f *fakeSource) callsFor(indicator string) []fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fetchCall
	for _, c := range f.calls {
		if c.indicator == indicator {
			out = append(out, c)
		}
	}
	return out
}

func pt(year int, v float64) models.ObservationPoint {
	return models.ObservationPoint{Year: year, Value: v}
}

func mustCountry(t *testing.T, code string) models.Country {
	t.Helper()
	c, ok := catalog.CountryByCode(code)
	if !ok {
		t.Fatalf("country %q not in catalog", code)
	}
	return c
}

func tradeDef(t *testing.T) catalog.PanelDef {
	t.Helper()
	for _, def := range catalog.Panels {
		if def.TradeBalance {
			return def
		}
	}
	t.Fatal("no trade balance panel in catalog")
	return catalog.PanelDef{}
}

// ════════════════════════════════════════════════════════════════════
// Indicator panel tests
// ════════════════════════════════════════════════════════════════════

func TestIndicatorPanelTagsRowsWithCountryName(t *testing.T) {
	src := newFakeSource()
	src.put("MX", "NGDP_R", pt(2020, 100), pt(2021, 105))
	src.put("US", "NGDP_R", pt(2020, 2000), pt(2021, 2100))

	b := NewBuilder(src)
	countries := []models.Country{mustCountry(t, "MEX"), mustCountry(t, "USA")}
	panel := b.buildIndicatorPanel(context.Background(), catalog.Panels[0], countries, 2020, 2021)

	if len(panel.Rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(panel.Rows))
	}
	// Selection order: Mexico's rows first, then United States.
	if panel.Rows[0].Country != "Mexico" || panel.Rows[0].Year != 2020 || panel.Rows[0].Value != 100 {
		t.Errorf("Rows[0] = %+v", panel.Rows[0])
	}
	if panel.Rows[2].Country != "United States" {
		t.Errorf("Rows[2].Country = %q, want United States", panel.Rows[2].Country)
	}
	if panel.Unit != "USD" {
		t.Errorf("Unit = %q, want USD", panel.Unit)
	}
	if panel.Chart != models.ChartBar {
		t.Errorf("Chart = %q, want bar", panel.Chart)
	}
}

func TestIndicatorPanelSkipsFailedCountry(t *testing.T) {
	src := newFakeSource()
	src.fail("MX", "NGDP_R", errors.New("boom"))
	src.put("US", "NGDP_R", pt(2020, 2000), pt(2021, 2100))

	b := NewBuilder(src)
	countries := []models.Country{mustCountry(t, "MEX"), mustCountry(t, "USA")}
	panel := b.buildIndicatorPanel(context.Background(), catalog.Panels[0], countries, 2020, 2021)

	for _, r := range panel.Rows {
		if r.Country != "United States" {
			t.Errorf("unexpected row for %q after Mexico failed", r.Country)
		}
	}
	if len(panel.Rows) != 2 {
		t.Errorf("got %d rows, want 2 (United States only)", len(panel.Rows))
	}

	var errNotices int
	for _, n := range panel.Notices {
		if n.Kind == models.NoticeError {
			errNotices++
		}
	}
	if errNotices != 1 {
		t.Errorf("got %d error notices, want 1 for the failed fetch", errNotices)
	}
}

func TestIndicatorPanelSkipsEmptySeriesSilently(t *testing.T) {
	src := newFakeSource()
	// Mexico present but no points in range; United States has data.
	src.put("MX", "NGDP_R")
	src.put("US", "NGDP_R", pt(2020, 2000))

	b := NewBuilder(src)
	countries := []models.Country{mustCountry(t, "MEX"), mustCountry(t, "USA")}
	panel := b.buildIndicatorPanel(context.Background(), catalog.Panels[0], countries, 2020, 2021)

	if len(panel.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(panel.Rows))
	}
	if len(panel.Notices) != 0 {
		t.Errorf("empty series should not produce a notice, got %+v", panel.Notices)
	}
}

func TestIndicatorPanelEmptyGetsWarning(t *testing.T) {
	src := newFakeSource()
	src.fail("MX", "NGDP_R", errors.New("down"))

	b := NewBuilder(src)
	countries := []models.Country{mustCountry(t, "MEX")}
	panel := b.buildIndicatorPanel(context.Background(), catalog.Panels[0], countries, 2020, 2021)

	if !panel.Empty() {
		t.Fatal("panel should be empty")
	}
	if panel.Pivot != nil {
		t.Error("empty panel should not carry a pivot")
	}

	var warned bool
	for _, n := range panel.Notices {
		if n.Kind == models.NoticeWarning {
			warned = true
		}
	}
	if !warned {
		t.Error("expected a no-data warning notice")
	}
}

func TestIndicatorPanelFetchesCountriesInSelectionOrder(t *testing.T) {
	src := newFakeSource()
	src.put("US", "NGDP_R", pt(2020, 1))
	src.put("MX", "NGDP_R", pt(2020, 2))

	b := NewBuilder(src)
	countries := []models.Country{mustCountry(t, "USA"), mustCountry(t, "MEX")}
	b.buildIndicatorPanel(context.Background(), catalog.Panels[0], countries, 2020, 2021)

	calls := src.callsFor("NGDP_R")
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	if calls[0].country != "US" || calls[1].country != "MX" {
		t.Errorf("fetch order = [%s %s], want [US MX]", calls[0].country, calls[1].country)
	}
	if calls[0].start != 2020 || calls[0].end != 2021 {
		t.Errorf("year range = %d-%d, want 2020-2021", calls[0].start, calls[0].end)
	}
}

// ════════════════════════════════════════════════════════════════════
// Trade balance panel tests
// ════════════════════════════════════════════════════════════════════

func TestTradePanel(t *testing.T) {
	src := newFakeSource()
	src.put("MX", "TXG_FOB_USD", pt(2023, 50))
	src.put("MX", "TMG_CIF_USD", pt(2023, 70))

	b := NewBuilder(src)
	countries := []models.Country{mustCountry(t, "MEX")}
	panel := b.buildTradePanel(context.Background(), tradeDef(t), countries, 2023)

	if len(panel.TradeRows) != 1 {
		t.Fatalf("got %d trade rows, want 1", len(panel.TradeRows))
	}
	row := panel.TradeRows[0]
	if row.Country != "Mexico" {
		t.Errorf("Country = %q", row.Country)
	}
	if row.Exports != 50 {
		t.Errorf("Exports = %v, want 50", row.Exports)
	}
	if row.Imports != 70 {
		t.Errorf("Imports = %v, want 70", row.Imports)
	}
	if panel.Year != 2023 {
		t.Errorf("Year = %d, want 2023", panel.Year)
	}
	if !panel.TradeBalance {
		t.Error("TradeBalance flag not set")
	}

	// Both fetches restricted to the single end year.
	for _, c := range src.calls {
		if c.start != 2023 || c.end != 2023 {
			t.Errorf("fetch %s/%s used range %d-%d, want 2023-2023", c.country, c.indicator, c.start, c.end)
		}
	}
}

func TestTradePanelSkipsCountryMissingOneSide(t *testing.T) {
	src := newFakeSource()
	src.put("MX", "TXG_FOB_USD", pt(2023, 50))
	// No imports for Mexico; Brazil has both.
	src.put("BR", "TXG_FOB_USD", pt(2023, 30))
	src.put("BR", "TMG_CIF_USD", pt(2023, 25))

	b := NewBuilder(src)
	countries := []models.Country{mustCountry(t, "MEX"), mustCountry(t, "BRA")}
	panel := b.buildTradePanel(context.Background(), tradeDef(t), countries, 2023)

	if len(panel.TradeRows) != 1 {
		t.Fatalf("got %d trade rows, want 1 (Brazil only)", len(panel.TradeRows))
	}
	if panel.TradeRows[0].Country != "Brazil" {
		t.Errorf("Country = %q, want Brazil", panel.TradeRows[0].Country)
	}
	// Missing a side is a silent skip, not an error.
	for _, n := range panel.Notices {
		if n.Kind == models.NoticeError {
			t.Errorf("unexpected error notice: %s", n.Message)
		}
	}
}

func TestTradePanelFetchErrorRecordsNotice(t *testing.T) {
	src := newFakeSource()
	src.fail("MX", "TXG_FOB_USD", errors.New("upstream down"))

	b := NewBuilder(src)
	countries := []models.Country{mustCountry(t, "MEX")}
	panel := b.buildTradePanel(context.Background(), tradeDef(t), countries, 2023)

	if len(panel.TradeRows) != 0 {
		t.Fatalf("got %d trade rows, want 0", len(panel.TradeRows))
	}

	var errNotices, warnings int
	for _, n := range panel.Notices {
		switch n.Kind {
		case models.NoticeError:
			errNotices++
		case models.NoticeWarning:
			warnings++
		}
	}
	if errNotices != 1 {
		t.Errorf("got %d error notices, want 1", errNotices)
	}
	if warnings != 1 {
		t.Errorf("got %d warnings, want 1 (no trade data)", warnings)
	}
}

// ════════════════════════════════════════════════════════════════════
// Full build tests
// ════════════════════════════════════════════════════════════════════

func TestBuildPanelOrder(t *testing.T) {
	src := newFakeSource()
	b := NewBuilder(src)

	dash, err := b.Build(context.Background(), models.Selection{
		Countries: []string{"MEX"},
		StartYear: 2020,
		EndYear:   2023,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(dash.Panels) != len(catalog.Panels) {
		t.Fatalf("got %d panels, want %d", len(dash.Panels), len(catalog.Panels))
	}
	for i, def := range catalog.Panels {
		if dash.Panels[i].Slug != def.Slug {
			t.Errorf("Panels[%d].Slug = %q, want %q", i, dash.Panels[i].Slug, def.Slug)
		}
	}
	if dash.Source != catalog.Source {
		t.Errorf("Source = %q", dash.Source)
	}
	if dash.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
}

func TestBuildOnePanelFailureDoesNotBlockOthers(t *testing.T) {
	src := newFakeSource()
	// GDP fails for Mexico; inflation succeeds.
	src.fail("MX", "NGDP_R", errors.New("boom"))
	src.put("MX", "PCPI", pt(2020, 4.5), pt(2021, 5.7))

	b := NewBuilder(src)
	dash, err := b.Build(context.Background(), models.Selection{
		Countries: []string{"MEX"},
		StartYear: 2020,
		EndYear:   2021,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	bysSlug := make(map[string]models.Panel)
	for _, p := range dash.Panels {
		bysSlug[p.Slug] = p
	}

	gdp := bysSlug["gdp"]
	if !gdp.Empty() {
		t.Error("gdp panel should be empty after fetch failure")
	}
	inflation := bysSlug["inflation"]
	if inflation.Empty() {
		t.Error("inflation panel should have data")
	}
	if len(inflation.Rows) != 2 {
		t.Errorf("inflation rows = %d, want 2", len(inflation.Rows))
	}
}

func TestBuildUnknownCountryWarning(t *testing.T) {
	src := newFakeSource()
	src.put("MX", "NGDP_R", pt(2020, 100))

	b := NewBuilder(src)
	dash, err := b.Build(context.Background(), models.Selection{
		Countries: []string{"MEX", "XXX"},
		StartYear: 2020,
		EndYear:   2021,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var warned bool
	for _, n := range dash.Notices {
		if n.Kind == models.NoticeWarning {
			warned = true
		}
	}
	if !warned {
		t.Error("expected a warning about the unknown country code")
	}
	if len(dash.Selection.Countries) != 1 || dash.Selection.Countries[0] != "MEX" {
		t.Errorf("Selection.Countries = %v, want [MEX]", dash.Selection.Countries)
	}
}

func TestBuildNoValidCountries(t *testing.T) {
	src := newFakeSource()
	b := NewBuilder(src)

	dash, err := b.Build(context.Background(), models.Selection{
		Countries: []string{"XXX"},
		StartYear: 2020,
		EndYear:   2021,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(dash.Panels) != 0 {
		t.Errorf("got %d panels, want 0 without valid countries", len(dash.Panels))
	}
	if len(src.calls) != 0 {
		t.Errorf("source should not be called, got %d fetches", len(src.calls))
	}
	if len(dash.Notices) < 2 {
		t.Errorf("expected unknown-code and select-a-country notices, got %+v", dash.Notices)
	}
}

func TestBuildYearOrderError(t *testing.T) {
	b := NewBuilder(newFakeSource())
	_, err := b.Build(context.Background(), models.Selection{
		Countries: []string{"MEX"},
		StartYear: 2023,
		EndYear:   2020,
	})
	if !errors.Is(err, ErrYearOrder) {
		t.Fatalf("err = %v, want ErrYearOrder", err)
	}
}

// ════════════════════════════════════════════════════════════════════
// Selection normalization tests
// ════════════════════════════════════════════════════════════════════

func TestNormalizeSelection(t *testing.T) {
	maxYear := utils.CurrentYear()

	tests := []struct {
		name      string
		sel       models.Selection
		wantCodes []string
		wantStart int
		wantEnd   int
		wantWarn  int
	}{
		{
			name:      "clean",
			sel:       models.Selection{Countries: []string{"MEX", "USA"}, StartYear: 2010, EndYear: 2023},
			wantCodes: []string{"MEX", "USA"},
			wantStart: 2010,
			wantEnd:   2023,
		},
		{
			name:      "lowercase and whitespace tolerated",
			sel:       models.Selection{Countries: []string{" mex ", "usa"}, StartYear: 2010, EndYear: 2023},
			wantCodes: []string{"MEX", "USA"},
			wantStart: 2010,
			wantEnd:   2023,
		},
		{
			name:      "unknown code dropped with warning",
			sel:       models.Selection{Countries: []string{"MEX", "ZZZ"}, StartYear: 2010, EndYear: 2023},
			wantCodes: []string{"MEX"},
			wantStart: 2010,
			wantEnd:   2023,
			wantWarn:  1,
		},
		{
			name:      "duplicates collapse",
			sel:       models.Selection{Countries: []string{"MEX", "MEX", "USA"}, StartYear: 2010, EndYear: 2023},
			wantCodes: []string{"MEX", "USA"},
			wantStart: 2010,
			wantEnd:   2023,
		},
		{
			name:      "years clamp to bounds",
			sel:       models.Selection{Countries: []string{"MEX"}, StartYear: 1900, EndYear: 9999},
			wantCodes: []string{"MEX"},
			wantStart: catalog.MinYear,
			wantEnd:   maxYear,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, countries, notices, err := normalizeSelection(tt.sel)
			if err != nil {
				t.Fatalf("normalizeSelection: %v", err)
			}
			if len(sel.Countries) != len(tt.wantCodes) {
				t.Fatalf("codes = %v, want %v", sel.Countries, tt.wantCodes)
			}
			for i, code := range tt.wantCodes {
				if sel.Countries[i] != code {
					t.Errorf("Countries[%d] = %q, want %q", i, sel.Countries[i], code)
				}
			}
			if len(countries) != len(tt.wantCodes) {
				t.Errorf("resolved %d countries, want %d", len(countries), len(tt.wantCodes))
			}
			if sel.StartYear != tt.wantStart {
				t.Errorf("StartYear = %d, want %d", sel.StartYear, tt.wantStart)
			}
			if sel.EndYear != tt.wantEnd {
				t.Errorf("EndYear = %d, want %d", sel.EndYear, tt.wantEnd)
			}
			if len(notices) != tt.wantWarn {
				t.Errorf("got %d notices, want %d", len(notices), tt.wantWarn)
			}
		})
	}
}

func TestNormalizeSelectionInvertedYears(t *testing.T) {
	_, _, _, err := normalizeSelection(models.Selection{
		Countries: []string{"MEX"},
		StartYear: 2024,
		EndYear:   2020,
	})
	if !errors.Is(err, ErrYearOrder) {
		t.Fatalf("err = %v, want ErrYearOrder", err)
	}
}

// ════════════════════════════════════════════════════════════════════
// Pivot tests
// ════════════════════════════════════════════════════════════════════

func TestBuildPivot(t *testing.T) {
	rows := []models.PanelRow{
		{Year: 2021, Value: 105, Country: "Mexico"},
		{Year: 2020, Value: 100, Country: "Mexico"},
		{Year: 2020, Value: 2000, Country: "Brazil"},
		// Brazil has no 2021 observation.
	}

	p := buildPivot(rows)

	wantYears := []int{2020, 2021}
	if len(p.Years) != 2 || p.Years[0] != wantYears[0] || p.Years[1] != wantYears[1] {
		t.Errorf("Years = %v, want %v", p.Years, wantYears)
	}
	// Alphabetical: Brazil before Mexico.
	if len(p.Countries) != 2 || p.Countries[0] != "Brazil" || p.Countries[1] != "Mexico" {
		t.Errorf("Countries = %v, want [Brazil Mexico]", p.Countries)
	}

	if v, ok := p.Value(2020, "Mexico"); !ok || v != 100 {
		t.Errorf("Value(2020, Mexico) = %v, %v", v, ok)
	}
	if v, ok := p.Value(2021, "Mexico"); !ok || v != 105 {
		t.Errorf("Value(2021, Mexico) = %v, %v", v, ok)
	}
	if v, ok := p.Value(2020, "Brazil"); !ok || v != 2000 {
		t.Errorf("Value(2020, Brazil) = %v, %v", v, ok)
	}
	if _, ok := p.Value(2021, "Brazil"); ok {
		t.Error("Value(2021, Brazil) should be absent")
	}

	if p.Cells[1][0] != nil {
		t.Error("cell for missing observation should be nil")
	}
}

func TestBuildPivotDistinctPointers(t *testing.T) {
	rows := []models.PanelRow{
		{Year: 2020, Value: 1, Country: "Mexico"},
		{Year: 2021, Value: 2, Country: "Mexico"},
	}
	p := buildPivot(rows)
	if p.Cells[0][0] == p.Cells[1][0] {
		t.Fatal("cells must not alias the same value")
	}
	if *p.Cells[0][0] != 1 || *p.Cells[1][0] != 2 {
		t.Errorf("cells = %v, %v", *p.Cells[0][0], *p.Cells[1][0])
	}
}
