package models

import (
	"encoding/json"
	"testing"
)

func TestChartKindConstants(t *testing.T) {
	kinds := map[ChartKind]string{
		ChartLine: "line",
		ChartBar:  "bar",
	}
	for k, expected := range kinds {
		if string(k) != expected {
			t.Errorf("ChartKind %v: got %q, want %q", k, string(k), expected)
		}
	}
}

func TestNoticeKindConstants(t *testing.T) {
	if string(NoticeWarning) != "warning" {
		t.Errorf("NoticeWarning: got %q, want %q", NoticeWarning, "warning")
	}
	if string(NoticeError) != "error" {
		t.Errorf("NoticeError: got %q, want %q", NoticeError, "error")
	}
}

func TestSeriesResultHelpers(t *testing.T) {
	s := SeriesResult{
		CountryCode:   "MX",
		IndicatorCode: "NGDP_R",
		StartYear:     2020,
		EndYear:       2022,
		Points: []ObservationPoint{
			{Year: 2020, Value: 100},
			{Year: 2021, Value: 105.5},
		},
	}
	if s.Empty() {
		t.Fatal("series with points should not be empty")
	}
	years := s.Years()
	if len(years) != 2 || years[0] != 2020 || years[1] != 2021 {
		t.Errorf("Years: got %v, want [2020 2021]", years)
	}
	if v, ok := s.ValueFor(2021); !ok || v != 105.5 {
		t.Errorf("ValueFor(2021): got %v %v, want 105.5 true", v, ok)
	}
	if _, ok := s.ValueFor(2022); ok {
		t.Error("ValueFor(2022) should report absent")
	}
	if !(SeriesResult{}).Empty() {
		t.Error("zero series should be empty")
	}
}

func TestPivotValue(t *testing.T) {
	v1, v2 := 100.0, 42.5
	p := &Pivot{
		Years:     []int{2020, 2021},
		Countries: []string{"Brazil", "Mexico"},
		Cells: [][]*float64{
			{&v1, nil},
			{nil, &v2},
		},
	}

	tests := []struct {
		year    int
		country string
		want    float64
		ok      bool
	}{
		{2020, "Brazil", 100.0, true},
		{2021, "Mexico", 42.5, true},
		{2020, "Mexico", 0, false},
		{2019, "Brazil", 0, false},
		{2020, "Chile", 0, false},
	}
	for _, tt := range tests {
		got, ok := p.Value(tt.year, tt.country)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Value(%d, %q): got %v %v, want %v %v",
				tt.year, tt.country, got, ok, tt.want, tt.ok)
		}
	}

	var nilPivot *Pivot
	if _, ok := nilPivot.Value(2020, "Brazil"); ok {
		t.Error("nil pivot should report absent")
	}
}

func TestPanelEmptyAndCountryNames(t *testing.T) {
	empty := Panel{Slug: "gdp"}
	if !empty.Empty() {
		t.Error("panel without rows should be empty")
	}

	p := Panel{
		Rows: []PanelRow{
			{Year: 2020, Value: 1, Country: "Mexico"},
			{Year: 2021, Value: 2, Country: "Mexico"},
			{Year: 2020, Value: 3, Country: "Brazil"},
		},
	}
	if p.Empty() {
		t.Error("panel with rows should not be empty")
	}
	names := p.CountryNames()
	if len(names) != 2 || names[0] != "Mexico" || names[1] != "Brazil" {
		t.Errorf("CountryNames: got %v, want [Mexico Brazil]", names)
	}

	trade := Panel{
		TradeBalance: true,
		TradeRows:    []TradeRow{{Country: "Chile", Exports: 50, Imports: 70}},
	}
	if trade.Empty() {
		t.Error("trade panel with rows should not be empty")
	}
	if names := trade.CountryNames(); len(names) != 1 || names[0] != "Chile" {
		t.Errorf("trade CountryNames: got %v, want [Chile]", names)
	}
}

func TestSeriesResultJSONRoundtrip(t *testing.T) {
	s := SeriesResult{
		CountryCode:   "US",
		IndicatorCode: "PCPI",
		StartYear:     2010,
		EndYear:       2023,
		Points:        []ObservationPoint{{Year: 2010, Value: 1.64}},
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("json.Marshal(SeriesResult) error: %v", err)
	}
	var decoded SeriesResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal(SeriesResult) error: %v", err)
	}
	if decoded.CountryCode != s.CountryCode {
		t.Errorf("CountryCode: got %q, want %q", decoded.CountryCode, s.CountryCode)
	}
	if len(decoded.Points) != 1 || decoded.Points[0].Value != 1.64 {
		t.Errorf("Points: got %v, want %v", decoded.Points, s.Points)
	}
}
