// Package models defines the shared data types exchanged between the
// catalog, the fetch service, the dashboard driver, and the render layers.
package models

// ChartKind selects how an indicator panel is drawn.
type ChartKind string

const (
	ChartLine ChartKind = "line"
	ChartBar  ChartKind = "bar"
)

// Country is one selectable economy. Code is the internal 3-letter key;
// APICode is the 2-letter code the upstream DataMapper API expects.
type Country struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	APICode string `json:"api_code"`
}

// Indicator is one macroeconomic time series known to the catalog.
type Indicator struct {
	Key     string    `json:"key"`
	APICode string    `json:"api_code"`
	Label   string    `json:"label"`
	Unit    string    `json:"unit"`
	Chart   ChartKind `json:"chart"`
}

// ObservationPoint is a single (year, value) data point for one
// country/indicator pair. Points whose upstream value is absent or
// unparseable are dropped during normalization, never stored as zero.
type ObservationPoint struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// SeriesResult is the normalized output of one fetch call: the points,
// ordered by ascending year, plus the request tuple that produced them.
type SeriesResult struct {
	CountryCode   string             `json:"country_code"`
	IndicatorCode string             `json:"indicator_code"`
	StartYear     int                `json:"start_year"`
	EndYear       int                `json:"end_year"`
	Points        []ObservationPoint `json:"points"`
}

// Empty reports whether the series carries no data points.
func (s SeriesResult) Empty() bool { return len(s.Points) == 0 }

// Years returns the years of all points in order.
func (s SeriesResult) Years() []int {
	years := make([]int, len(s.Points))
	for i, p := range s.Points {
		years[i] = p.Year
	}
	return years
}

// ValueFor returns the value observed in the given year.
func (s SeriesResult) ValueFor(year int) (float64, bool) {
	for _, p := range s.Points {
		if p.Year == year {
			return p.Value, true
		}
	}
	return 0, false
}
