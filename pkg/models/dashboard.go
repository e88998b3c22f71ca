package models

import "time"

// NoticeKind distinguishes soft "no data" warnings from fetch errors.
type NoticeKind string

const (
	NoticeWarning NoticeKind = "warning"
	NoticeError   NoticeKind = "error"
)

// Notice is a non-fatal, user-visible message attached to a panel or to
// the dashboard as a whole.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// Selection is the user's input to a dashboard build: internal country
// codes plus an inclusive year range.
type Selection struct {
	Countries []string `json:"countries"`
	StartYear int      `json:"start_year"`
	EndYear   int      `json:"end_year"`
}

// PanelRow is one observation inside an aggregated panel, tagged with
// the display name of the country it came from.
type PanelRow struct {
	Year    int     `json:"year"`
	Value   float64 `json:"value"`
	Country string  `json:"country"`
}

// TradeRow is one country's exports/imports pair for the single-year
// trade balance comparison.
type TradeRow struct {
	Country string  `json:"country"`
	Exports float64 `json:"exports"`
	Imports float64 `json:"imports"`
}

// Pivot is the year-by-country grid derived from panel rows. Rows are
// ascending years, columns alphabetical display names; a nil cell means
// no observation for that (year, country).
type Pivot struct {
	Years     []int        `json:"years"`
	Countries []string     `json:"countries"`
	Cells     [][]*float64 `json:"cells"`
}

// Value returns the cell for (year, country) if present.
func (p *Pivot) Value(year int, country string) (float64, bool) {
	if p == nil {
		return 0, false
	}
	row, col := -1, -1
	for i, y := range p.Years {
		if y == year {
			row = i
			break
		}
	}
	for j, c := range p.Countries {
		if c == country {
			col = j
			break
		}
	}
	if row < 0 || col < 0 || p.Cells[row][col] == nil {
		return 0, false
	}
	return *p.Cells[row][col], true
}

// Panel is one rendered dashboard section: an indicator compared across
// the selected countries, or the special single-year trade balance.
type Panel struct {
	Slug         string     `json:"slug"`
	Title        string     `json:"title"`
	Unit         string     `json:"unit"`
	Chart        ChartKind  `json:"chart"`
	TradeBalance bool       `json:"trade_balance,omitempty"`
	Year         int        `json:"year,omitempty"`
	Rows         []PanelRow `json:"rows,omitempty"`
	TradeRows    []TradeRow `json:"trade_rows,omitempty"`
	Pivot        *Pivot     `json:"pivot,omitempty"`
	Notices      []Notice   `json:"notices,omitempty"`
}

// Empty reports whether no country contributed any data to the panel.
func (p Panel) Empty() bool { return len(p.Rows) == 0 && len(p.TradeRows) == 0 }

// CountryNames returns the distinct country display names present in
// the panel, in first-appearance order.
func (p Panel) CountryNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range p.Rows {
		if !seen[r.Country] {
			seen[r.Country] = true
			names = append(names, r.Country)
		}
	}
	for _, r := range p.TradeRows {
		if !seen[r.Country] {
			seen[r.Country] = true
			names = append(names, r.Country)
		}
	}
	return names
}

// Dashboard is the full build result handed to the render layers.
type Dashboard struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Selection   Selection     `json:"selection"`
	Panels      []Panel       `json:"panels"`
	Notices     []Notice      `json:"notices,omitempty"`
	Source      string        `json:"source"`
	Headlines   []NewsArticle `json:"headlines,omitempty"`
}
