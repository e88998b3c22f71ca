package report

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"

	"github.com/macrovista/macrovista/internal/catalog"
	"github.com/macrovista/macrovista/pkg/models"
	"github.com/macrovista/macrovista/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Page Generator — Orchestrates chart + template rendering
// ════════════════════════════════════════════════════════════════════

// PageConfig controls dashboard page generation.
type PageConfig struct {
	Title    string      // custom page title (optional)
	ChartCfg ChartConfig // chart rendering config
}

// DefaultPageConfig returns sensible defaults.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Title:    "MacroVista — Macroeconomic Comparison Dashboard",
		ChartCfg: DefaultChartConfig(),
	}
}

// GenerateHTML renders the full dashboard page from a build result.
func GenerateHTML(d *models.Dashboard, cfg PageConfig) (string, error) {
	if d == nil {
		return "", fmt.Errorf("dashboard is nil")
	}

	data := buildPageData(d, cfg)

	tmpl, err := template.New("dashboard").Parse(DashboardTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	return buf.String(), nil
}

// ════════════════════════════════════════════════════════════════════
// Page Data — Flattened for template rendering
// ════════════════════════════════════════════════════════════════════

// PageData is the template model for the dashboard page.
type PageData struct {
	Title       string
	GeneratedAt string
	Source      string
	SourceURL   string

	// Selection form state
	Countries []CountryOption
	MinYear   int
	MaxYear   int
	StartYear int
	EndYear   int

	Notices   []NoticeView
	Panels    []PanelView
	Headlines []HeadlineView
}

// CountryOption is one entry of the country multi-select.
type CountryOption struct {
	Code     string
	Name     string
	Selected bool
}

// NoticeView is a flattened notice for template rendering. Kind doubles
// as the CSS class.
type NoticeView struct {
	Kind    string
	Message string
}

// PanelView is one dashboard section ready for the template.
type PanelView struct {
	Number    int // 1-based position on the page
	Slug      string
	Title     string
	Unit      string
	Year      int // trade balance reference year
	Chart     template.HTML
	Notices   []NoticeView
	HasData   bool
	Trade     bool
	TradeRows []TradeRowView
	Pivot     *PivotView
}

// PivotView is the year-by-country table behind the panel disclosure.
type PivotView struct {
	Countries []string
	Rows      []PivotRow
}

// PivotRow is one year of formatted pivot cells.
type PivotRow struct {
	Year  int
	Cells []string
}

// TradeRowView is one country's formatted exports/imports comparison.
type TradeRowView struct {
	Country string
	Exports string
	Imports string
	Balance string
	Deficit bool
}

// HeadlineView is one news item of the footer strip.
type HeadlineView struct {
	Title     string
	URL       string
	Source    string
	Published string
}

// ════════════════════════════════════════════════════════════════════
// Internal — flatten the dashboard into template fields
// ════════════════════════════════════════════════════════════════════

func buildPageData(d *models.Dashboard, cfg PageConfig) PageData {
	data := PageData{
		Title:       cfg.Title,
		GeneratedAt: d.GeneratedAt.Format("02 Jan 2006, 15:04 MST"),
		Source:      d.Source,
		SourceURL:   catalog.SourceURL,
		MinYear:     catalog.MinYear,
		MaxYear:     utils.CurrentYear(),
		StartYear:   d.Selection.StartYear,
		EndYear:     d.Selection.EndYear,
		Notices:     noticeViews(d.Notices),
	}
	if data.Title == "" {
		data.Title = DefaultPageConfig().Title
	}

	selected := make(map[string]bool, len(d.Selection.Countries))
	for _, code := range d.Selection.Countries {
		selected[code] = true
	}
	data.Countries = make([]CountryOption, len(catalog.Countries))
	for i, c := range catalog.Countries {
		data.Countries[i] = CountryOption{Code: c.Code, Name: c.Name, Selected: selected[c.Code]}
	}

	data.Panels = make([]PanelView, len(d.Panels))
	for i, p := range d.Panels {
		data.Panels[i] = buildPanelView(i+1, p, cfg.ChartCfg)
	}

	for _, h := range d.Headlines {
		view := HeadlineView{Title: h.Title, URL: h.URL, Source: h.Source}
		if !h.PublishedAt.IsZero() {
			view.Published = h.PublishedAt.Format("02 Jan 2006")
		}
		data.Headlines = append(data.Headlines, view)
	}

	return data
}

func buildPanelView(number int, p models.Panel, chartCfg ChartConfig) PanelView {
	view := PanelView{
		Number:  number,
		Slug:    p.Slug,
		Title:   p.Title,
		Unit:    p.Unit,
		Year:    p.Year,
		Chart:   template.HTML(PanelChart(p, chartCfg)),
		Notices: noticeViews(p.Notices),
		HasData: !p.Empty(),
		Trade:   p.TradeBalance,
	}

	if p.TradeBalance {
		for _, r := range p.TradeRows {
			balance := r.Exports - r.Imports
			view.TradeRows = append(view.TradeRows, TradeRowView{
				Country: r.Country,
				Exports: utils.FormatCompact(r.Exports),
				Imports: utils.FormatCompact(r.Imports),
				Balance: utils.FormatCompact(balance),
				Deficit: balance < 0,
			})
		}
		return view
	}

	view.Pivot = buildPivotView(p)
	return view
}

func buildPivotView(p models.Panel) *PivotView {
	if p.Pivot == nil || len(p.Pivot.Years) == 0 {
		return nil
	}
	pv := &PivotView{
		Countries: p.Pivot.Countries,
		Rows:      make([]PivotRow, len(p.Pivot.Years)),
	}
	for i, year := range p.Pivot.Years {
		cells := make([]string, len(p.Pivot.Countries))
		for j := range p.Pivot.Countries {
			if c := p.Pivot.Cells[i][j]; c != nil {
				cells[j] = pivotCell(*c, p.Unit)
			} else {
				cells[j] = "–"
			}
		}
		pv.Rows[i] = PivotRow{Year: year, Cells: cells}
	}
	return pv
}

func pivotCell(v float64, unit string) string {
	if strings.Contains(unit, "%") {
		return utils.FormatPct(v)
	}
	return utils.FormatNumber(v)
}

func noticeViews(notices []models.Notice) []NoticeView {
	if len(notices) == 0 {
		return nil
	}
	views := make([]NoticeView, len(notices))
	for i, n := range notices {
		views[i] = NoticeView{Kind: string(n.Kind), Message: n.Message}
	}
	return views
}

// ════════════════════════════════════════════════════════════════════
// Panel Charts
// ════════════════════════════════════════════════════════════════════

// PanelChart renders the SVG chart for one panel in the kind the
// catalog assigns: lines or grouped bars over years, or the single-year
// exports/imports comparison for the trade balance panel.
func PanelChart(p models.Panel, base ChartConfig) string {
	cfg := base
	cfg.Title = p.Title
	cfg.Unit = p.Unit

	if p.TradeBalance {
		return tradeChart(p, cfg)
	}
	if p.Pivot == nil || len(p.Pivot.Years) == 0 {
		return emptySVG(cfg, "No data available")
	}

	// Series stay in selection order so each country keeps the same
	// color on every panel.
	names := p.CountryNames()
	labels := make([]string, len(p.Pivot.Years))
	for i, y := range p.Pivot.Years {
		labels[i] = strconv.Itoa(y)
	}

	if p.Chart == models.ChartLine {
		series := make([]LineSeries, len(names))
		for i, name := range names {
			values := make([]float64, len(p.Pivot.Years))
			for j, y := range p.Pivot.Years {
				if v, ok := p.Pivot.Value(y, name); ok {
					values[j] = v
				} else {
					values[j] = math.NaN()
				}
			}
			series[i] = LineSeries{Name: name, Values: values, Color: SeriesColor(i)}
		}
		return LineChart(series, labels, cfg)
	}

	groups := make([]BarGroup, len(p.Pivot.Years))
	for j, y := range p.Pivot.Years {
		values := make([]float64, len(names))
		for i, name := range names {
			if v, ok := p.Pivot.Value(y, name); ok {
				values[i] = v
			} else {
				values[i] = math.NaN()
			}
		}
		groups[j] = BarGroup{Label: labels[j], Values: values}
	}
	return GroupedBarChart(names, groups, cfg)
}

func tradeChart(p models.Panel, cfg ChartConfig) string {
	if len(p.TradeRows) == 0 {
		return emptySVG(cfg, "No data available")
	}
	groups := make([]BarGroup, len(p.TradeRows))
	for i, r := range p.TradeRows {
		groups[i] = BarGroup{Label: r.Country, Values: []float64{r.Exports, r.Imports}}
	}
	return GroupedBarChart([]string{"Exports", "Imports"}, groups, cfg)
}
