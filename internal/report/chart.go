// Package report renders the comparison dashboard: pure-SVG charts, the
// HTML dashboard page, and the XLSX workbook export. Charts are generated
// as inline SVG strings with no external assets.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/macrovista/macrovista/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Panel charts, emitted as standalone SVG strings
// ════════════════════════════════════════════════════════════════════

// ChartConfig controls the geometry and palette of a rendered chart.
type ChartConfig struct {
	Width        int    // SVG width in pixels (default: 800)
	Height       int    // SVG height in pixels (default: 400)
	MarginTop    int    // top margin (default: 40)
	MarginRight  int    // right margin (default: 60)
	MarginBottom int    // bottom margin (default: 50)
	MarginLeft   int    // left margin (default: 70)
	BgColor      string // background color (default: "#ffffff")
	GridColor    string // grid line color (default: "#e8e8e8")
	TextColor    string // axis label color (default: "#333333")
	FontSize     int    // axis label font size (default: 11)
	Title        string // chart title
	Unit         string // indicator unit, drives axis tick formatting
}

// DefaultChartConfig is the 800x400 geometry every dashboard panel uses.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        800,
		Height:       400,
		MarginTop:    40,
		MarginRight:  60,
		MarginBottom: 50,
		MarginLeft:   70,
		BgColor:      "#ffffff",
		GridColor:    "#e8e8e8",
		TextColor:    "#333333",
		FontSize:     11,
	}
}

// plotArea is the drawing region inside the margins.
func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

// normalized fills in defaults for a zero-valued config while keeping
// the caller's title and unit.
func (c ChartConfig) normalized() ChartConfig {
	if c.Width != 0 {
		return c
	}
	def := DefaultChartConfig()
	def.Title = c.Title
	def.Unit = c.Unit
	return def
}

// defaultColors is the series palette, assigned in selection order so a
// country keeps its color across every panel of the dashboard.
var defaultColors = []string{"#2196f3", "#ff9800", "#4caf50", "#e91e63", "#9c27b0", "#00bcd4"}

// SeriesColor returns the palette color for the i-th series.
func SeriesColor(i int) string {
	return defaultColors[i%len(defaultColors)]
}

// padRange widens a value range by 5% so strokes and markers clear the
// plot edges, guarding a flat series with a unit range. Bar charts pass
// padBottom=false to keep their baseline anchored at zero unless the
// data dips negative.
func padRange(minVal, maxVal float64, padBottom bool) (float64, float64, float64) {
	vRange := maxVal - minVal
	if vRange < 0.001 {
		vRange = 1
	}
	maxVal += vRange * 0.05
	if padBottom {
		minVal -= vRange * 0.05
	}
	return minVal, maxVal, maxVal - minVal
}

// writeChartFrame emits the opening svg tag, background, and title.
func writeChartFrame(sb *strings.Builder, cfg ChartConfig) {
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="20" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))
}

// writeValueGrid emits horizontal gridlines with a tick label per line,
// formatted for the chart's unit.
func writeValueGrid(sb *strings.Builder, cfg ChartConfig, px, py, pw, ph int, minVal, vRange float64) {
	gridLines := 5
	for i := 0; i <= gridLines; i++ {
		val := minVal + vRange*float64(i)/float64(gridLines)
		y := py + ph - int(float64(ph)*float64(i)/float64(gridLines))
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-dasharray="3,3"/>`,
			px, y, px+pw, y, cfg.GridColor))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-5, y+4, cfg.FontSize, cfg.TextColor, axisValue(val, cfg.Unit)))
	}
}

// ════════════════════════════════════════════════════════════════════
// Line chart
// ════════════════════════════════════════════════════════════════════

// LineSeries is one named line on a line chart. Values align with the
// chart's X-axis labels; NaN marks a year with no observation, which
// breaks the line rather than plotting zero.
type LineSeries struct {
	Name   string
	Values []float64
	Color  string // hex color (optional, auto-assigned if empty)
}

// LineChart renders one line per series over a shared set of X-axis
// labels, with point markers that carry hover tooltips.
func LineChart(series []LineSeries, labels []string, cfg ChartConfig) string {
	if len(series) == 0 {
		return emptySVG(cfg, "No data")
	}

	cfg = cfg.normalized()
	px, py, pw, ph := cfg.plotArea()

	// Global min/max across all series, ignoring gaps.
	minVal, maxVal := math.MaxFloat64, -math.MaxFloat64
	maxLen := 0
	for _, s := range series {
		if len(s.Values) > maxLen {
			maxLen = len(s.Values)
		}
		for _, v := range s.Values {
			if math.IsNaN(v) {
				continue
			}
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}
	}
	if maxLen == 0 || minVal > maxVal {
		return emptySVG(cfg, "No data points")
	}

	minVal, maxVal, vRange := padRange(minVal, maxVal, true)

	// A single-year selection plots one point per series.
	denom := maxLen - 1
	if denom < 1 {
		denom = 1
	}
	xAt := func(i int) float64 {
		return float64(px) + float64(i)*float64(pw)/float64(denom)
	}
	yAt := func(v float64) float64 {
		return float64(py+ph) - ((v-minVal)/vRange)*float64(ph)
	}

	var sb strings.Builder
	writeChartFrame(&sb, cfg)
	writeValueGrid(&sb, cfg, px, py, pw, ph, minVal, vRange)

	for si, s := range series {
		color := s.Color
		if color == "" {
			color = SeriesColor(si)
		}

		var pathParts []string
		for i, v := range s.Values {
			if math.IsNaN(v) {
				continue
			}
			cmd := "L"
			if len(pathParts) == 0 {
				cmd = "M"
			}
			pathParts = append(pathParts, fmt.Sprintf("%s%.1f,%.1f", cmd, xAt(i), yAt(v)))
		}
		if len(pathParts) > 1 {
			sb.WriteString(fmt.Sprintf(`<path d="%s" fill="none" stroke="%s" stroke-width="2"/>`,
				strings.Join(pathParts, " "), color))
		}

		// Point markers with hover tooltips
		for i, v := range s.Values {
			if math.IsNaN(v) {
				continue
			}
			label := ""
			if i < len(labels) {
				label = labels[i]
			}
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3" fill="%s"><title>%s %s: %s</title></circle>`,
				xAt(i), yAt(v), color, escapeXML(label), escapeXML(s.Name), hoverValue(v, cfg.Unit)))
		}

		ly := py + 10 + si*16
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="2"/>`,
			px+10, ly, px+30, ly, color))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="10" fill="%s">%s</text>`,
			px+35, ly+4, cfg.TextColor, escapeXML(s.Name)))
	}

	// X-axis labels, thinned to at most ~6
	if len(labels) > 0 {
		interval := maxLen / 6
		if interval < 1 {
			interval = 1
		}
		for i := 0; i < len(labels) && i < maxLen; i += interval {
			sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
				xAt(i), py+ph+18, cfg.FontSize-1, cfg.TextColor, escapeXML(labels[i])))
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Grouped bar chart
// ════════════════════════════════════════════════════════════════════

// BarGroup is one cluster of bars on the X axis. Values align with the
// chart's series names; NaN marks a missing observation, which leaves
// the slot empty rather than plotting zero.
type BarGroup struct {
	Label  string
	Values []float64
}

// GroupedBarChart renders one vertical bar per series inside every
// group. Bars grow from the zero line, so series with negative values
// (fiscal balance, current account) hang below it.
func GroupedBarChart(seriesNames []string, groups []BarGroup, cfg ChartConfig) string {
	if len(seriesNames) == 0 || len(groups) == 0 {
		return emptySVG(cfg, "No data")
	}

	cfg = cfg.normalized()
	px, py, pw, ph := cfg.plotArea()

	// Zero-anchored value range.
	minVal, maxVal := 0.0, 0.0
	found := false
	for _, g := range groups {
		for _, v := range g.Values {
			if math.IsNaN(v) {
				continue
			}
			found = true
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}
	}
	if !found {
		return emptySVG(cfg, "No data points")
	}

	hasNegative := minVal < 0
	minVal, maxVal, vRange := padRange(minVal, maxVal, hasNegative)

	yAt := func(v float64) float64 {
		return float64(py+ph) - ((v-minVal)/vRange)*float64(ph)
	}

	n := len(groups)
	slotW := float64(pw) / float64(n)
	barW := slotW * 0.72 / float64(len(seriesNames))
	if barW > 40 {
		barW = 40
	}
	groupPad := (slotW - barW*float64(len(seriesNames))) / 2

	var sb strings.Builder
	writeChartFrame(&sb, cfg)
	writeValueGrid(&sb, cfg, px, py, pw, ph, minVal, vRange)

	// Zero line for mixed positive/negative
	zeroY := yAt(0)
	if hasNegative {
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="#999" stroke-width="1"/>`,
			px, zeroY, px+pw, zeroY))
	}

	for gi, g := range groups {
		for si, name := range seriesNames {
			if si >= len(g.Values) {
				continue
			}
			v := g.Values[si]
			if math.IsNaN(v) {
				continue
			}
			bx := float64(px) + float64(gi)*slotW + groupPad + float64(si)*barW
			by := yAt(v)
			top, bh := zeroY, by-zeroY
			if bh < 0 {
				top = by
				bh = -bh
			}
			if bh < 1 {
				bh = 1
			}
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" rx="1"><title>%s %s: %s</title></rect>`,
				bx, top, barW-1, bh, SeriesColor(si),
				escapeXML(g.Label), escapeXML(name), hoverValue(v, cfg.Unit)))
		}
	}

	for si, name := range seriesNames {
		ly := py + 10 + si*16
		sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="10" height="10" fill="%s"/>`,
			px+10, ly-8, SeriesColor(si)))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="10" fill="%s">%s</text>`,
			px+25, ly, cfg.TextColor, escapeXML(name)))
	}

	// Group labels, thinned like the line chart's year axis
	interval := n / 6
	if interval < 1 {
		interval = 1
	}
	for gi := 0; gi < n; gi += interval {
		lx := float64(px) + float64(gi)*slotW + slotW/2
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
			lx, py+ph+18, cfg.FontSize-1, cfg.TextColor, escapeXML(groups[gi].Label)))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Formatting and escaping
// ════════════════════════════════════════════════════════════════════

// axisValue formats a tick label: percentage units as percentages,
// everything else compact (1.93B, 2.5K).
func axisValue(v float64, unit string) string {
	if strings.Contains(unit, "%") {
		return utils.FormatPct(v)
	}
	return utils.FormatCompact(v)
}

// hoverValue formats a tooltip value with more precision than a tick.
func hoverValue(v float64, unit string) string {
	if strings.Contains(unit, "%") {
		return utils.FormatPct(v)
	}
	if unit != "" {
		return utils.FormatNumber(v) + " " + unit
	}
	return utils.FormatNumber(v)
}

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
