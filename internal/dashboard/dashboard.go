// Package dashboard builds the comparative indicator panels from the
// fetch service. One panel per catalog entry, assembled concurrently;
// a failed or empty country never fails the build, it surfaces as a
// notice on the affected panel.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/macrovista/macrovista/internal/catalog"
	"github.com/macrovista/macrovista/pkg/models"
	"github.com/macrovista/macrovista/pkg/utils"
)

// ErrYearOrder is returned when the selected start year is after the
// end year. API handlers map it to a 400.
var ErrYearOrder = errors.New("start year is after end year")

// SeriesSource fetches one normalized indicator series. *imf.Client
// satisfies it; tests substitute a fake.
type SeriesSource interface {
	Fetch(ctx context.Context, countryCode, indicatorCode string, startYear, endYear int) (models.SeriesResult, error)
}

// Builder assembles dashboards from a series source.
type Builder struct {
	source SeriesSource
}

// NewBuilder creates a dashboard builder backed by the given source.
func NewBuilder(source SeriesSource) *Builder {
	return &Builder{source: source}
}

// Build fetches every panel for the selection and assembles the full
// dashboard. Unknown country codes are dropped with a warning; an
// inverted year range returns ErrYearOrder. Panels are built
// concurrently, one goroutine each; per-country fetches inside a panel
// stay sequential so the upstream sees a polite request pattern.
func (b *Builder) Build(ctx context.Context, sel models.Selection) (models.Dashboard, error) {
	sel, countries, notices, err := normalizeSelection(sel)
	if err != nil {
		return models.Dashboard{}, err
	}

	dash := models.Dashboard{
		GeneratedAt: time.Now(),
		Selection:   sel,
		Notices:     notices,
		Source:      catalog.Source,
	}

	if len(countries) == 0 {
		dash.Notices = append(dash.Notices, models.Notice{
			Kind:    models.NoticeWarning,
			Message: "select at least one country",
		})
		return dash, nil
	}

	panels := make([]models.Panel, len(catalog.Panels))
	g, gctx := errgroup.WithContext(ctx)
	for i, def := range catalog.Panels {
		i, def := i, def
		g.Go(func() error {
			if def.TradeBalance {
				panels[i] = b.buildTradePanel(gctx, def, countries, sel.EndYear)
			} else {
				panels[i] = b.buildIndicatorPanel(gctx, def, countries, sel.StartYear, sel.EndYear)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return dash, err
	}

	dash.Panels = panels
	return dash, nil
}

// buildIndicatorPanel fetches one indicator for every selected country
// in order, tags surviving rows with the country display name, and
// derives the pivot. Failed fetches record an error notice and the
// country is skipped; an empty series is skipped silently.
func (b *Builder) buildIndicatorPanel(ctx context.Context, def catalog.PanelDef, countries []models.Country, startYear, endYear int) models.Panel {
	panel := models.Panel{Slug: def.Slug, Title: def.Title}

	ind, ok := catalog.IndicatorByKey(def.IndicatorKey)
	if !ok {
		panel.Notices = append(panel.Notices, models.Notice{
			Kind:    models.NoticeError,
			Message: fmt.Sprintf("unknown indicator %q", def.IndicatorKey),
		})
		return panel
	}
	panel.Unit = ind.Unit
	panel.Chart = ind.Chart

	for _, c := range countries {
		res, err := b.source.Fetch(ctx, c.APICode, ind.APICode, startYear, endYear)
		if err != nil {
			panel.Notices = append(panel.Notices, models.Notice{
				Kind:    models.NoticeError,
				Message: fmt.Sprintf("%s: %s unavailable: %v", c.Name, ind.Label, err),
			})
			continue
		}
		if res.Empty() {
			continue
		}
		for _, p := range res.Points {
			panel.Rows = append(panel.Rows, models.PanelRow{
				Year:    p.Year,
				Value:   p.Value,
				Country: c.Name,
			})
		}
	}

	if len(panel.Rows) == 0 {
		panel.Notices = append(panel.Notices, models.Notice{
			Kind:    models.NoticeWarning,
			Message: "no data available for the selected countries and years",
		})
		return panel
	}

	panel.Pivot = buildPivot(panel.Rows)
	return panel
}

// buildTradePanel fetches exports and imports restricted to the single
// end year and produces one TradeRow per country. Countries missing
// either side of the pair are skipped.
func (b *Builder) buildTradePanel(ctx context.Context, def catalog.PanelDef, countries []models.Country, year int) models.Panel {
	panel := models.Panel{
		Slug:         def.Slug,
		Title:        def.Title,
		Chart:        models.ChartBar,
		TradeBalance: true,
		Year:         year,
	}

	exports, _ := catalog.IndicatorByKey(catalog.TradeExportsKey)
	imports, _ := catalog.IndicatorByKey(catalog.TradeImportsKey)
	panel.Unit = exports.Unit

	for _, c := range countries {
		exp, err := b.source.Fetch(ctx, c.APICode, exports.APICode, year, year)
		if err != nil {
			panel.Notices = append(panel.Notices, models.Notice{
				Kind:    models.NoticeError,
				Message: fmt.Sprintf("%s: %s unavailable: %v", c.Name, exports.Label, err),
			})
			continue
		}
		imp, err := b.source.Fetch(ctx, c.APICode, imports.APICode, year, year)
		if err != nil {
			panel.Notices = append(panel.Notices, models.Notice{
				Kind:    models.NoticeError,
				Message: fmt.Sprintf("%s: %s unavailable: %v", c.Name, imports.Label, err),
			})
			continue
		}

		ev, okE := exp.ValueFor(year)
		iv, okI := imp.ValueFor(year)
		if !okE || !okI {
			continue
		}
		panel.TradeRows = append(panel.TradeRows, models.TradeRow{
			Country: c.Name,
			Exports: ev,
			Imports: iv,
		})
	}

	if len(panel.TradeRows) == 0 {
		panel.Notices = append(panel.Notices, models.Notice{
			Kind:    models.NoticeWarning,
			Message: fmt.Sprintf("no trade data available for %d", year),
		})
	}
	return panel
}

// buildPivot turns panel rows into the years-by-countries grid: rows
// ascending by year, columns alphabetical by display name, nil cells
// where a country has no observation.
func buildPivot(rows []models.PanelRow) *models.Pivot {
	yearSet := make(map[int]bool)
	countrySet := make(map[string]bool)
	for _, r := range rows {
		yearSet[r.Year] = true
		countrySet[r.Country] = true
	}

	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)

	countries := make([]string, 0, len(countrySet))
	for c := range countrySet {
		countries = append(countries, c)
	}
	sort.Strings(countries)

	yearIdx := make(map[int]int, len(years))
	for i, y := range years {
		yearIdx[y] = i
	}
	colIdx := make(map[string]int, len(countries))
	for j, c := range countries {
		colIdx[c] = j
	}

	cells := make([][]*float64, len(years))
	for i := range cells {
		cells[i] = make([]*float64, len(countries))
	}
	for _, r := range rows {
		v := r.Value
		cells[yearIdx[r.Year]][colIdx[r.Country]] = &v
	}

	return &models.Pivot{Years: years, Countries: countries, Cells: cells}
}

// normalizeSelection validates the raw selection: unknown country codes
// are dropped with a warning notice, duplicates collapse, years clamp
// to the selectable bounds. An inverted range is an error, not a clamp.
func normalizeSelection(sel models.Selection) (models.Selection, []models.Country, []models.Notice, error) {
	if sel.StartYear > sel.EndYear {
		return sel, nil, nil, ErrYearOrder
	}

	var notices []models.Notice
	var countries []models.Country
	seen := make(map[string]bool)
	codes := make([]string, 0, len(sel.Countries))
	for _, raw := range sel.Countries {
		c, ok := catalog.CountryByCode(raw)
		if !ok {
			notices = append(notices, models.Notice{
				Kind:    models.NoticeWarning,
				Message: fmt.Sprintf("unknown country code %q ignored", raw),
			})
			continue
		}
		if seen[c.Code] {
			continue
		}
		seen[c.Code] = true
		countries = append(countries, c)
		codes = append(codes, c.Code)
	}

	maxYear := utils.CurrentYear()
	sel.Countries = codes
	sel.StartYear = utils.ClampYear(sel.StartYear, catalog.MinYear, maxYear)
	sel.EndYear = utils.ClampYear(sel.EndYear, catalog.MinYear, maxYear)

	return sel, countries, notices, nil
}
