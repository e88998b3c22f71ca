package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/macrovista/macrovista/internal/catalog"
	"github.com/macrovista/macrovista/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// XLSX Workbook Export
// ════════════════════════════════════════════════════════════════════

// Workbook assembles the dashboard into an xlsx workbook: an overview
// sheet plus one sheet per non-empty panel holding its data grid.
// Callers own the returned file and should Close it.
func Workbook(d *models.Dashboard) (*excelize.File, error) {
	if d == nil {
		return nil, fmt.Errorf("dashboard is nil")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", "Overview"); err != nil {
		return nil, fmt.Errorf("overview sheet: %w", err)
	}
	if err := writeOverviewSheet(f, d); err != nil {
		return nil, fmt.Errorf("overview sheet: %w", err)
	}

	for _, p := range d.Panels {
		if p.Empty() {
			continue
		}
		name := sheetName(p.Title)
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		var err error
		if p.TradeBalance {
			err = writeTradeSheet(f, name, p)
		} else {
			err = writePivotSheet(f, name, p)
		}
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
	}

	return f, nil
}

// WriteXLSX streams the workbook to w, for HTTP download responses.
func WriteXLSX(w io.Writer, d *models.Dashboard) error {
	f, err := Workbook(d)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes the workbook to a file, for the CLI export command.
func SaveXLSX(path string, d *models.Dashboard) error {
	f, err := Workbook(d)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func writeOverviewSheet(f *excelize.File, d *models.Dashboard) error {
	const sheet = "Overview"

	names := make([]string, 0, len(d.Selection.Countries))
	for _, code := range d.Selection.Countries {
		if c, ok := catalog.CountryByCode(code); ok {
			names = append(names, c.Name)
		}
	}

	meta := [][]any{
		{"MacroVista dashboard export"},
		{"Source", d.Source},
		{"Generated", d.GeneratedAt.Format("02 Jan 2006, 15:04 MST")},
		{"Countries", strings.Join(names, ", ")},
		{"Years", fmt.Sprintf("%d-%d", d.Selection.StartYear, d.Selection.EndYear)},
	}
	for r, row := range meta {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	// Panel index
	row := len(meta) + 2
	headers := []string{"Panel", "Unit", "Sheet", "Status"}
	for c, h := range headers {
		cell, err := excelize.CoordinatesToCellName(c+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for _, p := range d.Panels {
		row++
		status, sheetRef := "ok", sheetName(p.Title)
		if p.Empty() {
			status, sheetRef = "no data", ""
		}
		values := []any{p.Title, p.Unit, sheetRef, status}
		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	// Notices at the bottom, dashboard-level first
	notices := append([]models.Notice{}, d.Notices...)
	for _, p := range d.Panels {
		notices = append(notices, p.Notices...)
	}
	if len(notices) > 0 {
		row += 2
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, "Notices"); err != nil {
			return err
		}
		for _, n := range notices {
			row++
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, fmt.Sprintf("[%s] %s", n.Kind, n.Message)); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 36); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "B", "D", 22)
}

// writePivotSheet writes the year-by-country grid: years down column A,
// one column per country, empty cells for missing observations.
func writePivotSheet(f *excelize.File, sheet string, p models.Panel) error {
	if p.Pivot == nil {
		return nil
	}

	header := fmt.Sprintf("%s (%s)", p.Title, p.Unit)
	if err := f.SetCellValue(sheet, "A1", header); err != nil {
		return err
	}

	if err := f.SetCellValue(sheet, "A3", "Year"); err != nil {
		return err
	}
	for j, country := range p.Pivot.Countries {
		cell, err := excelize.CoordinatesToCellName(j+2, 3)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, country); err != nil {
			return err
		}
	}

	for i, year := range p.Pivot.Years {
		row := i + 4
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, year); err != nil {
			return err
		}
		for j := range p.Pivot.Countries {
			v := p.Pivot.Cells[i][j]
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+2, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, *v); err != nil {
				return err
			}
		}
	}

	endCol, err := excelize.ColumnNumberToName(len(p.Pivot.Countries) + 1)
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", endCol, 16)
}

// writeTradeSheet writes the single-year exports/imports comparison.
func writeTradeSheet(f *excelize.File, sheet string, p models.Panel) error {
	header := fmt.Sprintf("%s, %d (%s)", p.Title, p.Year, p.Unit)
	if err := f.SetCellValue(sheet, "A1", header); err != nil {
		return err
	}

	headers := []string{"Country", "Exports", "Imports", "Balance"}
	for c, h := range headers {
		cell, err := excelize.CoordinatesToCellName(c+1, 3)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for i, r := range p.TradeRows {
		row := i + 4
		values := []any{r.Country, r.Exports, r.Imports, r.Exports - r.Imports}
		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	return f.SetColWidth(sheet, "A", "D", 16)
}

// sheetName sanitizes a panel title into a legal xlsx sheet name:
// at most 31 characters, none of : \ / ? * [ ].
func sheetName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '-'
		}
		return r
	}, title)
	if len(name) > 31 {
		name = strings.TrimSpace(name[:31])
	}
	return name
}
