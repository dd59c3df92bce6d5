package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/heatmap/internal/analytics"
	"github.com/wonny/heatmap/internal/contracts"
)

// Sheet names of the workbook
const (
	SheetHeatmap = "Heatmap"
	SheetPrice   = "Monthly Price"
	SheetRank    = "Rank"
	SheetSummary = "Summary"
)

var monthHeader = []interface{}{"Year", "Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Meta describes how a result was computed
type Meta struct {
	Options     analytics.Options
	Source      string
	GeneratedAt time.Time
}

// WriteXLSX writes one result as a workbook: a year × month grid per series plus a summary
func WriteXLSX(w io.Writer, result *contracts.HeatmapResult, meta Meta) error {
	f := excelize.NewFile()
	defer f.Close()

	// 기본 시트 이름 변경
	if err := f.SetSheetName(f.GetSheetName(0), SheetHeatmap); err != nil {
		return err
	}
	for _, name := range []string{SheetPrice, SheetRank, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	pct, err := f.NewStyle(&excelize.Style{NumFmt: 10}) // 0.00%
	if err != nil {
		return err
	}
	num, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return err
	}

	years := unionYears(result)

	if err := writeGrid(f, SheetHeatmap, years, pct, func(y, m int) interface{} {
		return floatCell(result.Heatmap, y, m)
	}); err != nil {
		return err
	}
	if err := writeGrid(f, SheetPrice, years, num, func(y, m int) interface{} {
		return floatCell(result.MonthlyPrice, y, m)
	}); err != nil {
		return err
	}
	if err := writeGrid(f, SheetRank, years, 0, func(y, m int) interface{} {
		if r, ok := result.MonthlyRankPercentile.Get(y, m); ok && r != nil {
			return *r
		}
		return nil
	}); err != nil {
		return err
	}
	if err := writeSummary(f, result, meta); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeGrid(f *excelize.File, sheet string, years []int, style int, value func(y, m int) interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &monthHeader); err != nil {
		return err
	}

	for i, y := range years {
		row := make([]interface{}, 13)
		row[0] = y
		for m := 1; m <= 12; m++ {
			row[m] = value(y, m)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	if style != 0 && len(years) > 0 {
		end, _ := excelize.CoordinatesToCellName(13, len(years)+1)
		if err := f.SetCellStyle(sheet, "B2", end, style); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "B", "M", 11)
}

func writeSummary(f *excelize.File, result *contracts.HeatmapResult, meta Meta) error {
	rows := [][]interface{}{
		{"Index", result.Index},
		{"Mode", string(meta.Options.Mode)},
		{"Horizon", horizonLabel(meta.Options)},
		{"Average window (years)", meta.Options.AverageWindowYears},
		{"Percentile window (years)", meta.Options.PercentileWindowYears},
		{"Inverse window (years)", meta.Options.InverseWindowYears},
		{"Avg monthly profits", scalar(result.AvgMonthlyProfits3Y)},
		{"Rank percentile", scalar(result.RankPercentile4Y)},
		{"Inverse rank percentile", scalar(result.InverseRankPercentile)},
		{"Source", meta.Source},
		{"Generated at", meta.GeneratedAt.Format(time.RFC3339)},
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow(SheetSummary, cell, &r); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetSummary, "A", "A", 28)
}

func horizonLabel(opts analytics.Options) string {
	if opts.Mode == analytics.ModeForward {
		return string(opts.Horizon)
	}
	return "-"
}

// floatCell returns nil for missing or null cells so the spreadsheet stays blank
func floatCell(m contracts.YearMonthValues, y, month int) interface{} {
	if v, ok := m.Get(y, month); ok && v != nil {
		return *v
	}
	return nil
}

func scalar(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
