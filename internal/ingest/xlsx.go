package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/heatmap/internal/contracts"
)

// XLSXSource reads the same wide layout from an Excel sheet
type XLSXSource struct {
	Path       string
	Sheet      string // empty = first sheet
	DateColumn string
}

// NewXLSXSource creates an Excel workbook source
func NewXLSXSource(path, sheet, dateColumn string) *XLSXSource {
	if dateColumn == "" {
		dateColumn = DefaultDateColumn
	}
	return &XLSXSource{Path: path, Sheet: sheet, DateColumn: dateColumn}
}

// Name implements Source
func (s *XLSXSource) Name() string {
	return "xlsx:" + s.Path
}

// Load implements Source
func (s *XLSXSource) Load(ctx context.Context) (*contracts.Dataset, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	sheet := s.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s: workbook has no sheets", s.Name())
		}
		sheet = sheets[0]
	}

	// RawCellValue: 날짜 셀은 서식 대신 시리얼 값으로 읽음 (mm-dd-yy 서식 회피)
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: sheet %q is empty", s.Name(), sheet)
	}

	t := &table{
		source:     s.Name(),
		dateColumn: s.DateColumn,
		header:     rows[0],
		rows:       rows[1:],
		firstRow:   2,
		parseDate:  parseExcelDate,
	}
	return t.dataset()
}

// parseExcelDate accepts a date serial number or a day-first text date
func parseExcelDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date serial %q: %w", s, err)
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return ParseDate(s)
}
