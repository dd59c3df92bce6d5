package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/heatmap/internal/analytics"
	"github.com/wonny/heatmap/internal/contracts"
)

// dayFirstLayouts are tried in order; ISO is last so 01-02-2024 stays 1 Feb
var dayFirstLayouts = []string{
	"02-01-2006",
	"2-1-2006",
	"02/01/2006",
	"2/1/2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"02-Jan-06",
	"2006-01-02",
	"2006-01-02 15:04:05",
}

// ParseDate parses a day-first date
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// parseValue returns ok=false for missing cells ("", "-", "NaN", "null")
func parseValue(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "-", "nan", "null", "n/a":
		return 0, false, nil
	}

	// 천 단위 콤마 제거 (22,145.30)
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false, fmt.Errorf("unparseable value %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, nil
	}
	return v, true, nil
}

// table is a wide layout: one date column plus one column per index
type table struct {
	source     string
	dateColumn string
	header     []string
	rows       [][]string
	firstRow   int // 1-based line number of rows[0] for error messages

	parseDate func(string) (time.Time, error) // nil = ParseDate
}

// dataset converts the table into normalised series.
// Blank rows are skipped; index columns keep header order.
func (t *table) dataset() (*contracts.Dataset, error) {
	parseDate := t.parseDate
	if parseDate == nil {
		parseDate = ParseDate
	}

	dateIdx := -1
	type column struct {
		idx  int
		name string
	}
	var columns []column

	for i, h := range t.header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		switch {
		case strings.EqualFold(name, t.dateColumn):
			dateIdx = i
		case name == "":
			// 이름 없는 컬럼 무시
		default:
			columns = append(columns, column{idx: i, name: name})
		}
	}

	if dateIdx < 0 {
		return nil, fmt.Errorf("%s: missing date column %q", t.source, t.dateColumn)
	}

	series := make(map[string]*contracts.DailySeries, len(columns))
	names := make([]string, 0, len(columns))
	for _, c := range columns {
		if _, dup := series[c.name]; dup {
			return nil, &contracts.MalformedSeriesError{Index: c.name, Reason: "duplicate column"}
		}
		series[c.name] = &contracts.DailySeries{Index: c.name}
		names = append(names, c.name)
	}

	for r, row := range t.rows {
		line := t.firstRow + r
		if blank(row) {
			continue
		}

		date, err := parseDate(cell(row, dateIdx))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", t.source, line, err)
		}

		for _, c := range columns {
			v, ok, err := parseValue(cell(row, c.idx))
			if err != nil {
				return nil, fmt.Errorf("%s line %d, column %q: %w", t.source, line, c.name, err)
			}
			if !ok {
				continue
			}
			s := series[c.name]
			s.Observations = append(s.Observations, contracts.DailyObservation{Date: date, Value: v})
		}
	}

	ds := &contracts.Dataset{
		Series:   make(map[string]contracts.DailySeries, len(names)),
		Source:   t.source,
		LoadedAt: time.Now(),
	}
	for _, name := range names {
		// 잘못된 인덱스는 따로 기록, 나머지는 그대로 제공
		prepared, err := analytics.PrepareSeries(*series[name])
		if err != nil {
			err = fmt.Errorf("%s: %w", t.source, err)
		}
		ds.Add(name, prepared, err)
	}

	return ds, nil
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
