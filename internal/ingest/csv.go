package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/wonny/heatmap/internal/contracts"
)

// CSVSource reads a wide CSV file: DATE,<index>,<index>...
type CSVSource struct {
	Path       string
	DateColumn string
}

// NewCSVSource creates a CSV file source
func NewCSVSource(path, dateColumn string) *CSVSource {
	if dateColumn == "" {
		dateColumn = DefaultDateColumn
	}
	return &CSVSource{Path: path, DateColumn: dateColumn}
}

// Name implements Source
func (s *CSVSource) Name() string {
	return "csv:" + s.Path
}

// Load implements Source
func (s *CSVSource) Load(ctx context.Context) (*contracts.Dataset, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	return ParseCSV(f, s.Name(), s.DateColumn)
}

// ParseCSV parses a wide CSV stream into a dataset
func ParseCSV(r io.Reader, source, dateColumn string) (*contracts.Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // 짧은 행 허용 (누락 셀)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading csv record: %w", err)
		}
		rows = append(rows, record)
	}

	t := &table{
		source:     source,
		dateColumn: dateColumn,
		header:     header,
		rows:       rows,
		firstRow:   2,
	}
	return t.dataset()
}
