package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/heatmap/internal/contracts"
)

// HTMLSource reads the first <table> of an HTML page whose header row holds the date column
type HTMLSource struct {
	Path       string
	DateColumn string
}

// NewHTMLSource creates an HTML file source
func NewHTMLSource(path, dateColumn string) *HTMLSource {
	if dateColumn == "" {
		dateColumn = DefaultDateColumn
	}
	return &HTMLSource{Path: path, DateColumn: dateColumn}
}

// Name implements Source
func (s *HTMLSource) Name() string {
	return "html:" + s.Path
}

// Load implements Source
func (s *HTMLSource) Load(ctx context.Context) (*contracts.Dataset, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open html: %w", err)
	}
	defer f.Close()

	return ParseHTML(f, s.Name(), s.DateColumn)
}

// ParseHTML extracts the wide price table from an HTML document
func ParseHTML(r io.Reader, source, dateColumn string) (*contracts.Dataset, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var found *table
	doc.Find("table").EachWithBreak(func(_ int, tbl *goquery.Selection) bool {
		trs := tbl.Find("tr")
		if trs.Length() == 0 {
			return true
		}

		header := rowCells(trs.First())
		if !hasColumn(header, dateColumn) {
			return true
		}

		var rows [][]string
		trs.Slice(1, goquery.ToEnd).Each(func(_ int, tr *goquery.Selection) {
			rows = append(rows, rowCells(tr))
		})

		found = &table{
			source:     source,
			dateColumn: dateColumn,
			header:     header,
			rows:       rows,
			firstRow:   2,
		}
		return false
	})

	if found == nil {
		return nil, fmt.Errorf("%s: no table with a %q column", source, dateColumn)
	}
	return found.dataset()
}

func rowCells(tr *goquery.Selection) []string {
	var cells []string
	tr.Find("th, td").Each(func(_ int, c *goquery.Selection) {
		cells = append(cells, strings.TrimSpace(c.Text()))
	})
	return cells
}

func hasColumn(header []string, name string) bool {
	for _, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return true
		}
	}
	return false
}
