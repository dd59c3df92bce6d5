package export

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"github.com/wonny/heatmap/internal/contracts"
)

// CSVHeader is the long-format header
var CSVHeader = []string{"year", "month", "price", "return", "rank"}

// WriteCSV writes one row per (year, month) present in the result; null cells are empty
func WriteCSV(w io.Writer, result *contracts.HeatmapResult) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(CSVHeader); err != nil {
		return err
	}

	for _, y := range unionYears(result) {
		for m := 1; m <= 12; m++ {
			price, hasPrice := result.MonthlyPrice.Get(y, m)
			ret, hasReturn := result.Heatmap.Get(y, m)
			rank, hasRank := result.MonthlyRankPercentile.Get(y, m)
			if !hasPrice && !hasReturn && !hasRank {
				continue
			}

			row := []string{
				strconv.Itoa(y),
				strconv.Itoa(m),
				formatFloat(price),
				formatFloat(ret),
				formatInt(rank),
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// unionYears lists every year present in any grid, ascending
func unionYears(result *contracts.HeatmapResult) []int {
	seen := map[int]bool{}
	for y := range result.MonthlyPrice {
		seen[y] = true
	}
	for y := range result.Heatmap {
		seen[y] = true
	}
	for y := range result.MonthlyRankPercentile {
		seen[y] = true
	}

	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
