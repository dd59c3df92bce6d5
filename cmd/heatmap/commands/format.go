package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/wonny/heatmap/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	doubleLine = "═══════════════════════════════════════════════════════════"
	singleLine = "───────────────────────────────────────────────────────────"
)

var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// printHeader prints a titled block with key/value lines
func printHeader(w io.Writer, title string, lines ...string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, doubleLine)
	fmt.Fprintf(w, "  %s\n", title)
	if len(lines) > 0 {
		fmt.Fprintln(w, singleLine)
		for _, l := range lines {
			fmt.Fprintf(w, "  %s\n", l)
		}
	}
	fmt.Fprintln(w, doubleLine)
}

func printSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "\n✅ %s\n", message)
}

func printWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "\n⚠️  %s\n", message)
}

// formatPct renders a fraction as a signed percentage; nil is "-"
func formatPct(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%+.2f%%", *v*100)
}

// formatPrice renders a monthly average; nil is "-"
func formatPrice(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatRank(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

// printValueGrid prints a year × month table; missing cells are blank, null cells "-"
func printValueGrid(w io.Writer, title string, values contracts.YearMonthValues, format func(*float64) string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(w, "\n%s\n", title)
	fmt.Fprintf(tw, "Year\t%s\t\n", strings.Join(monthNames, "\t"))
	for _, y := range values.Years() {
		cells := make([]string, 12)
		for m := 1; m <= 12; m++ {
			if v, ok := values.Get(y, m); ok {
				cells[m-1] = format(v)
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t\n", y, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func printRankGrid(w io.Writer, title string, ranks contracts.YearMonthRanks, years []int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(w, "\n%s\n", title)
	fmt.Fprintf(tw, "Year\t%s\t\n", strings.Join(monthNames, "\t"))
	for _, y := range years {
		row, ok := ranks[y]
		if !ok {
			continue
		}
		cells := make([]string, 12)
		for m := 1; m <= 12; m++ {
			if r, ok := row[m]; ok {
				cells[m-1] = formatRank(r)
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t\n", y, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// printResult prints the grids and scalars of one result
func printResult(w io.Writer, result *contracts.HeatmapResult) error {
	if err := printValueGrid(w, "Returns", result.Heatmap, formatPct); err != nil {
		return err
	}
	if err := printValueGrid(w, "Monthly average price", result.MonthlyPrice, formatPrice); err != nil {
		return err
	}
	if err := printRankGrid(w, "Monthly rank (1 = best)", result.MonthlyRankPercentile, result.MonthlyPrice.Years()); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, singleLine)
	fmt.Fprintf(w, "  Avg monthly return (3Y) : %s\n", formatPct(result.AvgMonthlyProfits3Y))
	fmt.Fprintf(w, "  Rank percentile (4Y)    : %s\n", formatPctPoint(result.RankPercentile4Y))
	fmt.Fprintf(w, "  Inverse rank percentile : %s\n", formatPctPoint(result.InverseRankPercentile))
	fmt.Fprintln(w, singleLine)
	return nil
}

// formatPctPoint renders a 0-100 percentile
func formatPctPoint(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}
