package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/heatmap/internal/contracts"
)

// indicesCmd represents the indices command
var indicesCmd = &cobra.Command{
	Use:   "indices",
	Short: "지수 목록",
	Long: `데이터 소스에서 지수 목록을 읽어 출력합니다.

Example:
  go run ./cmd/heatmap indices
  go run ./cmd/heatmap indices --source xlsx --data data/indices.xlsx`,
	RunE: runIndices,
}

func init() {
	rootCmd.AddCommand(indicesCmd)
}

func runIndices(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	ds, err := a.service.Dataset(ctx)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	out := cmd.OutOrStdout()
	printHeader(out, "Indices", fmt.Sprintf("Source    : %s", a.source.Name()))
	for _, name := range ds.Names {
		series, err := ds.Get(name)
		if err != nil {
			fmt.Fprintf(out, "  %-30s invalid: %v\n", name, err)
			continue
		}
		fmt.Fprintf(out, "  %-30s %6d obs  %s\n", name, len(series.Observations), dateRange(series))
	}
	printSuccess(out, fmt.Sprintf("%d indices", ds.Count()))
	return nil
}

// dateRange returns "first ~ last" over the observations (sources need not be sorted)
func dateRange(series contracts.DailySeries) string {
	if len(series.Observations) == 0 {
		return "-"
	}
	first, last := series.Observations[0].Date, series.Observations[0].Date
	for _, o := range series.Observations[1:] {
		if o.Date.Before(first) {
			first = o.Date
		}
		if o.Date.After(last) {
			last = o.Date
		}
	}
	return first.Format("2006-01-02") + " ~ " + last.Format("2006-01-02")
}
