package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/heatmap/internal/analytics"
	"github.com/wonny/heatmap/internal/contracts"
)

// computeCmd represents the compute command
var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "히트맵 계산",
	Long: `지수 하나(또는 전체)의 히트맵을 계산해 출력합니다.

기본 출력은 연 × 월 표와 요약 지표이며, --json 은 API 응답과 같은 JSON 을 출력합니다.

Example:
  go run ./cmd/heatmap compute --index "NIFTY 50"
  go run ./cmd/heatmap compute --index "NIFTY 50" --mode forward --horizon 3Y
  go run ./cmd/heatmap compute --all --json`,
	RunE: runCompute,
}

var (
	computeIndex   string
	computeAll     bool
	computeMode    string
	computeHorizon string
	computeJSON    bool
)

func init() {
	rootCmd.AddCommand(computeCmd)

	computeCmd.Flags().StringVar(&computeIndex, "index", "", "index name")
	computeCmd.Flags().BoolVar(&computeAll, "all", false, "compute every index")
	computeCmd.Flags().StringVar(&computeMode, "mode", "", "mom | forward (default: engine config)")
	computeCmd.Flags().StringVar(&computeHorizon, "horizon", "", "forward horizon: 1M 3M 6M 1Y 2Y 3Y 4Y")
	computeCmd.Flags().BoolVar(&computeJSON, "json", false, "print JSON")
	computeCmd.MarkFlagsMutuallyExclusive("index", "all")
}

func runCompute(cmd *cobra.Command, args []string) error {
	if computeIndex == "" && !computeAll {
		return fmt.Errorf("either --index or --all is required")
	}

	ctx := context.Background()

	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	opts, err := a.service.Options(computeMode, computeHorizon)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	start := time.Now()

	if computeAll {
		results, err := a.service.ComputeAll(ctx, opts)
		if err != nil {
			return err
		}
		if computeJSON {
			return writeJSON(out, results)
		}
		printHeader(out, "Heatmap summary", optionLines(opts, a.source.Name())...)
		printSummaryTable(out, results)
		printSuccess(out, fmt.Sprintf("%d indices computed in %.2fs", len(results), time.Since(start).Seconds()))
		return nil
	}

	result, err := a.service.Heatmap(ctx, computeIndex, opts)
	if err != nil {
		return err
	}
	if computeJSON {
		return writeJSON(out, result)
	}

	printHeader(out, result.Index, optionLines(opts, a.source.Name())...)
	if err := printResult(out, result); err != nil {
		return err
	}
	if result.RankPercentile4Y == nil {
		printWarning(out, fmt.Sprintf("history shorter than %d months: ranks and percentiles are empty", opts.MinHistoryMonths))
	}
	printSuccess(out, fmt.Sprintf("Computed in %.2fs", time.Since(start).Seconds()))
	return nil
}

func optionLines(opts analytics.Options, source string) []string {
	mode := string(opts.Mode)
	if opts.Mode == analytics.ModeForward {
		mode += " " + string(opts.Horizon)
	}
	return []string{
		fmt.Sprintf("Source    : %s", source),
		fmt.Sprintf("Mode      : %s", mode),
		fmt.Sprintf("Windows   : avg %dY / rank %dY / inverse %dY", opts.AverageWindowYears, opts.PercentileWindowYears, opts.InverseWindowYears),
	}
}

func printSummaryTable(w io.Writer, results map[string]*contracts.HeatmapResult) {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "  %-30s %12s %10s %10s\n", "Index", "Avg (3Y)", "Rank (4Y)", "Inverse")
	for _, name := range names {
		r := results[name]
		fmt.Fprintf(w, "  %-30s %12s %10s %10s\n", name,
			formatPct(r.AvgMonthlyProfits3Y), formatPctPoint(r.RankPercentile4Y), formatPctPoint(r.InverseRankPercentile))
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
