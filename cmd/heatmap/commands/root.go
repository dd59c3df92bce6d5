package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	engineConfigPath string
	dataSource       string
	dataPath         string
	verbose          bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Index heatmap analytics",
	Long: `Index Heatmap Analytics CLI

일별 지수 가격 → 월별 평균 → 수익률 → 순위 퍼센타일 → 히트맵.

Usage:
  go run ./cmd/heatmap [command]

Examples:
  go run ./cmd/heatmap api
  go run ./cmd/heatmap indices
  go run ./cmd/heatmap compute --index "NIFTY 50" --mode forward --horizon 1Y
  go run ./cmd/heatmap export --index "NIFTY 50" --format xlsx
  go run ./cmd/heatmap import --source csv --data data/indices.csv`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&engineConfigPath, "config", "", "engine YAML config (overrides ANALYTICS_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&dataSource, "source", "", "data source: csv|xlsx|html|url|postgres (overrides DATA_SOURCE)")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "file path or URL of the data source (overrides DATA_PATH / DATA_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
