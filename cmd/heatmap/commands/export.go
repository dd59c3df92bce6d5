package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/heatmap/internal/export"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "히트맵 파일 저장 (xlsx/csv)",
	Long: `지수 하나의 히트맵을 xlsx 또는 csv 파일로 저장합니다.

--format 을 생략하면 --out 의 확장자로 결정하고, 둘 다 없으면 xlsx 입니다.

Example:
  go run ./cmd/heatmap export --index "NIFTY 50"
  go run ./cmd/heatmap export --index "NIFTY 50" --out reports/nifty.csv
  go run ./cmd/heatmap export --index "NIFTY BANK" --mode forward --horizon 2Y --format xlsx`,
	RunE: runExport,
}

var (
	exportIndex   string
	exportFormat  string
	exportOut     string
	exportMode    string
	exportHorizon string
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportIndex, "index", "", "index name")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "xlsx | csv")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (default: <index>_heatmap.<format>)")
	exportCmd.Flags().StringVar(&exportMode, "mode", "", "mom | forward")
	exportCmd.Flags().StringVar(&exportHorizon, "horizon", "", "forward horizon")
	_ = exportCmd.MarkFlagRequired("index")
}

// exportFormatFor resolves the file format from the flag or the output extension
func exportFormatFor(format, out string) (string, error) {
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), ".")
		if format == "" {
			format = "xlsx"
		}
	}

	format = strings.ToLower(format)
	switch format {
	case "xlsx", "csv":
		return format, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want xlsx or csv)", format)
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := exportFormatFor(exportFormat, exportOut)
	if err != nil {
		return err
	}

	ctx := context.Background()

	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	opts, err := a.service.Options(exportMode, exportHorizon)
	if err != nil {
		return err
	}
	result, err := a.service.Heatmap(ctx, exportIndex, opts)
	if err != nil {
		return err
	}

	path := exportOut
	if path == "" {
		path = export.FileName(result.Index, format)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	switch format {
	case "csv":
		err = export.WriteCSV(f, result)
	default:
		err = export.WriteXLSX(f, result, export.Meta{
			Options:     opts,
			Source:      a.source.Name(),
			GeneratedAt: time.Now(),
		})
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}

	a.log.WithFields(map[string]interface{}{
		"index":  result.Index,
		"format": format,
		"path":   path,
	}).Info("Heatmap exported")

	printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Saved %s", path))
	return nil
}
