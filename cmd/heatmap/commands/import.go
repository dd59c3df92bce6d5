package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/heatmap/internal/contracts"
	"github.com/wonny/heatmap/internal/prices"
	"github.com/wonny/heatmap/pkg/config"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "파일 데이터를 PostgreSQL 로 적재",
	Long: `파일 소스(csv, xlsx, html, url)의 일별 가격을 index_prices 테이블에 upsert 합니다.
적재 후에는 DATA_SOURCE=postgres 로 서버를 실행할 수 있습니다.

Example:
  go run ./cmd/heatmap import --source csv --data data/indices.csv
  go run ./cmd/heatmap import --source xlsx --data data/indices.xlsx --index "NIFTY 50" --replace`,
	RunE: runImport,
}

var (
	importIndices []string
	importReplace bool
)

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringSliceVar(&importIndices, "index", nil, "only these indices (repeatable)")
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "delete existing rows of each imported index first")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx, appOptions{needDB: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.Data.Source == config.SourcePostgres {
		return fmt.Errorf("import needs a file source (--source csv|xlsx|html|url), got postgres")
	}

	start := time.Now()
	ds, err := a.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load %s: %w", a.source.Name(), err)
	}
	ds, err = selectIndices(ds, importIndices)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printHeader(out, "Import",
		fmt.Sprintf("Source    : %s", a.source.Name()),
		fmt.Sprintf("Indices   : %d", ds.Count()),
		fmt.Sprintf("Replace   : %t", importReplace),
	)

	repo := prices.NewRepository(a.db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}

	total := 0
	for i, name := range ds.Names {
		series, err := ds.Get(name)
		if err != nil {
			a.log.WithError(err).WithField("index", name).Warn("Skipping invalid index")
			fmt.Fprintf(out, "[Import] %s: skipped [%d/%d]\n", name, i+1, ds.Count())
			continue
		}
		if importReplace {
			deleted, err := repo.DeleteIndex(ctx, name)
			if err != nil {
				return fmt.Errorf("delete %s: %w", name, err)
			}
			a.log.WithFields(map[string]interface{}{"index": name, "deleted": deleted}).Debug("Existing rows deleted")
		}

		n, err := repo.SaveSeries(ctx, series)
		if err != nil {
			return fmt.Errorf("save %s: %w", name, err)
		}
		total += n
		fmt.Fprintf(out, "[Import] %s: %d rows [%d/%d]\n", name, n, i+1, ds.Count())
	}

	a.log.WithFields(map[string]interface{}{
		"source":   a.source.Name(),
		"indices":  ds.Count(),
		"rows":     total,
		"duration": time.Since(start),
	}).Info("Import completed")

	printSuccess(out, fmt.Sprintf("%d rows imported in %.2fs", total, time.Since(start).Seconds()))

	if stored, err := repo.ListIndices(ctx); err == nil {
		fmt.Fprintf(out, "Stored indices: %d\n", len(stored))
	}
	return nil
}

// selectIndices keeps only the named indices; an empty filter keeps all
func selectIndices(ds *contracts.Dataset, names []string) (*contracts.Dataset, error) {
	if len(names) == 0 {
		return ds, nil
	}

	out := &contracts.Dataset{Source: ds.Source, LoadedAt: ds.LoadedAt}
	for _, name := range names {
		series, err := ds.Get(name)
		if err != nil {
			return nil, err
		}
		out.Add(name, series, nil)
	}
	return out, nil
}
