package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/heatmap/internal/contracts"
	"github.com/wonny/heatmap/internal/ingest"
	"github.com/wonny/heatmap/internal/prices"
	"github.com/wonny/heatmap/pkg/config"
	"github.com/wonny/heatmap/pkg/database"
)

// writeCSV writes weekly closes of two indices from 2020-01 through 2023-12
func writeCSV(t *testing.T) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("DATE,NIFTY 50,NIFTY BANK\n")
	day := time.Date(2020, time.January, 6, 0, 0, 0, 0, time.UTC)
	for i := 0; day.Year() < 2024; i++ {
		fmt.Fprintf(&b, "%s,%.2f,%.2f\n", day.Format("02-01-2006"), 10000+float64(i*13%97), 20000+float64(i*7%53))
		day = day.AddDate(0, 0, 7)
	}

	path := filepath.Join(t.TempDir(), "indices.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

// execute runs the root command with a clean flag state
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// loadConfig가 os.Setenv 하는 키는 테스트 후 복원
	for _, key := range []string{"ANALYTICS_CONFIG", "DATA_SOURCE", "DATA_PATH", "DATA_URL", "LOG_LEVEL", "REDIS_ENABLED"} {
		t.Setenv(key, os.Getenv(key))
	}
	os.Setenv("REDIS_ENABLED", "false")

	engineConfigPath, dataSource, dataPath, verbose = "", "", "", false
	computeIndex, computeAll, computeMode, computeHorizon, computeJSON = "", false, "", "", false
	exportIndex, exportFormat, exportOut, exportMode, exportHorizon = "", "", "", "", ""
	importIndices, importReplace = nil, false
	resetChanged(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetChanged(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) { f.Changed = false }
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetChanged(c)
	}
}

func TestComputeCommand_JSON(t *testing.T) {
	path := writeCSV(t)

	out, err := execute(t, "compute", "--source", "csv", "--data", path, "--index", "NIFTY BANK", "--json")
	require.NoError(t, err, out)

	var result contracts.HeatmapResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "NIFTY BANK", result.Index)
	assert.Equal(t, []int{2020, 2021, 2022, 2023}, result.MonthlyPrice.Years())
	assert.NotNil(t, result.RankPercentile4Y)
}

func TestComputeCommand_Table(t *testing.T) {
	path := writeCSV(t)

	out, err := execute(t, "compute", "--source", "csv", "--data", path, "--index", "NIFTY 50", "--mode", "forward", "--horizon", "1y")
	require.NoError(t, err, out)

	assert.Contains(t, out, "Mode      : forward 1Y")
	assert.Contains(t, out, "Returns")
	assert.Contains(t, out, "Jan")
	assert.Contains(t, out, "2023")
	assert.Contains(t, out, "Inverse rank percentile")
}

func TestComputeCommand_Errors(t *testing.T) {
	path := writeCSV(t)

	_, err := execute(t, "compute", "--source", "csv", "--data", path)
	assert.ErrorContains(t, err, "--index or --all")

	_, err = execute(t, "compute", "--source", "csv", "--data", path, "--index", "MISSING")
	assert.ErrorIs(t, err, contracts.ErrMissingIndex)

	_, err = execute(t, "compute", "--source", "csv", "--data", path, "--index", "NIFTY 50", "--horizon", "5Y")
	assert.ErrorIs(t, err, contracts.ErrInvalidConfiguration)
}

func TestComputeCommand_All(t *testing.T) {
	path := writeCSV(t)

	out, err := execute(t, "compute", "--source", "csv", "--data", path, "--all")
	require.NoError(t, err, out)
	assert.Contains(t, out, "NIFTY 50")
	assert.Contains(t, out, "NIFTY BANK")
	assert.Contains(t, out, "2 indices computed")
}

func TestIndicesCommand(t *testing.T) {
	path := writeCSV(t)

	out, err := execute(t, "indices", "--source", "csv", "--data", path)
	require.NoError(t, err, out)
	assert.Contains(t, out, "NIFTY 50")
	assert.Contains(t, out, "2020-01-06 ~ 2023-12-")
	assert.Contains(t, out, "2 indices")
}

func TestExportCommand(t *testing.T) {
	path := writeCSV(t)
	dir := t.TempDir()

	csvOut := filepath.Join(dir, "reports", "nifty.csv")
	out, err := execute(t, "export", "--source", "csv", "--data", path, "--index", "NIFTY 50", "--out", csvOut)
	require.NoError(t, err, out)

	data, err := os.ReadFile(csvOut)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "year,month,"), string(data[:40]))

	xlsxOut := filepath.Join(dir, "bank.xlsx")
	_, err = execute(t, "export", "--source", "csv", "--data", path, "--index", "NIFTY BANK", "--out", xlsxOut)
	require.NoError(t, err)
	info, err := os.Stat(xlsxOut)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestConfigCommand(t *testing.T) {
	path := writeCSV(t)

	out, err := execute(t, "config", "--source", "csv", "--data", path)
	require.NoError(t, err, out)
	assert.Contains(t, out, "# source: environment")
	assert.Contains(t, out, "# hash: ")
	assert.Contains(t, out, "average_years: 3")
}

func TestExportFormatFor(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		out     string
		want    string
		wantErr bool
	}{
		{"default", "", "", "xlsx", false},
		{"from extension", "", "out/report.CSV", "csv", false},
		{"flag wins", "xlsx", "report.csv", "xlsx", false},
		{"flag case", "CSV", "", "csv", false},
		{"unknown extension", "", "report.pdf", "", true},
		{"unknown flag", "json", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := exportFormatFor(tt.format, tt.out)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewSource(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.DataConfig
		db      *database.DB
		want    interface{}
		wantErr bool
	}{
		{"csv", config.DataConfig{Source: config.SourceCSV, Path: "a.csv"}, nil, &ingest.CSVSource{}, false},
		{"xlsx", config.DataConfig{Source: config.SourceXLSX, Path: "a.xlsx"}, nil, &ingest.XLSXSource{}, false},
		{"html", config.DataConfig{Source: config.SourceHTML, Path: "a.html"}, nil, &ingest.HTMLSource{}, false},
		{"url", config.DataConfig{Source: config.SourceURL, URL: "http://x/a.csv"}, nil, &ingest.RemoteCSVSource{}, false},
		{"postgres", config.DataConfig{Source: config.SourcePostgres}, &database.DB{}, &prices.Repository{}, false},
		{"postgres without db", config.DataConfig{Source: config.SourcePostgres}, nil, nil, true},
		{"unknown", config.DataConfig{Source: "parquet"}, nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := newSource(tt.cfg, tt.db, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, src)
		})
	}
}

func TestSelectIndices(t *testing.T) {
	ds := &contracts.Dataset{
		Names: []string{"A", "B", "C"},
		Series: map[string]contracts.DailySeries{
			"A": {Index: "A"}, "B": {Index: "B"}, "C": {Index: "C"},
		},
		Source: "test",
	}

	all, err := selectIndices(ds, nil)
	require.NoError(t, err)
	assert.Same(t, ds, all)

	some, err := selectIndices(ds, []string{"C", "A"})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A"}, some.Names)
	assert.Len(t, some.Series, 2)
	assert.Equal(t, "test", some.Source)

	_, err = selectIndices(ds, []string{"Z"})
	assert.ErrorIs(t, err, contracts.ErrMissingIndex)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "+1.23%", formatPct(contracts.Float(0.01234)))
	assert.Equal(t, "-5.00%", formatPct(contracts.Float(-0.05)))
	assert.Equal(t, "-", formatPct(nil))
	assert.Equal(t, "87.5", formatPctPoint(contracts.Float(87.5)))
	assert.Equal(t, "3", formatRank(contracts.Int(3)))
	assert.Equal(t, "-", formatRank(nil))

	values := contracts.YearMonthValues{}
	values.Set(2024, 1, nil)
	values.Set(2024, 2, contracts.Float(0.1))

	var buf bytes.Buffer
	require.NoError(t, printValueGrid(&buf, "Returns", values, formatPct))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Returns", lines[0])
	assert.Contains(t, lines[2], "2024")
	assert.Contains(t, lines[2], "+10.00%")
	assert.Contains(t, lines[2], "-")
}

func TestDateRange(t *testing.T) {
	series := contracts.DailySeries{Observations: []contracts.DailyObservation{
		{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Date: time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC)},
		{Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
	}}
	assert.Equal(t, "2023-12-29 ~ 2024-03-01", dateRange(series))
	assert.Equal(t, "-", dateRange(contracts.DailySeries{}))
}
