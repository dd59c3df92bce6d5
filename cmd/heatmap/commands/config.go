package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/heatmap/internal/engineconfig"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "적용 중인 엔진 설정 출력",
	Long: `ANALYTICS_CONFIG 파일 또는 환경변수로 결정된 엔진 설정과 해시를 출력합니다.
해시는 Redis 캐시 키에 포함되므로 설정이 바뀌면 캐시도 분리됩니다.

Example:
  go run ./cmd/heatmap config
  go run ./cmd/heatmap config --config config/engine.yaml`,
	RunE: showConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func showConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine, err := engineconfig.Resolve(cfg.Analytics)
	if err != nil {
		return fmt.Errorf("engine config: %w", err)
	}
	hash, err := engineconfig.Hash(engine)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(engine)
	if err != nil {
		return err
	}

	source := "environment"
	if cfg.Analytics.ConfigPath != "" {
		source = cfg.Analytics.ConfigPath
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# source: %s\n# hash: %s\n", source, hash)
	fmt.Fprint(out, string(data))
	return nil
}
