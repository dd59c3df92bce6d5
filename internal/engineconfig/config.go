package engineconfig

import (
	"github.com/wonny/heatmap/internal/analytics"
	"github.com/wonny/heatmap/pkg/config"
)

// Config는 히트맵 엔진 계산 설정
type Config struct {
	Calculation Calculation `yaml:"calculation" json:"calculation"`
	Windows     Windows     `yaml:"windows" json:"windows"`
}

// Calculation return 계산 방식
type Calculation struct {
	Mode    string `yaml:"mode" json:"mode"`       // mom | forward
	Horizon string `yaml:"horizon" json:"horizon"` // 1M 3M 6M 1Y 2Y 3Y 4Y (forward only)
}

// Windows trailing 윈도우 (년/월)
type Windows struct {
	AverageYears     int `yaml:"average_years" json:"average_years"`
	PercentileYears  int `yaml:"percentile_years" json:"percentile_years"`
	InverseYears     int `yaml:"inverse_years" json:"inverse_years"` // 0 = percentile_years
	MinHistoryMonths int `yaml:"min_history_months" json:"min_history_months"`
}

// Default returns the engine defaults (mom, 3y average, 4y percentile)
func Default() *Config {
	return FromOptions(analytics.DefaultOptions())
}

// FromOptions converts engine options to a Config
func FromOptions(opts analytics.Options) *Config {
	return &Config{
		Calculation: Calculation{
			Mode:    string(opts.Mode),
			Horizon: string(opts.Horizon),
		},
		Windows: Windows{
			AverageYears:     opts.AverageWindowYears,
			PercentileYears:  opts.PercentileWindowYears,
			InverseYears:     opts.InverseWindowYears,
			MinHistoryMonths: opts.MinHistoryMonths,
		},
	}
}

// FromEnv builds a Config from the environment-level analytics settings
func FromEnv(cfg config.AnalyticsConfig) *Config {
	c := &Config{
		Calculation: Calculation{
			Mode:    cfg.Mode,
			Horizon: cfg.Horizon,
		},
		Windows: Windows{
			AverageYears:     cfg.AverageWindowYears,
			PercentileYears:  cfg.PercentileWindowYears,
			InverseYears:     cfg.InverseWindowYears,
			MinHistoryMonths: cfg.MinHistoryMonths,
		},
	}
	c.applyDefaults()
	return c
}

// Options converts the Config to engine options
func (c *Config) Options() analytics.Options {
	return analytics.Options{
		Mode:                  analytics.Mode(c.Calculation.Mode),
		Horizon:               analytics.Horizon(c.Calculation.Horizon),
		AverageWindowYears:    c.Windows.AverageYears,
		PercentileWindowYears: c.Windows.PercentileYears,
		InverseWindowYears:    c.Windows.InverseYears,
		MinHistoryMonths:      c.Windows.MinHistoryMonths,
	}
}

// applyDefaults fills optional fields
func (c *Config) applyDefaults() {
	def := analytics.DefaultOptions()
	if c.Calculation.Mode == "" {
		c.Calculation.Mode = string(def.Mode)
	}
	if c.Calculation.Horizon == "" {
		c.Calculation.Horizon = string(def.Horizon)
	}
	if c.Windows.InverseYears == 0 {
		c.Windows.InverseYears = c.Windows.PercentileYears
	}
}
