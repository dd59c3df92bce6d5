package engineconfig

import (
	"fmt"

	"github.com/wonny/heatmap/internal/analytics"
	"github.com/wonny/heatmap/internal/contracts"
)

// Validate checks all required constraints
// 실패 시 InvalidConfigurationError 반환 (field는 YAML 경로)
func Validate(cfg *Config) error {
	// === Calculation ===
	mode, err := analytics.ParseMode(cfg.Calculation.Mode)
	if err != nil {
		return invalid("calculation.mode", err)
	}
	horizon, err := analytics.ParseHorizon(cfg.Calculation.Horizon)
	if err != nil {
		return invalid("calculation.horizon", err)
	}

	// 정규화: 같은 설정은 같은 해시
	cfg.Calculation.Mode = string(mode)
	cfg.Calculation.Horizon = string(horizon.Key)

	// === Windows ===
	w := cfg.Windows
	if err := positive("windows.average_years", w.AverageYears); err != nil {
		return err
	}
	if err := positive("windows.percentile_years", w.PercentileYears); err != nil {
		return err
	}
	if err := positive("windows.inverse_years", w.InverseYears); err != nil {
		return err
	}
	if err := positive("windows.min_history_months", w.MinHistoryMonths); err != nil {
		return err
	}

	return nil
}

func positive(field string, v int) error {
	if v <= 0 {
		return &contracts.InvalidConfigurationError{Field: field, Message: fmt.Sprintf("must be > 0, got %d", v)}
	}
	return nil
}

// invalid re-labels a parse error with the YAML path
func invalid(field string, err error) error {
	msg := err.Error()
	if cfgErr, ok := err.(*contracts.InvalidConfigurationError); ok {
		msg = cfgErr.Message
	}
	return &contracts.InvalidConfigurationError{Field: field, Message: msg}
}
