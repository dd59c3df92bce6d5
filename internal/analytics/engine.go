package analytics

import (
	"fmt"

	"github.com/wonny/heatmap/internal/contracts"
	"github.com/wonny/heatmap/pkg/logger"
)

// Options configures the engine
type Options struct {
	Mode    Mode
	Horizon Horizon // used when Mode == ModeForward

	AverageWindowYears    int // avg_monthly_profits_3y
	PercentileWindowYears int // rank_percentile_4y, monthly_rank_percentile
	InverseWindowYears    int // inverse_rank_percentile
	MinHistoryMonths      int // monthly buckets; below this every rank/percentile/scalar is nil
}

// DefaultOptions returns MoM returns with 3y average and 4y percentile windows
func DefaultOptions() Options {
	return Options{
		Mode:                  ModeMoM,
		Horizon:               Horizon1Y,
		AverageWindowYears:    3,
		PercentileWindowYears: 4,
		InverseWindowYears:    4,
		MinHistoryMonths:      24,
	}
}

// Validate checks every option and returns an InvalidConfigurationError
func (o Options) Validate() error {
	if _, err := ParseMode(string(o.Mode)); err != nil {
		return err
	}
	if _, err := ParseHorizon(string(o.Horizon)); err != nil {
		return err
	}

	windows := []struct {
		field string
		value int
	}{
		{"average_window_years", o.AverageWindowYears},
		{"percentile_window_years", o.PercentileWindowYears},
		{"inverse_window_years", o.InverseWindowYears},
		{"min_history_months", o.MinHistoryMonths},
	}
	for _, w := range windows {
		if w.value <= 0 {
			return &contracts.InvalidConfigurationError{
				Field:   w.field,
				Message: fmt.Sprintf("must be > 0, got %d", w.value),
			}
		}
	}

	return nil
}

// Engine turns a daily series into a HeatmapResult
// ⭐ SSOT: 히트맵 통계 계산은 여기서만
//
// An Engine is immutable after NewEngine and safe for concurrent use.
type Engine struct {
	opts    Options
	mode    Mode
	horizon HorizonSpec
	logger  *logger.Logger
}

// NewEngine validates opts once and builds an engine
func NewEngine(opts Options, log *logger.Logger) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	// Validate이 통과했으므로 에러 없음
	mode, _ := ParseMode(string(opts.Mode))
	horizon, _ := ParseHorizon(string(opts.Horizon))
	opts.Mode = mode
	opts.Horizon = horizon.Key

	if log == nil {
		log = logger.Nop()
	}

	return &Engine{
		opts:    opts,
		mode:    mode,
		horizon: horizon,
		logger:  log.WithComponent("analytics"),
	}, nil
}

// Options returns the normalised options of the engine
func (e *Engine) Options() Options {
	return e.opts
}

// Compute runs the full pipeline for one index
func (e *Engine) Compute(series contracts.DailySeries) (*contracts.HeatmapResult, error) {
	prepared, err := PrepareSeries(series)
	if err != nil {
		return nil, fmt.Errorf("prepare series: %w", err)
	}

	monthly := Aggregate(prepared)
	returns := e.Returns(monthly)

	var ranks []contracts.RankRecord
	var scalars contracts.Scalars

	sufficient := HasSufficientHistory(monthly, e.opts.MinHistoryMonths)
	if sufficient {
		ranks = RankPercentiles(returns, e.opts.PercentileWindowYears)
		scalars = contracts.Scalars{
			AvgMonthlyProfits3Y:   TrailingAverage(returns, e.opts.AverageWindowYears),
			RankPercentile4Y:      PerformancePercentile(returns, e.opts.PercentileWindowYears),
			InverseRankPercentile: ValuationPercentile(PerformancePercentile(returns, e.opts.InverseWindowYears)),
		}
	} else {
		ranks = emptyRanks(returns)
	}

	e.logger.WithFields(map[string]interface{}{
		"index":        series.Index,
		"observations": prepared.Len(),
		"buckets":      monthly.Len(),
		"returns":      len(returns),
		"mode":         e.mode,
		"horizon":      e.horizon.Key,
		"sufficient":   sufficient,
	}).Debug("Computed heatmap")

	return Assemble(series.Index, monthly, returns, ranks, scalars), nil
}

// Returns computes the configured return series (MoM or forward)
func (e *Engine) Returns(monthly contracts.MonthlySeries) []contracts.ReturnPoint {
	if e.mode == ModeForward {
		return ForwardReturns(monthly, e.horizon)
	}
	return MoMReturns(monthly)
}
