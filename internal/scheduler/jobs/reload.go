package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/heatmap/internal/analytics"
	"github.com/wonny/heatmap/internal/contracts"
	"github.com/wonny/heatmap/pkg/logger"
)

// HeatmapService is the part of heatmap.Service the reload job drives
type HeatmapService interface {
	Reload(ctx context.Context) (*contracts.Dataset, error)
	ComputeAll(ctx context.Context, opts analytics.Options) (map[string]*contracts.HeatmapResult, error)
	Defaults() analytics.Options
}

// DefaultReloadSchedule reloads every weekday evening, after the close
const DefaultReloadSchedule = "0 30 18 * * 1-5"

// ReloadJob invalidates and reloads the dataset, then optionally warms the result cache
// ⭐ SSOT: 데이터셋 주기적 재적재는 이 Job에서만
type ReloadJob struct {
	service  HeatmapService
	schedule string
	warm     bool
	logger   *logger.Logger
}

// NewReloadJob creates a reload job; an empty schedule uses DefaultReloadSchedule
func NewReloadJob(service HeatmapService, schedule string, warm bool, log *logger.Logger) *ReloadJob {
	if schedule == "" {
		schedule = DefaultReloadSchedule
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ReloadJob{
		service:  service,
		schedule: schedule,
		warm:     warm,
		logger:   log,
	}
}

// Name returns the job name
func (j *ReloadJob) Name() string {
	return "dataset_reload"
}

// Schedule returns the cron schedule
func (j *ReloadJob) Schedule() string {
	return j.schedule
}

// Run reloads the dataset
func (j *ReloadJob) Run(ctx context.Context) error {
	start := time.Now()

	ds, err := j.service.Reload(ctx)
	if err != nil {
		return fmt.Errorf("reload dataset: %w", err)
	}

	fields := map[string]interface{}{
		"source":  ds.Source,
		"indices": ds.Count(),
	}

	if j.warm {
		results, err := j.service.ComputeAll(ctx, j.service.Defaults())
		if err != nil {
			return fmt.Errorf("warm cache: %w", err)
		}
		fields["warmed"] = len(results)
	}

	fields["duration"] = time.Since(start)
	j.logger.WithFields(fields).Info("Scheduled dataset reload completed")

	return nil
}
