package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/heatmap/internal/api"
	"github.com/wonny/heatmap/internal/api/handlers"
	"github.com/wonny/heatmap/internal/realtime"
	"github.com/wonny/heatmap/internal/scheduler"
	"github.com/wonny/heatmap/internal/scheduler/jobs"
	"github.com/wonny/heatmap/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                     - Health check
  GET  /ready                      - Dependency check (dataset, database, redis)
  GET  /indices                    - 지수 목록
  GET  /heatmap/{index}            - 히트맵 (?mode=mom|forward&horizon=1Y)
  GET  /heatmap/{index}/export     - xlsx/csv 다운로드 (?format=xlsx|csv)
  POST /api/reload                 - 데이터셋 재적재
  GET  /api/jobs                   - 스케줄러 작업 통계
  GET  /ws                         - 이벤트 스트림 (WebSocket)
  GET  /metrics                    - Prometheus

Example:
  go run ./cmd/heatmap api
  go run ./cmd/heatmap api --port 9000`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT, 8001)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx, appOptions{stdoutLogs: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}
	log := a.log

	log.WithFields(map[string]interface{}{
		"port":   a.cfg.Port,
		"env":    a.cfg.Env,
		"source": a.source.Name(),
	}).Info("Initializing API server")

	// 1. Realtime hub: reload events → /ws
	hub := realtime.NewHub(log)
	hub.Start()
	defer hub.Stop()
	a.service.OnReload(hub.DatasetReloaded)

	// 2. Metrics
	var metrics *api.Metrics
	if a.cfg.MetricsEnabled {
		metrics = api.NewMetrics()
		a.service.SetObserver(metrics)
		if a.db != nil {
			metrics.PoolGauge("postgres", func() float64 { return float64(a.db.Stats().TotalConns) })
		}
		if a.redis.Enabled() {
			metrics.PoolGauge("redis", func() float64 { return float64(a.redis.PoolStats().TotalConns) })
		}
	}

	// 3. Rate limiter (Redis sliding window when enabled)
	var shared *redis.RateLimiter
	if a.redis.Enabled() {
		shared = redis.NewRateLimiter(a.redis, cachePrefix)
	}
	limiter := api.NewRateLimiter(a.cfg.RateLimitRPS, a.cfg.RateLimitBurst, shared, log)

	// 4. Optional reload scheduler
	var jobStats handlers.JobStatsProvider
	if a.cfg.ReloadSchedule != "" {
		sched := scheduler.New(log)
		if err := sched.AddJob(jobs.NewReloadJob(a.service, a.cfg.ReloadSchedule, true, log)); err != nil {
			return fmt.Errorf("schedule reload: %w", err)
		}
		sched.Start()
		defer sched.Stop()
		jobStats = sched
	}

	// 5. Readiness checks
	checks := map[string]handlers.Check{
		"dataset": func(ctx context.Context) error {
			_, err := a.service.Dataset(ctx)
			return err
		},
	}
	if a.db != nil {
		checks["database"] = a.db.Ping
	}
	if a.redis.Enabled() {
		checks["redis"] = a.redis.Ping
	}

	// 6. Router + server
	router := api.NewRouter(api.Handlers{
		Heatmap: handlers.NewHeatmapHandler(a.service, log),
		Admin:   handlers.NewAdminHandler(a.service, jobStats, log),
		Health:  handlers.NewHealthHandler(checks),
		Hub:     hub,
	}, api.RouterOptions{
		Metrics:     metrics,
		RateLimiter: limiter,
		CORSOrigins: a.cfg.CORSOrigins,
	}, log)

	server := api.New(":"+a.cfg.Port, router, log)

	// 첫 요청 전에 데이터셋 적재 (실패해도 서버는 시작)
	if ds, err := a.service.Dataset(ctx); err != nil {
		log.WithError(err).Warn("Initial dataset load failed")
	} else {
		log.WithField("indices", ds.Count()).Info("Dataset ready")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
