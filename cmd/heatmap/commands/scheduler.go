package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/heatmap/internal/scheduler"
	"github.com/wonny/heatmap/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `데이터셋 재적재 스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행
  status  - 작업 실행 상태 조회

Example:
  go run ./cmd/heatmap scheduler start
  go run ./cmd/heatmap scheduler run dataset_reload`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- dataset_reload: RELOAD_SCHEDULE (기본: 평일 18:30) 데이터셋 재적재 + 캐시 워밍

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "작업 스케줄 및 다음 실행 시각",
		RunE:  showStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

// initScheduler wires the app and registers every job
func initScheduler(ctx context.Context, stdoutLogs bool) (*app, *scheduler.Scheduler, error) {
	a, err := newApp(ctx, appOptions{stdoutLogs: stdoutLogs})
	if err != nil {
		return nil, nil, err
	}

	sched := scheduler.New(a.log)
	if err := sched.AddJob(jobs.NewReloadJob(a.service, a.cfg.ReloadSchedule, true, a.log)); err != nil {
		a.Close()
		return nil, nil, fmt.Errorf("register jobs: %w", err)
	}
	return a, sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Heatmap Scheduler ===")

	a, sched, err := initScheduler(context.Background(), true)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	sched.Start()

	printSuccess(out, "Scheduler started successfully")
	fmt.Fprintln(out, "\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Fprintf(out, "  - %s\n", jobName)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Fprintln(out, "\nShutting down scheduler...")
	sched.Stop()
	fmt.Fprintln(out, "Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler(context.Background(), false)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Fprintf(out, "  - %s\n", jobName)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]
	out := cmd.OutOrStdout()

	a, sched, err := initScheduler(context.Background(), false)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()
	defer sched.Stop()

	fmt.Fprintf(out, "Running job: %s\n", jobName)

	result, err := sched.RunJob(jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("job %s failed after %d attempt(s): %s", jobName, result.Attempts, result.Error)
	}

	printSuccess(out, fmt.Sprintf("Job %s completed in %.2fs", jobName, result.Duration.Seconds()))
	return nil
}

// showStatus prints the schedule of every job. A fresh process has no run
// history, so the counters only fill in for jobs run by this command.
func showStatus(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler(context.Background(), false)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Job Statistics:")
	fmt.Fprintln(out)

	stats := sched.GetJobStats()
	for _, jobName := range sched.GetAllJobs() {
		stat := stats[jobName]
		fmt.Fprintf(out, "📊 %s\n", jobName)
		fmt.Fprintf(out, "   Schedule: %s\n", stat.Schedule)
		fmt.Fprintf(out, "   Total Runs: %d\n", stat.TotalRuns)
		fmt.Fprintf(out, "   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Fprintf(out, "   Failures: %d\n", stat.FailureCount)

		if next, err := sched.NextRun(jobName, time.Now()); err == nil {
			fmt.Fprintf(out, "   Next Run: %s\n", next.Format("2006-01-02 15:04:05"))
		}
		if stat.LastRun != nil {
			fmt.Fprintf(out, "   Last Run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintln(out)
	}

	return nil
}
