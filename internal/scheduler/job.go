package scheduler

import (
	"context"
	"time"
)

// Job is one unit of scheduled work
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string
	Run(ctx context.Context) error
	// Schedule is a cron expression with a seconds field,
	// e.g. "0 30 18 * * 1-5" or "@every 1h"
	Schedule() string
}

// JobResult is the outcome of one run, retries included
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// historySize caps the results kept per job
const historySize = 100

// runHistory is a ring of the last historySize results, oldest first on read
type runHistory struct {
	buf  []JobResult
	next int // 다음 기록 위치 (buf가 가득 찬 뒤)
}

func (h *runHistory) add(r JobResult) {
	if len(h.buf) < historySize {
		h.buf = append(h.buf, r)
		return
	}
	h.buf[h.next] = r
	h.next = (h.next + 1) % historySize
}

// results returns a copy in chronological order
func (h *runHistory) results() []JobResult {
	out := make([]JobResult, 0, len(h.buf))
	out = append(out, h.buf[h.next:]...)
	return append(out, h.buf[:h.next]...)
}

func (h *runHistory) last() (JobResult, bool) {
	if len(h.buf) == 0 {
		return JobResult{}, false
	}
	i := len(h.buf) - 1
	if len(h.buf) == historySize {
		i = (h.next + historySize - 1) % historySize
	}
	return h.buf[i], true
}

// stats fills the counters of JobStats
func (h *runHistory) stats() (total, failures int, lastSuccess, lastFailure *time.Time) {
	for _, r := range h.results() {
		r := r
		total++
		if r.Success {
			lastSuccess = &r.StartTime
		} else {
			failures++
			lastFailure = &r.StartTime
		}
	}
	return total, failures, lastSuccess, lastFailure
}

// JobStats summarises the kept history of a job
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"` // 0.0 - 1.0
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
	NextRun      *time.Time `json:"next_run,omitempty"`
}
