package scheduler

import (
	"context"
	"time"
)

// historyLimit bounds the results kept per job
const historyLimit = 100

// Job is a unit of work the scheduler runs on a cron schedule
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string

	// Run executes the job once. ctx carries the job timeout.
	Run(ctx context.Context) error

	// Schedule returns the cron expression, seconds first.
	// e.g. "0 35 9 * * MON-FRI" (weekdays 09:35:00), "@daily"
	Schedule() string
}

// JobResult is the outcome of one tick of a job
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Skipped   bool          `json:"skipped,omitempty"` // previous run still in flight
	Error     string        `json:"error,omitempty"`
}

// Failed reports whether the job ran and did not succeed
func (r JobResult) Failed() bool {
	return !r.Success && !r.Skipped
}

// JobHistory keeps the latest results of a job, oldest first
type JobHistory struct {
	Results []JobResult
}

// AddResult appends a result, dropping the oldest past historyLimit
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > historyLimit {
		h.Results = h.Results[len(h.Results)-historyLimit:]
	}
}

// Last returns the most recent result that actually ran
func (h *JobHistory) Last() (JobResult, bool) {
	for i := len(h.Results) - 1; i >= 0; i-- {
		if !h.Results[i].Skipped {
			return h.Results[i], true
		}
	}
	return JobResult{}, false
}

// Counts returns how many ticks succeeded, failed and were skipped
func (h *JobHistory) Counts() (succeeded, failed, skipped int) {
	for _, r := range h.Results {
		switch {
		case r.Skipped:
			skipped++
		case r.Success:
			succeeded++
		default:
			failed++
		}
	}
	return succeeded, failed, skipped
}

// SuccessRate returns succeeded / (succeeded + failed), 0 when nothing ran
func (h *JobHistory) SuccessRate() float64 {
	succeeded, failed, _ := h.Counts()
	if succeeded+failed == 0 {
		return 0
	}
	return float64(succeeded) / float64(succeeded+failed)
}
