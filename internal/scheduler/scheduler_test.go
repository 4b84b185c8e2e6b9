package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-sri/pkg/logger"
)

type blockingJob struct {
	started chan struct{}
	release chan struct{}
}

func (j *blockingJob) Name() string     { return "slow" }
func (j *blockingJob) Schedule() string { return "@daily" }
func (j *blockingJob) Run(context.Context) error {
	close(j.started)
	<-j.release
	return nil
}

type countingJob struct {
	name     string
	schedule string
	err      error
	calls    int
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }
func (j *countingJob) Run(context.Context) error {
	j.calls++
	return j.err
}

func TestParseSpec(t *testing.T) {
	tests := []struct {
		spec    string
		wantErr bool
	}{
		{"0 35 9 * * MON-FRI", false},
		{"@daily", false},
		{"*/30 * * * * *", false},
		{"35 9 * * MON-FRI", true}, // 5-field rejected
		{"whenever", true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			_, err := ParseSpec(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAddAndRemoveJob(t *testing.T) {
	s := New(logger.Nop())
	job := &countingJob{name: "a", schedule: "@daily"}

	require.NoError(t, s.AddJob(job))
	assert.Error(t, s.AddJob(job), "duplicate name")
	assert.Equal(t, []string{"a"}, s.GetAllJobs())

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("a"))
}

func TestAddJob_InvalidSchedule(t *testing.T) {
	s := New(logger.Nop())
	assert.Error(t, s.AddJob(&countingJob{name: "bad", schedule: "never"}))
}

func TestRunJob_NoRetryByDefault(t *testing.T) {
	s := New(logger.Nop())
	job := &countingJob{name: "fail", schedule: "@daily", err: errors.New("broker down")}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob("fail")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "broker down", result.Error)
	assert.Equal(t, 1, job.calls)

	stats := s.GetJobStats()["fail"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.NotNil(t, stats.LastRun)
	assert.False(t, stats.LastSuccess)
	assert.Equal(t, "broker down", stats.LastError)
}

func TestRunJob_WithRetry(t *testing.T) {
	s := New(logger.Nop()).WithRetry(2, time.Millisecond)
	job := &countingJob{name: "fail", schedule: "@daily", err: errors.New("boom")}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob("fail")
	require.NoError(t, err)
	assert.Equal(t, 3, job.calls)
	assert.Equal(t, 3, result.Attempts)
	assert.True(t, result.Failed())
}

func TestRunJob_Success(t *testing.T) {
	s := New(logger.Nop())
	job := &countingJob{name: "ok", schedule: "0 0 12 * * *"}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob("ok")
	require.NoError(t, err)
	assert.True(t, result.Success)

	history, err := s.GetJobHistory("ok")
	require.NoError(t, err)
	assert.Equal(t, 1.0, history.SuccessRate())
	assert.Equal(t, 1, result.Attempts)

	_, err = s.RunJob("missing")
	assert.Error(t, err)
}

func TestNextRun(t *testing.T) {
	s := New(logger.Nop())
	require.NoError(t, s.AddJob(&countingJob{name: "noon", schedule: "0 0 12 * * *"}))
	next, err := s.NextRun("noon")
	require.NoError(t, err)
	assert.Equal(t, 12, next.Hour())
}

func TestRunJob_SkipsOverlap(t *testing.T) {
	s := New(logger.Nop())
	job := &blockingJob{started: make(chan struct{}), release: make(chan struct{})}
	require.NoError(t, s.AddJob(job))

	done := make(chan JobResult, 1)
	go func() {
		result, _ := s.RunJob("slow")
		done <- result
	}()
	<-job.started

	skipped, err := s.RunJob("slow")
	require.NoError(t, err)
	assert.True(t, skipped.Skipped)
	assert.False(t, skipped.Failed())

	close(job.release)
	first := <-done
	assert.True(t, first.Success)

	stats := s.GetJobStats()["slow"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.SkippedCount)
	assert.Equal(t, 1.0, stats.SuccessRate)
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	_, ok := h.Last()
	assert.False(t, ok)
	assert.Equal(t, 0.0, h.SuccessRate())

	for i := 0; i < historyLimit+5; i++ {
		h.AddResult(JobResult{JobName: "j", Success: i%2 == 0})
	}
	h.AddResult(JobResult{JobName: "j", Skipped: true})

	assert.Len(t, h.Results, historyLimit)
	last, ok := h.Last()
	require.True(t, ok)
	assert.False(t, last.Skipped)

	succeeded, failed, skipped := h.Counts()
	assert.Equal(t, historyLimit-1, succeeded+failed)
	assert.Equal(t, 1, skipped)
}
