package jobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/wonny/aegis-sri/internal/rebalance"
	"github.com/wonny/aegis-sri/internal/strategyconfig"
	"github.com/wonny/aegis-sri/pkg/logger"
)

// Runner runs one rebalance
type Runner interface {
	Run(ctx context.Context, cfg rebalance.RunConfig) (*rebalance.RunResult, error)
}

// RebalanceJob runs a plan file's rebalance on its cron schedule
type RebalanceJob struct {
	runner   Runner
	plan     *strategyconfig.Config
	planHash string
	schedule string
	logger   *logger.Logger
}

// NewRebalanceJob creates a new rebalance job.
// schedule overrides the plan's schedule.cron when non-empty.
func NewRebalanceJob(runner Runner, plan *strategyconfig.Config, schedule string, log *logger.Logger) (*RebalanceJob, error) {
	if schedule == "" {
		schedule = plan.Schedule.Cron
	}
	if schedule == "" {
		return nil, fmt.Errorf("plan %s has no schedule", plan.Meta.PlanID)
	}

	hash, err := strategyconfig.Hash(plan)
	if err != nil {
		return nil, fmt.Errorf("hash plan: %w", err)
	}

	return &RebalanceJob{
		runner:   runner,
		plan:     plan,
		planHash: hash,
		schedule: schedule,
		logger:   log,
	}, nil
}

// Name returns the job name
func (j *RebalanceJob) Name() string {
	return "rebalance:" + j.plan.Meta.PlanID
}

// Schedule returns the cron schedule
func (j *RebalanceJob) Schedule() string {
	return j.schedule
}

// Run executes one rebalance of the plan
func (j *RebalanceJob) Run(ctx context.Context) error {
	amount, err := j.plan.Amount()
	if err != nil {
		return fmt.Errorf("plan amount: %w", err)
	}

	runID := uuid.NewString()
	j.logger.WithFields(map[string]interface{}{
		"run_id":    runID,
		"plan_id":   j.plan.Meta.PlanID,
		"plan_hash": j.planHash[:12],
	}).Info("Starting scheduled rebalance")

	result, err := j.runner.Run(ctx, rebalance.RunConfig{
		RunID:      runID,
		Allocation: j.plan.Allocation(),
		Amount:     amount,
		DryRun:     j.plan.Rebalance.DryRun,
	})
	if err != nil {
		submitted := 0
		if result != nil {
			submitted = len(result.Submitted)
		}
		return fmt.Errorf("rebalance %s (submitted %d orders before failure): %w", runID, submitted, err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":    runID,
		"submitted": len(result.Submitted),
	}).Info("Scheduled rebalance finished")

	return nil
}
