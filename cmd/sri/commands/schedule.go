package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-sri/internal/scheduler"
	"github.com/wonny/aegis-sri/internal/scheduler/jobs"
	"github.com/wonny/aegis-sri/internal/strategyconfig"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "계획 파일을 cron 으로 주기 실행",
	Long: `계획 파일의 리밸런스를 cron 스케줄로 반복 실행합니다.

cron 표현식은 초 단위 6필드입니다 (예: "0 35 9 * * MON-FRI").
--cron 을 주지 않으면 계획 파일의 schedule.cron 을 사용합니다.
실패한 실행은 재시도하지 않으며, 이전 실행이 끝나지 않았으면 건너뜁니다.

스케줄러는 Ctrl+C로 종료할 수 있습니다.

Example:
  go run ./cmd/sri schedule -f plans/core.yaml --cron "0 35 9 * * MON-FRI"`,
	RunE: runSchedule,
}

var (
	scheduleFile string
	scheduleCron string
	scheduleNow  bool
)

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVarP(&scheduleFile, "file", "f", "", "allocation plan file (YAML)")
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "cron expression, seconds first (default: plan schedule.cron)")
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "run once immediately before waiting for the schedule")
	_ = scheduleCmd.MarkFlagRequired("file")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	plan, _, err := strategyconfig.Load(scheduleFile)
	if err != nil {
		return err
	}
	if scheduleCron != "" {
		if _, err := scheduler.ParseSpec(scheduleCron); err != nil {
			return fmt.Errorf("invalid --cron %q: %w", scheduleCron, err)
		}
	}
	if err := strategyconfig.Validate(plan); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, plan.Catalog())
	if err != nil {
		return err
	}
	defer a.Close()

	job, err := jobs.NewRebalanceJob(a.orchestrator, plan, scheduleCron, a.log.WithComponent("scheduler"))
	if err != nil {
		return err
	}

	s := scheduler.New(a.log.WithComponent("scheduler"))
	if err := s.AddJob(job); err != nil {
		return err
	}

	if scheduleNow {
		result, err := s.RunJob(job.Name())
		if err != nil {
			return err
		}
		if !result.Success {
			a.log.WithField("error", result.Error).Warn("Immediate run failed, continuing with schedule")
		}
	}

	s.Start()
	if next, err := s.NextRun(job.Name()); err == nil {
		a.log.WithFields(map[string]interface{}{
			"job":      job.Name(),
			"schedule": job.Schedule(),
			"next_run": next.Format("2006-01-02 15:04:05 MST"),
		}).Info("Scheduler running, press Ctrl+C to stop")
	}

	<-ctx.Done()
	s.Stop()

	for name, stats := range s.GetJobStats() {
		a.log.WithFields(map[string]interface{}{
			"job":      name,
			"runs":     stats.TotalRuns,
			"failures": stats.FailureCount,
		}).Info("Job summary")
	}

	return nil
}
