package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/wonny/aegis-sri/internal/contracts"
	"github.com/wonny/aegis-sri/internal/portfolio"
	"github.com/wonny/aegis-sri/internal/rebalance"
	"github.com/wonny/aegis-sri/internal/strategyconfig"
)

// rebalanceCmd represents the rebalance command
var rebalanceCmd = &cobra.Command{
	Use:   "rebalance",
	Short: "포트폴리오 리밸런스",
	Long: `계좌를 테마 목표 비중으로 리밸런스합니다.

Subcommands:
  run     - 플래그로 비중을 지정해 실행
  apply   - YAML 계획 파일로 실행

주문은 시장가 DAY 주문입니다. 부족 현금은 목표 밖 보유 종목을
심볼 순서로 전량 청산해서 마련합니다.`,
}

var (
	runAmount     string
	runDryRun     bool
	themePercents = make(map[string]*int)

	rebalanceRunCmd = &cobra.Command{
		Use:   "run",
		Short: "플래그로 지정한 비중으로 리밸런스",
		Long: `6개 테마 비중(%)을 모두 지정해야 합니다. 합계는 100 이하.

Example:
  go run ./cmd/sri rebalance run --diversified 40 --water 20 --energy 20 \
      --health 10 --disease 5 --gender 5 --amount 25000 --dry-run`,
		RunE: runRebalance,
	}

	applyFile   string
	applyDryRun bool

	rebalanceApplyCmd = &cobra.Command{
		Use:   "apply",
		Short: "YAML 계획 파일로 리밸런스",
		Long: `계획 파일(meta / rebalance / themes / schedule)을 읽어 한 번 실행합니다.
--dry-run 은 파일의 dry_run 설정보다 우선합니다.

Example:
  go run ./cmd/sri rebalance apply -f plans/core.yaml --dry-run`,
		RunE: runApply,
	}
)

func init() {
	rootCmd.AddCommand(rebalanceCmd)
	rebalanceCmd.AddCommand(rebalanceRunCmd)
	rebalanceCmd.AddCommand(rebalanceApplyCmd)

	rebalanceRunCmd.Flags().StringVar(&runAmount, "amount", "", "dollar amount to allocate (default: account equity)")
	rebalanceRunCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "plan only, submit nothing")
	for _, spec := range portfolio.DefaultCatalog() {
		pct := new(int)
		themePercents[spec.Key] = pct
		rebalanceRunCmd.Flags().IntVar(pct, spec.Key, 0, fmt.Sprintf("%% allocated to %s (%s)", spec.Name, spec.Symbol))
		_ = rebalanceRunCmd.MarkFlagRequired(spec.Key)
	}

	rebalanceApplyCmd.Flags().StringVarP(&applyFile, "file", "f", "", "allocation plan file (YAML)")
	rebalanceApplyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "plan only, submit nothing")
	_ = rebalanceApplyCmd.MarkFlagRequired("file")
}

// signalContext returns a context cancelled on Ctrl+C or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runRebalance(cmd *cobra.Command, args []string) error {
	amount, err := parseAmount(runAmount)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	return executeRun(ctx, a, rebalance.RunConfig{
		Allocation: allocationFromFlags(a.catalog, themePercents),
		Amount:     amount,
		DryRun:     runDryRun,
	})
}

func runApply(cmd *cobra.Command, args []string) error {
	plan, _, err := strategyconfig.Load(applyFile)
	if err != nil {
		return err
	}
	if err := strategyconfig.Validate(plan); err != nil {
		return err
	}
	amount, err := plan.Amount()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, plan.Catalog())
	if err != nil {
		return err
	}
	defer a.Close()

	a.log.WithFields(map[string]interface{}{
		"plan_id": plan.Meta.PlanID,
		"version": plan.Meta.Version,
		"file":    applyFile,
	}).Info("Applying allocation plan")

	return executeRun(ctx, a, rebalance.RunConfig{
		Allocation: plan.Allocation(),
		Amount:     amount,
		DryRun:     plan.Rebalance.DryRun || applyDryRun,
	})
}

// executeRun runs the orchestrator and prints the report, including a
// partial one when the run aborts
func executeRun(ctx context.Context, a *app, cfg rebalance.RunConfig) error {
	result, err := a.orchestrator.Run(ctx, cfg)
	if result != nil {
		printRunResult(os.Stdout, result)
	}
	if err != nil {
		return fmt.Errorf("rebalance failed: %w", err)
	}
	return nil
}

// allocationFromFlags builds an allocation in catalog order from the
// per-theme percent flags
func allocationFromFlags(catalog portfolio.Catalog, percents map[string]*int) portfolio.Allocation {
	alloc := make(portfolio.Allocation, len(catalog))
	for _, spec := range catalog {
		if pct, ok := percents[spec.Key]; ok && pct != nil {
			alloc[spec.Key] = *pct
		}
	}
	return alloc
}

// parseAmount parses --amount; empty means use account equity
func parseAmount(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid --amount %q: %w", s, contracts.ErrInvalidInput)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("--amount must be positive, got %s: %w", s, contracts.ErrInvalidInput)
	}
	return &amount, nil
}
