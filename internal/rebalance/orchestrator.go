package rebalance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wonny/aegis-sri/internal/contracts"
	"github.com/wonny/aegis-sri/internal/execution"
	"github.com/wonny/aegis-sri/internal/portfolio"
	"github.com/wonny/aegis-sri/pkg/logger"
)

// Orchestrator drives one read-compute-submit rebalance cycle
// ⭐ SSOT: 리밸런스 순서 조율은 여기서만
//
// Liquidation orders are submitted before delta orders, but nothing waits
// for them to settle. Funding of the delta orders is best-effort.
type Orchestrator struct {
	account     contracts.AccountSource
	orders      contracts.OrderSink
	constructor *portfolio.Constructor
	planner     *execution.Planner
	liquidity   *execution.LiquidityPlanner
	journal     Journal
	logger      *logger.Logger
}

// RunConfig holds the inputs of one run
type RunConfig struct {
	RunID      string
	Allocation portfolio.Allocation
	Amount     *decimal.Decimal // nil = current equity
	DryRun     bool
}

// RunResult holds everything a run computed and submitted
type RunResult struct {
	RunID          string                     `json:"run_id"`
	DryRun         bool                       `json:"dry_run"`
	Success        bool                       `json:"success"`
	Amount         decimal.Decimal            `json:"amount"`
	Account        *contracts.Account         `json:"account,omitempty"`
	Themes         []contracts.Theme          `json:"themes"`
	Deltas         []contracts.DeltaOrder     `json:"deltas"`
	Liquidation    *execution.LiquidationPlan `json:"liquidation,omitempty"`
	Submitted      []contracts.SubmittedOrder `json:"submitted"`
	InitialReport  *HoldingsReport            `json:"initial_report,omitempty"`
	FinalAccount   *contracts.Account         `json:"final_account,omitempty"`
	FinalPositions []contracts.Position       `json:"final_positions,omitempty"`
	FinalReport    *HoldingsReport            `json:"final_report,omitempty"`
	Duration       time.Duration              `json:"duration"`
	Error          error                      `json:"-"`
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(
	account contracts.AccountSource,
	orders contracts.OrderSink,
	constructor *portfolio.Constructor,
	planner *execution.Planner,
	liquidity *execution.LiquidityPlanner,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		account:     account,
		orders:      orders,
		constructor: constructor,
		planner:     planner,
		liquidity:   liquidity,
		logger:      log,
	}
}

// WithJournal records runs and orders in j
func (o *Orchestrator) WithJournal(j Journal) *Orchestrator {
	o.journal = j
	return o
}

// Catalog returns the theme table runs are validated against
func (o *Orchestrator) Catalog() portfolio.Catalog {
	return o.constructor.Catalog()
}

// Run executes one rebalance.
// Validation failures abort before anything is fetched. Any later
// collaborator failure aborts the run; orders already submitted stay
// submitted and are listed in RunResult.Submitted.
func (o *Orchestrator) Run(ctx context.Context, cfg RunConfig) (result *RunResult, err error) {
	startTime := time.Now()

	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	log := o.logger.WithRun(cfg.RunID)

	result = &RunResult{
		RunID:     cfg.RunID,
		DryRun:    cfg.DryRun,
		Submitted: make([]contracts.SubmittedOrder, 0),
	}
	defer func() {
		result.Duration = time.Since(startTime)
		result.Error = err
	}()

	log.WithFields(map[string]interface{}{
		"total":   cfg.Allocation.Total(),
		"dry_run": cfg.DryRun,
	}).Info("Starting rebalance run")

	// 1. 배분 검증 (fatal, 주문 전)
	if err := portfolio.ValidateAllocation(o.Catalog(), cfg.Allocation); err != nil {
		return result, fmt.Errorf("validate allocation: %w", err)
	}

	// 2. 계좌 조회
	account, err := o.account.GetAccount(ctx)
	if err != nil {
		return result, fmt.Errorf("get account: %w", err)
	}
	positions, err := o.account.ListPositions(ctx)
	if err != nil {
		return result, fmt.Errorf("list positions: %w", err)
	}
	result.Account = account

	amount, err := resolveAmount(cfg.Amount, account)
	if err != nil {
		return result, err
	}
	result.Amount = amount

	log.WithFields(map[string]interface{}{
		"amount": amount.StringFixed(2),
		"equity": account.Equity.StringFixed(2),
	}).Info("Amount to allocate resolved")

	if o.journal != nil {
		if err := o.journal.StartRun(ctx, &execution.RunRecord{
			RunID:      cfg.RunID,
			Amount:     amount.String(),
			Allocation: cfg.Allocation,
			DryRun:     cfg.DryRun,
			StartedAt:  startTime,
		}); err != nil {
			return result, fmt.Errorf("journal start run: %w", err)
		}
		defer func() {
			if ferr := o.journal.FinishRun(context.WithoutCancel(ctx), cfg.RunID, err); ferr != nil {
				log.WithError(ferr).Warn("Failed to finish run in journal")
			}
		}()
	}

	// 3. 테마 목표
	themes, err := o.constructor.Construct(ctx, cfg.Allocation, amount)
	if err != nil {
		return result, fmt.Errorf("construct themes: %w", err)
	}
	result.Themes = themes
	result.InitialReport = BuildHoldingsReport(themes, positions, account.Equity)

	if o.journal != nil {
		if err := o.journal.SaveThemes(ctx, cfg.RunID, themes); err != nil {
			log.WithError(err).Warn("Failed to save theme targets")
		}
	}

	// 4. 차이 주문
	result.Deltas = o.planner.Plan(themes, positions)

	// 5~6. 현금 부족 시 청산 계획
	plan, err := o.liquidity.Plan(ctx, result.Deltas, positions, portfolio.ActiveSymbols(themes), account.AvailableCash())
	if err != nil {
		return result, fmt.Errorf("plan liquidation: %w", err)
	}
	result.Liquidation = plan

	if cfg.DryRun {
		log.WithFields(map[string]interface{}{
			"deltas":       len(result.Deltas),
			"liquidations": len(plan.Orders),
		}).Info("Dry run, skipping order submission")
		result.Success = true
		return result, nil
	}

	// 청산 주문 먼저
	for _, lo := range plan.Orders {
		if err := o.submit(ctx, log, result, contracts.PurposeLiquidation, lo.Symbol, lo.Quantity, lo.Side); err != nil {
			return result, err
		}
	}

	// 7. 리밸런스 주문
	for _, d := range result.Deltas {
		if err := o.submit(ctx, log, result, contracts.PurposeRebalance, d.Symbol, d.Quantity, d.Side); err != nil {
			return result, err
		}
	}

	// 8. 최종 보유 현황
	finalAccount, err := o.account.GetAccount(ctx)
	if err != nil {
		return result, fmt.Errorf("get final account: %w", err)
	}
	finalPositions, err := o.account.ListPositions(ctx)
	if err != nil {
		return result, fmt.Errorf("list final positions: %w", err)
	}
	result.FinalAccount = finalAccount
	result.FinalPositions = finalPositions
	result.FinalReport = BuildHoldingsReport(themes, finalPositions, finalAccount.Equity)
	result.Success = true

	log.WithFields(map[string]interface{}{
		"submitted": len(result.Submitted),
		"duration":  time.Since(startTime).Seconds(),
	}).Info("Rebalance run completed")

	return result, nil
}

func (o *Orchestrator) submit(ctx context.Context, log *logger.Logger, result *RunResult, purpose contracts.Purpose, symbol string, qty int64, side contracts.OrderSide) error {
	ack, err := o.orders.SubmitMarketDayOrder(ctx, symbol, qty, side)
	if err != nil {
		log.WithFields(map[string]interface{}{
			"symbol":    symbol,
			"side":      side,
			"qty":       qty,
			"purpose":   purpose,
			"submitted": len(result.Submitted),
		}).WithError(err).Error("Order submission failed, run aborted")
		return fmt.Errorf("submit %s %s %d %s: %w", purpose, side, qty, symbol, err)
	}

	submitted := contracts.SubmittedOrder{Purpose: purpose, Ack: *ack}
	result.Submitted = append(result.Submitted, submitted)

	log.WithFields(map[string]interface{}{
		"symbol":   symbol,
		"side":     side,
		"qty":      qty,
		"purpose":  purpose,
		"order_id": ack.ID,
	}).Info("Order submitted")

	if o.journal != nil {
		if err := o.journal.SaveOrder(ctx, result.RunID, submitted); err != nil {
			log.WithError(err).Warn("Failed to journal order")
		}
	}

	return nil
}

func resolveAmount(override *decimal.Decimal, account *contracts.Account) (decimal.Decimal, error) {
	amount := account.Equity
	if override != nil {
		amount = *override
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount to allocate must be > 0, got %s", contracts.ErrInvalidInput, amount)
	}
	return amount, nil
}
