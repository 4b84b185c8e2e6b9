package rebalance

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-sri/internal/contracts"
	"github.com/wonny/aegis-sri/internal/execution"
	"github.com/wonny/aegis-sri/internal/portfolio"
	"github.com/wonny/aegis-sri/pkg/config"
	"github.com/wonny/aegis-sri/pkg/logger"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestOrchestrator(b *execution.PaperBroker) *Orchestrator {
	log := logger.Nop()
	return NewOrchestrator(
		b, b,
		portfolio.NewConstructor(portfolio.DefaultCatalog(), b, portfolio.DefaultPriceBuffer, log),
		execution.NewPlanner(log),
		execution.NewLiquidityPlanner(b, portfolio.DefaultPriceBuffer, config.FundingBuysOnly, log),
		log,
	)
}

type recordingJournal struct {
	started  []string
	themes   int
	orders   []contracts.SubmittedOrder
	finished []error
}

func (j *recordingJournal) StartRun(_ context.Context, run *execution.RunRecord) error {
	j.started = append(j.started, run.RunID)
	return nil
}

func (j *recordingJournal) SaveThemes(_ context.Context, _ string, themes []contracts.Theme) error {
	j.themes = len(themes)
	return nil
}

func (j *recordingJournal) SaveOrder(_ context.Context, _ string, order contracts.SubmittedOrder) error {
	j.orders = append(j.orders, order)
	return nil
}

func (j *recordingJournal) FinishRun(_ context.Context, _ string, runErr error) error {
	j.finished = append(j.finished, runErr)
	return nil
}

func TestRun_SingleThemeBuy(t *testing.T) {
	b := execution.NewPaperBroker(dec("5000"))
	b.SetPrice("PHO", dec("10"))
	amount := dec("1000")

	result, err := newTestOrchestrator(b).Run(context.Background(), RunConfig{
		Allocation: portfolio.Allocation{"water": 50},
		Amount:     &amount,
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.NotEmpty(t, result.RunID)
	require.Len(t, result.Themes, 1)
	assert.Equal(t, int64(48), result.Themes[0].TargetShares)
	assert.False(t, result.Liquidation.Needed)

	orders := b.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, "PHO", orders[0].Symbol)
	assert.Equal(t, contracts.OrderSideBuy, orders[0].Side)
	assert.Equal(t, int64(48), orders[0].Qty)

	require.Len(t, result.FinalReport.Rows, 1)
	assert.Equal(t, int64(48), result.FinalReport.Rows[0].Qty)
}

func TestRun_AllocationOver100SubmitsNothing(t *testing.T) {
	b := execution.NewPaperBroker(dec("5000"))
	for _, s := range []string{"USSG", "PHO", "ICLN", "BFIT"} {
		b.SetPrice(s, dec("10"))
	}

	result, err := newTestOrchestrator(b).Run(context.Background(), RunConfig{
		Allocation: portfolio.Allocation{"diversified": 30, "water": 30, "energy": 30, "health": 20},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrAllocationExceeded)
	assert.False(t, result.Success)
	assert.Empty(t, result.Themes)
	assert.Empty(t, result.Submitted)
	assert.Empty(t, b.Orders())
}

func TestRun_LiquidatesBeforeDeltas(t *testing.T) {
	b := execution.NewPaperBroker(dec("500"))
	b.SetPrice("PHO", dec("10"))
	b.SetPrice("AAA", dec("19.2308"))
	b.SetPosition("AAA", 100)

	result, err := newTestOrchestrator(b).Run(context.Background(), RunConfig{
		Allocation: portfolio.Allocation{"water": 100},
	})
	require.NoError(t, err)

	require.True(t, result.Liquidation.Needed)
	require.Len(t, result.Submitted, 2)
	assert.Equal(t, contracts.PurposeLiquidation, result.Submitted[0].Purpose)
	assert.Equal(t, "AAA", result.Submitted[0].Ack.Symbol)
	assert.Equal(t, contracts.OrderSideSell, result.Submitted[0].Ack.Side)
	assert.Equal(t, int64(100), result.Submitted[0].Ack.Qty)
	assert.Equal(t, contracts.PurposeRebalance, result.Submitted[1].Purpose)
	assert.Equal(t, "PHO", result.Submitted[1].Ack.Symbol)
	assert.Equal(t, int64(232), result.Submitted[1].Ack.Qty)

	for _, p := range result.FinalPositions {
		assert.NotEqual(t, "AAA", p.Symbol)
	}
}

func TestRun_PartialSubmissionIsReported(t *testing.T) {
	b := execution.NewPaperBroker(dec("500"))
	b.SetPrice("PHO", dec("10"))
	b.SetPrice("AAA", dec("19.2308"))
	b.SetPosition("AAA", 100)
	b.FailAfter(1)

	journal := &recordingJournal{}
	result, err := newTestOrchestrator(b).WithJournal(journal).Run(context.Background(), RunConfig{
		RunID:      "run-1",
		Allocation: portfolio.Allocation{"water": 100},
	})

	require.Error(t, err)
	assert.False(t, result.Success)
	require.Len(t, result.Submitted, 1, "liquidation stays submitted")
	assert.Equal(t, contracts.PurposeLiquidation, result.Submitted[0].Purpose)
	assert.Nil(t, result.FinalAccount)

	assert.Equal(t, []string{"run-1"}, journal.started)
	assert.Len(t, journal.orders, 1)
	require.Len(t, journal.finished, 1)
	assert.Error(t, journal.finished[0])
}

func TestRun_DryRunSubmitsNothing(t *testing.T) {
	b := execution.NewPaperBroker(dec("500"))
	b.SetPrice("PHO", dec("10"))
	b.SetPrice("AAA", dec("19.2308"))
	b.SetPosition("AAA", 100)

	result, err := newTestOrchestrator(b).Run(context.Background(), RunConfig{
		Allocation: portfolio.Allocation{"water": 100},
		DryRun:     true,
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Len(t, result.Deltas, 1)
	assert.Len(t, result.Liquidation.Orders, 1)
	assert.Empty(t, result.Submitted)
	assert.Empty(t, b.Orders())
}

func TestRun_RebalancesExistingHolding(t *testing.T) {
	b := execution.NewPaperBroker(dec("0"))
	b.SetPrice("PHO", dec("10"))
	b.SetPrice("ICLN", dec("20"))
	b.SetPosition("PHO", 60)
	amount := dec("1000")

	journal := &recordingJournal{}
	result, err := newTestOrchestrator(b).WithJournal(journal).Run(context.Background(), RunConfig{
		Allocation: portfolio.Allocation{"water": 50, "energy": 0},
		Amount:     &amount,
	})
	require.NoError(t, err)

	require.Len(t, result.Deltas, 1)
	assert.Equal(t, contracts.OrderSideSell, result.Deltas[0].Side)
	assert.Equal(t, int64(12), result.Deltas[0].Quantity)
	assert.Equal(t, 2, journal.themes)
	require.Len(t, journal.finished, 1)
	assert.NoError(t, journal.finished[0])

	// energy row is reported as a zero row
	require.Len(t, result.FinalReport.Rows, 2)
	assert.Equal(t, "Renewable Energy", result.FinalReport.Rows[1].Theme)
	assert.False(t, result.FinalReport.Rows[1].Targeted)
}

func TestRun_InvalidAmount(t *testing.T) {
	b := execution.NewPaperBroker(dec("0"))
	b.SetPrice("PHO", dec("10"))

	_, err := newTestOrchestrator(b).Run(context.Background(), RunConfig{
		Allocation: portfolio.Allocation{"water": 50},
	})
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)
}

type failingAccount struct{ *execution.PaperBroker }

func (failingAccount) ListPositions(context.Context) ([]contracts.Position, error) {
	return nil, errors.New("connection reset")
}

func TestRun_AccountFailurePropagates(t *testing.T) {
	b := execution.NewPaperBroker(dec("1000"))
	log := logger.Nop()
	o := NewOrchestrator(
		failingAccount{b}, b,
		portfolio.NewConstructor(portfolio.DefaultCatalog(), b, decimal.Zero, log),
		execution.NewPlanner(log),
		execution.NewLiquidityPlanner(b, decimal.Zero, "", log),
		log,
	)

	_, err := o.Run(context.Background(), RunConfig{Allocation: portfolio.Allocation{"water": 50}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Empty(t, b.Orders())
}
