package execution

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-sri/internal/contracts"
	"github.com/wonny/aegis-sri/pkg/logger"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func theme(symbol string, shares int64, refPrice string) contracts.Theme {
	return contracts.Theme{
		Key:            symbol,
		Symbol:         symbol,
		TargetFraction: dec("0.1"),
		ReferencePrice: dec(refPrice),
		TargetShares:   shares,
	}
}

func TestPlanDeltas_NoPositionBuysTarget(t *testing.T) {
	orders := PlanDeltas([]contracts.Theme{theme("PHO", 48, "10.4")}, nil)

	require.Len(t, orders, 1)
	assert.Equal(t, contracts.OrderSideBuy, orders[0].Side)
	assert.Equal(t, int64(48), orders[0].Quantity)
	assert.Equal(t, "PHO", orders[0].Symbol)
	assert.True(t, orders[0].ApproxValue.Equal(dec("499.2")), "got %s", orders[0].ApproxValue)
}

func TestPlanDeltas_OverweightSells(t *testing.T) {
	orders := PlanDeltas(
		[]contracts.Theme{theme("PHO", 48, "10.4")},
		[]contracts.Position{{Symbol: "PHO", Qty: 60}},
	)

	require.Len(t, orders, 1)
	assert.Equal(t, contracts.OrderSideSell, orders[0].Side)
	assert.Equal(t, int64(12), orders[0].Quantity)
	assert.True(t, orders[0].ApproxValue.Equal(dec("-124.8")), "got %s", orders[0].ApproxValue)
}

func TestPlanDeltas_AtTargetEmitsNothing(t *testing.T) {
	orders := PlanDeltas(
		[]contracts.Theme{theme("PHO", 48, "10.4")},
		[]contracts.Position{{Symbol: "PHO", Qty: 48}},
	)
	assert.Empty(t, orders)
}

func TestPlanDeltas_ShortPositionBuysBack(t *testing.T) {
	orders := PlanDeltas(
		[]contracts.Theme{theme("ICLN", 10, "20")},
		[]contracts.Position{{Symbol: "ICLN", Qty: -5}},
	)

	require.Len(t, orders, 1)
	assert.Equal(t, contracts.OrderSideBuy, orders[0].Side)
	assert.Equal(t, int64(15), orders[0].Quantity)
}

func TestPlanDeltas_Properties(t *testing.T) {
	themes := []contracts.Theme{
		theme("USSG", 10, "30"),
		theme("PHO", 48, "10.4"),
		theme("ICLN", 0, "12"),
		theme("SHE", 7, "80"),
	}
	positions := []contracts.Position{
		{Symbol: "SHE", Qty: 7},
		{Symbol: "ICLN", Qty: 3},
		{Symbol: "PHO", Qty: 60},
		{Symbol: "TSLA", Qty: 100},
	}

	orders := PlanDeltas(themes, positions)
	held := contracts.PositionIndex(positions)

	// theme order preserved, SHE skipped, TSLA ignored
	require.Len(t, orders, 3)
	assert.Equal(t, []string{"USSG", "PHO", "ICLN"}, []string{orders[0].Symbol, orders[1].Symbol, orders[2].Symbol})

	bySymbol := make(map[string]contracts.Theme)
	for _, th := range themes {
		bySymbol[th.Symbol] = th
	}
	for _, o := range orders {
		th := bySymbol[o.Symbol]
		delta := th.TargetShares - held[o.Symbol].Qty
		if delta < 0 {
			assert.Equal(t, contracts.OrderSideSell, o.Side)
			assert.Equal(t, -delta, o.Quantity)
		} else {
			assert.Equal(t, contracts.OrderSideBuy, o.Side)
			assert.Equal(t, delta, o.Quantity)
		}
		assert.Positive(t, o.Quantity)
	}

	// idempotent over identical snapshots
	assert.Equal(t, orders, PlanDeltas(themes, positions))
}

func TestPlanner_Plan(t *testing.T) {
	p := NewPlanner(logger.Nop())
	orders := p.Plan([]contracts.Theme{theme("PHO", 48, "10.4")}, nil)
	assert.Len(t, orders, 1)
}
