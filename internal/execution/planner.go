package execution

import (
	"github.com/shopspring/decimal"

	"github.com/wonny/aegis-sri/internal/contracts"
	"github.com/wonny/aegis-sri/pkg/logger"
)

// Planner turns theme targets and current holdings into delta orders
// ⭐ SSOT: 목표 대비 차이 주문 계산은 여기서만
type Planner struct {
	logger *logger.Logger
}

// NewPlanner creates a new delta planner
func NewPlanner(log *logger.Logger) *Planner {
	return &Planner{logger: log}
}

// Plan returns the delta orders for themes, in theme order
func (p *Planner) Plan(themes []contracts.Theme, positions []contracts.Position) []contracts.DeltaOrder {
	orders := PlanDeltas(themes, positions)

	buys, sells := 0, 0
	for _, o := range orders {
		if o.Side == contracts.OrderSideBuy {
			buys++
		} else {
			sells++
		}
	}

	p.logger.WithFields(map[string]interface{}{
		"themes":      len(themes),
		"total_order": len(orders),
		"buy_orders":  buys,
		"sell_orders": sells,
	}).Info("Delta orders planned")

	return orders
}

// PlanDeltas compares each theme's target shares with the held quantity
// (0 when not held). A theme already at target yields no order.
// Pure: identical snapshots always give identical orders.
func PlanDeltas(themes []contracts.Theme, positions []contracts.Position) []contracts.DeltaOrder {
	held := contracts.PositionIndex(positions)
	orders := make([]contracts.DeltaOrder, 0, len(themes))

	for _, theme := range themes {
		var current int64
		if pos, ok := held[theme.Symbol]; ok {
			current = pos.Qty
		}

		delta := theme.TargetShares - current
		if delta == 0 {
			continue
		}

		side := contracts.OrderSideBuy
		qty := delta
		if delta < 0 {
			side = contracts.OrderSideSell
			qty = -delta
		}

		orders = append(orders, contracts.DeltaOrder{
			Side:        side,
			Quantity:    qty,
			Symbol:      theme.Symbol,
			ApproxValue: decimal.NewFromInt(delta).Mul(theme.ReferencePrice),
		})
	}

	return orders
}
