package execution

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wonny/aegis-sri/internal/contracts"
	"github.com/wonny/aegis-sri/internal/portfolio"
	"github.com/wonny/aegis-sri/pkg/config"
	"github.com/wonny/aegis-sri/pkg/logger"
)

// LiquidationPlan is the outcome of one liquidity check
type LiquidationPlan struct {
	Orders           []contracts.LiquidationOrder `json:"orders"`
	ApproxValueToBuy decimal.Decimal              `json:"approx_value_to_buy"`
	AvailableCash    decimal.Decimal              `json:"available_cash"`
	InitialDeficit   decimal.Decimal              `json:"initial_deficit"`
	RemainingDeficit decimal.Decimal              `json:"remaining_deficit"`
	Needed           bool                         `json:"needed"`
}

// Funded reports whether the liquidations are expected to cover the buys
func (p *LiquidationPlan) Funded() bool {
	return !p.RemainingDeficit.IsPositive()
}

// LiquidityPlanner decides which non-target holdings to close so the
// delta orders can be funded
// ⭐ SSOT: 현금 부족 시 청산 계획은 여기서만
//
// Candidates are taken in symbol order and each one is closed in full.
// The choice is greedy, not cost-minimizing.
type LiquidityPlanner struct {
	prices      contracts.PriceSource
	buffer      decimal.Decimal
	fundingMode string
	logger      *logger.Logger
}

// NewLiquidityPlanner creates a new liquidity planner.
// An empty fundingMode means config.FundingBuysOnly.
func NewLiquidityPlanner(prices contracts.PriceSource, buffer decimal.Decimal, fundingMode string, log *logger.Logger) *LiquidityPlanner {
	if buffer.IsZero() {
		buffer = portfolio.DefaultPriceBuffer
	}
	if fundingMode == "" {
		fundingMode = config.FundingBuysOnly
	}
	return &LiquidityPlanner{
		prices:      prices,
		buffer:      buffer,
		fundingMode: fundingMode,
		logger:      log,
	}
}

// ApproxValueToBuy sums the funding need of the delta orders.
// FundingBuysOnly counts positive values only; FundingNet adds every
// signed value, letting planned sells offset buys.
func ApproxValueToBuy(orders []contracts.DeltaOrder, fundingMode string) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		if fundingMode == config.FundingNet || o.ApproxValue.IsPositive() {
			total = total.Add(o.ApproxValue)
		}
	}
	return total
}

// Plan returns the liquidation orders needed to fund deltas.
// positions not in activeSymbols are candidates. No order is produced
// when the funding need does not exceed availableCash.
func (l *LiquidityPlanner) Plan(
	ctx context.Context,
	deltas []contracts.DeltaOrder,
	positions []contracts.Position,
	activeSymbols map[string]bool,
	availableCash decimal.Decimal,
) (*LiquidationPlan, error) {
	toBuy := ApproxValueToBuy(deltas, l.fundingMode)
	plan := &LiquidationPlan{
		Orders:           make([]contracts.LiquidationOrder, 0),
		ApproxValueToBuy: toBuy,
		AvailableCash:    availableCash,
		InitialDeficit:   decimal.Zero,
		RemainingDeficit: decimal.Zero,
	}

	if !toBuy.GreaterThan(availableCash) {
		l.logger.WithFields(map[string]interface{}{
			"to_buy":    toBuy.StringFixed(2),
			"available": availableCash.StringFixed(2),
		}).Info("Available cash covers orders, no liquidation needed")
		return plan, nil
	}

	deficit := toBuy.Sub(availableCash).Round(2)
	plan.Needed = true
	plan.InitialDeficit = deficit

	l.logger.WithFields(map[string]interface{}{
		"to_buy":    toBuy.StringFixed(2),
		"available": availableCash.StringFixed(2),
		"deficit":   deficit.StringFixed(2),
	}).Warn("Need to free up cash to rebalance")

	for _, pos := range liquidationCandidates(positions, activeSymbols) {
		if !deficit.IsPositive() {
			break
		}

		price, err := l.prices.GetLastTradePrice(ctx, pos.Symbol)
		if err != nil {
			return nil, fmt.Errorf("get last trade price for %s: %w", pos.Symbol, err)
		}

		order := closingOrder(pos)
		order.FreedValue = price.Mul(l.buffer).Mul(decimal.NewFromInt(order.Quantity)).Abs().Round(2)
		deficit = deficit.Sub(order.FreedValue)
		plan.Orders = append(plan.Orders, order)

		l.logger.WithFields(map[string]interface{}{
			"symbol":    order.Symbol,
			"side":      order.Side,
			"qty":       order.Quantity,
			"freed":     order.FreedValue.StringFixed(2),
			"remaining": deficit.StringFixed(2),
		}).Info("Liquidation planned")
	}

	plan.RemainingDeficit = deficit
	if plan.Funded() {
		l.logger.Info("Done freeing up funds to invest")
	} else {
		l.logger.WithField("remaining", deficit.StringFixed(2)).Warn("Non-target holdings exhausted before deficit resolved")
	}

	return plan, nil
}

// liquidationCandidates returns non-target, non-flat holdings sorted by symbol
func liquidationCandidates(positions []contracts.Position, activeSymbols map[string]bool) []contracts.Position {
	candidates := make([]contracts.Position, 0, len(positions))
	for _, p := range positions {
		if activeSymbols[p.Symbol] || p.Qty == 0 {
			continue
		}
		candidates = append(candidates, p)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Symbol < candidates[j].Symbol
	})
	return candidates
}

// closingOrder fully closes pos: buy back a short, sell a long
func closingOrder(pos contracts.Position) contracts.LiquidationOrder {
	if pos.IsShort() {
		return contracts.LiquidationOrder{Side: contracts.OrderSideBuy, Quantity: -pos.Qty, Symbol: pos.Symbol}
	}
	return contracts.LiquidationOrder{Side: contracts.OrderSideSell, Quantity: pos.Qty, Symbol: pos.Symbol}
}
