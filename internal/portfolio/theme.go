package portfolio

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wonny/aegis-sri/internal/contracts"
)

var (
	// DefaultPriceBuffer pads the last trade price so that drift before a
	// market order fills does not leave the account short of cash
	DefaultPriceBuffer = decimal.RequireFromString("1.04")

	hundred = decimal.NewFromInt(100)
)

// ReferencePrice returns lastTradePrice × buffer
func ReferencePrice(lastTradePrice, buffer decimal.Decimal) decimal.Decimal {
	return lastTradePrice.Mul(buffer)
}

// BuildTheme derives share and value targets for one theme using DefaultPriceBuffer
func BuildTheme(spec ThemeSpec, allocationPercent int, lastTradePrice, amount decimal.Decimal) (contracts.Theme, error) {
	return BuildThemeWithBuffer(spec, allocationPercent, lastTradePrice, amount, DefaultPriceBuffer)
}

// BuildThemeWithBuffer derives share and value targets for one theme.
// targetShares = floor(amount × pct/100 / (lastTradePrice × buffer))
func BuildThemeWithBuffer(spec ThemeSpec, allocationPercent int, lastTradePrice, amount, buffer decimal.Decimal) (contracts.Theme, error) {
	if allocationPercent < 0 || allocationPercent > MaxTotalPercent {
		return contracts.Theme{}, fmt.Errorf("%w: allocation for %s must be in [0,100], got %d", contracts.ErrInvalidInput, spec.Key, allocationPercent)
	}
	if !lastTradePrice.IsPositive() {
		return contracts.Theme{}, fmt.Errorf("%w: price for %s must be > 0, got %s", contracts.ErrInvalidInput, spec.Symbol, lastTradePrice)
	}
	if !amount.IsPositive() {
		return contracts.Theme{}, fmt.Errorf("%w: amount must be > 0, got %s", contracts.ErrInvalidInput, amount)
	}
	if !buffer.IsPositive() {
		return contracts.Theme{}, fmt.Errorf("%w: price buffer must be > 0, got %s", contracts.ErrInvalidInput, buffer)
	}

	fraction := decimal.NewFromInt(int64(allocationPercent)).Div(hundred)
	refPrice := ReferencePrice(lastTradePrice, buffer)
	budget := amount.Mul(fraction)

	shares := budget.Div(refPrice).Floor().IntPart()
	// Div rounds at DivisionPrecision; never let that push past the budget
	for shares > 0 && decimal.NewFromInt(shares).Mul(refPrice).GreaterThan(budget) {
		shares--
	}

	value := decimal.NewFromInt(shares).Mul(refPrice)

	return contracts.Theme{
		Key:            spec.Key,
		Name:           spec.Name,
		Symbol:         spec.Symbol,
		TargetFraction: fraction,
		ReferencePrice: refPrice,
		TargetShares:   shares,
		TargetValue:    value,
		ActualFraction: value.Div(amount).Round(4),
	}, nil
}
