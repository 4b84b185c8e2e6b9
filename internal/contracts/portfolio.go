package contracts

import "github.com/shopspring/decimal"

// Theme is one thematic target of a rebalance run
// ⭐ 계약: Allocation이 Theme을 만들고, 이후에는 읽기 전용
type Theme struct {
	Key            string          `json:"key"`
	Name           string          `json:"name"`
	Symbol         string          `json:"symbol"`
	TargetFraction decimal.Decimal `json:"target_fraction"` // 0.0 ~ 1.0
	ReferencePrice decimal.Decimal `json:"reference_price"` // last trade × buffer
	TargetShares   int64           `json:"target_shares"`
	TargetValue    decimal.Decimal `json:"target_value"`
	ActualFraction decimal.Decimal `json:"actual_fraction"` // reporting only
}

// IsActive reports whether the theme asks for a non-zero allocation
func (t *Theme) IsActive() bool {
	return t.TargetFraction.IsPositive()
}

// Position is a read-only brokerage holding snapshot
type Position struct {
	Symbol      string          `json:"symbol"`
	Qty         int64           `json:"qty"` // negative = short
	MarketValue decimal.Decimal `json:"market_value"`
}

// IsShort reports whether the position is a short
func (p *Position) IsShort() bool {
	return p.Qty < 0
}

// Account is the brokerage account snapshot the core reads
type Account struct {
	Equity           decimal.Decimal `json:"equity"`
	Cash             decimal.Decimal `json:"cash"`
	BuyingPower      decimal.Decimal `json:"buying_power"`
	LongMarketValue  decimal.Decimal `json:"long_market_value"`
	ShortMarketValue decimal.Decimal `json:"short_market_value"` // reported negative by most brokers
}

// HoldingsValue returns long + |short| market value
func (a *Account) HoldingsValue() decimal.Decimal {
	return a.LongMarketValue.Add(a.ShortMarketValue.Abs())
}

// AvailableCash returns equity - (long + |short|)
func (a *Account) AvailableCash() decimal.Decimal {
	return a.Equity.Sub(a.HoldingsValue())
}

// PositionIndex maps positions by symbol.
// Later duplicates overwrite earlier ones; brokers report one row per symbol.
func PositionIndex(positions []Position) map[string]Position {
	index := make(map[string]Position, len(positions))
	for _, p := range positions {
		index[p.Symbol] = p
	}
	return index
}
