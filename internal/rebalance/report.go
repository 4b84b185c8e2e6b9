package rebalance

import (
	"github.com/shopspring/decimal"

	"github.com/wonny/aegis-sri/internal/contracts"
	"github.com/wonny/aegis-sri/internal/portfolio"
)

// HoldingsRow is one line of the theme holdings table
type HoldingsRow struct {
	Theme          string          `json:"theme"`
	Symbol         string          `json:"symbol"`
	Qty            int64           `json:"qty"`
	MarketValue    decimal.Decimal `json:"market_value"`
	PercentOfTotal decimal.Decimal `json:"percent_of_portfolio"` // % of equity, 2 places
	Targeted       bool            `json:"targeted"`
}

// HoldingsReport is the theme view of an account at one point in time
type HoldingsReport struct {
	Equity decimal.Decimal `json:"equity"`
	Rows   []HoldingsRow   `json:"rows"`
}

// BuildHoldingsReport lists, in theme order, each theme's holding.
// A theme with a 0% target gets a zero row; a targeted theme that is not
// held is left out.
func BuildHoldingsReport(themes []contracts.Theme, positions []contracts.Position, equity decimal.Decimal) *HoldingsReport {
	held := contracts.PositionIndex(positions)
	report := &HoldingsReport{
		Equity: equity,
		Rows:   make([]HoldingsRow, 0, len(themes)),
	}

	for _, t := range themes {
		if !t.IsActive() {
			report.Rows = append(report.Rows, HoldingsRow{
				Theme:          t.Name,
				Symbol:         t.Symbol,
				MarketValue:    decimal.Zero,
				PercentOfTotal: decimal.Zero,
			})
			continue
		}

		if pos, ok := held[t.Symbol]; ok {
			report.Rows = append(report.Rows, heldRow(t.Name, pos, equity))
		}
	}

	return report
}

// BuildCatalogReport lists every catalog theme that is currently held
func BuildCatalogReport(catalog portfolio.Catalog, positions []contracts.Position, equity decimal.Decimal) *HoldingsReport {
	held := contracts.PositionIndex(positions)
	report := &HoldingsReport{
		Equity: equity,
		Rows:   make([]HoldingsRow, 0, len(catalog)),
	}

	for _, spec := range catalog {
		if pos, ok := held[spec.Symbol]; ok {
			report.Rows = append(report.Rows, heldRow(spec.Name, pos, equity))
		}
	}

	return report
}

func heldRow(theme string, pos contracts.Position, equity decimal.Decimal) HoldingsRow {
	pct := decimal.Zero
	if equity.IsPositive() {
		pct = pos.MarketValue.Div(equity).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return HoldingsRow{
		Theme:          theme,
		Symbol:         pos.Symbol,
		Qty:            pos.Qty,
		MarketValue:    pos.MarketValue,
		PercentOfTotal: pct,
		Targeted:       true,
	}
}
