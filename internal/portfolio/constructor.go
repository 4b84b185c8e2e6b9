package portfolio

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wonny/aegis-sri/internal/contracts"
	"github.com/wonny/aegis-sri/pkg/logger"
)

// Constructor builds the theme targets of a run
// ⭐ SSOT: 테마 목표 수량 계산은 여기서만
type Constructor struct {
	catalog Catalog
	prices  contracts.PriceSource
	buffer  decimal.Decimal
	logger  *logger.Logger
}

// NewConstructor creates a new theme constructor
func NewConstructor(catalog Catalog, prices contracts.PriceSource, buffer decimal.Decimal, log *logger.Logger) *Constructor {
	if buffer.IsZero() {
		buffer = DefaultPriceBuffer
	}
	return &Constructor{
		catalog: catalog,
		prices:  prices,
		buffer:  buffer,
		logger:  log,
	}
}

// Catalog returns the theme table this constructor works from
func (c *Constructor) Catalog() Catalog {
	return c.catalog
}

// Construct fetches a last trade price for every requested theme and
// builds its targets. Themes come back in catalog order; keys missing from
// alloc are skipped. The allocation must already be validated.
func (c *Constructor) Construct(ctx context.Context, alloc Allocation, amount decimal.Decimal) ([]contracts.Theme, error) {
	themes := make([]contracts.Theme, 0, len(alloc))

	for _, spec := range c.catalog {
		pct, ok := alloc[spec.Key]
		if !ok {
			continue
		}

		price, err := c.prices.GetLastTradePrice(ctx, spec.Symbol)
		if err != nil {
			return nil, fmt.Errorf("get last trade price for %s: %w", spec.Symbol, err)
		}

		theme, err := BuildThemeWithBuffer(spec, pct, price, amount, c.buffer)
		if err != nil {
			return nil, err
		}

		c.logger.WithFields(map[string]interface{}{
			"theme":           theme.Name,
			"symbol":          theme.Symbol,
			"allocation_pct":  pct,
			"last_price":      price.String(),
			"reference_price": theme.ReferencePrice.StringFixed(4),
			"target_shares":   theme.TargetShares,
		}).Debug("Theme target built")

		themes = append(themes, theme)
	}

	c.logger.WithFields(map[string]interface{}{
		"themes": len(themes),
		"amount": amount.String(),
	}).Info("Theme targets constructed")

	return themes, nil
}

// ActiveSymbols returns the set of symbols covered by the run's themes
func ActiveSymbols(themes []contracts.Theme) map[string]bool {
	symbols := make(map[string]bool, len(themes))
	for _, t := range themes {
		symbols[t.Symbol] = true
	}
	return symbols
}
