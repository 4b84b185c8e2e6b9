package alpaca

import (
	"context"
	"fmt"
	"net/http"

	"github.com/wonny/aegis-sri/internal/contracts"
)

var _ contracts.Broker = (*Client)(nil)

// GetAccount implements contracts.AccountSource
func (c *Client) GetAccount(ctx context.Context) (*contracts.Account, error) {
	var resp accountResponse
	if err := c.request(ctx, http.MethodGet, c.tradingURL("/v2/account"), nil, &resp); err != nil {
		return nil, fmt.Errorf("account request: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"status": resp.Status,
		"equity": resp.Equity.String(),
	}).Debug("Account fetched")

	return &contracts.Account{
		Equity:           resp.Equity,
		Cash:             resp.Cash,
		BuyingPower:      resp.BuyingPower,
		LongMarketValue:  resp.LongMarketValue,
		ShortMarketValue: resp.ShortMarketValue,
	}, nil
}

// ListPositions implements contracts.AccountSource
func (c *Client) ListPositions(ctx context.Context) ([]contracts.Position, error) {
	var resp []positionResponse
	if err := c.request(ctx, http.MethodGet, c.tradingURL("/v2/positions"), nil, &resp); err != nil {
		return nil, fmt.Errorf("positions request: %w", err)
	}

	positions := make([]contracts.Position, 0, len(resp))
	for _, p := range resp {
		// fractional shares are not modeled
		if !p.Qty.Equal(p.Qty.Truncate(0)) {
			return nil, fmt.Errorf("position %s has fractional qty %s", p.Symbol, p.Qty)
		}
		positions = append(positions, contracts.Position{
			Symbol:      p.Symbol,
			Qty:         p.Qty.IntPart(),
			MarketValue: p.MarketValue,
		})
	}

	c.logger.WithField("positions_count", len(positions)).Debug("Positions fetched")

	return positions, nil
}
