package alpaca

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

// GetLastTradePrice implements contracts.PriceSource using the latest trade endpoint
func (c *Client) GetLastTradePrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	path := fmt.Sprintf("/v2/stocks/%s/trades/latest", url.PathEscape(symbol))

	var resp latestTradeResponse
	if err := c.request(ctx, http.MethodGet, c.dataURL(path), nil, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("latest trade request for %s: %w", symbol, err)
	}

	if !resp.Trade.Price.IsPositive() {
		return decimal.Zero, fmt.Errorf("no recent trade for %s", symbol)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"price":  resp.Trade.Price.String(),
		"at":     resp.Trade.Timestamp,
	}).Debug("Last trade fetched")

	return resp.Trade.Price, nil
}
