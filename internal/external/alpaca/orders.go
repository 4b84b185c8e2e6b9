package alpaca

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/wonny/aegis-sri/internal/contracts"
)

// Order types used by the rebalancer
const (
	OrderTypeMarket = "market"
	TimeInForceDay  = "day"
)

// SubmitMarketDayOrder implements contracts.OrderSink.
// Each call carries a fresh client_order_id; the request is never retried.
func (c *Client) SubmitMarketDayOrder(ctx context.Context, symbol string, qty int64, side contracts.OrderSide) (*contracts.OrderAck, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: order qty must be > 0, got %d", contracts.ErrInvalidInput, qty)
	}

	reqBody := orderRequest{
		Symbol:        symbol,
		Qty:           strconv.FormatInt(qty, 10),
		Side:          string(side),
		Type:          OrderTypeMarket,
		TimeInForce:   TimeInForceDay,
		ClientOrderID: uuid.NewString(),
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal order request: %w", err)
	}

	var resp orderResponse
	if err := c.request(ctx, http.MethodPost, c.tradingURL("/v2/orders"), bytes.NewReader(body), &resp); err != nil {
		return nil, fmt.Errorf("order request: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"order_id":        resp.ID,
		"client_order_id": reqBody.ClientOrderID,
		"symbol":          symbol,
		"side":            side,
		"qty":             qty,
		"status":          resp.Status,
	}).Info("Order submitted")

	return &contracts.OrderAck{
		ID:            resp.ID,
		ClientOrderID: reqBody.ClientOrderID,
		Symbol:        resp.Symbol,
		Side:          contracts.OrderSide(resp.Side),
		Qty:           resp.Qty.IntPart(),
		Status:        resp.Status,
		SubmittedAt:   resp.SubmittedAt,
	}, nil
}
