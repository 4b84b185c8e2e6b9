package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide represents buy or sell
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// Opposite returns the side that closes a position opened with s
func (s OrderSide) Opposite() OrderSide {
	if s == OrderSideBuy {
		return OrderSideSell
	}
	return OrderSideBuy
}

// Purpose tags why an order was submitted
type Purpose string

const (
	PurposeLiquidation Purpose = "liquidation"
	PurposeRebalance   Purpose = "rebalance"
)

// DeltaOrder moves one theme from its current quantity to its target
type DeltaOrder struct {
	Side        OrderSide       `json:"side"`
	Quantity    int64           `json:"quantity"` // always >= 0
	Symbol      string          `json:"symbol"`
	ApproxValue decimal.Decimal `json:"approx_value"` // signed, funding estimate only
}

// LiquidationOrder fully closes a non-target holding
type LiquidationOrder struct {
	Side       OrderSide       `json:"side"`
	Quantity   int64           `json:"quantity"`
	Symbol     string          `json:"symbol"`
	FreedValue decimal.Decimal `json:"freed_value"` // buffered estimate
}

// OrderAck is the brokerage acknowledgement of a submitted order
type OrderAck struct {
	ID            string    `json:"id"`
	ClientOrderID string    `json:"client_order_id"`
	Symbol        string    `json:"symbol"`
	Side          OrderSide `json:"side"`
	Qty           int64     `json:"qty"`
	Status        string    `json:"status"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// SubmittedOrder pairs an acknowledgement with why the order was sent
type SubmittedOrder struct {
	Purpose Purpose  `json:"purpose"`
	Ack     OrderAck `json:"ack"`
}
