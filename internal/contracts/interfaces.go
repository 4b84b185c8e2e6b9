package contracts

import (
	"context"

	"github.com/shopspring/decimal"
)

// AccountSource reads account figures and holdings
// ⭐ SSOT: 계좌 조회 인터페이스
type AccountSource interface {
	GetAccount(ctx context.Context) (*Account, error)
	ListPositions(ctx context.Context) ([]Position, error)
}

// PriceSource returns the most recent trade price of a symbol
// ⭐ SSOT: 시세 조회 인터페이스
type PriceSource interface {
	GetLastTradePrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// OrderSink submits market day orders
// ⭐ SSOT: 주문 제출 인터페이스
type OrderSink interface {
	SubmitMarketDayOrder(ctx context.Context, symbol string, qty int64, side OrderSide) (*OrderAck, error)
}

// Broker bundles the three capabilities a brokerage adapter provides
type Broker interface {
	AccountSource
	PriceSource
	OrderSink
}
