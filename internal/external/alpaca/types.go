package alpaca

import (
	"time"

	"github.com/shopspring/decimal"
)

// Alpaca sends money and quantities as JSON strings; decimal.Decimal
// decodes both quoted and bare numbers.

type accountResponse struct {
	ID               string          `json:"id"`
	Status           string          `json:"status"`
	Currency         string          `json:"currency"`
	Equity           decimal.Decimal `json:"equity"`
	Cash             decimal.Decimal `json:"cash"`
	BuyingPower      decimal.Decimal `json:"buying_power"`
	LongMarketValue  decimal.Decimal `json:"long_market_value"`
	ShortMarketValue decimal.Decimal `json:"short_market_value"`
}

type positionResponse struct {
	Symbol      string          `json:"symbol"`
	Qty         decimal.Decimal `json:"qty"`
	Side        string          `json:"side"`
	MarketValue decimal.Decimal `json:"market_value"`
}

type orderRequest struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"time_in_force"`
	ClientOrderID string `json:"client_order_id"`
}

type orderResponse struct {
	ID            string          `json:"id"`
	ClientOrderID string          `json:"client_order_id"`
	Symbol        string          `json:"symbol"`
	Side          string          `json:"side"`
	Qty           decimal.Decimal `json:"qty"`
	Status        string          `json:"status"`
	SubmittedAt   time.Time       `json:"submitted_at"`
}

type latestTradeResponse struct {
	Symbol string `json:"symbol"`
	Trade  struct {
		Timestamp time.Time       `json:"t"`
		Price     decimal.Decimal `json:"p"`
		Size      int64           `json:"s"`
	} `json:"trade"`
}
