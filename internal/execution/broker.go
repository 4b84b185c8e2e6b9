package execution

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wonny/aegis-sri/internal/contracts"
)

// PaperBroker is an in-memory contracts.Broker that fills every market
// order immediately at the last set price
// ⭐ 실제 운영에서는 Alpaca 사용
type PaperBroker struct {
	mu        sync.Mutex
	prices    map[string]decimal.Decimal
	positions map[string]int64
	cash      decimal.Decimal
	orders    []contracts.OrderAck
	failAfter int // -1 = never
	now       func() time.Time
}

var _ contracts.Broker = (*PaperBroker)(nil)

// NewPaperBroker creates a paper broker holding cash
func NewPaperBroker(cash decimal.Decimal) *PaperBroker {
	return &PaperBroker{
		prices:    make(map[string]decimal.Decimal),
		positions: make(map[string]int64),
		cash:      cash,
		failAfter: -1,
		now:       time.Now,
	}
}

// SetPrice sets the last trade price of a symbol
func (b *PaperBroker) SetPrice(symbol string, price decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prices[symbol] = price
}

// SetPosition sets a holding directly without touching cash
func (b *PaperBroker) SetPosition(symbol string, qty int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if qty == 0 {
		delete(b.positions, symbol)
		return
	}
	b.positions[symbol] = qty
}

// FailAfter makes every order after the first n submissions fail
func (b *PaperBroker) FailAfter(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failAfter = n
}

// Orders returns acknowledgements in submission order
func (b *PaperBroker) Orders() []contracts.OrderAck {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]contracts.OrderAck, len(b.orders))
	copy(out, b.orders)
	return out
}

// GetLastTradePrice implements contracts.PriceSource
func (b *PaperBroker) GetLastTradePrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	price, ok := b.prices[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("paper broker: no trades for %s", symbol)
	}
	return price, nil
}

// GetAccount implements contracts.AccountSource
func (b *PaperBroker) GetAccount(ctx context.Context) (*contracts.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	long, short := decimal.Zero, decimal.Zero
	for symbol, qty := range b.positions {
		value := b.prices[symbol].Mul(decimal.NewFromInt(qty))
		if qty > 0 {
			long = long.Add(value)
		} else {
			short = short.Add(value)
		}
	}

	equity := b.cash.Add(long).Add(short)
	return &contracts.Account{
		Equity:           equity,
		Cash:             b.cash,
		BuyingPower:      decimal.Max(b.cash, decimal.Zero),
		LongMarketValue:  long,
		ShortMarketValue: short,
	}, nil
}

// ListPositions implements contracts.AccountSource, sorted by symbol
func (b *PaperBroker) ListPositions(ctx context.Context) ([]contracts.Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	positions := make([]contracts.Position, 0, len(b.positions))
	for symbol, qty := range b.positions {
		positions = append(positions, contracts.Position{
			Symbol:      symbol,
			Qty:         qty,
			MarketValue: b.prices[symbol].Mul(decimal.NewFromInt(qty)),
		})
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Symbol < positions[j].Symbol
	})
	return positions, nil
}

// SubmitMarketDayOrder implements contracts.OrderSink
func (b *PaperBroker) SubmitMarketDayOrder(ctx context.Context, symbol string, qty int64, side contracts.OrderSide) (*contracts.OrderAck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if qty <= 0 {
		return nil, fmt.Errorf("paper broker: qty must be > 0, got %d", qty)
	}
	if b.failAfter >= 0 && len(b.orders) >= b.failAfter {
		return nil, fmt.Errorf("paper broker: order rejected for %s", symbol)
	}
	price, ok := b.prices[symbol]
	if !ok {
		return nil, fmt.Errorf("paper broker: no trades for %s", symbol)
	}

	signed := qty
	if side == contracts.OrderSideSell {
		signed = -qty
	}
	b.cash = b.cash.Sub(price.Mul(decimal.NewFromInt(signed)))
	b.positions[symbol] += signed
	if b.positions[symbol] == 0 {
		delete(b.positions, symbol)
	}

	ack := contracts.OrderAck{
		ID:            uuid.NewString(),
		ClientOrderID: uuid.NewString(),
		Symbol:        symbol,
		Side:          side,
		Qty:           qty,
		Status:        "filled",
		SubmittedAt:   b.now(),
	}
	b.orders = append(b.orders, ack)

	return &ack, nil
}
