package alpaca

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-sri/internal/contracts"
	"github.com/wonny/aegis-sri/pkg/config"
	"github.com/wonny/aegis-sri/pkg/httputil"
	"github.com/wonny/aegis-sri/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.AlpacaConfig{
		KeyID:     "key",
		SecretKey: "secret",
		BaseURL:   server.URL + "/",
		DataURL:   server.URL,
	}
	return NewClient(cfg, httputil.New(logger.Nop()).DisableRetry(), logger.Nop())
}

func TestGetAccount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/account", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("APCA-API-KEY-ID"))
		assert.Equal(t, "secret", r.Header.Get("APCA-API-SECRET-KEY"))
		w.Write([]byte(`{
			"id": "acc-1",
			"status": "ACTIVE",
			"equity": "10000.50",
			"cash": "2500.25",
			"buying_power": "5000",
			"long_market_value": "8000.25",
			"short_market_value": "-500"
		}`))
	})

	account, err := client.GetAccount(context.Background())
	require.NoError(t, err)

	assert.True(t, account.Equity.Equal(decimal.RequireFromString("10000.50")))
	assert.True(t, account.ShortMarketValue.Equal(decimal.RequireFromString("-500")))
	assert.True(t, account.AvailableCash().Equal(decimal.RequireFromString("1500.25")), "got %s", account.AvailableCash())
}

func TestListPositions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/positions", r.URL.Path)
		w.Write([]byte(`[
			{"symbol": "PHO", "qty": "60", "side": "long", "market_value": "624.00"},
			{"symbol": "TSLA", "qty": "-3", "side": "short", "market_value": "-750.30"}
		]`))
	})

	positions, err := client.ListPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 2)

	assert.Equal(t, "PHO", positions[0].Symbol)
	assert.True(t, positions[0].MarketValue.Equal(decimal.RequireFromString("624")))
	assert.Equal(t, int64(60), positions[0].Qty)
	assert.Equal(t, int64(-3), positions[1].Qty)
	assert.True(t, positions[1].IsShort())
}

func TestListPositions_FractionalRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"symbol": "PHO", "qty": "1.5", "market_value": "15"}]`))
	})

	_, err := client.ListPositions(context.Background())
	assert.Error(t, err)
}

func TestSubmitMarketDayOrder(t *testing.T) {
	var got orderRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/orders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":              "ord-1",
			"client_order_id": got.ClientOrderID,
			"symbol":          got.Symbol,
			"side":            got.Side,
			"qty":             got.Qty,
			"status":          "accepted",
			"submitted_at":    "2026-10-19T14:30:00Z",
		})
	})

	ack, err := client.SubmitMarketDayOrder(context.Background(), "PHO", 48, contracts.OrderSideBuy)
	require.NoError(t, err)

	assert.Equal(t, "PHO", got.Symbol)
	assert.Equal(t, "48", got.Qty)
	assert.Equal(t, "buy", got.Side)
	assert.Equal(t, "market", got.Type)
	assert.Equal(t, "day", got.TimeInForce)
	_, err = uuid.Parse(got.ClientOrderID)
	assert.NoError(t, err)

	assert.Equal(t, "ord-1", ack.ID)
	assert.Equal(t, got.ClientOrderID, ack.ClientOrderID)
	assert.Equal(t, int64(48), ack.Qty)
	assert.Equal(t, contracts.OrderSideBuy, ack.Side)
	assert.Equal(t, "accepted", ack.Status)
}

func TestSubmitMarketDayOrder_APIError(t *testing.T) {
	attempts := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"code": 40310000, "message": "insufficient buying power"}`))
	})

	_, err := client.SubmitMarketDayOrder(context.Background(), "PHO", 1, contracts.OrderSideBuy)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "insufficient buying power", apiErr.Message)
	assert.Equal(t, 1, attempts)
}

func TestSubmitMarketDayOrder_ZeroQty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := client.SubmitMarketDayOrder(context.Background(), "PHO", 0, contracts.OrderSideSell)
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)
}

func TestGetLastTradePrice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/stocks/PHO/trades/latest", r.URL.Path)
		w.Write([]byte(`{"symbol": "PHO", "trade": {"t": "2026-10-19T14:29:58Z", "p": 10.01, "s": 100}}`))
	})

	price, err := client.GetLastTradePrice(context.Background(), "PHO")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("10.01")), "got %s", price)
}

func TestGetLastTradePrice_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not found", http.StatusNotFound, `{"message": "not found"}`},
		{"plain text error", http.StatusInternalServerError, `boom`},
		{"no trade", http.StatusOK, `{"symbol": "PHO", "trade": {}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.GetLastTradePrice(context.Background(), "PHO")
			assert.Error(t, err)
		})
	}
}
