package contracts

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAccount_AvailableCash(t *testing.T) {
	account := &Account{
		Equity:           dec("10000"),
		LongMarketValue:  dec("6000"),
		ShortMarketValue: dec("-1500"),
	}

	assert.True(t, account.HoldingsValue().Equal(dec("7500")), "got %s", account.HoldingsValue())
	assert.True(t, account.AvailableCash().Equal(dec("2500")), "got %s", account.AvailableCash())
}

func TestAccount_AvailableCashPositiveShortValue(t *testing.T) {
	// Some brokers report short value as a positive number
	account := &Account{
		Equity:           dec("10000"),
		LongMarketValue:  dec("6000"),
		ShortMarketValue: dec("1500"),
	}

	assert.True(t, account.AvailableCash().Equal(dec("2500")))
}

func TestPositionIndex(t *testing.T) {
	index := PositionIndex([]Position{
		{Symbol: "PHO", Qty: 60},
		{Symbol: "TSLA", Qty: -5},
	})

	assert.Len(t, index, 2)
	assert.Equal(t, int64(60), index["PHO"].Qty)

	tsla := index["TSLA"]
	assert.True(t, tsla.IsShort())

	_, ok := index["ICLN"]
	assert.False(t, ok)
}

func TestTheme_IsActive(t *testing.T) {
	active := Theme{TargetFraction: dec("0.5")}
	inactive := Theme{TargetFraction: decimal.Zero}

	assert.True(t, active.IsActive())
	assert.False(t, inactive.IsActive())
}

func TestOrderSide_Opposite(t *testing.T) {
	assert.Equal(t, OrderSideSell, OrderSideBuy.Opposite())
	assert.Equal(t, OrderSideBuy, OrderSideSell.Opposite())
}
