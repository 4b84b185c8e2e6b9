package rebalance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-sri/internal/contracts"
	"github.com/wonny/aegis-sri/internal/portfolio"
)

func TestBuildHoldingsReport(t *testing.T) {
	themes := []contracts.Theme{
		{Name: "Diversified SRI", Symbol: "USSG", TargetFraction: dec("0.2")},
		{Name: "Clean Water", Symbol: "PHO", TargetFraction: dec("0.5")},
		{Name: "Renewable Energy", Symbol: "ICLN", TargetFraction: dec("0")},
	}
	positions := []contracts.Position{
		{Symbol: "PHO", Qty: 48, MarketValue: dec("480")},
		{Symbol: "TSLA", Qty: 1, MarketValue: dec("250")},
	}

	report := BuildHoldingsReport(themes, positions, dec("1500"))

	require.Len(t, report.Rows, 2, "unheld targeted theme omitted")
	assert.Equal(t, "PHO", report.Rows[0].Symbol)
	assert.True(t, report.Rows[0].PercentOfTotal.Equal(dec("32")), "got %s", report.Rows[0].PercentOfTotal)
	assert.True(t, report.Rows[0].Targeted)

	assert.Equal(t, "ICLN", report.Rows[1].Symbol)
	assert.Equal(t, int64(0), report.Rows[1].Qty)
	assert.False(t, report.Rows[1].Targeted)
}

func TestBuildHoldingsReport_ZeroEquity(t *testing.T) {
	report := BuildHoldingsReport(
		[]contracts.Theme{{Name: "Clean Water", Symbol: "PHO", TargetFraction: dec("1")}},
		[]contracts.Position{{Symbol: "PHO", Qty: 1, MarketValue: dec("10")}},
		dec("0"),
	)
	require.Len(t, report.Rows, 1)
	assert.True(t, report.Rows[0].PercentOfTotal.IsZero())
}

func TestBuildCatalogReport(t *testing.T) {
	positions := []contracts.Position{
		{Symbol: "SHE", Qty: 2, MarketValue: dec("200")},
		{Symbol: "PHO", Qty: 10, MarketValue: dec("100")},
		{Symbol: "TSLA", Qty: 1, MarketValue: dec("250")},
	}

	report := BuildCatalogReport(portfolio.DefaultCatalog(), positions, dec("1000"))

	require.Len(t, report.Rows, 2)
	assert.Equal(t, "Clean Water", report.Rows[0].Theme)
	assert.Equal(t, "Gender Diversity", report.Rows[1].Theme)
	assert.True(t, report.Rows[1].PercentOfTotal.Equal(dec("20")))
}
