package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/wonny/aegis-sri/internal/contracts"
	"github.com/wonny/aegis-sri/internal/execution"
	"github.com/wonny/aegis-sri/internal/rebalance"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일 (stdout 전용)
// ═══════════════════════════════════════════════════════════

const (
	doubleSeparator = "═══════════════════════════════════════════════════════════"
	singleSeparator = "───────────────────────────────────────────────────────────"
)

// usd renders an amount as US dollars, e.g. $1,234.56
func usd(amount decimal.Decimal) string {
	cur := money.GetCurrency(money.USD)
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, money.USD).Display()
}

// printHeader prints a titled section header
func printHeader(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, doubleSeparator)
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintln(w, singleSeparator)
}

// printAccount prints the account summary lines
func printAccount(w io.Writer, account *contracts.Account) {
	fmt.Fprintf(w, "  Equity         : %s\n", usd(account.Equity))
	fmt.Fprintf(w, "  Cash           : %s\n", usd(account.Cash))
	fmt.Fprintf(w, "  Long Value     : %s\n", usd(account.LongMarketValue))
	fmt.Fprintf(w, "  Short Value    : %s\n", usd(account.ShortMarketValue))
	fmt.Fprintf(w, "  Available Cash : %s\n", usd(account.AvailableCash()))
}

// printHoldings prints the Theme | Symbol | Qty | Market Value | % table
func printHoldings(w io.Writer, report *rebalance.HoldingsReport) {
	if report == nil || len(report.Rows) == 0 {
		fmt.Fprintln(w, "  (no theme holdings)")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  Theme\tSymbol\tQty\tMarket Value\t% of Portfolio")
	for _, row := range report.Rows {
		fmt.Fprintf(tw, "  %s\t%s\t%d\t%s\t%s%%\n",
			row.Theme, row.Symbol, row.Qty, usd(row.MarketValue), row.PercentOfTotal.StringFixed(2))
	}
	tw.Flush()
}

// printThemes prints the computed theme targets
func printThemes(w io.Writer, themes []contracts.Theme) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  Theme\tSymbol\tTarget\tRef Price\tShares\tValue\tActual")
	for _, t := range themes {
		fmt.Fprintf(tw, "  %s\t%s\t%s%%\t%s\t%d\t%s\t%s%%\n",
			t.Name, t.Symbol,
			t.TargetFraction.Shift(2).StringFixed(0),
			t.ReferencePrice.StringFixed(4),
			t.TargetShares,
			usd(t.TargetValue),
			t.ActualFraction.Shift(2).StringFixed(2))
	}
	tw.Flush()
}

// printLiquidation prints the liquidity check and its orders
func printLiquidation(w io.Writer, plan *execution.LiquidationPlan) {
	if plan == nil {
		return
	}

	fmt.Fprintf(w, "  To Buy         : %s\n", usd(plan.ApproxValueToBuy))
	fmt.Fprintf(w, "  Available Cash : %s\n", usd(plan.AvailableCash))
	if !plan.Needed {
		fmt.Fprintln(w, "  No liquidation needed")
		return
	}

	fmt.Fprintf(w, "  Deficit        : %s\n", usd(plan.InitialDeficit))
	for _, o := range plan.Orders {
		fmt.Fprintf(w, "  %-4s %6d %-6s frees %s\n", o.Side, o.Quantity, o.Symbol, usd(o.FreedValue))
	}
	if !plan.Funded() {
		fmt.Fprintf(w, "⚠️  Still short by %s after closing every non-target holding\n", usd(plan.RemainingDeficit))
	}
}

// printDeltas prints the delta orders in theme order
func printDeltas(w io.Writer, deltas []contracts.DeltaOrder) {
	if len(deltas) == 0 {
		fmt.Fprintln(w, "  Already on target, no orders")
		return
	}
	for _, d := range deltas {
		fmt.Fprintf(w, "  %-4s %6d %-6s ~ %s\n", d.Side, d.Quantity, d.Symbol, usd(d.ApproxValue))
	}
}

// printSubmitted prints every acknowledged order
func printSubmitted(w io.Writer, orders []contracts.SubmittedOrder) {
	for _, o := range orders {
		fmt.Fprintf(w, "  [%s] %-4s %6d %-6s %s (%s)\n",
			o.Purpose, o.Ack.Side, o.Ack.Qty, o.Ack.Symbol, o.Ack.Status, o.Ack.ID)
	}
}

// printRunResult prints a full run report
func printRunResult(w io.Writer, result *rebalance.RunResult) {
	title := "SRI Rebalance"
	if result.DryRun {
		title += " (dry run)"
	}
	printHeader(w, title)
	fmt.Fprintf(w, "  Run ID    : %s\n", result.RunID)
	fmt.Fprintf(w, "  Amount    : %s\n", usd(result.Amount))

	if result.Account != nil {
		printHeader(w, "Account")
		printAccount(w, result.Account)
	}
	if result.InitialReport != nil {
		printHeader(w, "Current Holdings")
		printHoldings(w, result.InitialReport)
	}
	if len(result.Themes) > 0 {
		printHeader(w, "Theme Targets")
		printThemes(w, result.Themes)
	}
	if result.Liquidation != nil {
		printHeader(w, "Liquidity")
		printLiquidation(w, result.Liquidation)
		printHeader(w, "Delta Orders")
		printDeltas(w, result.Deltas)
	}
	if len(result.Submitted) > 0 {
		printHeader(w, "Submitted Orders")
		printSubmitted(w, result.Submitted)
	}
	if result.FinalReport != nil {
		printHeader(w, "Holdings After Rebalance")
		printHoldings(w, result.FinalReport)
	}

	fmt.Fprintln(w)
	if result.Error != nil {
		fmt.Fprintf(w, "❌ Rebalance failed after %.2fs: %v\n", result.Duration.Seconds(), result.Error)
		return
	}
	fmt.Fprintf(w, "✅ Rebalance completed in %.2fs\n", result.Duration.Seconds())
}
