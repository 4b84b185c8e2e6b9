package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-sri/internal/rebalance"
)

// holdingsCmd represents the holdings command
var holdingsCmd = &cobra.Command{
	Use:   "holdings",
	Short: "계좌 및 테마 보유 현황 조회",
	Long: `계좌 요약과 테마 ETF 보유 현황을 출력합니다. 주문은 하지 않습니다.

Example:
  go run ./cmd/sri holdings`,
	RunE: runHoldings,
}

func init() {
	rootCmd.AddCommand(holdingsCmd)
}

func runHoldings(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	account, err := a.broker.GetAccount(ctx)
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}
	positions, err := a.broker.ListPositions(ctx)
	if err != nil {
		return fmt.Errorf("list positions: %w", err)
	}

	printHeader(os.Stdout, "Account")
	printAccount(os.Stdout, account)
	printHeader(os.Stdout, "Theme Holdings")
	printHoldings(os.Stdout, rebalance.BuildCatalogReport(a.catalog, positions, account.Equity))
	fmt.Fprintf(os.Stdout, "\n  %d positions held in total\n", len(positions))

	return nil
}
