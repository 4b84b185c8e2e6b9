package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose   bool
	paperMode bool
	paperCash string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sri",
	Short: "Aegis SRI - 테마형 SRI 포트폴리오 리밸런서",
	Long: `Aegis SRI Rebalancer CLI

Alpaca 계좌를 6개 SRI 테마 ETF 목표 비중으로 리밸런스합니다.
계좌 조회 → 목표 수량 계산 → 델타 주문 → 부족 현금 청산 → 주문 제출.

Usage:
  go run ./cmd/sri [command]

Examples:
  go run ./cmd/sri holdings
  go run ./cmd/sri rebalance run --diversified 40 --water 20 --energy 20 --health 10 --disease 5 --gender 5 --dry-run
  go run ./cmd/sri rebalance apply -f plan.yaml
  go run ./cmd/sri schedule -f plan.yaml --cron "0 35 9 * * MON-FRI"
  go run ./cmd/sri api --port 8089`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs)")
	rootCmd.PersistentFlags().BoolVar(&paperMode, "paper", false, "use the in-memory paper broker (market data still comes from Alpaca)")
	rootCmd.PersistentFlags().StringVar(&paperCash, "paper-cash", "100000", "starting cash of the paper broker")
}
