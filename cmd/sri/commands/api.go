package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-sri/internal/api"
	"github.com/wonny/aegis-sri/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "BFF API 서버 시작",
	Long: `HTTP API 서버를 시작합니다.

이 서버는:
- 테마 카탈로그 조회
- 계좌 테마 보유 현황 조회
- 리밸런스 계획 미리보기 (항상 dry run, 주문 없음)
- 기록된 실행 조회 (DATABASE_URL 설정 시)

Endpoints:
  GET  /health
  GET  /api/themes
  GET  /api/holdings
  POST /api/plan
  GET  /api/runs/{id}

Example:
  go run ./cmd/sri api --port 8089`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.Flags().StringVarP(&apiPort, "port", "p", "", "server port (default: PORT env or 8089)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	var runs handlers.RunStore
	if a.journal != nil {
		runs = a.journal
	}

	log := a.log.WithComponent("api")
	rebalanceHandler := handlers.NewRebalanceHandler(a.broker, a.orchestrator, a.catalog, runs, log)
	router := api.NewRouter(rebalanceHandler, log, a.healthChecks()...)
	server := api.New(a.cfg, apiPort, log, router)

	fmt.Printf("\n✅ Server running on http://localhost%s\n", server.Addr())
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}
