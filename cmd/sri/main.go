package main

import (
	"os"

	"github.com/wonny/aegis-sri/cmd/sri/commands"
)

// main is the entry point for the SRI rebalancer CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/sri [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
