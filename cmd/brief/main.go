package main

import (
	"os"

	"github.com/wonny/dailybrief/cmd/brief/commands"
)

// main is the entry point for the daily brief CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/brief [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
