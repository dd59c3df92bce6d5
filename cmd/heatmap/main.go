package main

import (
	"os"

	"github.com/wonny/heatmap/cmd/heatmap/commands"
)

// main is the entry point for the heatmap CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/heatmap [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
