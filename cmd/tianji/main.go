package main

import (
	"os"

	"github.com/haolin/tianji/backend/cmd/tianji/commands"
)

// main is the entry point for the Tianji CLI
// ⭐ 统一 CLI 入口: go run ./cmd/tianji [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
