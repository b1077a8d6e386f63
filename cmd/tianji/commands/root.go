package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tianji",
	Short: "天机 - A股大模型预测系统",
	Long: `天机 Unified CLI

基于深度推理大模型的 A 股预测流水线。
数据采集、四路分析、决策合成、历史回测。

Usage:
  go run ./cmd/tianji [command]

Examples:
  go run ./cmd/tianji predict --stock 600415
  go run ./cmd/tianji backtest --stock 600415 --target 2025-03-20 --days 30
  go run ./cmd/tianji fetch --stock 600415
  go run ./cmd/tianji api`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
