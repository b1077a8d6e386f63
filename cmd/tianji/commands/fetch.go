package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/haolin/tianji/backend/internal/contracts"
	"github.com/haolin/tianji/backend/pkg/config"
	"github.com/haolin/tianji/backend/pkg/logger"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "拉取股票数据",
	Long: `从东方财富拉取单只股票的全部数据集:

- 日线行情 (前复权)
- 相关新闻
- 基本面 (主营介绍 / 主营构成 / 关键指标 / 分红送配)
- 宏观数据 (CPI / GDP / PMI / 货币供应量 / LPR)

Example:
  go run ./cmd/tianji fetch --stock 600415
  go run ./cmd/tianji fetch --stock 600415 --days 365`,
	RunE: runFetch,
}

var (
	fetchStock string
	fetchDays  int
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchStock, "stock", "", "股票代码 (必填)")
	fetchCmd.Flags().IntVar(&fetchDays, "days", 180, "日线回看天数")

	fetchCmd.MarkFlagRequired("stock")
}

func runFetch(cmd *cobra.Command, args []string) error {
	fmt.Println("=== 天机 数据拉取 ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	acquirer, cleanup, err := buildAcquirer(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	now := time.Now()
	window, err := contracts.NewTimeWindow(now.AddDate(0, 0, -fetchDays), now)
	if err != nil {
		return err
	}

	fmt.Printf("\n🔄 拉取 %s (近%d天)\n", fetchStock, fetchDays)
	if err := acquirer.EnsureWindow(context.Background(), fetchStock, window); err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	fmt.Printf("\n✅ 数据已保存到 %s/%s/\n", cfg.DataDir, fetchStock)
	return nil
}
