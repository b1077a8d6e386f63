package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/haolin/tianji/backend/internal/backtest"
	"github.com/haolin/tianji/backend/pkg/config"
	"github.com/haolin/tianji/backend/pkg/logger"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "历史回测",
	Long: `对过去一段时间逐日重放预测流水线并统计准确率。

每个重放日只能看到该日之前的数据,预测结果与实际
涨跌对比后给出:
- 总体方向准确率
- 预测上涨/下跌时的准确率
- 实际上涨/下跌时的准确率

Flags:
  --stock     股票代码 (必填)
  --target    回测截止日期 (YYYY-MM-DD, 默认: 今天)
  --days      回测天数 (默认: 30)
  --fail-fast 单日失败即中止

Example:
  go run ./cmd/tianji backtest --stock 600415 --days 30
  go run ./cmd/tianji backtest --stock 600415 --target 2025-03-20 --days 60`,
	RunE: runBacktestCmd,
}

var (
	backtestStock    string
	backtestTarget   string
	backtestDays     int
	backtestFailFast bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVar(&backtestStock, "stock", "", "股票代码 (必填)")
	backtestCmd.Flags().StringVar(&backtestTarget, "target", "", "回测截止日期 (YYYY-MM-DD)")
	backtestCmd.Flags().IntVar(&backtestDays, "days", 30, "回测天数")
	backtestCmd.Flags().BoolVar(&backtestFailFast, "fail-fast", false, "单日失败即中止")

	backtestCmd.MarkFlagRequired("stock")
}

func runBacktestCmd(cmd *cobra.Command, args []string) error {
	fmt.Println("=== 天机 历史回测 ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	targetDate := time.Now()
	if backtestTarget != "" {
		targetDate, err = time.Parse("2006-01-02", backtestTarget)
		if err != nil {
			return fmt.Errorf("invalid target date: %w", err)
		}
	}

	// Backtests replay from local data only; a dead upstream should not
	// change historical results.
	predictor, cleanup, err := buildPredictor(cfg, log, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	engine := backtest.NewEngine(cfg.DataDir, predictor, log)
	result, err := engine.Run(context.Background(), backtest.Config{
		StockCode:  backtestStock,
		TargetDate: targetDate,
		DaysBefore: backtestDays,
		FailFast:   backtestFailFast,
	})
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	fmt.Println()
	fmt.Print(result.Stats.Format())

	if len(result.FailedDates) > 0 {
		fmt.Printf("\n❌ 失败日期 (%d):\n", len(result.FailedDates))
		for _, d := range result.FailedDates {
			fmt.Printf("  %s\n", d.Format("2006-01-02"))
		}
	}

	detailsPath, err := backtest.WriteDetails(cfg.ResultsDir, result, targetDate)
	if err != nil {
		return fmt.Errorf("write details: %w", err)
	}
	fmt.Printf("\n✅ 明细已保存: %s\n", detailsPath)
	fmt.Printf("耗时: %s\n", result.Duration.Round(time.Second))
	return nil
}
