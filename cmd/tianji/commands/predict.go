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

// predictCmd represents the predict command
var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "预测单只股票",
	Long: `对单只股票运行完整预测流水线。

流水线按固定顺序执行:
- 数据准备 (拉取 + 时间窗快照)
- 市场分析 / 新闻分析 / 基本面分析 / 宏观分析
- 决策合成 (看涨/看跌 + 预测价格)

Example:
  go run ./cmd/tianji predict --stock 600415
  go run ./cmd/tianji predict --stock 600415 --target 2025-03-20`,
	RunE: runPredict,
}

var (
	predictStock  string
	predictTarget string
)

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().StringVar(&predictStock, "stock", "", "股票代码 (必填)")
	predictCmd.Flags().StringVar(&predictTarget, "target", "", "目标日期 (YYYY-MM-DD, 默认按收盘时间定)")

	predictCmd.MarkFlagRequired("stock")
}

// liveLookbackDays is the market-context window for a live prediction.
const liveLookbackDays = 20

// resolveTarget applies the session-close rule: after 15:00 the next day is
// the one being predicted.
func resolveTarget(now time.Time) time.Time {
	if now.Hour() >= 15 {
		return now.AddDate(0, 0, 1)
	}
	return now
}

func runPredict(cmd *cobra.Command, args []string) error {
	fmt.Println("=== 天机 股票预测 ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	var target time.Time
	if predictTarget != "" {
		target, err = time.Parse("2006-01-02", predictTarget)
		if err != nil {
			return fmt.Errorf("invalid target date: %w", err)
		}
	} else {
		target = resolveTarget(time.Now())
	}
	window, err := contracts.NewTimeWindow(target.AddDate(0, 0, -liveLookbackDays-1), target.AddDate(0, 0, -1))
	if err != nil {
		return err
	}

	sink := contracts.SinkFunc(func(ev contracts.ProgressEvent) {
		if ev.PartialText == "" {
			fmt.Printf("  [%s] %s\n", ev.Stage, ev.Message)
		} else if verbose {
			fmt.Print(ev.PartialText)
		}
	})

	predictor, cleanup, err := buildPredictor(cfg, log, sink)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Printf("\n🔮 预测 %s @ %s\n\n", predictStock, target.Format("2006-01-02"))
	prediction, err := predictor.Predict(context.Background(), predictStock, target, window)
	if err != nil {
		return fmt.Errorf("prediction failed: %w", err)
	}

	direction := "看涨 📈"
	if prediction.Decision.Direction == contracts.DirectionDown {
		direction = "看跌 📉"
	}
	fmt.Println("\n========== 预测结果 ==========")
	fmt.Printf("股票代码: %s\n", predictStock)
	fmt.Printf("目标日期: %s\n", prediction.Target.Format("2006-01-02"))
	fmt.Printf("方向: %s\n", direction)
	fmt.Printf("预测价格: %.2f\n", prediction.Decision.Price)
	fmt.Printf("耗时: %s\n", prediction.Duration.Round(time.Second))
	fmt.Printf("\n✅ 分析全文已保存到 %s/\n", cfg.OutputDir)
	return nil
}
