package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/haolin/tianji/backend/internal/scheduler"
	"github.com/haolin/tianji/backend/internal/scheduler/jobs"
	"github.com/haolin/tianji/backend/pkg/config"
	"github.com/haolin/tianji/backend/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "启动定时任务",
	Long: `启动定时任务守护进程。

目前只有一个任务:
- data_refresh: 每个交易日收盘后刷新 STOCK_CODES 配置的股票数据

Example:
  go run ./cmd/tianji scheduler
  go run ./cmd/tianji scheduler --run-now`,
	RunE: runScheduler,
}

var schedulerRunNow bool

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().BoolVar(&schedulerRunNow, "run-now", false, "启动后立即执行一次刷新")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== 天机 Scheduler ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	if len(cfg.StockCodes) == 0 {
		return fmt.Errorf("no stock codes configured (set STOCK_CODES)")
	}

	acquirer, cleanup, err := buildAcquirer(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	sched := scheduler.New(log)
	refreshJob := jobs.NewDataRefreshJob(acquirer, cfg.StockCodes, cfg.RefreshSchedule, log)
	if err := sched.AddJob(refreshJob); err != nil {
		return fmt.Errorf("add refresh job: %w", err)
	}

	sched.Start()
	defer sched.Stop()

	if schedulerRunNow {
		if err := sched.RunJob(refreshJob.Name()); err != nil {
			return err
		}
	}

	fmt.Printf("\n✅ Scheduler running, %d stocks on %q\n", len(cfg.StockCodes), cfg.RefreshSchedule)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	return nil
}
