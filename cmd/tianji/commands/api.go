package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haolin/tianji/backend/internal/api"
	"github.com/haolin/tianji/backend/internal/api/handlers"
	"github.com/haolin/tianji/backend/internal/progress"
	"github.com/haolin/tianji/backend/pkg/config"
	"github.com/haolin/tianji/backend/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "启动 API 服务器",
	Long: `启动 REST + WebSocket API 服务器。

Endpoints:
  GET  /health                              - Health check
  POST /api/predict/agent                   - 实时预测
  GET  /api/stock/historical/{stock_code}   - 最近20日行情
  WS   /ws                                  - 分析进度推送

Example:
  go run ./cmd/tianji api
  go run ./cmd/tianji api --port 8089`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 服务器端口")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== 天机 API Server ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	hub := progress.NewHub(log)
	defer hub.Close()

	predictor, cleanup, err := buildPredictor(cfg, log, hub)
	if err != nil {
		return err
	}
	defer cleanup()

	predictHandler := handlers.NewPredictHandler(predictor, log)
	stockHandler := handlers.NewStockHandler(cfg.DataDir, log)
	router := api.NewRouter(predictHandler, stockHandler, hub, log)
	server := api.New(cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  POST /api/predict/agent")
	fmt.Println("  GET  /api/stock/historical/{stock_code}")
	fmt.Println("  WS   /ws")
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
