// Package acquire keeps the local CSV datasets in sync with Eastmoney.
// Every fetch is idempotent: fresh files are skipped, stale or missing ones
// are refetched, and a single failed dataset never aborts the whole refresh.
package acquire

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/haolin/tianji/backend/internal/contracts"
	"github.com/haolin/tianji/backend/pkg/config"
	"github.com/haolin/tianji/backend/pkg/httputil"
	"github.com/haolin/tianji/backend/pkg/logger"
)

// Per-endpoint request budgets. Eastmoney throttles aggressively on the
// search and F10 endpoints.
const (
	klinePerSecond  = 10
	searchPerSecond = 5
	f10PerSecond    = 2
)

// Client handles communication with the Eastmoney data APIs
// ⭐ SSOT: 东方财富数据拉取只在这个客户端
type Client struct {
	httpClient *httputil.Client
	cfg        config.EastmoneyConfig
	dataDir    string
	logger     *logger.Logger

	klineLimiter  *rate.Limiter
	searchLimiter *rate.Limiter
	f10Limiter    *rate.Limiter
}

// NewClient creates a new Eastmoney client rooted at dataDir
func NewClient(cfg config.EastmoneyConfig, dataDir string, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient:    httpClient,
		cfg:           cfg,
		dataDir:       dataDir,
		logger:        log,
		klineLimiter:  rate.NewLimiter(rate.Limit(klinePerSecond), klinePerSecond),
		searchLimiter: rate.NewLimiter(rate.Limit(searchPerSecond), searchPerSecond),
		f10Limiter:    rate.NewLimiter(rate.Limit(f10PerSecond), f10PerSecond),
	}
}

// EnsureWindow refreshes every dataset a prediction for stockCode needs,
// covering at least the given window of daily bars. Individual dataset
// failures are logged and collected; the caller decides whether stale local
// data is good enough to continue with.
func (c *Client) EnsureWindow(ctx context.Context, stockCode string, window contracts.TimeWindow) error {
	if err := os.MkdirAll(filepath.Join(c.dataDir, stockCode), 0o755); err != nil {
		return err
	}

	var errs []error
	if err := c.FetchDailyBars(ctx, stockCode, window); err != nil {
		c.logger.WithError(err).Warn("❌ daily bars refresh failed")
		errs = append(errs, err)
	}
	if err := c.FetchNews(ctx, stockCode); err != nil {
		c.logger.WithError(err).Warn("❌ news refresh failed")
		errs = append(errs, err)
	}
	if err := c.FetchFundamentals(ctx, stockCode); err != nil {
		c.logger.WithError(err).Warn("❌ fundamentals refresh failed")
		errs = append(errs, err)
	}
	if err := c.FetchMacro(ctx); err != nil {
		c.logger.WithError(err).Warn("❌ macro refresh failed")
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// fresh reports whether path exists and is younger than the configured
// freshness window
func (c *Client) fresh(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	maxAge := time.Duration(c.cfg.MaxAgeDays) * 24 * time.Hour
	if time.Since(info.ModTime()) > maxAge {
		c.logger.WithField("path", path).Info("cached file expired, refetching")
		return false
	}
	return true
}

// secID maps a stock code to Eastmoney's exchange-prefixed id:
// 1.600415 for Shanghai, 0.000001 for Shenzhen.
func secID(stockCode string) string {
	if len(stockCode) > 0 && stockCode[0] == '6' {
		return "1." + stockCode
	}
	return "0." + stockCode
}
