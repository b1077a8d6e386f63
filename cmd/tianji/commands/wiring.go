package commands

import (
	"github.com/haolin/tianji/backend/internal/acquire"
	"github.com/haolin/tianji/backend/internal/ark"
	"github.com/haolin/tianji/backend/internal/brain"
	"github.com/haolin/tianji/backend/internal/contracts"
	"github.com/haolin/tianji/backend/pkg/config"
	"github.com/haolin/tianji/backend/pkg/httputil"
	"github.com/haolin/tianji/backend/pkg/logger"
	"github.com/haolin/tianji/backend/pkg/redis"
)

// buildAcquirer wires the Eastmoney client. When Redis is enabled the HTTP
// client carries a process-shared rate ceiling on top of the client's own
// per-endpoint limiters.
func buildAcquirer(cfg *config.Config, log *logger.Logger) (*acquire.Client, func(), error) {
	httpClient := httputil.New(log)
	cleanup := func() {}

	if cfg.Redis.Enabled {
		redisClient, err := redis.New(cfg)
		if err != nil {
			return nil, nil, err
		}
		limiter := redis.NewRateLimiter(redisClient, "eastmoney")
		httpClient = httpClient.WithRateLimiter(limiter, redis.EastmoneyKlineRateLimit)
		cleanup = func() { redisClient.Close() }
	}

	return acquire.NewClient(cfg.Eastmoney, cfg.DataDir, httpClient, log), cleanup, nil
}

// buildPredictor wires the full live pipeline: model client, acquisition,
// snapshotting, the four analysis stages and the decision aggregator.
func buildPredictor(cfg *config.Config, log *logger.Logger, sink contracts.ProgressSink) (*brain.Predictor, func(), error) {
	acquirer, cleanup, err := buildAcquirer(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	client := ark.New(cfg.Ark, log)
	return brain.NewPredictor(cfg, client, acquirer, sink, log), cleanup, nil
}
