package brain

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/haolin/tianji/backend/internal/analysis"
	"github.com/haolin/tianji/backend/internal/contracts"
	"github.com/haolin/tianji/backend/internal/dataset"
	"github.com/haolin/tianji/backend/internal/decision"
	"github.com/haolin/tianji/backend/internal/report"
	"github.com/haolin/tianji/backend/pkg/config"
	"github.com/haolin/tianji/backend/pkg/logger"
)

// Acquirer refreshes the local datasets before a run. Optional: a nil
// acquirer predicts from whatever is already on disk.
type Acquirer interface {
	EnsureWindow(ctx context.Context, stockCode string, window contracts.TimeWindow) error
}

// Chatter is the model client shared by every stage
type Chatter interface {
	analysis.Chatter
}

// Predictor prepares a leak-free data snapshot and runs the full pipeline
// over it. One Predictor serves many runs; the per-run state (snapshot dir,
// stages, orchestrator) is built fresh each time because the window and
// stock differ per call.
type Predictor struct {
	cfg      *config.Config
	client   Chatter
	acquirer Acquirer
	sink     contracts.ProgressSink
	logger   *logger.Logger
}

func NewPredictor(cfg *config.Config, client Chatter, acquirer Acquirer, sink contracts.ProgressSink, logger *logger.Logger) *Predictor {
	if sink == nil {
		sink = contracts.NopSink
	}
	return &Predictor{
		cfg:      cfg,
		client:   client,
		acquirer: acquirer,
		sink:     sink,
		logger:   logger,
	}
}

// Predict runs the pipeline for target, seeing only data inside window.
// The window end must predate target: the target day's own data is the
// thing being predicted.
func (p *Predictor) Predict(ctx context.Context, stockCode string, target time.Time, window contracts.TimeWindow) (*Prediction, error) {
	p.sink.Emit(contracts.ProgressEvent{Stage: contracts.StageDataPreparation, Message: "正在准备数据..."})

	if p.acquirer != nil {
		if err := p.acquirer.EnsureWindow(ctx, stockCode, window); err != nil {
			// Stale local data can still carry a run; a dead upstream must not
			p.logger.WithError(err).Warn("data refresh failed, predicting from local data")
		}
	}

	snapshotDir, err := os.MkdirTemp("", "tianji-window-")
	if err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	defer os.RemoveAll(snapshotDir)

	if err := dataset.MaterializeWindow(p.cfg.DataDir, snapshotDir, window); err != nil {
		return nil, fmt.Errorf("materialize window snapshot: %w", err)
	}
	p.sink.Emit(contracts.ProgressEvent{Stage: contracts.StageDataPreparation, Message: "数据准备完成"})

	orchestrator := p.buildOrchestrator(stockCode, snapshotDir)
	return orchestrator.Predict(ctx, target)
}

func (p *Predictor) buildOrchestrator(stockCode, dataDir string) *Orchestrator {
	newStage := func(src report.Source, code string) *analysis.Stage {
		return analysis.NewStage(src, p.client, p.sink, p.cfg.OutputDir, code, p.logger)
	}

	return NewOrchestrator(stockCode,
		newStage(&report.MarketSource{DataDir: dataDir, StockCode: stockCode}, stockCode),
		newStage(&report.NewsSource{DataDir: dataDir, StockCode: stockCode}, stockCode),
		newStage(&report.FundamentalSource{DataDir: dataDir, StockCode: stockCode}, stockCode),
		newStage(&report.MacroSource{DataDir: dataDir}, ""),
		decision.NewAggregator(p.client, p.sink, p.cfg.OutputDir, stockCode, p.logger),
		p.logger,
	)
}
