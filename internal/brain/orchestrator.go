package brain

import (
	"context"
	"fmt"
	"time"

	"github.com/haolin/tianji/backend/internal/contracts"
	"github.com/haolin/tianji/backend/internal/decision"
	"github.com/haolin/tianji/backend/pkg/logger"
)

// Stage is one analysis pass of the pipeline
type Stage interface {
	ID() contracts.StageID
	Run(ctx context.Context, target time.Time) (contracts.StageResult, error)
}

// Orchestrator coordinates the prediction pipeline for one stock
// ⭐ SSOT: 流水线调度只在这里
type Orchestrator struct {
	stockCode string

	// Analysis stages, run strictly in this order
	market      Stage
	news        Stage
	fundamental Stage
	macro       Stage

	aggregator *decision.Aggregator

	logger *logger.Logger
}

// Prediction holds the results of a complete pipeline run
type Prediction struct {
	StockCode string
	Target    time.Time
	Decision  contracts.Decision
	Synthesis contracts.StageResult // decision reasoning and raw answer

	StageResults    map[contracts.StageID]contracts.StageResult
	CompletedStages []string
	Duration        time.Duration
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(
	stockCode string,
	market, news, fundamental, macro Stage,
	aggregator *decision.Aggregator,
	logger *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		stockCode:   stockCode,
		market:      market,
		news:        news,
		fundamental: fundamental,
		macro:       macro,
		aggregator:  aggregator,
		logger:      logger,
	}
}

// Predict executes the complete pipeline:
// market → news → fundamental → macro → decision.
// Each streaming stage depends on the model having finished the previous
// one, so the order is strict and a failed stage aborts the run with no
// partial decision.
func (o *Orchestrator) Predict(ctx context.Context, target time.Time) (*Prediction, error) {
	startTime := time.Now()

	result := &Prediction{
		StockCode:       o.stockCode,
		Target:          target,
		StageResults:    make(map[contracts.StageID]contracts.StageResult),
		CompletedStages: make([]string, 0),
	}

	o.logger.WithFields(map[string]interface{}{
		"stock":  o.stockCode,
		"target": target.Format("2006-01-02"),
	}).Info("Starting prediction run")

	for _, stage := range []Stage{o.market, o.news, o.fundamental, o.macro} {
		stageResult, err := stage.Run(ctx, target)
		if err != nil {
			return result, fmt.Errorf("%s stage failed: %w", stage.ID(), err)
		}
		result.StageResults[stage.ID()] = stageResult
		result.CompletedStages = append(result.CompletedStages, string(stage.ID()))
	}

	verdict, synthesis, err := o.aggregator.Synthesize(ctx, target, decision.Inputs{
		Market:      result.StageResults[contracts.StageMarket],
		News:        result.StageResults[contracts.StageNews],
		Fundamental: result.StageResults[contracts.StageFundamental],
		Macro:       result.StageResults[contracts.StageMacro],
	})
	if err != nil {
		return result, fmt.Errorf("decision stage failed: %w", err)
	}
	result.Decision = verdict
	result.Synthesis = synthesis
	result.CompletedStages = append(result.CompletedStages, string(contracts.StageDecision))
	result.Duration = time.Since(startTime)

	o.logger.WithFields(map[string]interface{}{
		"stock":     o.stockCode,
		"direction": verdict.Direction.String(),
		"price":     verdict.Price,
		"duration":  result.Duration.Seconds(),
	}).Info("Prediction run completed successfully")

	return result, nil
}
