package brain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/haolin/tianji/backend/internal/ark"
	"github.com/haolin/tianji/backend/internal/contracts"
	"github.com/haolin/tianji/backend/internal/decision"
	"github.com/haolin/tianji/backend/pkg/logger"
)

type stubStage struct {
	id     contracts.StageID
	result contracts.StageResult
	err    error
	order  *[]string
}

func (s *stubStage) ID() contracts.StageID { return s.id }
func (s *stubStage) Run(context.Context, time.Time) (contracts.StageResult, error) {
	*s.order = append(*s.order, string(s.id))
	return s.result, s.err
}

type stubChatter struct {
	answer     string
	userPrompt []string
}

func (c *stubChatter) ChatStream(_ context.Context, messages []ark.Message, _ ark.StreamHandler) (contracts.StageResult, error) {
	for _, m := range messages {
		if m.Role == "user" {
			c.userPrompt = append(c.userPrompt, m.Content)
		}
	}
	return contracts.StageResult{Answer: c.answer}, nil
}

func newTestOrchestrator(order *[]string, newsErr error) *Orchestrator {
	agg := decision.NewAggregator(&stubChatter{answer: "看涨 10.52"}, nil, "", "600415", logger.NewNop())
	return NewOrchestrator("600415",
		&stubStage{id: contracts.StageMarket, result: contracts.StageResult{Answer: "m"}, order: order},
		&stubStage{id: contracts.StageNews, result: contracts.StageResult{Answer: "n"}, err: newsErr, order: order},
		&stubStage{id: contracts.StageFundamental, result: contracts.StageResult{Answer: "f"}, order: order},
		&stubStage{id: contracts.StageMacro, result: contracts.StageResult{Answer: "g"}, order: order},
		agg, logger.NewNop())
}

func TestPredictRunsStagesInOrder(t *testing.T) {
	var order []string
	o := newTestOrchestrator(&order, nil)

	target := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	pred, err := o.Predict(context.Background(), target)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"market", "news", "fundamental", "macro"}
	if len(order) != len(want) {
		t.Fatalf("stage order = %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("stage order = %v, want %v", order, want)
		}
	}

	if pred.Decision.Direction != contracts.DirectionUp || pred.Decision.Price != 10.52 {
		t.Errorf("decision = %+v", pred.Decision)
	}
	if len(pred.CompletedStages) != 5 || pred.CompletedStages[4] != "decision" {
		t.Errorf("completed = %v", pred.CompletedStages)
	}
	if pred.StageResults[contracts.StageFundamental].Answer != "f" {
		t.Errorf("stage results = %+v", pred.StageResults)
	}
}

func TestPredictAbortsOnStageFailure(t *testing.T) {
	var order []string
	o := newTestOrchestrator(&order, errors.New("model unavailable"))

	pred, err := o.Predict(context.Background(), time.Now())
	if err == nil {
		t.Fatal("expected error")
	}

	// market ran, news failed, nothing after
	if len(order) != 2 {
		t.Errorf("stage order = %v", order)
	}
	if len(pred.CompletedStages) != 1 {
		t.Errorf("completed = %v, want only market", pred.CompletedStages)
	}
}
