// Package decision synthesizes the four analysis reports into one final
// next-day verdict: direction plus a price target.
package decision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/haolin/tianji/backend/internal/ark"
	"github.com/haolin/tianji/backend/internal/contracts"
	"github.com/haolin/tianji/backend/pkg/logger"
)

const systemPrompt = `你是一个短线交易员，擅长综合各类分析结果做出对下一日股价的涨跌预测。
在分析时，请遵循以下原则：
1. 综合考虑技术面、消息面和基本面三个维度
2. 评估各个维度的权重和可信度
3. 识别关键影响因素
4. 给出大致的价格预测`

// The closing instruction pins the output to the two-token format Parse
// expects. Section order is fixed; an empty report leaves its section
// blank rather than reordering the rest.
const userTemplate = `
市场技术分析报告：
%s

新闻消息分析报告：
%s

基本面分析报告：
%s

宏观经济分析报告：
%s

输出时，请只按照如下格式组织内容：
第一部分为看涨或看跌
第二部分为价格预测
不需要分析过程
你的涨跌预测非常重要，请认真对待

例如：
看跌 25.98`

const (
	runningStatus = "开始决策分析..."
	doneStatus    = "决策分析完成"
)

// Chatter abstracts the model client
type Chatter interface {
	ChatStream(ctx context.Context, messages []ark.Message, handler ark.StreamHandler) (contracts.StageResult, error)
}

// Inputs carries the four stage answers feeding the synthesis
type Inputs struct {
	Market      contracts.StageResult
	News        contracts.StageResult
	Fundamental contracts.StageResult
	Macro       contracts.StageResult
}

// Aggregator turns the stage answers into the final Decision
type Aggregator struct {
	client    Chatter
	sink      contracts.ProgressSink
	outputDir string
	stockCode string
	log       *logger.Logger
}

func NewAggregator(client Chatter, sink contracts.ProgressSink, outputDir, stockCode string, log *logger.Logger) *Aggregator {
	if sink == nil {
		sink = contracts.NopSink
	}
	return &Aggregator{
		client:    client,
		sink:      sink,
		outputDir: outputDir,
		stockCode: stockCode,
		log:       log,
	}
}

// Synthesize streams the synthesis and parses the final verdict. The
// reasoning transcript comes back alongside the Decision so callers can
// archive or display it.
func (a *Aggregator) Synthesize(ctx context.Context, target time.Time, in Inputs) (contracts.Decision, contracts.StageResult, error) {
	a.log.WithFields(map[string]interface{}{
		"stock":  a.stockCode,
		"target": target.Format("2006-01-02"),
	}).Info("🔍 decision synthesis started")

	messages := []ark.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf(userTemplate,
			in.Market.Answer, in.News.Answer, in.Fundamental.Answer, in.Macro.Answer)},
	}

	result, err := a.client.ChatStream(ctx, messages, func(d ark.Delta) {
		partial := d.ReasoningContent
		if partial == "" {
			partial = d.Content
		}
		a.sink.Emit(contracts.ProgressEvent{
			Stage:       contracts.StageDecision,
			Message:     runningStatus,
			PartialText: partial,
		})
	})
	if err != nil {
		return contracts.Decision{}, contracts.StageResult{}, fmt.Errorf("decision synthesis failed: %w", err)
	}
	a.sink.Emit(contracts.ProgressEvent{Stage: contracts.StageDecision, Message: doneStatus})

	if err := a.saveTranscript(target, result); err != nil {
		a.log.WithError(err).Warn("failed to save decision transcript")
	}

	verdict, err := Parse(result.Answer)
	if err != nil {
		return contracts.Decision{}, result, err
	}

	a.log.WithFields(map[string]interface{}{
		"direction": verdict.Direction.String(),
		"price":     verdict.Price,
	}).Info("✅ decision made")

	return verdict, result, nil
}

func (a *Aggregator) saveTranscript(target time.Time, result contracts.StageResult) error {
	if a.outputDir == "" || result.Empty() {
		return nil
	}

	name := fmt.Sprintf("%s决策分析_%s_%s.md",
		a.stockCode,
		target.Format("2006-01-02"),
		time.Now().Format("2006-01-02_15-04-05"))

	if err := os.MkdirAll(a.outputDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(a.outputDir, name), []byte(result.Reasoning+result.Answer), 0o644)
}
