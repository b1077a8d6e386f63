package decision

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/haolin/tianji/backend/internal/ark"
	"github.com/haolin/tianji/backend/internal/contracts"
	"github.com/haolin/tianji/backend/pkg/logger"
)

type stubChatter struct {
	answer  string
	gotUser string
}

func (c *stubChatter) ChatStream(_ context.Context, messages []ark.Message, handler ark.StreamHandler) (contracts.StageResult, error) {
	for _, m := range messages {
		if m.Role == "user" {
			c.gotUser = m.Content
		}
	}
	if handler != nil {
		handler(ark.Delta{Content: c.answer})
	}
	return contracts.StageResult{Answer: c.answer}, nil
}

type recordingSink struct {
	events []contracts.ProgressEvent
}

func (r *recordingSink) Emit(ev contracts.ProgressEvent) { r.events = append(r.events, ev) }

func TestSynthesize(t *testing.T) {
	chatter := &stubChatter{answer: "看涨 10.52"}
	sink := &recordingSink{}
	agg := NewAggregator(chatter, sink, t.TempDir(), "600415", logger.NewNop())

	in := Inputs{
		Market:      contracts.StageResult{Answer: "技术面报告"},
		News:        contracts.StageResult{Answer: "消息面报告"},
		Fundamental: contracts.StageResult{Answer: "基本面报告"},
		Macro:       contracts.StageResult{Answer: "宏观面报告"},
	}

	verdict, result, err := agg.Synthesize(context.Background(), time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC), in)
	if err != nil {
		t.Fatal(err)
	}

	if verdict.Direction != contracts.DirectionUp || verdict.Price != 10.52 {
		t.Errorf("verdict = %+v", verdict)
	}
	if result.Answer != "看涨 10.52" {
		t.Errorf("result = %+v", result)
	}

	// Report sections appear in a fixed order
	prompt := chatter.gotUser
	order := []string{"市场技术分析报告", "技术面报告", "新闻消息分析报告", "消息面报告",
		"基本面分析报告", "基本面报告", "宏观经济分析报告", "宏观面报告", "看跌 25.98"}
	last := -1
	for _, s := range order {
		idx := strings.Index(prompt, s)
		if idx < 0 || idx < last {
			t.Fatalf("prompt section %q missing or out of order:\n%s", s, prompt)
		}
		last = idx
	}

	if len(sink.events) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(sink.events), sink.events)
	}
	if sink.events[0].Stage != contracts.StageDecision || sink.events[1].Message != "决策分析完成" {
		t.Errorf("events = %+v", sink.events)
	}
}

func TestSynthesizeKeepsEmptySections(t *testing.T) {
	chatter := &stubChatter{answer: "看跌 9.10"}
	agg := NewAggregator(chatter, nil, "", "600415", logger.NewNop())

	// A skipped stage contributes a blank section, never a reordering
	in := Inputs{Market: contracts.StageResult{Answer: "仅有技术面"}}
	if _, _, err := agg.Synthesize(context.Background(), time.Now(), in); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(chatter.gotUser, "宏观经济分析报告：") {
		t.Errorf("empty macro section heading missing:\n%s", chatter.gotUser)
	}
}

func TestSynthesizeUnparsableAnswer(t *testing.T) {
	chatter := &stubChatter{answer: "我认为明天会涨"}
	agg := NewAggregator(chatter, nil, "", "600415", logger.NewNop())

	_, result, err := agg.Synthesize(context.Background(), time.Now(), Inputs{})
	if err == nil {
		t.Fatal("expected parse error")
	}
	// The transcript still comes back for diagnostics
	if result.Answer != "我认为明天会涨" {
		t.Errorf("result = %+v", result)
	}
}
