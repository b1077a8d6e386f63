package backtest

import (
	"fmt"
	"strings"

	"github.com/haolin/tianji/backend/internal/contracts"
)

// Bucket counts correct predictions over a subset of the records. A bucket
// nothing fell into reports "no data" instead of a zero percentage.
type Bucket struct {
	Correct int
	Total   int
}

func (b Bucket) HasData() bool { return b.Total > 0 }

// Pct returns the accuracy as a percentage; only meaningful when HasData
func (b Bucket) Pct() float64 {
	if b.Total == 0 {
		return 0
	}
	return float64(b.Correct) / float64(b.Total) * 100
}

func (b Bucket) add(correct bool) Bucket {
	b.Total++
	if correct {
		b.Correct++
	}
	return b
}

// Stats is the five-way accuracy breakdown of a backtest. Every bucket
// scores the same DirectionCorrect flag, sliced by predicted and by actual
// direction.
type Stats struct {
	Overall       Bucket
	PredictedUp   Bucket
	PredictedDown Bucket
	ActualUp      Bucket
	ActualDown    Bucket
}

func ComputeStats(records []Record) Stats {
	var s Stats
	for _, r := range records {
		s.Overall = s.Overall.add(r.DirectionCorrect)

		if r.PredictDirection == contracts.DirectionUp {
			s.PredictedUp = s.PredictedUp.add(r.DirectionCorrect)
		} else {
			s.PredictedDown = s.PredictedDown.add(r.DirectionCorrect)
		}

		// Flat days (ActualDirection 0) fall into neither actual bucket
		switch r.ActualDirection {
		case 1:
			s.ActualUp = s.ActualUp.add(r.DirectionCorrect)
		case -1:
			s.ActualDown = s.ActualDown.add(r.DirectionCorrect)
		}
	}
	return s
}

// Format renders the statistics block printed after a run
func (s Stats) Format() string {
	var b strings.Builder
	b.WriteString("========== 预测准确率统计 ==========\n")
	b.WriteString(formatBucket("总体准确率", s.Overall, ""))
	b.WriteString("\n按预测方向分类:\n")
	b.WriteString("  " + formatBucket("预测上涨准确率", s.PredictedUp, "次"))
	b.WriteString("  " + formatBucket("预测下跌准确率", s.PredictedDown, "次"))
	b.WriteString("\n按实际走势分类:\n")
	b.WriteString("  " + formatBucket("实际上涨时的预测准确率", s.ActualUp, "天"))
	b.WriteString("  " + formatBucket("实际下跌时的预测准确率", s.ActualDown, "天"))
	return b.String()
}

func formatBucket(label string, b Bucket, unit string) string {
	if !b.HasData() {
		if unit == "" {
			return fmt.Sprintf("%s: 无数据\n", label)
		}
		return fmt.Sprintf("%s: 无数据 (共0%s)\n", label, unit)
	}
	if unit == "" {
		return fmt.Sprintf("%s: %.1f%%\n", label, b.Pct())
	}
	return fmt.Sprintf("%s: %.1f%% (共%d%s)\n", label, b.Pct(), b.Total, unit)
}
