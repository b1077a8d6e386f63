package backtest

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/haolin/tianji/backend/internal/dataset"
)

// WriteDetails saves the per-day records as a CSV under resultsDir and
// returns the written path
func WriteDetails(resultsDir string, result *Result, targetDate time.Time) (string, error) {
	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}

	name := fmt.Sprintf("%s_backtest_details_%s_%s.csv",
		result.StockCode,
		targetDate.Format("20060102"),
		time.Now().Format("20060102_150405"))
	path := filepath.Join(resultsDir, name)

	tbl := &dataset.Table{
		Columns: []string{
			"date", "close", "predict_price", "yesterday_close",
			"predict_direction", "actual_direction", "is_correct", "price_consistent",
		},
	}
	for _, r := range result.Records {
		tbl.Rows = append(tbl.Rows, []string{
			r.Date.Format("2006-01-02"),
			strconv.FormatFloat(r.Close, 'f', -1, 64),
			strconv.FormatFloat(r.PredictPrice, 'f', -1, 64),
			strconv.FormatFloat(r.YesterdayClose, 'f', -1, 64),
			strconv.Itoa(int(r.PredictDirection)),
			strconv.Itoa(r.ActualDirection),
			strconv.FormatBool(r.DirectionCorrect),
			strconv.FormatBool(r.PriceConsistent),
		})
	}

	if err := dataset.WriteCSV(path, tbl); err != nil {
		return "", fmt.Errorf("write backtest details: %w", err)
	}
	return path, nil
}
