package backtest

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/haolin/tianji/backend/internal/contracts"
)

func TestWriteDetails(t *testing.T) {
	result := &Result{
		StockCode: "600415",
		Records: []Record{
			{
				Date:             time.Date(2025, 3, 18, 0, 0, 0, 0, time.UTC),
				Close:            11.0,
				PredictPrice:     10.5,
				YesterdayClose:   10.0,
				PredictDirection: contracts.DirectionUp,
				ActualDirection:  1,
				DirectionCorrect: true,
				PriceConsistent:  true,
			},
		},
	}

	dir := t.TempDir()
	path, err := WriteDetails(dir, result, time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(path, "600415_backtest_details_20250320_") {
		t.Errorf("path = %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "date,close,predict_price,yesterday_close,predict_direction,actual_direction,is_correct,price_consistent") {
		t.Errorf("header missing:\n%s", content)
	}
	if !strings.Contains(content, "2025-03-18,11,10.5,10,1,1,true,true") {
		t.Errorf("record row wrong:\n%s", content)
	}
}
