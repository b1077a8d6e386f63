// Package backtest replays the prediction pipeline over past trading days
// and scores it against what the market actually did.
package backtest

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/haolin/tianji/backend/internal/brain"
	"github.com/haolin/tianji/backend/internal/contracts"
	"github.com/haolin/tianji/backend/internal/dataset"
	"github.com/haolin/tianji/backend/pkg/logger"
)

// Every walk-forward step sees this many calendar days of history ending
// the day before the predicted date.
const LookbackDays = 151

// Predictor runs one windowed prediction; satisfied by brain.Predictor
type Predictor interface {
	Predict(ctx context.Context, stockCode string, target time.Time, window contracts.TimeWindow) (*brain.Prediction, error)
}

// Config holds configuration for a backtest run
type Config struct {
	StockCode    string
	TargetDate   time.Time // last day of the replay range
	DaysBefore   int       // calendar days before TargetDate to replay
	LookbackDays int       // history window per step; defaults to LookbackDays
	FailFast     bool      // abort on the first failed prediction
}

// Record is one scored trading day
type Record struct {
	Date             time.Time
	Close            float64
	PredictPrice     float64
	YesterdayClose   float64 // 0 on the first row of the series
	PredictDirection contracts.Direction
	ActualDirection  int // 1 up, -1 down, 0 flat

	// DirectionCorrect compares predicted and actual direction and drives
	// every accuracy statistic. PriceConsistent is the looser check that the
	// predicted price moved to the same side of yesterday's close as the
	// actual close did; it is recorded for inspection only.
	DirectionCorrect bool
	PriceConsistent  bool
}

// Result holds the records and aggregate statistics of a run
type Result struct {
	StockCode   string
	Records     []Record
	FailedDates []time.Time
	Stats       Stats
	Duration    time.Duration
}

// Engine walks the replay range one trading day at a time
type Engine struct {
	dataDir   string
	predictor Predictor
	logger    *logger.Logger
}

func NewEngine(dataDir string, predictor Predictor, logger *logger.Logger) *Engine {
	return &Engine{dataDir: dataDir, predictor: predictor, logger: logger}
}

// Run replays the pipeline over every trading day in
// [TargetDate-DaysBefore, TargetDate]. A failed prediction is recorded and
// skipped unless FailFast is set: one bad model response should not throw
// away hours of completed replay work.
func (e *Engine) Run(ctx context.Context, config Config) (*Result, error) {
	startTime := time.Now()
	lookback := config.LookbackDays
	if lookback <= 0 {
		lookback = LookbackDays
	}

	days, err := e.loadTradingDays(config)
	if err != nil {
		return nil, err
	}

	e.logger.WithFields(map[string]interface{}{
		"stock":  config.StockCode,
		"target": config.TargetDate.Format("2006-01-02"),
		"days":   len(days),
	}).Info("🔍 backtest started")

	result := &Result{StockCode: config.StockCode}
	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		// The model may only see data strictly before the predicted day
		windowStart := day.Date.AddDate(0, 0, -lookback)
		windowEnd := day.Date.AddDate(0, 0, -1)
		window, err := contracts.NewTimeWindow(windowStart, windowEnd)
		if err != nil {
			return result, fmt.Errorf("build lookback window for %s: %w", day.Date.Format("2006-01-02"), err)
		}

		prediction, err := e.predictor.Predict(ctx, config.StockCode, day.Date, window)
		if err != nil {
			if config.FailFast {
				return result, fmt.Errorf("prediction for %s failed: %w", day.Date.Format("2006-01-02"), err)
			}
			e.logger.WithError(err).WithField("date", day.Date.Format("2006-01-02")).Warn("❌ prediction failed, skipping day")
			result.FailedDates = append(result.FailedDates, day.Date)
			continue
		}

		record := score(day, prediction.Decision)
		result.Records = append(result.Records, record)

		e.logger.WithFields(map[string]interface{}{
			"date":      day.Date.Format("2006-01-02"),
			"direction": record.PredictDirection.String(),
			"price":     record.PredictPrice,
			"correct":   record.DirectionCorrect,
		}).Info("backtest day scored")
	}

	result.Stats = ComputeStats(result.Records)
	result.Duration = time.Since(startTime)

	e.logger.WithFields(map[string]interface{}{
		"records":  len(result.Records),
		"failed":   len(result.FailedDates),
		"duration": result.Duration.Seconds(),
	}).Info("✅ backtest complete")

	return result, nil
}

// tradingDay is one row of the daily bars inside the replay range
type tradingDay struct {
	Date           time.Time
	Close          float64
	YesterdayClose float64
}

// loadTradingDays reads the daily bars and keeps the rows inside the replay
// range. Yesterday's close is taken from the full series before trimming,
// shifted by one row; the very first row of the series has none and scores
// against zero.
func (e *Engine) loadTradingDays(config Config) ([]tradingDay, error) {
	path := filepath.Join(e.dataDir, config.StockCode, "股票日线数据.csv")
	tbl, err := dataset.ReadCSV(path)
	if err != nil {
		return nil, fmt.Errorf("load daily bars: %w", err)
	}

	dateCol := tbl.ColumnIndex("日期")
	closeCol := tbl.ColumnIndex("收盘")
	if dateCol < 0 || closeCol < 0 {
		return nil, fmt.Errorf("daily bars %s: missing 日期/收盘 column", path)
	}

	rangeStart := dayStart(config.TargetDate.AddDate(0, 0, -config.DaysBefore))
	rangeEnd := dayStart(config.TargetDate)

	var days []tradingDay
	prevClose := 0.0
	for i := range tbl.Rows {
		date, ok := dataset.ParseFlexibleDate(tbl.Cell(i, dateCol), "日期")
		if !ok {
			continue
		}
		close, err := tbl.FloatCell(i, closeCol)
		if err != nil {
			return nil, fmt.Errorf("daily bars row %d: bad close: %w", i, err)
		}

		if !date.Before(rangeStart) && !date.After(rangeEnd) {
			days = append(days, tradingDay{Date: date, Close: close, YesterdayClose: prevClose})
		}
		prevClose = close
	}

	if len(days) == 0 {
		return nil, fmt.Errorf("no trading days between %s and %s",
			rangeStart.Format("2006-01-02"), rangeEnd.Format("2006-01-02"))
	}
	return days, nil
}

// score evaluates one day's decision against the realized close
func score(day tradingDay, decision contracts.Decision) Record {
	record := Record{
		Date:             day.Date,
		Close:            day.Close,
		PredictPrice:     decision.Price,
		YesterdayClose:   day.YesterdayClose,
		PredictDirection: decision.Direction,
	}

	actualMove := day.Close - day.YesterdayClose
	switch {
	case actualMove > 0:
		record.ActualDirection = 1
	case actualMove < 0:
		record.ActualDirection = -1
	}
	record.DirectionCorrect = int(record.PredictDirection) == record.ActualDirection

	predictedMove := decision.Price - day.YesterdayClose
	if decision.Direction == contracts.DirectionUp {
		record.PriceConsistent = actualMove*predictedMove > 0
	} else {
		record.PriceConsistent = actualMove*predictedMove < 0
	}

	return record
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
