package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/haolin/tianji/backend/internal/contracts"
	"github.com/haolin/tianji/backend/internal/dataset"
)

const (
	dailyBarsFile = "股票日线数据.csv"
	maxMarketRows = 20
)

// MarketSource builds the technical report for one stock: the last trading
// days strictly before the target date, enriched with the derived indicator
// columns.
type MarketSource struct {
	DataDir   string
	StockCode string
}

func (s *MarketSource) Stage() contracts.StageID { return contracts.StageMarket }

func (s *MarketSource) Build(target time.Time) (Payload, error) {
	path := filepath.Join(s.DataDir, s.StockCode, dailyBarsFile)
	tbl, err := dataset.ReadCSV(path)
	if os.IsNotExist(err) {
		return Payload{}, nil
	}
	if err != nil {
		return Payload{}, err
	}

	dateCol := tbl.ColumnIndex("日期")
	closeCol := tbl.ColumnIndex("收盘")
	volumeCol := tbl.ColumnIndex("成交量")
	if dateCol < 0 || closeCol < 0 || volumeCol < 0 {
		return Payload{}, fmt.Errorf("daily bars %s: missing 日期/收盘/成交量 column", path)
	}

	// Only bars strictly before the prediction date are knowable
	cutoff := dayStart(target)
	filtered := &dataset.Table{Name: tbl.Name, Columns: tbl.Columns}
	for i := range tbl.Rows {
		d, ok := dataset.ParseFlexibleDate(tbl.Cell(i, dateCol), "日期")
		if !ok || !d.Before(cutoff) {
			continue
		}
		filtered.Rows = append(filtered.Rows, tbl.Rows[i])
	}
	if filtered.Empty() {
		return Payload{}, nil
	}

	closes := make([]float64, len(filtered.Rows))
	volumes := make([]float64, len(filtered.Rows))
	for i := range filtered.Rows {
		if v, err := filtered.FloatCell(i, closeCol); err == nil {
			closes[i] = v
		} else {
			closes[i] = math.NaN()
		}
		if v, err := filtered.FloatCell(i, volumeCol); err == nil {
			volumes[i] = v
		} else {
			volumes[i] = math.NaN()
		}
	}
	ind := dataset.ComputeIndicators(closes, volumes)

	rows := len(filtered.Rows)
	if rows > maxMarketRows {
		rows = maxMarketRows
	}
	start := len(filtered.Rows) - rows

	var b strings.Builder
	fmt.Fprintf(&b, "=== %s %s前 的%d个交易日数据 ===\n", s.StockCode, cutoff.Format("2006-01-02"), rows)
	for i := start; i < len(filtered.Rows); i++ {
		b.WriteString(filtered.FormatRow(i))
		writeIndicatorRow(&b, ind, i)
		b.WriteString("\n")
	}

	return Payload{Text: b.String(), HasData: true}, nil
}

// Column names mirror the CSV conventions the rest of the report uses
var indicatorColumns = []struct {
	name   string
	series func(*dataset.Indicators) []float64
}{
	{"MA5", func(i *dataset.Indicators) []float64 { return i.MA5 }},
	{"MA10", func(i *dataset.Indicators) []float64 { return i.MA10 }},
	{"MA20", func(i *dataset.Indicators) []float64 { return i.MA20 }},
	{"RSI", func(i *dataset.Indicators) []float64 { return i.RSI }},
	{"MACD", func(i *dataset.Indicators) []float64 { return i.MACD }},
	{"Signal", func(i *dataset.Indicators) []float64 { return i.Signal }},
	{"BB_middle", func(i *dataset.Indicators) []float64 { return i.BBMiddle }},
	{"BB_upper", func(i *dataset.Indicators) []float64 { return i.BBUpper }},
	{"BB_lower", func(i *dataset.Indicators) []float64 { return i.BBLower }},
	{"Price_Change", func(i *dataset.Indicators) []float64 { return i.PriceChange }},
	{"Volume_Change", func(i *dataset.Indicators) []float64 { return i.VolumeChange }},
	{"Volatility", func(i *dataset.Indicators) []float64 { return i.Volatility }},
	{"Momentum", func(i *dataset.Indicators) []float64 { return i.Momentum }},
	{"VWAP", func(i *dataset.Indicators) []float64 { return i.VWAP }},
	{"Price_MA_Ratio", func(i *dataset.Indicators) []float64 { return i.PriceMARatio }},
	{"Volume_MA_Ratio", func(i *dataset.Indicators) []float64 { return i.VolumeMARatio }},
}

// writeIndicatorRow appends the indicator values for row i, skipping the
// undefined (NaN) warm-up positions the same way empty cells are skipped.
func writeIndicatorRow(b *strings.Builder, ind *dataset.Indicators, i int) {
	for _, col := range indicatorColumns {
		v := col.series(ind)[i]
		if math.IsNaN(v) {
			continue
		}
		fmt.Fprintf(b, "%s: %.2f\n", col.name, v)
	}
}
