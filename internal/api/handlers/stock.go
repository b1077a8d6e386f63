package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"

	"github.com/haolin/tianji/backend/internal/dataset"
	"github.com/haolin/tianji/backend/pkg/logger"
)

const (
	dailyBarsFile     = "股票日线数据.csv"
	historicalBarsMax = 20
)

// StockHandler serves stock data straight from the local CSV store
type StockHandler struct {
	dataDir string
	logger  *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(dataDir string, log *logger.Logger) *StockHandler {
	return &StockHandler{dataDir: dataDir, logger: log}
}

// HistoricalBar is one daily bar in the historical response
type HistoricalBar struct {
	Date  string  `json:"date"`
	Open  float64 `json:"open"`
	Close float64 `json:"close"`
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
}

// GetHistorical returns the most recent daily bars for a stock.
// GET /api/stock/historical/{stock_code}
func (h *StockHandler) GetHistorical(w http.ResponseWriter, r *http.Request) {
	stockCode := mux.Vars(r)["stock_code"]
	if stockCode == "" {
		respondError(w, http.StatusBadRequest, "stock code is required")
		return
	}

	path := filepath.Join(h.dataDir, stockCode, dailyBarsFile)
	tbl, err := dataset.ReadCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			respondError(w, http.StatusNotFound, "无法获取股票历史数据")
			return
		}
		h.logger.WithError(err).WithField("stock_code", stockCode).Error("Failed to read daily bars")
		respondError(w, http.StatusInternalServerError, "Failed to read historical data")
		return
	}

	dateCol := tbl.ColumnIndex("日期")
	openCol := tbl.ColumnIndex("开盘")
	closeCol := tbl.ColumnIndex("收盘")
	lowCol := tbl.ColumnIndex("最低")
	highCol := tbl.ColumnIndex("最高")
	if dateCol < 0 || openCol < 0 || closeCol < 0 || lowCol < 0 || highCol < 0 {
		respondError(w, http.StatusInternalServerError, "Daily bars file is malformed")
		return
	}

	start := len(tbl.Rows) - historicalBarsMax
	if start < 0 {
		start = 0
	}
	bars := make([]HistoricalBar, 0, len(tbl.Rows)-start)
	for i := start; i < len(tbl.Rows); i++ {
		open, err1 := tbl.FloatCell(i, openCol)
		closePrice, err2 := tbl.FloatCell(i, closeCol)
		low, err3 := tbl.FloatCell(i, lowCol)
		high, err4 := tbl.FloatCell(i, highCol)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		bars = append(bars, HistoricalBar{
			Date:  tbl.Cell(i, dateCol),
			Open:  open,
			Close: closePrice,
			Low:   low,
			High:  high,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    bars,
	})
}
