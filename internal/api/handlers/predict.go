package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/haolin/tianji/backend/internal/brain"
	"github.com/haolin/tianji/backend/internal/contracts"
	"github.com/haolin/tianji/backend/pkg/logger"
)

// A live prediction looks back this many calendar days for market context.
const liveLookbackDays = 20

// Sessions close at 15:00; a request after the close targets the next day.
const marketCloseHour = 15

// AgentPredictor runs the full analysis pipeline for one stock and target day
type AgentPredictor interface {
	Predict(ctx context.Context, stockCode string, target time.Time, window contracts.TimeWindow) (*brain.Prediction, error)
}

// PredictHandler handles prediction API endpoints
// ⭐ SSOT: 预测 API 处理只在这个结构体
type PredictHandler struct {
	predictor AgentPredictor
	logger    *logger.Logger
	now       func() time.Time
}

// NewPredictHandler creates a new prediction handler
func NewPredictHandler(predictor AgentPredictor, log *logger.Logger) *PredictHandler {
	return &PredictHandler{
		predictor: predictor,
		logger:    log,
		now:       time.Now,
	}
}

// PredictRequest is the POST /api/predict/agent request body
type PredictRequest struct {
	StockCode string `json:"stock_code"`
}

// PredictResponse mirrors the payload the frontend renders
type PredictResponse struct {
	StockCode      string  `json:"stock_code"`
	TargetDate     string  `json:"target_date"`
	Reasoning      string  `json:"reasoning"`
	Decision       string  `json:"decision"`
	Direction      string  `json:"direction"`
	PredictedPrice float64 `json:"predicted_price"`
}

// PredictByAgent runs a live prediction.
// POST /api/predict/agent
func (h *PredictHandler) PredictByAgent(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.StockCode == "" {
		respondError(w, http.StatusBadRequest, "请提供股票代码")
		return
	}

	now := h.now()
	target := now
	if now.Hour() >= marketCloseHour {
		target = now.AddDate(0, 0, 1)
	}
	// The pipeline may only see data strictly before the target day.
	window, err := contracts.NewTimeWindow(now.AddDate(0, 0, -liveLookbackDays), target.AddDate(0, 0, -1))
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"stock_code": req.StockCode,
		"target":     target.Format("2006-01-02"),
	}).Info("🔮 live prediction requested")

	prediction, err := h.predictor.Predict(r.Context(), req.StockCode, target, window)
	if err != nil {
		h.logger.WithError(err).WithField("stock_code", req.StockCode).Error("Prediction failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": PredictResponse{
			StockCode:      req.StockCode,
			TargetDate:     prediction.Target.Format("20060102"),
			Reasoning:      prediction.Synthesis.Reasoning,
			Decision:       prediction.Synthesis.Answer,
			Direction:      prediction.Decision.Direction.String(),
			PredictedPrice: prediction.Decision.Price,
		},
	})
}
