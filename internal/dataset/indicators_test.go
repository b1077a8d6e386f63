package dataset

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeIndicatorsMA(t *testing.T) {
	closes := make([]float64, 25)
	volumes := make([]float64, 25)
	for i := range closes {
		closes[i] = float64(i + 1) // 1, 2, ..., 25
		volumes[i] = 1000
	}

	ind := ComputeIndicators(closes, volumes)

	// MA5 at index 19 is the mean of closes[15..19] = (16+17+18+19+20)/5
	if !almostEqual(ind.MA5[19], 18) {
		t.Errorf("MA5[19] = %v, want 18", ind.MA5[19])
	}
	// MA20 at index 19 is the mean of 1..20
	if !almostEqual(ind.MA20[19], 10.5) {
		t.Errorf("MA20[19] = %v, want 10.5", ind.MA20[19])
	}
	// Warm-up positions are NaN
	if !math.IsNaN(ind.MA5[3]) {
		t.Errorf("MA5[3] = %v, want NaN", ind.MA5[3])
	}
	if !math.IsNaN(ind.MA20[18]) {
		t.Errorf("MA20[18] = %v, want NaN", ind.MA20[18])
	}
}

func TestComputeIndicatorsRSI(t *testing.T) {
	// Monotonically rising series: no losses, RSI saturates at 100
	closes := make([]float64, 30)
	volumes := make([]float64, 30)
	for i := range closes {
		closes[i] = 10 + float64(i)
		volumes[i] = 1
	}

	ind := ComputeIndicators(closes, volumes)

	// The first delta is undefined, so the 14-window mean is NaN until the
	// window clears index 0.
	if !math.IsNaN(ind.RSI[13]) {
		t.Errorf("RSI[13] = %v, want NaN", ind.RSI[13])
	}
	if !almostEqual(ind.RSI[14], 100) {
		t.Errorf("RSI[14] = %v, want 100", ind.RSI[14])
	}
}

func TestComputeIndicatorsMACD(t *testing.T) {
	closes := []float64{10, 11, 12, 11, 10, 11, 12, 13, 12, 11}
	volumes := make([]float64, len(closes))
	for i := range volumes {
		volumes[i] = 1
	}

	ind := ComputeIndicators(closes, volumes)

	// EMA seeded with the first value: MACD[0] = EMA12[0] - EMA26[0] = 0
	if !almostEqual(ind.MACD[0], 0) {
		t.Errorf("MACD[0] = %v, want 0", ind.MACD[0])
	}
	if !almostEqual(ind.Signal[0], 0) {
		t.Errorf("Signal[0] = %v, want 0", ind.Signal[0])
	}

	// Hand-rolled check for index 1
	a12 := 2.0 / 13.0
	a26 := 2.0 / 27.0
	e12 := a12*11 + (1-a12)*10
	e26 := a26*11 + (1-a26)*10
	if !almostEqual(ind.MACD[1], e12-e26) {
		t.Errorf("MACD[1] = %v, want %v", ind.MACD[1], e12-e26)
	}
}

func TestComputeIndicatorsBollinger(t *testing.T) {
	closes := make([]float64, 20)
	volumes := make([]float64, 20)
	for i := range closes {
		closes[i] = float64(i + 1)
		volumes[i] = 1
	}

	ind := ComputeIndicators(closes, volumes)

	// Sample std of 1..20
	mean := 10.5
	variance := 0.0
	for i := 1; i <= 20; i++ {
		d := float64(i) - mean
		variance += d * d
	}
	std := math.Sqrt(variance / 19)

	if !almostEqual(ind.BBMiddle[19], mean) {
		t.Errorf("BBMiddle[19] = %v, want %v", ind.BBMiddle[19], mean)
	}
	if !almostEqual(ind.BBUpper[19], mean+2*std) {
		t.Errorf("BBUpper[19] = %v, want %v", ind.BBUpper[19], mean+2*std)
	}
	if !almostEqual(ind.BBLower[19], mean-2*std) {
		t.Errorf("BBLower[19] = %v, want %v", ind.BBLower[19], mean-2*std)
	}
}

func TestComputeIndicatorsChangesAndVWAP(t *testing.T) {
	closes := []float64{10, 12, 9}
	volumes := []float64{100, 200, 100}

	ind := ComputeIndicators(closes, volumes)

	if !math.IsNaN(ind.PriceChange[0]) {
		t.Errorf("PriceChange[0] = %v, want NaN", ind.PriceChange[0])
	}
	if !almostEqual(ind.PriceChange[1], 0.2) {
		t.Errorf("PriceChange[1] = %v, want 0.2", ind.PriceChange[1])
	}
	if !almostEqual(ind.VolumeChange[1], 1.0) {
		t.Errorf("VolumeChange[1] = %v, want 1.0", ind.VolumeChange[1])
	}

	// Cumulative VWAP at index 1: (10*100 + 12*200) / 300
	want := (10.0*100 + 12.0*200) / 300.0
	if !almostEqual(ind.VWAP[1], want) {
		t.Errorf("VWAP[1] = %v, want %v", ind.VWAP[1], want)
	}
}
