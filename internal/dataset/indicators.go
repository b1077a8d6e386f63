package dataset

import "math"

// Indicators holds per-row technical indicator series aligned with the input
// price series. Positions where an indicator is undefined (warm-up windows,
// first-row diffs) hold NaN and are skipped at render time.
type Indicators struct {
	MA5, MA10, MA20      []float64
	RSI                  []float64 // RSI-14, Wilder-style simple rolling means
	MACD, Signal         []float64 // EMA12-EMA26, signal EMA9
	BBMiddle             []float64 // Bollinger 20
	BBUpper, BBLower     []float64 // ±2σ
	PriceChange          []float64
	VolumeChange         []float64
	Volatility           []float64 // 20-day rolling std of close
	Momentum             []float64 // 10-day pct change
	VWAP                 []float64 // cumulative volume-weighted average price
	PriceMARatio         []float64 // close / MA20
	VolumeMARatio        []float64 // volume / 20-day avg volume
}

// ComputeIndicators derives the full indicator set from close and volume
// series. Both slices must have equal length.
func ComputeIndicators(closes, volumes []float64) *Indicators {
	n := len(closes)
	ind := &Indicators{
		MA5:           rollingMean(closes, 5),
		MA10:          rollingMean(closes, 10),
		MA20:          rollingMean(closes, 20),
		PriceChange:   pctChange(closes, 1),
		VolumeChange:  pctChange(volumes, 1),
		Volatility:    rollingStd(closes, 20),
		Momentum:      pctChange(closes, 10),
		PriceMARatio:  make([]float64, n),
		VolumeMARatio: make([]float64, n),
		VWAP:          make([]float64, n),
	}

	// RSI-14: simple rolling means of gains/losses, not exponential
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 0; i < n; i++ {
		if i == 0 {
			gains[i] = math.NaN()
			losses[i] = math.NaN()
			continue
		}
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		}
		if delta < 0 {
			losses[i] = -delta
		}
	}
	avgGain := rollingMean(gains, 14)
	avgLoss := rollingMean(losses, 14)
	ind.RSI = make([]float64, n)
	for i := 0; i < n; i++ {
		rs := avgGain[i] / avgLoss[i]
		ind.RSI[i] = 100 - 100/(1+rs)
	}

	// MACD
	ema12 := ema(closes, 12)
	ema26 := ema(closes, 26)
	ind.MACD = make([]float64, n)
	for i := 0; i < n; i++ {
		ind.MACD[i] = ema12[i] - ema26[i]
	}
	ind.Signal = ema(ind.MACD, 9)

	// Bollinger bands
	ind.BBMiddle = rollingMean(closes, 20)
	std20 := rollingStd(closes, 20)
	ind.BBUpper = make([]float64, n)
	ind.BBLower = make([]float64, n)
	for i := 0; i < n; i++ {
		ind.BBUpper[i] = ind.BBMiddle[i] + 2*std20[i]
		ind.BBLower[i] = ind.BBMiddle[i] - 2*std20[i]
	}

	// Cumulative VWAP and ratios
	volMA20 := rollingMean(volumes, 20)
	var cumPV, cumV float64
	for i := 0; i < n; i++ {
		cumPV += closes[i] * volumes[i]
		cumV += volumes[i]
		if cumV != 0 {
			ind.VWAP[i] = cumPV / cumV
		} else {
			ind.VWAP[i] = math.NaN()
		}
		ind.PriceMARatio[i] = closes[i] / ind.MA20[i]
		ind.VolumeMARatio[i] = volumes[i] / volMA20[i]
	}

	return ind
}

// rollingMean computes a simple moving average; NaN during warm-up or when
// the window contains a NaN.
func rollingMean(x []float64, window int) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += x[j]
		}
		out[i] = sum / float64(window)
	}
	return out
}

// rollingStd computes a rolling sample standard deviation (ddof=1)
func rollingStd(x []float64, window int) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += x[j]
		}
		mean := sum / float64(window)
		variance := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := x[j] - mean
			variance += d * d
		}
		out[i] = math.Sqrt(variance / float64(window-1))
	}
	return out
}

// pctChange computes (x[i] - x[i-periods]) / x[i-periods]
func pctChange(x []float64, periods int) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		if i < periods || x[i-periods] == 0 || math.IsNaN(x[i-periods]) {
			out[i] = math.NaN()
			continue
		}
		out[i] = (x[i] - x[i-periods]) / x[i-periods]
	}
	return out
}

// ema computes an exponential moving average seeded with the first value
// (pandas ewm adjust=false semantics)
func ema(x []float64, span int) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	out[0] = x[0]
	for i := 1; i < len(x); i++ {
		out[i] = alpha*x[i] + (1-alpha)*out[i-1]
	}
	return out
}
