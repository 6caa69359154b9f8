package features

import (
	"math"

	"CoinCast/internal/domain/models"
)

// Indicator windows. MaxWindow is the binding constraint: the first
// MaxWindow-1 rows of any series can never produce a complete indicator row.
const (
	maWindowShort  = 7
	maWindowMid    = 30
	maWindowLong   = 90
	volumeMAWindow = 7
	rsiWindow      = 14
	macdFastSpan   = 12
	macdSlowSpan   = 26
	macdSignalSpan = 9
	bbWindow       = 20
	bbStdMult      = 2.0
	volWindow      = 24

	MaxWindow = maWindowLong
)

// ComputeIndicators derives the technical indicator rows for a normalized
// candle series. Each row uses only its own candle and earlier candles.
// Rows with any undefined field are excluded, which truncates the usable
// head by MaxWindow-1 rows. A series shorter than MaxWindow cannot produce
// a single complete row and is an InsufficientHistoryError.
func ComputeIndicators(series []models.Candle) ([]models.IndicatorRow, error) {
	n := len(series)
	if n < MaxWindow {
		return nil, &models.InsufficientHistoryError{Have: n, Need: MaxWindow}
	}

	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, c := range series {
		closes[i] = c.Close
		volumes[i] = c.Volume
	}

	ma7 := rollingMean(closes, maWindowShort)
	ma30 := rollingMean(closes, maWindowMid)
	ma90 := rollingMean(closes, maWindowLong)
	priceChange := pctChange(closes)
	volumeMA := rollingMean(volumes, volumeMAWindow)
	volumeChange := pctChange(volumes)
	rsi := relativeStrength(closes)

	emaFast := ema(closes, macdFastSpan)
	emaSlow := ema(closes, macdSlowSpan)
	macd := nanSlice(n)
	for i := range macd {
		macd[i] = emaFast[i] - emaSlow[i] // NaN propagates
	}
	signal := ema(macd, macdSignalSpan)

	bbMid := rollingMean(closes, bbWindow)
	bbStd := rollingStd(closes, bbWindow)
	vol := rollingStd(closes, volWindow)

	rows := make([]models.IndicatorRow, 0, n-MaxWindow+1)
	for i := 0; i < n; i++ {
		row := models.IndicatorRow{
			Timestamp:    series[i].OpenTime,
			MA7:          ma7[i],
			MA30:         ma30[i],
			MA90:         ma90[i],
			PriceChange:  priceChange[i],
			VolumeMA:     volumeMA[i],
			VolumeChange: volumeChange[i],
			RSI:          rsi[i],
			MACD:         macd[i],
			SignalLine:   signal[i],
			BBMiddle:     bbMid[i],
			BBUpper:      bbMid[i] + bbStdMult*bbStd[i],
			BBLower:      bbMid[i] - bbStdMult*bbStd[i],
			Volatility:   vol[i],
		}
		if rowComplete(&row) {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// relativeStrength computes RSI over rolling means of positive deltas and
// negative-delta magnitudes: 100 - 100/(1 + gain/loss). A window whose
// average loss is zero has no defined RSI; the value stays NaN (a missing
// value) instead of being coerced to 100.
func relativeStrength(closes []float64) []float64 {
	n := len(closes)
	deltas := diff(closes)
	gains := nanSlice(n)
	losses := nanSlice(n)
	for i := 1; i < n; i++ {
		d := deltas[i]
		if d > 0 {
			gains[i], losses[i] = d, 0
		} else {
			gains[i], losses[i] = 0, -d
		}
	}
	avgGain := rollingMean(gains, rsiWindow)
	avgLoss := rollingMean(losses, rsiWindow)

	out := nanSlice(n)
	for i := 0; i < n; i++ {
		if math.IsNaN(avgGain[i]) || math.IsNaN(avgLoss[i]) || avgLoss[i] == 0 {
			continue
		}
		rs := avgGain[i] / avgLoss[i]
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

func rowComplete(r *models.IndicatorRow) bool {
	for _, v := range []float64{
		r.MA7, r.MA30, r.MA90,
		r.PriceChange, r.VolumeMA, r.VolumeChange,
		r.RSI, r.MACD, r.SignalLine,
		r.BBMiddle, r.BBUpper, r.BBLower,
		r.Volatility,
	} {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}
