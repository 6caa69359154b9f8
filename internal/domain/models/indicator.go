package models

import "time"

// IndicatorRow holds the technical indicators derived from one candle and its
// predecessors. A field is NaN while its window has not filled; rows that still
// contain NaN after the longest window are excluded from engine output.
type IndicatorRow struct {
	Timestamp time.Time

	MA7  float64
	MA30 float64
	MA90 float64

	PriceChange  float64
	VolumeMA     float64
	VolumeChange float64

	RSI        float64
	MACD       float64
	SignalLine float64

	BBMiddle float64
	BBUpper  float64
	BBLower  float64

	Volatility float64
}
