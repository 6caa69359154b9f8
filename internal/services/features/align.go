package features

import (
	"math"

	"CoinCast/internal/domain/models"
)

// AlignCrossAsset resamples the lower-frequency companion series onto the
// candle grid with last-known-value forward fill. The daily series should be
// fetched with a lead (the caller requests 7 days of extra history) so the
// head of the candle grid has a value to fall back on. Returned slices are
// parallel to the candle series.
//
// The change column is the percent change of the forward-filled hourly value,
// not the companion's own day-over-day change: it is zero on every hour where
// no new daily value arrived, and NaN only on the very first row.
func AlignCrossAsset(series []models.Candle, daily []models.DailyClose) (closes, changes []float64) {
	n := len(series)
	closes = nanSlice(n)
	changes = nanSlice(n)
	if len(daily) == 0 {
		return closes, changes
	}

	j := -1
	for i := 0; i < n; i++ {
		ts := series[i].OpenTime
		for j+1 < len(daily) && !daily[j+1].Date.After(ts) {
			j++
		}
		if j >= 0 {
			closes[i] = daily[j].Close
		}
	}
	for i := 1; i < n; i++ {
		prev := closes[i-1]
		if prev == 0 || math.IsNaN(prev) || math.IsNaN(closes[i]) {
			continue
		}
		changes[i] = (closes[i] - prev) / prev
	}
	return closes, changes
}

// NeutralCrossAsset is the degrade-to-neutral fill used when the companion
// feed is unavailable: both columns are zero for the whole series.
func NeutralCrossAsset(n int) (closes, changes []float64) {
	return make([]float64, n), make([]float64, n)
}
