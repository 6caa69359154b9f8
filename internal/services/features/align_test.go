package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinCast/internal/domain/models"
)

func hourlyCandles(start time.Time, n int) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{
			OpenTime: start.Add(time.Duration(i) * time.Hour),
			Close:    100,
			Volume:   1,
		}
	}
	return out
}

func TestAlignCrossAssetForwardFill(t *testing.T) {
	start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	series := hourlyCandles(start, 5)
	daily := []models.DailyClose{
		{Date: start.Add(-2 * time.Hour), Close: 10},
		{Date: start.Add(3 * time.Hour), Close: 12},
	}

	closes, changes := AlignCrossAsset(series, daily)
	require.Len(t, closes, 5)
	require.Len(t, changes, 5)

	assert.Equal(t, []float64{10, 10, 10, 12, 12}, closes)

	// Only the hour where a new daily value arrives moves the filled series.
	assert.True(t, math.IsNaN(changes[0]))
	assert.Zero(t, changes[1])
	assert.Zero(t, changes[2])
	assert.InDelta(t, 0.2, changes[3], 1e-12)
	assert.Zero(t, changes[4])
}

func TestAlignCrossAssetWithoutLead(t *testing.T) {
	start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	series := hourlyCandles(start, 4)
	daily := []models.DailyClose{{Date: start.Add(2 * time.Hour), Close: 10}}

	closes, changes := AlignCrossAsset(series, daily)

	// No daily value precedes the head of the grid, so it stays missing.
	assert.True(t, math.IsNaN(closes[0]))
	assert.True(t, math.IsNaN(closes[1]))
	assert.Equal(t, 10.0, closes[2])
	assert.True(t, math.IsNaN(changes[2]))
	assert.Zero(t, changes[3])
}

func TestAlignCrossAssetEmptyDaily(t *testing.T) {
	series := hourlyCandles(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), 3)
	closes, changes := AlignCrossAsset(series, nil)
	for i := range series {
		assert.True(t, math.IsNaN(closes[i]))
		assert.True(t, math.IsNaN(changes[i]))
	}
}

func TestNeutralCrossAsset(t *testing.T) {
	closes, changes := NeutralCrossAsset(4)
	assert.Equal(t, []float64{0, 0, 0, 0}, closes)
	assert.Equal(t, []float64{0, 0, 0, 0}, changes)
}

func TestTimeFeatures(t *testing.T) {
	// Wednesday 03:00 UTC falls inside the US session window.
	hour, us, dow, weekend, month := TimeFeatures(time.Date(2026, 1, 7, 3, 0, 0, 0, time.UTC))
	assert.Equal(t, 3.0, hour)
	assert.Equal(t, 1.0, us)
	assert.Equal(t, 2.0, dow)
	assert.Zero(t, weekend)
	assert.Equal(t, 1.0, month)

	// Saturday midday: market closed, weekend set, Monday=0 indexing.
	_, us, dow, weekend, _ = TimeFeatures(time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))
	assert.Zero(t, us)
	assert.Equal(t, 5.0, dow)
	assert.Equal(t, 1.0, weekend)

	// Session boundary: 23:00 open, 06:00 closed.
	_, us, _, _, _ = TimeFeatures(time.Date(2026, 1, 7, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, 1.0, us)
	_, us, _, _, _ = TimeFeatures(time.Date(2026, 1, 7, 6, 0, 0, 0, time.UTC))
	assert.Zero(t, us)
}
