package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinCast/internal/domain/models"
)

var seriesStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// oscillatingSeries builds an hourly series whose close deltas alternate
// between +4 and -2, so the RSI windows always contain both gains and losses
// and MA90 is the binding completeness constraint.
func oscillatingSeries(n int) []models.Candle {
	out := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		c := 100.0 + float64(i) + 3.0*float64(i%2)
		out[i] = models.Candle{
			OpenTime: seriesStart.Add(time.Duration(i) * time.Hour),
			Open:     c - 1,
			High:     c + 2,
			Low:      c - 2,
			Close:    c,
			Volume:   10 + float64(i%5),
		}
	}
	return out
}

func TestComputeIndicatorsDropsIncompleteHead(t *testing.T) {
	series := oscillatingSeries(200)
	rows, err := ComputeIndicators(series)
	require.NoError(t, err)

	// The 90-candle moving average defines the first complete row.
	require.Len(t, rows, 200-MaxWindow+1)
	assert.Equal(t, seriesStart.Add(89*time.Hour), rows[0].Timestamp)
	assert.Equal(t, seriesStart.Add(199*time.Hour), rows[len(rows)-1].Timestamp)
}

func TestComputeIndicatorsInsufficientHistory(t *testing.T) {
	series := oscillatingSeries(MaxWindow - 1)
	rows, err := ComputeIndicators(series)
	require.Nil(t, rows)

	var insufficient *models.InsufficientHistoryError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, MaxWindow-1, insufficient.Have)
	assert.Equal(t, MaxWindow, insufficient.Need)
}

func TestComputeIndicatorsMovingAverages(t *testing.T) {
	series := oscillatingSeries(200)
	rows, err := ComputeIndicators(series)
	require.NoError(t, err)

	last := rows[len(rows)-1]
	expected := func(w int) float64 {
		sum := 0.0
		for _, c := range series[len(series)-w:] {
			sum += c.Close
		}
		return sum / float64(w)
	}
	assert.InDelta(t, expected(7), last.MA7, 1e-9)
	assert.InDelta(t, expected(30), last.MA30, 1e-9)
	assert.InDelta(t, expected(90), last.MA90, 1e-9)
}

func TestComputeIndicatorsRSIExact(t *testing.T) {
	series := oscillatingSeries(200)
	rows, err := ComputeIndicators(series)
	require.NoError(t, err)

	// Any 14-delta window of the alternating series holds 7 gains of 4 and
	// 7 losses of 2: avg gain 2, avg loss 1, RSI = 100 - 100/(1+2).
	want := 100 - 100.0/3.0
	for _, r := range rows {
		assert.InDelta(t, want, r.RSI, 1e-9)
	}
}

func TestComputeIndicatorsBollingerBands(t *testing.T) {
	series := oscillatingSeries(200)
	rows, err := ComputeIndicators(series)
	require.NoError(t, err)

	last := rows[len(rows)-1]
	assert.Greater(t, last.BBUpper, last.BBMiddle)
	assert.Less(t, last.BBLower, last.BBMiddle)
	assert.InDelta(t, last.BBMiddle, (last.BBUpper+last.BBLower)/2, 1e-9)
}

func TestComputeIndicatorsCausality(t *testing.T) {
	base := oscillatingSeries(200)
	rowsA, err := ComputeIndicators(base)
	require.NoError(t, err)

	mutated := oscillatingSeries(200)
	mutated[150].Close += 500
	mutated[150].Volume += 50
	rowsB, err := ComputeIndicators(mutated)
	require.NoError(t, err)

	cut := base[150].OpenTime
	for i := range rowsA {
		if !rowsA[i].Timestamp.Before(cut) {
			break
		}
		assert.Equal(t, rowsA[i], rowsB[i], "row at %s changed by a later candle", rowsA[i].Timestamp)
	}
}

func TestRelativeStrengthUndefinedWithoutLosses(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	out := relativeStrength(closes)
	// Monotone gains leave the average loss at zero: RSI stays missing
	// rather than being coerced to 100.
	for i, v := range out {
		assert.True(t, math.IsNaN(v), "index %d", i)
	}
}

func TestComputeIndicatorsMonotoneSeriesYieldsNoRows(t *testing.T) {
	series := oscillatingSeries(200)
	for i := range series {
		series[i].Close = 100 + float64(i)
	}
	rows, err := ComputeIndicators(series)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
