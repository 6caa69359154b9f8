package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinCast/internal/domain/models"
)

func assembledFixture(t *testing.T, news models.NewsSummary, sentimentFrom time.Time) []models.FeatureRow {
	t.Helper()
	series := oscillatingSeries(200)
	ind, err := ComputeIndicators(series)
	require.NoError(t, err)
	crossClose, crossChange := NeutralCrossAsset(len(series))
	return AssembleRowsWindowed(series, ind, crossClose, crossChange, news, sentimentFrom)
}

func TestAssembleRowsBroadcastsNewsSignal(t *testing.T) {
	news := models.NewsSummary{SentimentScore: 0.42, NewsCount: 7}
	series := oscillatingSeries(200)
	ind, err := ComputeIndicators(series)
	require.NoError(t, err)
	crossClose, crossChange := NeutralCrossAsset(len(series))

	rows := AssembleRows(series, ind, crossClose, crossChange, news)
	require.Len(t, rows, len(ind))

	for _, r := range rows {
		assert.Equal(t, 0.42, r.Values[FieldNewsSentiment])
		assert.Equal(t, 7.0, r.Values[FieldNewsCount])
	}
	for _, name := range BaseSchema {
		_, ok := rows[0].Values[name]
		assert.True(t, ok, "missing field %s", name)
	}
}

func TestAssembleRowsWindowedNeutralizesOldRows(t *testing.T) {
	news := models.NewsSummary{SentimentScore: -0.3, NewsCount: 4}
	cut := seriesStart.Add(150 * time.Hour)
	rows := assembledFixture(t, news, cut)
	require.NotEmpty(t, rows)

	for _, r := range rows {
		if !r.Timestamp.After(cut) {
			assert.Zero(t, r.Values[FieldNewsSentiment], "row at %s", r.Timestamp)
			assert.Zero(t, r.Values[FieldNewsCount], "row at %s", r.Timestamp)
		} else {
			assert.Equal(t, -0.3, r.Values[FieldNewsSentiment])
			assert.Equal(t, 4.0, r.Values[FieldNewsCount])
		}
	}
}

func TestAssembleRowsDropsRowsWithMissingCross(t *testing.T) {
	series := oscillatingSeries(200)
	ind, err := ComputeIndicators(series)
	require.NoError(t, err)

	// A daily series that starts mid-grid leaves the head of the aligned
	// columns NaN; those rows must not survive the join.
	daily := []models.DailyClose{{Date: series[120].OpenTime, Close: 50}}
	crossClose, crossChange := AlignCrossAsset(series, daily)

	rows := AssembleRows(series, ind, crossClose, crossChange, models.NewsSummary{})
	require.NotEmpty(t, rows)
	// change is NaN on the first filled row too, so rows start one past it.
	assert.Equal(t, series[121].OpenTime, rows[0].Timestamp)
	assert.Len(t, rows, 200-121)
}

func TestSelectVectorKeepsSchemaOrder(t *testing.T) {
	row := models.FeatureRow{Values: map[string]float64{
		FieldClose: 3, FieldRSI: 1, FieldVolume: 2,
	}}
	v, err := SelectVector(row, []string{FieldRSI, FieldVolume, FieldClose}, 6)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, v)
}

func TestSelectVectorMissingFieldFails(t *testing.T) {
	row := models.FeatureRow{Values: map[string]float64{FieldClose: 3}}
	v, err := SelectVector(row, []string{FieldClose, "sentiment_zscore"}, 24)
	require.Nil(t, v)

	var mismatch *models.SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 24, mismatch.Horizon)
	assert.Equal(t, "sentiment_zscore", mismatch.Field)
}

func TestBuildTargets(t *testing.T) {
	rows := make([]models.FeatureRow, 10)
	for i := range rows {
		rows[i] = models.FeatureRow{
			Timestamp: seriesStart.Add(time.Duration(i) * time.Hour),
			Values:    map[string]float64{FieldClose: float64(100 + i)},
		}
	}

	kept, targets := BuildTargets(rows, 6)
	require.Len(t, kept, 4)
	require.Len(t, targets, 4)
	for i := range kept {
		assert.Equal(t, rows[i].Timestamp, kept[i].Timestamp)
		assert.Equal(t, float64(100+i+6), targets[i])
	}

	kept, targets = BuildTargets(rows, 10)
	assert.Nil(t, kept)
	assert.Nil(t, targets)
}

func TestNormalizeSeriesSortsAndValidates(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	raw := []models.Candle{
		{OpenTime: seriesStart.Add(time.Hour), Close: 2},
		{OpenTime: seriesStart.In(loc), Close: 1},
	}
	out, err := NormalizeSeries(raw)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 1.0, out[0].Close)
	assert.Equal(t, time.UTC, out[0].OpenTime.Location())

	_, err = NormalizeSeries([]models.Candle{
		{OpenTime: seriesStart, Close: 1},
		{OpenTime: seriesStart, Close: 2},
	})
	assert.ErrorContains(t, err, "duplicate candle timestamp")

	_, err = NormalizeSeries([]models.Candle{{OpenTime: seriesStart, Close: 0}})
	assert.ErrorContains(t, err, "close must be positive")

	_, err = NormalizeSeries(nil)
	assert.Error(t, err)
}
