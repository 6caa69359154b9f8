package predict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinCast/internal/domain/models"
	"CoinCast/internal/services/features"
)

func testRow() models.FeatureRow {
	v := map[string]float64{
		features.FieldOpen: 49900, features.FieldHigh: 50100, features.FieldLow: 49800,
		features.FieldClose: 50000, features.FieldVolume: 1200,
		features.FieldMA7: 49950, features.FieldMA30: 49800, features.FieldMA90: 49500,
		features.FieldPriceChange: 0.001, features.FieldVolumeMA: 1100, features.FieldVolumeChange: 0.05,
		features.FieldRSI: 55, features.FieldMACD: 12, features.FieldSignalLine: 8,
		features.FieldBBMiddle: 49900, features.FieldBBUpper: 50400, features.FieldBBLower: 49400,
		features.FieldVolatility: 350,
		features.FieldCrossClose: 17500, features.FieldCrossChange: 0.004,
		features.FieldHour: 14, features.FieldUSTradingHours: 0,
		features.FieldDayOfWeek: 2, features.FieldIsWeekend: 0, features.FieldMonth: 8,
		features.FieldNewsSentiment: 0.12, features.FieldNewsCount: 9,
	}
	return models.FeatureRow{Timestamp: time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC), Values: v}
}

func testSnapshot() *models.FeatureSnapshot {
	return &models.FeatureSnapshot{
		Rows:         []models.FeatureRow{testRow()},
		CurrentPrice: 50000,
		News:         models.NewsSummary{SentimentScore: 0.12, NewsCount: 9, TopNews: []models.NewsItem{}},
		BuiltAt:      time.Now().UTC(),
	}
}

// linearBundle returns a bundle whose raw prediction is always `raw`.
func linearBundle(horizon int, raw float64) *Bundle {
	schema := []string{features.FieldClose, features.FieldRSI, features.FieldMACD}
	return &Bundle{
		Horizon:     horizon,
		Schema:      schema,
		Scaler:      &Scaler{Mean: []float64{0, 0, 0}, Scale: []float64{1, 1, 1}},
		Regressor:   &LinearModel{Coefficients: []float64{0, 0, 0}, Intercept: raw},
		Metrics:     models.ModelMetrics{R2: 0.82},
		Importances: []float64{0.5, 0.3, 0.2},
	}
}

func TestClamp(t *testing.T) {
	// A +6% raw move against a 2% bound clips to exactly current * 1.02.
	price, clamped := Clamp(53000, 50000, 0.02)
	assert.True(t, clamped)
	assert.Equal(t, 51000.0, price)

	price, clamped = Clamp(45000, 50000, 0.02)
	assert.True(t, clamped)
	assert.Equal(t, 49000.0, price)

	price, clamped = Clamp(50500, 50000, 0.02)
	assert.False(t, clamped)
	assert.Equal(t, 50500.0, price)

	// A change exactly at the bound passes through untouched.
	price, clamped = Clamp(51000, 50000, 0.02)
	assert.False(t, clamped)
	assert.Equal(t, 51000.0, price)
}

func TestScalerTransform(t *testing.T) {
	s := &Scaler{Mean: []float64{10, 0, 5}, Scale: []float64{2, 0, 1}}
	out, err := s.Transform([]float64{14, 3, 5})
	require.NoError(t, err)
	// A zero scale entry divides by one.
	assert.Equal(t, []float64{2, 3, 0}, out)

	_, err = s.Transform([]float64{1, 2})
	assert.ErrorContains(t, err, "expects 3 features")
}

func TestLinearModelPredict(t *testing.T) {
	m := &LinearModel{Coefficients: []float64{2, -1}, Intercept: 10}
	assert.Equal(t, 13.0, m.Predict([]float64{3, 3}))
}

func TestTreeEnsemblePredict(t *testing.T) {
	tree := []TreeNode{
		{Feature: 0, Threshold: 5, Left: 1, Right: 2},
		{Left: -1, Value: -1},
		{Left: -1, Value: 2},
	}
	m := &TreeEnsemble{BaseScore: 100, Trees: [][]TreeNode{tree, tree}}

	assert.Equal(t, 98.0, m.Predict([]float64{4}))
	assert.Equal(t, 104.0, m.Predict([]float64{5}))
}

func TestDecodeRegressor(t *testing.T) {
	linear, err := decodeRegressor([]byte(`{"kind":"linear","linear":{"coefficients":[1],"intercept":2}}`))
	require.NoError(t, err)
	assert.Equal(t, 5.0, linear.Predict([]float64{3}))

	gbtree, err := decodeRegressor([]byte(`{"kind":"gbtree","trees":{"base_score":7,"trees":[]}}`))
	require.NoError(t, err)
	assert.Equal(t, 7.0, gbtree.Predict(nil))

	_, err = decodeRegressor([]byte(`{"kind":"forest"}`))
	assert.ErrorContains(t, err, "unknown model kind")

	_, err = decodeRegressor([]byte(`{"kind":"linear"}`))
	assert.ErrorContains(t, err, "missing linear payload")
}

func TestEnginePredictClampsAndExplains(t *testing.T) {
	e := NewEngine(map[int]*Bundle{1: linearBundle(1, 53000)}, nil, nil)

	result, err := e.Predict(testSnapshot(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Horizon)
	assert.Equal(t, 50000.0, result.CurrentPrice)
	assert.Equal(t, 51000.0, result.PredictedPrice)
	assert.Equal(t, 2.0, result.ChangePercent)
	assert.Equal(t, "up", result.Direction)
	assert.True(t, result.Clamped)
	assert.Equal(t, 82.0, result.Confidence)

	require.NotEmpty(t, result.Analysis.TopFactors)
	assert.Equal(t, features.FieldClose, result.Analysis.TopFactors[0].Indicator)
	assert.Equal(t, 50.0, result.Analysis.TopFactors[0].Importance)
	assert.NotEmpty(t, result.Analysis.DetailedText)
}

func TestEnginePredictDown(t *testing.T) {
	e := NewEngine(map[int]*Bundle{6: linearBundle(6, 49500)}, nil, nil)

	result, err := e.Predict(testSnapshot(), 6)
	require.NoError(t, err)
	assert.Equal(t, "down", result.Direction)
	assert.False(t, result.Clamped)
	assert.Equal(t, 49500.0, result.PredictedPrice)
	assert.Equal(t, -1.0, result.ChangePercent)
}

func TestEnginePredictModelUnavailable(t *testing.T) {
	e := NewEngine(map[int]*Bundle{}, nil, nil)
	_, err := e.Predict(testSnapshot(), 6)
	assert.True(t, models.IsModelUnavailable(err))
}

func TestAvailableHorizonsAscending(t *testing.T) {
	e := NewEngine(map[int]*Bundle{
		24: linearBundle(24, 0),
		1:  linearBundle(1, 0),
	}, nil, nil)
	assert.Equal(t, []int{1, 24}, e.AvailableHorizons())
}

func TestRankFactorsStableTies(t *testing.T) {
	b := &Bundle{
		Schema:      []string{"a", "b", "c", "d"},
		Importances: []float64{0.3, 0.3, 0.4, 0.0},
	}
	row := models.FeatureRow{Values: map[string]float64{"a": 1, "b": 2, "c": 3, "d": 4}}

	factors := rankFactors(b, row)
	require.Len(t, factors, 4)
	// Equal importances keep schema order.
	assert.Equal(t, "c", factors[0].Indicator)
	assert.Equal(t, "a", factors[1].Indicator)
	assert.Equal(t, "b", factors[2].Indicator)
	assert.Equal(t, "d", factors[3].Indicator)
	assert.Equal(t, 40.0, factors[0].Importance)
	assert.Equal(t, 3.0, factors[0].Value)
}

func TestDeriveSignals(t *testing.T) {
	row := testRow()
	s := deriveSignals(row)
	assert.Equal(t, "neutral", s.RSI.Signal)
	assert.Equal(t, "uptrend", s.MACD)
	assert.Equal(t, "neutral", s.CrossAsset)
	assert.Equal(t, "closed", s.USMarket)

	row.Values[features.FieldRSI] = 75
	row.Values[features.FieldMACD] = 1
	row.Values[features.FieldSignalLine] = 2
	row.Values[features.FieldCrossChange] = 0.02
	row.Values[features.FieldUSTradingHours] = 1
	s = deriveSignals(row)
	assert.Equal(t, "overbought", s.RSI.Signal)
	assert.Equal(t, "downtrend", s.MACD)
	assert.Equal(t, "positive", s.CrossAsset)
	assert.Equal(t, "open", s.USMarket)

	row.Values[features.FieldRSI] = 25
	row.Values[features.FieldCrossChange] = -0.02
	s = deriveSignals(row)
	assert.Equal(t, "oversold", s.RSI.Signal)
	assert.Equal(t, "negative", s.CrossAsset)
}
