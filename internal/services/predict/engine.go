package predict

import (
	"fmt"
	"math"
	"sort"
	"time"

	"CoinCast/internal/domain/models"
	"CoinCast/internal/domain/repository"
	"CoinCast/internal/services/features"
	applogger "CoinCast/pkg/logger"
)

// Engine applies a horizon's frozen bundle to a feature snapshot: scale,
// predict, clamp, then derive the ranked factors, categorical signals and
// narrative that explain the number. Bundles are immutable after load, so
// the engine is safe for concurrent use.
type Engine struct {
	bundles map[int]*Bundle
	metrics repository.Metrics
	logger  *applogger.Logger
}

// NewEngine creates an Engine over the loaded bundles.
func NewEngine(bundles map[int]*Bundle, metrics repository.Metrics, logger *applogger.Logger) *Engine {
	return &Engine{bundles: bundles, metrics: metrics, logger: logger}
}

// AvailableHorizons lists the horizons with a loaded bundle, ascending.
func (e *Engine) AvailableHorizons() []int {
	out := make([]int, 0, len(e.bundles))
	for _, h := range Horizons {
		if _, ok := e.bundles[h]; ok {
			out = append(out, h)
		}
	}
	return out
}

// Bundle returns the loaded bundle for a horizon.
func (e *Engine) Bundle(horizon int) (*Bundle, bool) {
	b, ok := e.bundles[horizon]
	return b, ok
}

// Predict runs inference for one horizon against a shared snapshot.
func (e *Engine) Predict(snap *models.FeatureSnapshot, horizon int) (*models.PredictionResult, error) {
	b, ok := e.bundles[horizon]
	if !ok {
		return nil, &models.ModelUnavailableError{Horizon: horizon}
	}
	latest, ok := snap.Latest()
	if !ok {
		return nil, models.ErrCandleDataUnavailable
	}

	vector, err := features.SelectVector(latest, b.Schema, horizon)
	if err != nil {
		return nil, err
	}
	scaled, err := b.Scaler.Transform(vector)
	if err != nil {
		return nil, err
	}
	raw := b.Regressor.Predict(scaled)

	currentPrice := snap.CurrentPrice
	if currentPrice == 0 {
		currentPrice = latest.Values[features.FieldClose]
	}
	predicted, clamped := Clamp(raw, currentPrice, ClampBounds[horizon])
	changePercent := (predicted - currentPrice) / currentPrice * 100

	direction := "down"
	if changePercent > 0 {
		direction = "up"
	}

	factors := rankFactors(b, latest)
	signals := deriveSignals(latest)
	news := snap.News

	result := &models.PredictionResult{
		Horizon:        horizon,
		CurrentPrice:   round2(currentPrice),
		PredictedPrice: round2(predicted),
		ChangePercent:  round2(changePercent),
		Direction:      direction,
		Confidence:     round1(b.Metrics.R2 * 100),
		Clamped:        clamped,
		Timestamp:      time.Now().UTC(),
		Analysis: models.Analysis{
			TopFactors: factors,
			Indicators: indicatorSnapshot(latest),
			Signals:    signals,
			DetailedText: Narrate(NarrativeInput{
				Horizon:        horizon,
				CurrentPrice:   currentPrice,
				PredictedPrice: predicted,
				ChangePercent:  changePercent,
				Latest:         latest,
				Signals:        signals,
				TopFactors:     factors,
				News:           news,
			}),
			NewsSummary: &news,
		},
		Degraded: snap.Degraded,
	}

	if e.logger != nil {
		e.logger.Info("prediction served",
			applogger.Int("horizon_hours", horizon),
			applogger.Any("change_percent", result.ChangePercent),
			applogger.Bool("clamped", clamped),
		)
	}
	if e.metrics != nil {
		label := fmt.Sprintf("%dh", horizon)
		e.metrics.RecordPrediction(label, direction)
		if clamped {
			e.metrics.RecordClamp(label)
		}
	}
	return result, nil
}

// Clamp bounds a raw prediction to an economically plausible range around the
// current price. The sign of the raw change is preserved and the magnitude is
// clipped to the bound exactly: the clamped price is current * (1 +/- bound).
func Clamp(raw, current, bound float64) (price float64, clamped bool) {
	rawChange := (raw - current) / current
	if math.Abs(rawChange) <= bound {
		return raw, false
	}
	if rawChange > 0 {
		return current * (1 + bound), true
	}
	return current * (1 - bound), true
}

// rankFactors orders the schema fields by importance descending. The sort is
// stable over schema order so equal importances keep a deterministic ranking.
func rankFactors(b *Bundle, latest models.FeatureRow) []models.TopFactor {
	idx := make([]int, len(b.Schema))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, c int) bool {
		return b.Importances[idx[a]] > b.Importances[idx[c]]
	})

	limit := 5
	if len(idx) < limit {
		limit = len(idx)
	}
	out := make([]models.TopFactor, 0, limit)
	for _, i := range idx[:limit] {
		name := b.Schema[i]
		out = append(out, models.TopFactor{
			Indicator:  name,
			Importance: round1(b.Importances[i] * 100),
			Value:      round2(latest.Values[name]),
		})
	}
	return out
}

// deriveSignals maps current indicator values to their categorical readings.
func deriveSignals(latest models.FeatureRow) models.Signals {
	rsi := latest.Values[features.FieldRSI]
	var rsiSignal string
	switch {
	case rsi > 70:
		rsiSignal = "overbought"
	case rsi < 30:
		rsiSignal = "oversold"
	default:
		rsiSignal = "neutral"
	}

	macd := "downtrend"
	if latest.Values[features.FieldMACD] > latest.Values[features.FieldSignalLine] {
		macd = "uptrend"
	}

	crossChange := latest.Values[features.FieldCrossChange]
	cross := "neutral"
	switch {
	case crossChange > 0.01:
		cross = "positive"
	case crossChange < -0.01:
		cross = "negative"
	}

	usMarket := "closed"
	if latest.Values[features.FieldUSTradingHours] == 1 {
		usMarket = "open"
	}

	return models.Signals{
		RSI:        models.RSISignal{Value: round2(rsi), Signal: rsiSignal},
		MACD:       macd,
		CrossAsset: cross,
		USMarket:   usMarket,
	}
}

// indicatorSnapshot is the compact set of current values shown alongside
// the ranked factors.
func indicatorSnapshot(latest models.FeatureRow) map[string]float64 {
	return map[string]float64{
		"rsi":            round2(latest.Values[features.FieldRSI]),
		"cross_asset":    round2(latest.Values[features.FieldCrossClose]),
		"volatility":     round2(latest.Values[features.FieldVolatility]),
		"volume":         round2(latest.Values[features.FieldVolume]),
		"news_sentiment": round3(latest.Values[features.FieldNewsSentiment]),
		"news_count":     latest.Values[features.FieldNewsCount],
	}
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }
func round2(x float64) float64 { return math.Round(x*100) / 100 }
func round3(x float64) float64 { return math.Round(x*1000) / 1000 }
