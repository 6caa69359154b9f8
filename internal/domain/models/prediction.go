package models

import "time"

// ModelMetrics are the frozen evaluation metrics captured at training time.
// Confidence served with a prediction is R2 * 100, never recomputed per request.
type ModelMetrics struct {
	RMSE              float64 `json:"rmse"`
	MAE               float64 `json:"mae"`
	R2                float64 `json:"r2"`
	DirectionAccuracy float64 `json:"direction_accuracy"`
}

// TopFactor is one ranked entry of the regressor's feature importances.
type TopFactor struct {
	Indicator  string  `json:"indicator"`
	Importance float64 `json:"importance"` // percent of total
	Value      float64 `json:"value"`      // current value of the feature
}

// RSISignal carries the RSI level together with its categorical reading.
type RSISignal struct {
	Value  float64 `json:"value"`
	Signal string  `json:"signal"`
}

// Signals are the categorical readings derived from current indicator values.
type Signals struct {
	RSI        RSISignal `json:"rsi"`
	MACD       string    `json:"macd"`
	CrossAsset string    `json:"cross_asset"`
	USMarket   string    `json:"us_market"`
}

// Analysis is the explanation attached to a prediction.
type Analysis struct {
	TopFactors   []TopFactor        `json:"top_factors"`
	Indicators   map[string]float64 `json:"indicators"`
	Signals      Signals            `json:"signals"`
	DetailedText string             `json:"detailed_text"`
	NewsSummary  *NewsSummary       `json:"news_summary,omitempty"`
}

// PredictionResult is the per-horizon forecast. Ephemeral: produced per
// request, never persisted.
type PredictionResult struct {
	Horizon        int               `json:"prediction_hours"`
	CurrentPrice   float64           `json:"current_price"`
	PredictedPrice float64           `json:"predicted_price"`
	ChangePercent  float64           `json:"change_percent"`
	Direction      string            `json:"direction"`
	Confidence     float64           `json:"confidence"`
	Clamped        bool              `json:"clamped"`
	Timestamp      time.Time         `json:"timestamp"`
	Analysis       Analysis          `json:"analysis"`
	Degraded       map[string]string `json:"degraded_signals,omitempty"`
}

// BatchPrediction is the predict-all response: one result per available
// horizon, with unavailable or failed horizons flagged rather than fatal.
type BatchPrediction struct {
	Predictions map[string]*PredictionResult `json:"predictions"`
	Unavailable map[string]string            `json:"unavailable,omitempty"`
}
