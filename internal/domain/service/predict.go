package service

import (
	"context"

	"CoinCast/internal/domain/models"
)

// NewsSummarizer produces the aggregated news-sentiment summary. The error is
// non-nil only when every feed was unreachable; the caller then degrades to
// the neutral default summary and flags the signal as degraded.
type NewsSummarizer interface {
	Summary(ctx context.Context) (models.NewsSummary, error)
}

// Regressor is a fitted per-horizon model. Predict takes the scaled feature
// vector in schema order and returns the raw (pre-clamp) price prediction.
type Regressor interface {
	Predict(features []float64) float64
}
