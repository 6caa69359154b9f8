package usecase

import (
	"context"
	"fmt"
	"sync"

	"CoinCast/internal/domain/models"
	"CoinCast/internal/services/predict"
	applogger "CoinCast/pkg/logger"
)

// Predictor serves forecasts. Every request builds exactly one snapshot and
// runs each requested horizon against it, so sibling horizons of one request
// always agree on the input data.
type Predictor struct {
	snapshots *SnapshotBuilder
	engine    *predict.Engine
	logger    *applogger.Logger
}

// NewPredictor creates a Predictor.
func NewPredictor(snapshots *SnapshotBuilder, engine *predict.Engine, logger *applogger.Logger) *Predictor {
	return &Predictor{snapshots: snapshots, engine: engine, logger: logger}
}

// AvailableHorizons lists the horizons with a loaded model.
func (p *Predictor) AvailableHorizons() []int {
	return p.engine.AvailableHorizons()
}

// ModelInfo describes one loaded model for the models endpoint.
type ModelInfo struct {
	Horizon   int                 `json:"horizon_hours"`
	Features  int                 `json:"feature_count"`
	Metrics   models.ModelMetrics `json:"metrics"`
	TrainedAt string              `json:"trained_at,omitempty"`
}

// Models describes every loaded bundle.
func (p *Predictor) Models() []ModelInfo {
	horizons := p.engine.AvailableHorizons()
	out := make([]ModelInfo, 0, len(horizons))
	for _, h := range horizons {
		b, ok := p.engine.Bundle(h)
		if !ok {
			continue
		}
		info := ModelInfo{Horizon: h, Features: len(b.Schema), Metrics: b.Metrics}
		if !b.TrainedAt.IsZero() {
			info.TrainedAt = b.TrainedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		}
		out = append(out, info)
	}
	return out
}

// PredictOne forecasts a single horizon.
func (p *Predictor) PredictOne(ctx context.Context, hours int) (*models.PredictionResult, error) {
	snap, err := p.snapshots.Build(ctx)
	if err != nil {
		return nil, err
	}
	return p.engine.Predict(snap, hours)
}

// PredictAll forecasts every known horizon over one shared snapshot. The
// horizons run concurrently; a horizon failing (missing model, schema bug)
// is reported in Unavailable while its siblings still return.
func (p *Predictor) PredictAll(ctx context.Context) (*models.BatchPrediction, error) {
	snap, err := p.snapshots.Build(ctx)
	if err != nil {
		return nil, err
	}

	batch := &models.BatchPrediction{
		Predictions: make(map[string]*models.PredictionResult, len(predict.Horizons)),
		Unavailable: make(map[string]string),
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, h := range predict.Horizons {
		wg.Add(1)
		go func(horizon int) {
			defer wg.Done()
			key := fmt.Sprintf("%dh", horizon)
			result, err := p.engine.Predict(snap, horizon)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				batch.Unavailable[key] = err.Error()
				if p.logger != nil && !models.IsModelUnavailable(err) {
					p.logger.Error("horizon prediction failed",
						applogger.Int("horizon_hours", horizon),
						applogger.Error(err),
					)
				}
				return
			}
			batch.Predictions[key] = result
		}(h)
	}
	wg.Wait()

	if len(batch.Unavailable) == 0 {
		batch.Unavailable = nil
	}
	return batch, nil
}
