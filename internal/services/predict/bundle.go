package predict

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"CoinCast/internal/domain/models"
	domsvc "CoinCast/internal/domain/service"
	applogger "CoinCast/pkg/logger"
)

// Horizons are the forecast horizons served, in hours.
var Horizons = []int{1, 6, 24}

// ClampBounds is the maximum absolute fractional change allowed per horizon.
var ClampBounds = map[int]float64{
	1:  0.02,
	6:  0.04,
	24: 0.08,
}

// Bundle is one horizon's frozen model: regressor, scaler and config loaded
// together and immutable after load.
type Bundle struct {
	Horizon     int
	Schema      []string
	Scaler      *Scaler
	Regressor   domsvc.Regressor
	Metrics     models.ModelMetrics
	Importances []float64 // parallel to Schema
	TrainedAt   time.Time
}

// bundleConfig is the model_config artifact: the ordered feature schema the
// model was trained on, its frozen evaluation metrics and importances.
type bundleConfig struct {
	FeatureColumns []string            `json:"feature_columns"`
	Metrics        models.ModelMetrics `json:"metrics"`
	Importances    []float64           `json:"feature_importances"`
	TrainedAt      time.Time           `json:"trained_at"`
}

// LoadBundles loads the artifact triple for each known horizon from dir.
// A horizon with missing or invalid artifacts is skipped with a warning so
// the remaining horizons stay serveable; the map holds only loaded bundles.
func LoadBundles(dir string, logger *applogger.Logger) map[int]*Bundle {
	bundles := make(map[int]*Bundle, len(Horizons))
	for _, h := range Horizons {
		b, err := loadBundle(dir, h)
		if err != nil {
			if logger != nil {
				logger.Warn("model bundle not loaded",
					applogger.Int("horizon_hours", h),
					applogger.Error(err),
				)
			}
			continue
		}
		if logger != nil {
			logger.Info("model bundle loaded",
				applogger.Int("horizon_hours", h),
				applogger.Int("features", len(b.Schema)),
				applogger.Any("r2", b.Metrics.R2),
			)
		}
		bundles[h] = b
	}
	return bundles
}

func loadBundle(dir string, horizon int) (*Bundle, error) {
	modelPath := filepath.Join(dir, fmt.Sprintf("model_%dh.json", horizon))
	scalerPath := filepath.Join(dir, fmt.Sprintf("scaler_%dh.json", horizon))
	configPath := filepath.Join(dir, fmt.Sprintf("model_config_%dh.json", horizon))

	modelData, err := os.ReadFile(modelPath)
	if err != nil {
		return nil, err
	}
	scalerData, err := os.ReadFile(scalerPath)
	if err != nil {
		return nil, err
	}
	configData, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	reg, err := decodeRegressor(modelData)
	if err != nil {
		return nil, err
	}
	var scaler Scaler
	if err := json.Unmarshal(scalerData, &scaler); err != nil {
		return nil, fmt.Errorf("decode scaler artifact: %w", err)
	}
	var cfg bundleConfig
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("decode model config artifact: %w", err)
	}

	b := &Bundle{
		Horizon:     horizon,
		Schema:      cfg.FeatureColumns,
		Scaler:      &scaler,
		Regressor:   reg,
		Metrics:     cfg.Metrics,
		Importances: cfg.Importances,
		TrainedAt:   cfg.TrainedAt,
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// validate checks the artifact triple is internally consistent. A bundle
// whose scaler or importances disagree with the schema length would silently
// mispair features with parameters, so it is rejected at load.
func (b *Bundle) validate() error {
	n := len(b.Schema)
	if n == 0 {
		return fmt.Errorf("model config for %dh has empty feature schema", b.Horizon)
	}
	if len(b.Scaler.Mean) != n || len(b.Scaler.Scale) != n {
		return fmt.Errorf("scaler for %dh has %d/%d parameters, schema has %d fields",
			b.Horizon, len(b.Scaler.Mean), len(b.Scaler.Scale), n)
	}
	if len(b.Importances) != n {
		return fmt.Errorf("model config for %dh has %d importances, schema has %d fields",
			b.Horizon, len(b.Importances), n)
	}
	return nil
}
