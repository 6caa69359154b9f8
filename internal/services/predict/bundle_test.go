package predict

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifacts(t *testing.T, dir string, horizon int, model, scaler, config string) {
	t.Helper()
	files := map[string]string{
		fmt.Sprintf("model_%dh.json", horizon):        model,
		fmt.Sprintf("scaler_%dh.json", horizon):       scaler,
		fmt.Sprintf("model_config_%dh.json", horizon): config,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
}

const (
	validModel  = `{"kind":"linear","linear":{"coefficients":[0,0],"intercept":50000}}`
	validScaler = `{"mean":[0,0],"scale":[1,1]}`
	validConfig = `{
		"feature_columns":["close","RSI"],
		"metrics":{"rmse":120.5,"mae":90.1,"r2":0.82,"direction_accuracy":0.61},
		"feature_importances":[0.7,0.3],
		"trained_at":"2026-08-01T00:00:00Z"
	}`
)

func TestLoadBundlesSkipsMissingHorizons(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir, 1, validModel, validScaler, validConfig)
	writeArtifacts(t, dir, 24, validModel, validScaler, validConfig)

	bundles := LoadBundles(dir, nil)
	require.Len(t, bundles, 2)
	assert.Contains(t, bundles, 1)
	assert.Contains(t, bundles, 24)
	assert.NotContains(t, bundles, 6)

	b := bundles[1]
	assert.Equal(t, []string{"close", "RSI"}, b.Schema)
	assert.Equal(t, 0.82, b.Metrics.R2)
	assert.Equal(t, []float64{0.7, 0.3}, b.Importances)
	assert.Equal(t, 2026, b.TrainedAt.Year())
	assert.Equal(t, 50000.0, b.Regressor.Predict([]float64{0, 0}))
}

func TestLoadBundlesEmptyDir(t *testing.T) {
	bundles := LoadBundles(t.TempDir(), nil)
	assert.Empty(t, bundles)
}

func TestLoadBundleRejectsScalerMismatch(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir, 1, validModel, `{"mean":[0],"scale":[1]}`, validConfig)

	_, err := loadBundle(dir, 1)
	assert.ErrorContains(t, err, "scaler for 1h")
}

func TestLoadBundleRejectsImportancesMismatch(t *testing.T) {
	dir := t.TempDir()
	config := `{
		"feature_columns":["close","RSI"],
		"metrics":{"r2":0.8},
		"feature_importances":[1.0],
		"trained_at":"2026-08-01T00:00:00Z"
	}`
	writeArtifacts(t, dir, 1, validModel, validScaler, config)

	_, err := loadBundle(dir, 1)
	assert.ErrorContains(t, err, "importances")
}

func TestLoadBundleRejectsEmptySchema(t *testing.T) {
	dir := t.TempDir()
	config := `{"feature_columns":[],"metrics":{},"feature_importances":[],"trained_at":"2026-08-01T00:00:00Z"}`
	writeArtifacts(t, dir, 1, validModel, `{"mean":[],"scale":[]}`, config)

	_, err := loadBundle(dir, 1)
	assert.ErrorContains(t, err, "empty feature schema")
}
