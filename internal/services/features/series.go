package features

import (
	"fmt"
	"sort"

	"CoinCast/internal/domain/models"
)

// NormalizeSeries turns raw OHLCV records into a strictly increasing,
// UTC-stamped candle series. Duplicate timestamps and non-positive closes are
// rejected; gaps are left as-is (missing hours surface later as NaN
// indicators, never interpolated).
func NormalizeSeries(raw []models.Candle) ([]models.Candle, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty candle set")
	}
	out := make([]models.Candle, len(raw))
	copy(out, raw)
	for i := range out {
		out[i].OpenTime = out[i].OpenTime.UTC()
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OpenTime.Before(out[j].OpenTime)
	})
	for i, c := range out {
		if c.Close <= 0 {
			return nil, fmt.Errorf("candle at %s: close must be positive, got %v", c.OpenTime, c.Close)
		}
		if i > 0 && !out[i-1].OpenTime.Before(c.OpenTime) {
			return nil, fmt.Errorf("duplicate candle timestamp %s", c.OpenTime)
		}
	}
	return out, nil
}
