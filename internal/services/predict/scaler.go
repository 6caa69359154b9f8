package predict

import "fmt"

// Scaler is the frozen affine standardizer captured at training time:
// scaled[i] = (x[i] - Mean[i]) / Scale[i]. A zero scale entry (constant
// training column) divides by one instead, matching the fitted behavior.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Transform standardizes one feature vector. The vector must be in schema
// order and the same length as the fitted parameters.
func (s *Scaler) Transform(features []float64) ([]float64, error) {
	if len(features) != len(s.Mean) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.Mean), len(features))
	}
	out := make([]float64, len(features))
	for i, x := range features {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (x - s.Mean[i]) / scale
	}
	return out, nil
}
