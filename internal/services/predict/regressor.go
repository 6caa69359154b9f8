package predict

import (
	"encoding/json"
	"fmt"

	domsvc "CoinCast/internal/domain/service"
)

// modelFile is the serialized regressor artifact. Kind selects the concrete
// decoder; exactly one of the payload fields is populated.
type modelFile struct {
	Kind   string          `json:"kind"`
	Linear *LinearModel    `json:"linear,omitempty"`
	Trees  *TreeEnsemble   `json:"trees,omitempty"`
	Raw    json.RawMessage `json:"-"`
}

// LinearModel is a plain linear regressor over the scaled feature vector.
type LinearModel struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

// Predict returns intercept + dot(coefficients, features).
func (m *LinearModel) Predict(features []float64) float64 {
	y := m.Intercept
	for i, c := range m.Coefficients {
		if i < len(features) {
			y += c * features[i]
		}
	}
	return y
}

// TreeNode is one node of a regression tree in array layout. Leaves have
// Left == -1 and carry their value in Value.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// TreeEnsemble is a boosted sum of regression trees: prediction is the base
// score plus every tree's leaf value for the input.
type TreeEnsemble struct {
	BaseScore float64      `json:"base_score"`
	Trees     [][]TreeNode `json:"trees"`
}

// Predict walks each tree from its root and sums the reached leaf values.
func (m *TreeEnsemble) Predict(features []float64) float64 {
	y := m.BaseScore
	for _, tree := range m.Trees {
		y += walkTree(tree, features)
	}
	return y
}

func walkTree(tree []TreeNode, features []float64) float64 {
	i := 0
	for i >= 0 && i < len(tree) {
		n := tree[i]
		if n.Left < 0 {
			return n.Value
		}
		if n.Feature < len(features) && features[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return 0
}

// decodeRegressor parses a model artifact into its concrete regressor.
func decodeRegressor(data []byte) (domsvc.Regressor, error) {
	var f modelFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	switch f.Kind {
	case "gbtree":
		if f.Trees == nil {
			return nil, fmt.Errorf("gbtree artifact missing trees payload")
		}
		return f.Trees, nil
	case "linear":
		if f.Linear == nil {
			return nil, fmt.Errorf("linear artifact missing linear payload")
		}
		return f.Linear, nil
	default:
		return nil, fmt.Errorf("unknown model kind %q", f.Kind)
	}
}
