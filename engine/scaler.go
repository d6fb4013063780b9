package engine

import (
	"fmt"
	"math"
)

// StandardScaler is an exported, fitted z-score feature scaler.
// Mean or Scale may be empty when the scaler was fitted without centering
// or without scaling.
type StandardScaler struct {
	Kind           string    `json:"kind,omitempty"`
	FeatureNamesIn []string  `json:"feature_names_in,omitempty"`
	Mean           []float64 `json:"mean,omitempty"`
	Scale          []float64 `json:"scale,omitempty"`
}

// Validate checks the scaler against the expected row width.
func (s *StandardScaler) Validate(width int) error {
	if s == nil {
		return fmt.Errorf("scaler: missing")
	}
	if len(s.Mean) == 0 && len(s.Scale) == 0 {
		return fmt.Errorf("scaler: neither mean nor scale present")
	}
	if len(s.Mean) != 0 && len(s.Mean) != width {
		return fmt.Errorf("scaler: mean has %d values, expected %d", len(s.Mean), width)
	}
	if len(s.Scale) != 0 && len(s.Scale) != width {
		return fmt.Errorf("scaler: scale has %d values, expected %d", len(s.Scale), width)
	}
	if len(s.FeatureNamesIn) != 0 && len(s.FeatureNamesIn) != width {
		return fmt.Errorf("scaler: %d feature names, expected %d", len(s.FeatureNamesIn), width)
	}
	for i, v := range s.Mean {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("scaler: mean[%d] is not finite", i)
		}
	}
	for i, v := range s.Scale {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("scaler: scale[%d] must be finite and non-negative", i)
		}
	}
	return nil
}

// Transform returns a standardized copy of x.
func (s *StandardScaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		mean, scale := 0.0, 1.0
		if len(s.Mean) > i {
			mean = s.Mean[i]
		}
		if len(s.Scale) > i {
			scale = s.Scale[i]
		}
		out[i] = standardize(v, mean, scale)
	}
	return out
}

// standardize returns (value-mean)/scale. A zero scale means the feature
// was constant during fitting and is treated as 1.
func standardize(value, mean, scale float64) float64 {
	if scale == 0 {
		scale = 1
	}
	return (value - mean) / scale
}
