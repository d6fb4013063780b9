package engine

import (
	"fmt"

	"github.com/ftahirops/sensorguard/model"
)

// Pipeline is an optional scaler followed by the detector, with the column
// order the first stage was fitted on.
type Pipeline struct {
	Scaler   *StandardScaler
	Detector *IsolationForest
	// columns[i] is the Reading row index feeding artifact column i.
	columns []int
}

// NewPipeline validates the stages and resolves the input column order.
func NewPipeline(scaler *StandardScaler, detector *IsolationForest) (*Pipeline, error) {
	if err := detector.Validate(); err != nil {
		return nil, err
	}
	if detector.Width() != model.NumFeatures {
		return nil, fmt.Errorf("detector expects %d features, reading has %d", detector.Width(), model.NumFeatures)
	}
	if scaler != nil {
		if err := scaler.Validate(model.NumFeatures); err != nil {
			return nil, err
		}
	}

	names := detector.FeatureNamesIn
	if scaler != nil && len(scaler.FeatureNamesIn) > 0 {
		if len(names) > 0 && !sameNames(names, scaler.FeatureNamesIn) {
			return nil, fmt.Errorf("scaler and detector were fitted on different column orders")
		}
		names = scaler.FeatureNamesIn
	}
	columns, err := resolveColumns(names)
	if err != nil {
		return nil, err
	}

	return &Pipeline{Scaler: scaler, Detector: detector, columns: columns}, nil
}

// resolveColumns maps artifact column names onto Reading row indices.
// No names means the artifact uses the Reading order.
func resolveColumns(names []string) ([]int, error) {
	columns := make([]int, model.NumFeatures)
	if len(names) == 0 {
		for i := range columns {
			columns[i] = i
		}
		return columns, nil
	}
	if len(names) != model.NumFeatures {
		return nil, fmt.Errorf("artifact has %d feature names, expected %d", len(names), model.NumFeatures)
	}
	seen := make(map[int]bool, len(names))
	for i, name := range names {
		idx := model.FeatureIndex(name)
		if idx < 0 {
			return nil, fmt.Errorf("artifact feature %q is not a sensor reading field", name)
		}
		if seen[idx] {
			return nil, fmt.Errorf("artifact feature %q listed twice", name)
		}
		seen[idx] = true
		columns[i] = idx
	}
	return columns, nil
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// row arranges a Reading into the artifact's column order.
func (p *Pipeline) row(r model.Reading) []float64 {
	v := r.Vector()
	x := make([]float64, len(p.columns))
	for i, c := range p.columns {
		x[i] = v[c]
	}
	return x
}

// Score runs one reading through the stages and returns the predicted
// label and the raw decision function.
func (p *Pipeline) Score(r model.Reading) (label int, decision float64) {
	x := p.row(r)
	if p.Scaler != nil {
		x = p.Scaler.Transform(x)
	}
	decision = p.Detector.DecisionFunction(x)
	return labelFor(decision), decision
}
