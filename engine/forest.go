package engine

import (
	"fmt"
	"math"

	"github.com/ftahirops/sensorguard/model"
)

// eulerGamma is the Euler–Mascheroni constant.
const eulerGamma = 0.5772156649015329

// Node is one node of an exported isolation tree. Leaves have Left == Right == -1.
type Node struct {
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Samples   int     `json:"n_node_samples"`
}

func (n Node) leaf() bool {
	return n.Left == -1 && n.Right == -1
}

// Tree is one isolation tree. Features, when set, maps the tree's local
// column index to the forest input column.
type Tree struct {
	Features []int  `json:"features,omitempty"`
	Nodes    []Node `json:"nodes"`
}

// IsolationForest is an exported, fitted isolation forest detector.
type IsolationForest struct {
	Kind           string   `json:"kind,omitempty"`
	FeatureNamesIn []string `json:"feature_names_in,omitempty"`
	NFeaturesIn    int      `json:"n_features_in"`
	MaxSamples     int      `json:"max_samples"`
	Offset         float64  `json:"offset"`
	Estimators     []Tree   `json:"estimators"`
}

// Width returns the number of input columns the forest expects.
func (f *IsolationForest) Width() int {
	if f.NFeaturesIn > 0 {
		return f.NFeaturesIn
	}
	if len(f.FeatureNamesIn) > 0 {
		return len(f.FeatureNamesIn)
	}
	return model.NumFeatures
}

// Validate checks structural soundness so scoring can never loop or index
// out of range.
func (f *IsolationForest) Validate() error {
	if f == nil {
		return fmt.Errorf("detector: missing")
	}
	width := f.Width()
	if len(f.FeatureNamesIn) != 0 && len(f.FeatureNamesIn) != width {
		return fmt.Errorf("detector: %d feature names, n_features_in %d", len(f.FeatureNamesIn), width)
	}
	if f.MaxSamples < 1 {
		return fmt.Errorf("detector: max_samples must be >= 1, got %d", f.MaxSamples)
	}
	if math.IsNaN(f.Offset) || math.IsInf(f.Offset, 0) {
		return fmt.Errorf("detector: offset is not finite")
	}
	if len(f.Estimators) == 0 {
		return fmt.Errorf("detector: no estimators")
	}
	for i := range f.Estimators {
		if err := f.Estimators[i].validate(width); err != nil {
			return fmt.Errorf("detector: estimator %d: %w", i, err)
		}
	}
	return nil
}

func (t *Tree) validate(width int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("no nodes")
	}
	local := width
	if len(t.Features) > 0 {
		for j, c := range t.Features {
			if c < 0 || c >= width {
				return fmt.Errorf("feature subset[%d]=%d out of range", j, c)
			}
		}
		local = len(t.Features)
	}
	for i, n := range t.Nodes {
		if n.Samples < 0 {
			return fmt.Errorf("node %d: negative sample count", i)
		}
		if n.leaf() {
			continue
		}
		// children always follow their parent, so descent terminates
		if n.Left <= i || n.Left >= len(t.Nodes) || n.Right <= i || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: child index out of range", i)
		}
		if n.Feature < 0 || n.Feature >= local {
			return fmt.Errorf("node %d: feature %d out of range", i, n.Feature)
		}
		if math.IsNaN(n.Threshold) {
			return fmt.Errorf("node %d: threshold is NaN", i)
		}
	}
	return nil
}

// pathLength returns the isolation depth of x in this tree, adjusted by the
// expected depth of the unbuilt subtree below the reached leaf.
func (t *Tree) pathLength(x []float64) float64 {
	idx, depth := 0, 0
	for {
		n := t.Nodes[idx]
		if n.leaf() {
			return float64(depth) + averagePathLength(n.Samples)
		}
		col := n.Feature
		if len(t.Features) > 0 {
			col = t.Features[col]
		}
		// NaN compares false and goes right
		if x[col] <= n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
		depth++
	}
}

// asFloat32 rounds a row to float32 precision. The exported trees were
// fitted and are walked on float32 input, so splits must compare the
// rounded values against the float64 thresholds.
func asFloat32(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = float64(float32(v))
	}
	return out
}

// averagePathLength is c(n), the average path length of an unsuccessful
// search in a binary search tree of n points.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
}

// ScoreSample returns the negated anomaly score from the isolation forest
// paper: values near -1 are anomalous, values near -0.5 or above are normal.
func (f *IsolationForest) ScoreSample(x []float64) float64 {
	x = asFloat32(x)
	var sum float64
	for i := range f.Estimators {
		sum += f.Estimators[i].pathLength(x)
	}
	mean := sum / float64(len(f.Estimators))

	ratio := 1.0
	if c := averagePathLength(f.MaxSamples); c != 0 {
		ratio = mean / c
	}
	return -math.Pow(2, -ratio)
}

// DecisionFunction shifts ScoreSample by the fitted offset so that
// negative values are outliers.
func (f *IsolationForest) DecisionFunction(x []float64) float64 {
	return f.ScoreSample(x) - f.Offset
}

// Predict returns model.LabelOutlier or model.LabelInlier.
func (f *IsolationForest) Predict(x []float64) int {
	return labelFor(f.DecisionFunction(x))
}

func labelFor(decision float64) int {
	if decision < 0 {
		return model.LabelOutlier
	}
	return model.LabelInlier
}
