package engine

import (
	"math"
	"testing"

	"github.com/ftahirops/sensorguard/model"
)

func TestAveragePathLength(t *testing.T) {
	tests := []struct {
		n    int
		want float64
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{3, 2*(math.Log(2)+eulerGamma) - 4.0/3.0},
		{256, 10.244770920},
	}
	for _, tt := range tests {
		got := averagePathLength(tt.n)
		if diff := got - tt.want; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("averagePathLength(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestForestScoring(t *testing.T) {
	f := testForest(0, 0.5)
	if err := f.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	c := averagePathLength(256)

	isolated := make([]float64, model.NumFeatures)
	isolated[0] = 1
	wantIso := -math.Pow(2, -(1+averagePathLength(1))/c)
	if got := f.ScoreSample(isolated); math.Abs(got-wantIso) > 1e-12 {
		t.Errorf("ScoreSample(isolated) = %v, want %v", got, wantIso)
	}
	if got := f.Predict(isolated); got != model.LabelOutlier {
		t.Errorf("Predict(isolated) = %d, want %d", got, model.LabelOutlier)
	}
	if d := f.DecisionFunction(isolated); d >= 0 {
		t.Errorf("DecisionFunction(isolated) = %v, want negative", d)
	}

	crowded := make([]float64, model.NumFeatures)
	wantCrowd := -math.Pow(2, -(1+averagePathLength(255))/c)
	if got := f.ScoreSample(crowded); math.Abs(got-wantCrowd) > 1e-12 {
		t.Errorf("ScoreSample(crowded) = %v, want %v", got, wantCrowd)
	}
	if got := f.Predict(crowded); got != model.LabelInlier {
		t.Errorf("Predict(crowded) = %d, want %d", got, model.LabelInlier)
	}
}

func TestForestAveragesTrees(t *testing.T) {
	f := testForest(0, 0.5)
	f.Estimators = append(f.Estimators, Tree{Nodes: []Node{{Left: -1, Right: -1, Samples: 256}}})
	x := make([]float64, model.NumFeatures)
	x[0] = 1

	c := averagePathLength(256)
	mean := ((1 + averagePathLength(1)) + averagePathLength(256)) / 2
	want := -math.Pow(2, -mean/c)
	if got := f.ScoreSample(x); math.Abs(got-want) > 1e-12 {
		t.Errorf("ScoreSample = %v, want %v", got, want)
	}
}

func TestForestFeatureSubset(t *testing.T) {
	f := testForest(0, 0.5)
	// local column 0 is input column 3
	f.Estimators[0].Features = []int{3, 4}
	if err := f.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	x := make([]float64, model.NumFeatures)
	x[0] = 10
	if got := f.Predict(x); got != model.LabelInlier {
		t.Errorf("column 0 should be ignored, got label %d", got)
	}
	x[3] = 10
	if got := f.Predict(x); got != model.LabelOutlier {
		t.Errorf("column 3 should isolate, got label %d", got)
	}
}

func TestForestScoreFiniteForNaN(t *testing.T) {
	f := testForest(0, 0.5)
	x := make([]float64, model.NumFeatures)
	x[0] = math.NaN()
	s := f.ScoreSample(x)
	if math.IsNaN(s) || math.IsInf(s, 0) {
		t.Fatalf("score not finite: %v", s)
	}
}

func TestForestSingleSampleMax(t *testing.T) {
	f := testForest(0, 0.5)
	f.MaxSamples = 1
	got := f.ScoreSample(make([]float64, model.NumFeatures))
	if got != -0.5 {
		t.Fatalf("ScoreSample with max_samples=1 = %v, want -0.5", got)
	}
}

func TestForestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(f *IsolationForest)
	}{
		{"no estimators", func(f *IsolationForest) { f.Estimators = nil }},
		{"zero max samples", func(f *IsolationForest) { f.MaxSamples = 0 }},
		{"nan offset", func(f *IsolationForest) { f.Offset = math.NaN() }},
		{"empty tree", func(f *IsolationForest) { f.Estimators[0].Nodes = nil }},
		{"self loop", func(f *IsolationForest) { f.Estimators[0].Nodes[0].Left = 0 }},
		{"backward edge", func(f *IsolationForest) {
			f.Estimators[0].Nodes[2] = Node{Left: 1, Right: 1, Feature: 0}
		}},
		{"child out of range", func(f *IsolationForest) { f.Estimators[0].Nodes[0].Right = 9 }},
		{"feature out of range", func(f *IsolationForest) { f.Estimators[0].Nodes[0].Feature = 8 }},
		{"subset out of range", func(f *IsolationForest) { f.Estimators[0].Features = []int{12} }},
		{"nan threshold", func(f *IsolationForest) { f.Estimators[0].Nodes[0].Threshold = math.NaN() }},
		{"names width mismatch", func(f *IsolationForest) { f.FeatureNamesIn = []string{"Temperature"} }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := testForest(0, 0.5)
			c.mutate(f)
			if err := f.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestForestSplitsOnFloat32Input(t *testing.T) {
	// 0.1 as float32 is 0.10000000149, above the threshold; as float64 it
	// is below it.
	const threshold = 0.1000000005
	f := testForest(0, threshold)
	x := make([]float64, model.NumFeatures)
	x[0] = 0.1

	if got := f.Predict(x); got != model.LabelOutlier {
		t.Fatalf("Predict = %d, want %d for a value that rounds above the split", got, model.LabelOutlier)
	}
	if x[0] != 0.1 {
		t.Fatalf("ScoreSample mutated its input: %v", x[0])
	}

	below := make([]float64, model.NumFeatures)
	below[0] = 0.09
	if got := f.Predict(below); got != model.LabelInlier {
		t.Fatalf("Predict(0.09) = %d, want %d", got, model.LabelInlier)
	}
}

func TestPipelineSplitsScaledValueAsFloat32(t *testing.T) {
	p, err := NewPipeline(testScaler(), testForest(0, 0.1000000005))
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	r := model.DefaultReading()
	r.Temperature = 51 // scales to 0.1

	label, decision := p.Score(r)
	if label != model.LabelOutlier || decision >= 0 {
		t.Fatalf("Score = (%d, %v), want outlier", label, decision)
	}
}
