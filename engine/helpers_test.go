package engine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ftahirops/sensorguard/model"
)

// testForest isolates readings whose (scaled) column col exceeds threshold.
// The left leaf holds almost all training samples, the right leaf one.
func testForest(col int, threshold float64) *IsolationForest {
	return &IsolationForest{
		Kind:        KindForestArtifact,
		NFeaturesIn: model.NumFeatures,
		MaxSamples:  256,
		Offset:      -0.5,
		Estimators: []Tree{{
			Nodes: []Node{
				{Left: 1, Right: 2, Feature: col, Threshold: threshold, Samples: 256},
				{Left: -1, Right: -1, Samples: 255},
				{Left: -1, Right: -1, Samples: 1},
			},
		}},
	}
}

// testScaler centres temperature on 50 with unit 10 and leaves the rest alone.
func testScaler() *StandardScaler {
	mean := make([]float64, model.NumFeatures)
	scale := make([]float64, model.NumFeatures)
	for i := range scale {
		scale[i] = 1
	}
	mean[0], scale[0] = 50, 10
	return &StandardScaler{Kind: KindScalerArtifact, Mean: mean, Scale: scale}
}

func writeJSON(t *testing.T, dir, name string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %s: %v", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func writePipeline(t *testing.T, dir string, scaler *StandardScaler, det *IsolationForest) {
	t.Helper()
	art := pipelineArtifact{Kind: KindPipelineArtifact}
	if scaler != nil {
		art.Steps = append(art.Steps, pipelineStep{Name: "scaler", Scaler: scaler})
	}
	art.Steps = append(art.Steps, pipelineStep{Name: "iforest", Detector: det})
	writeJSON(t, dir, DefaultArtifactNames().Pipeline, art)
}

func writeSeparate(t *testing.T, dir string, scaler *StandardScaler, det *IsolationForest) {
	t.Helper()
	names := DefaultArtifactNames()
	writeJSON(t, dir, names.Detector, det)
	writeJSON(t, dir, names.Scaler, scaler)
}

func hotReading() model.Reading {
	r := model.DefaultReading()
	r.Temperature = 95
	return r
}
