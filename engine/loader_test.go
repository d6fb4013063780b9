package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ftahirops/sensorguard/model"
)

func TestLoadModelPrefersPipeline(t *testing.T) {
	dir := t.TempDir()
	writePipeline(t, dir, testScaler(), testForest(0, 1.5))
	writeSeparate(t, dir, testScaler(), testForest(0, 1.5))

	loaded, err := LoadModel(dir, ArtifactNames{})
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if loaded.Kind != KindPipeline {
		t.Fatalf("Kind = %v, want pipeline", loaded.Kind)
	}
	if len(loaded.Sources) != 1 || filepath.Base(loaded.Sources[0]) != DefaultArtifactNames().Pipeline {
		t.Fatalf("Sources = %v", loaded.Sources)
	}
}

func TestLoadModelPipelineWithoutScaler(t *testing.T) {
	dir := t.TempDir()
	writePipeline(t, dir, nil, testForest(0, 80))

	loaded, err := LoadModel(dir, ArtifactNames{})
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if loaded.Pipeline.Scaler != nil {
		t.Fatal("expected no scaler stage")
	}
	label, _ := loaded.Pipeline.Score(hotReading())
	if label != model.LabelOutlier {
		t.Fatalf("label = %d, want outlier", label)
	}
}

func TestLoadModelFallsBackToSeparate(t *testing.T) {
	dir := t.TempDir()
	writeSeparate(t, dir, testScaler(), testForest(0, 1.5))

	loaded, err := LoadModel(dir, ArtifactNames{})
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if loaded.Kind != KindSeparate {
		t.Fatalf("Kind = %v, want separate", loaded.Kind)
	}
	if len(loaded.Sources) != 2 {
		t.Fatalf("Sources = %v", loaded.Sources)
	}
}

func TestLoadModelCorruptPipelineFallsBack(t *testing.T) {
	dir := t.TempDir()
	names := DefaultArtifactNames()
	if err := os.WriteFile(filepath.Join(dir, names.Pipeline), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	writeSeparate(t, dir, testScaler(), testForest(0, 1.5))

	loaded, err := LoadModel(dir, names)
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if loaded.Kind != KindSeparate {
		t.Fatalf("Kind = %v, want separate", loaded.Kind)
	}
}

func TestLoadModelInvalidPipelineFallsBack(t *testing.T) {
	dir := t.TempDir()
	bad := testForest(0, 1.5)
	bad.Estimators = nil
	writePipeline(t, dir, testScaler(), bad)
	writeSeparate(t, dir, testScaler(), testForest(0, 1.5))

	loaded, err := LoadModel(dir, ArtifactNames{})
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if loaded.Kind != KindSeparate {
		t.Fatalf("Kind = %v, want separate", loaded.Kind)
	}
}

func TestLoadModelNotFound(t *testing.T) {
	dir := t.TempDir()
	loaded, err := LoadModel(dir, ArtifactNames{})
	if err == nil {
		t.Fatal("expected error with no artifacts")
	}
	if loaded != nil {
		t.Fatal("expected nil model on failure")
	}
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("error %v does not wrap ErrModelNotFound", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("error %v should carry the underlying not-exist cause", err)
	}
}

func TestLoadModelDetectorWithoutScalerIsNotFound(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, DefaultArtifactNames().Detector, testForest(0, 1.5))

	_, err := LoadModel(dir, ArtifactNames{})
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
}

func TestLoadModelWrongKind(t *testing.T) {
	dir := t.TempDir()
	names := DefaultArtifactNames()
	writeJSON(t, dir, names.Detector, testScaler())
	writeJSON(t, dir, names.Scaler, testScaler())

	_, err := LoadModel(dir, names)
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
}

func TestLoadModelCustomNames(t *testing.T) {
	dir := t.TempDir()
	names := ArtifactNames{Pipeline: "p.json", Detector: "d.json", Scaler: "s.json"}
	writeJSON(t, dir, "d.json", testForest(0, 1.5))
	writeJSON(t, dir, "s.json", testScaler())

	loaded, err := LoadModel(dir, names)
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if loaded.Kind != KindSeparate {
		t.Fatalf("Kind = %v, want separate", loaded.Kind)
	}
}

func TestPipelineFeatureNamesReorderInput(t *testing.T) {
	// artifact trained with the columns reversed: Temperature is column 7
	names := model.FeatureColumns()
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	scaler := testScaler()
	scaler.FeatureNamesIn = names
	scaler.Mean[0], scaler.Mean[7] = 0, 50
	scaler.Scale[0], scaler.Scale[7] = 1, 10

	p, err := NewPipeline(scaler, testForest(7, 1.5))
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if label, _ := p.Score(model.DefaultReading()); label != model.LabelInlier {
		t.Errorf("default reading label = %d, want inlier", label)
	}
	if label, _ := p.Score(hotReading()); label != model.LabelOutlier {
		t.Errorf("hot reading label = %d, want outlier", label)
	}
}

func TestPipelineRejectsUnknownFeatureNames(t *testing.T) {
	det := testForest(0, 1.5)
	det.FeatureNamesIn = []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	if _, err := NewPipeline(nil, det); err == nil {
		t.Fatal("expected error for unknown feature names")
	}

	dup := model.FeatureColumns()
	dup[1] = dup[0]
	det.FeatureNamesIn = dup
	if _, err := NewPipeline(nil, det); err == nil {
		t.Fatal("expected error for duplicate feature names")
	}
}

func TestPipelineRejectsMismatchedStageNames(t *testing.T) {
	scaler := testScaler()
	scaler.FeatureNamesIn = model.FeatureColumns()
	det := testForest(0, 1.5)
	rev := model.FeatureColumns()
	rev[0], rev[1] = rev[1], rev[0]
	det.FeatureNamesIn = rev
	if _, err := NewPipeline(scaler, det); err == nil {
		t.Fatal("expected error for mismatched column orders")
	}
}

func TestPipelineRejectsWrongWidth(t *testing.T) {
	det := testForest(0, 1.5)
	det.NFeaturesIn = 5
	if _, err := NewPipeline(nil, det); err == nil {
		t.Fatal("expected error for 5-feature detector")
	}
}

func TestModelKindString(t *testing.T) {
	if KindPipeline.String() != "pipeline" || KindSeparate.String() != "separate" {
		t.Fatalf("unexpected kind names %q %q", KindPipeline, KindSeparate)
	}
	if ModelKind(9).String() != "unknown" {
		t.Fatal("unexpected name for invalid kind")
	}
}
