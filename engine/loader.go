package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// ErrModelNotFound is returned when neither the pipeline artifact nor the
// separate detector/scaler pair could be loaded.
var ErrModelNotFound = errors.New("model not found")

// Artifact kinds written into each exported file.
const (
	KindPipelineArtifact = "pipeline"
	KindForestArtifact   = "isolation_forest"
	KindScalerArtifact   = "standard_scaler"
)

// ModelKind tells which artifact shape was loaded.
type ModelKind int

const (
	KindPipeline ModelKind = iota
	KindSeparate
)

func (k ModelKind) String() string {
	switch k {
	case KindPipeline:
		return "pipeline"
	case KindSeparate:
		return "separate"
	}
	return "unknown"
}

// MarshalText renders the kind by name in JSON reports.
func (k ModelKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ArtifactNames are the conventional file names inside the model directory.
type ArtifactNames struct {
	Pipeline string `json:"pipeline" yaml:"pipeline"`
	Detector string `json:"detector" yaml:"detector"`
	Scaler   string `json:"scaler" yaml:"scaler"`
}

// DefaultArtifactNames returns the standard artifact file names.
func DefaultArtifactNames() ArtifactNames {
	return ArtifactNames{
		Pipeline: "anomaly_detection_pipeline.json",
		Detector: "isolation_forest_model.json",
		Scaler:   "scaler.json",
	}
}

// Loaded is a successfully deserialized model.
type Loaded struct {
	Kind     ModelKind
	Pipeline *Pipeline
	Dir      string
	Sources  []string
}

type pipelineArtifact struct {
	Kind  string         `json:"kind"`
	Steps []pipelineStep `json:"steps"`
}

type pipelineStep struct {
	Name     string           `json:"name"`
	Scaler   *StandardScaler  `json:"scaler,omitempty"`
	Detector *IsolationForest `json:"detector,omitempty"`
}

// LoadModel loads the pipeline artifact, falling back to the separate
// detector and scaler pair. The returned error wraps ErrModelNotFound and
// both underlying causes.
func LoadModel(dir string, names ArtifactNames) (*Loaded, error) {
	def := DefaultArtifactNames()
	if names.Pipeline == "" {
		names.Pipeline = def.Pipeline
	}
	if names.Detector == "" {
		names.Detector = def.Detector
	}
	if names.Scaler == "" {
		names.Scaler = def.Scaler
	}

	pipePath := filepath.Join(dir, names.Pipeline)
	p, pipeErr := loadPipeline(pipePath)
	if pipeErr == nil {
		log.Printf("sensorguard: loaded pipeline artifact %s", pipePath)
		return &Loaded{Kind: KindPipeline, Pipeline: p, Dir: dir, Sources: []string{pipePath}}, nil
	}
	log.Printf("sensorguard: pipeline artifact unavailable: %v", pipeErr)

	detPath := filepath.Join(dir, names.Detector)
	scalerPath := filepath.Join(dir, names.Scaler)
	p, sepErr := loadSeparate(detPath, scalerPath)
	if sepErr == nil {
		log.Printf("sensorguard: loaded detector %s with scaler %s", detPath, scalerPath)
		return &Loaded{Kind: KindSeparate, Pipeline: p, Dir: dir, Sources: []string{detPath, scalerPath}}, nil
	}
	log.Printf("sensorguard: separate artifacts unavailable: %v", sepErr)

	return nil, fmt.Errorf("%w in %s: %w", ErrModelNotFound, dir, errors.Join(pipeErr, sepErr))
}

func loadPipeline(path string) (*Pipeline, error) {
	var art pipelineArtifact
	if err := readArtifact(path, &art); err != nil {
		return nil, err
	}
	if art.Kind != "" && art.Kind != KindPipelineArtifact {
		return nil, fmt.Errorf("%s: kind %q, expected %q", path, art.Kind, KindPipelineArtifact)
	}

	var scaler *StandardScaler
	var detector *IsolationForest
	switch len(art.Steps) {
	case 1:
		detector = art.Steps[0].Detector
	case 2:
		scaler = art.Steps[0].Scaler
		detector = art.Steps[1].Detector
		if scaler == nil {
			return nil, fmt.Errorf("%s: step %q is not a scaler", path, art.Steps[0].Name)
		}
	default:
		return nil, fmt.Errorf("%s: expected 1 or 2 steps, got %d", path, len(art.Steps))
	}
	if detector == nil {
		return nil, fmt.Errorf("%s: last step is not a detector", path)
	}

	p, err := NewPipeline(scaler, detector)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func loadSeparate(detPath, scalerPath string) (*Pipeline, error) {
	var detector IsolationForest
	if err := readArtifact(detPath, &detector); err != nil {
		return nil, err
	}
	if detector.Kind != "" && detector.Kind != KindForestArtifact {
		return nil, fmt.Errorf("%s: kind %q, expected %q", detPath, detector.Kind, KindForestArtifact)
	}

	var scaler StandardScaler
	if err := readArtifact(scalerPath, &scaler); err != nil {
		return nil, err
	}
	if scaler.Kind != "" && scaler.Kind != KindScalerArtifact {
		return nil, fmt.Errorf("%s: kind %q, expected %q", scalerPath, scaler.Kind, KindScalerArtifact)
	}

	p, err := NewPipeline(&scaler, &detector)
	if err != nil {
		return nil, fmt.Errorf("%s + %s: %w", detPath, scalerPath, err)
	}
	return p, nil
}

func readArtifact(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
