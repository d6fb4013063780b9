package engine

import (
	"fmt"
	"time"

	"github.com/ftahirops/sensorguard/model"
	"github.com/google/uuid"
)

// ModelInfo describes the loaded model for display.
type ModelInfo struct {
	Kind    ModelKind `json:"kind"`
	Dir     string    `json:"dir"`
	Sources []string  `json:"sources"`
	Trees   int       `json:"trees"`
	Scaled  bool      `json:"scaled"`
}

// Engine scores readings against the model loaded at startup.
// It holds no mutable state, so Evaluate is safe for concurrent use.
type Engine struct {
	loaded *Loaded
	now    func() time.Time
	newID  func() string
}

// NewEngine wraps a loaded model.
func NewEngine(loaded *Loaded) *Engine {
	return &Engine{
		loaded: loaded,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Info returns a description of the loaded model.
func (e *Engine) Info() ModelInfo {
	if e == nil || e.loaded == nil {
		return ModelInfo{}
	}
	p := e.loaded.Pipeline
	return ModelInfo{
		Kind:    e.loaded.Kind,
		Dir:     e.loaded.Dir,
		Sources: append([]string(nil), e.loaded.Sources...),
		Trees:   len(p.Detector.Estimators),
		Scaled:  p.Scaler != nil,
	}
}

// Evaluate scores one reading. The score is the sign-inverted decision
// function; the reading is anomalous when the detector predicts the outlier
// label.
func (e *Engine) Evaluate(r model.Reading) (model.Evaluation, error) {
	if e == nil || e.loaded == nil || e.loaded.Pipeline == nil {
		return model.Evaluation{}, fmt.Errorf("evaluate: %w", ErrModelNotFound)
	}
	label, decision := e.loaded.Pipeline.Score(r)
	return model.Evaluation{
		ID:        e.newID(),
		Timestamp: e.now(),
		Reading:   r,
		Label:     label,
		Anomalous: label == model.LabelOutlier,
		Score:     -decision,
		ModelKind: e.loaded.Kind.String(),
	}, nil
}
