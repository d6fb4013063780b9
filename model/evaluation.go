package model

import (
	"fmt"
	"time"
)

// Detector labels as produced by predict.
const (
	LabelOutlier = -1
	LabelInlier  = 1
)

// Evaluation is the outcome of scoring one Reading.
type Evaluation struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Reading   Reading   `json:"reading"`
	Label     int       `json:"label"`
	Anomalous bool      `json:"anomalous"`
	// Score is the sign-inverted decision function: higher is more anomalous.
	Score     float64 `json:"score"`
	ModelKind string  `json:"model_kind"`
}

// Message returns the user-facing result line.
func (e Evaluation) Message() string {
	if e.Anomalous {
		return fmt.Sprintf("Anomaly Detected! (score=%.3f)", e.Score)
	}
	return fmt.Sprintf("Machine is Normal (score=%.3f)", e.Score)
}

// Status returns a short status word for badges.
func (e Evaluation) Status() string {
	if e.Anomalous {
		return "ANOMALY"
	}
	return "NORMAL"
}
