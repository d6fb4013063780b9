package engine

import "github.com/ftahirops/sensorguard/model"

// Evaluator abstracts a model that can score readings.
type Evaluator interface {
	Evaluate(r model.Reading) (model.Evaluation, error)
	Info() ModelInfo
}

// EvaluateReading returns only the classification and the anomaly score.
func EvaluateReading(ev Evaluator, r model.Reading) (bool, float64, error) {
	res, err := ev.Evaluate(r)
	if err != nil {
		return false, 0, err
	}
	return res.Anomalous, res.Score, nil
}
