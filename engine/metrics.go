package engine

import (
	"net/http"

	"github.com/ftahirops/sensorguard/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus collectors for evaluations.
type Metrics struct {
	registry    *prometheus.Registry
	evaluations prometheus.Counter
	anomalies   prometheus.Counter
	failures    prometheus.Counter
	lastScore   prometheus.Gauge
	scores      prometheus.Histogram
	modelInfo   *prometheus.GaugeVec
}

// NewMetrics registers the collectors on reg, or on a fresh registry when
// reg is nil.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sensorguard_evaluations_total",
			Help: "Readings scored by the anomaly model.",
		}),
		anomalies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sensorguard_anomalies_total",
			Help: "Readings classified as anomalous.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sensorguard_evaluation_failures_total",
			Help: "Evaluations that returned an error.",
		}),
		lastScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sensorguard_last_anomaly_score",
			Help: "Anomaly score of the most recent reading (higher is more anomalous).",
		}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sensorguard_anomaly_score",
			Help:    "Distribution of anomaly scores.",
			Buckets: prometheus.LinearBuckets(-0.5, 0.1, 11),
		}),
		modelInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sensorguard_model_info",
			Help: "Loaded model artifact shape (1 for the active kind).",
		}, []string{"kind", "dir"}),
	}
	reg.MustRegister(m.evaluations, m.anomalies, m.failures, m.lastScore, m.scores, m.modelInfo)
	return m
}

// SetModel records which model is loaded.
func (m *Metrics) SetModel(info ModelInfo) {
	m.modelInfo.Reset()
	m.modelInfo.WithLabelValues(info.Kind.String(), info.Dir).Set(1)
}

// Observe records one evaluation.
func (m *Metrics) Observe(ev model.Evaluation) {
	m.evaluations.Inc()
	if ev.Anomalous {
		m.anomalies.Inc()
	}
	m.lastScore.Set(ev.Score)
	m.scores.Observe(ev.Score)
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// instrumentedEvaluator updates metrics on each evaluation.
type instrumentedEvaluator struct {
	inner   Evaluator
	metrics *Metrics
}

// NewInstrumentedEvaluator wraps an evaluator and records metrics.
func NewInstrumentedEvaluator(inner Evaluator, m *Metrics) Evaluator {
	m.SetModel(inner.Info())
	return &instrumentedEvaluator{inner: inner, metrics: m}
}

func (e *instrumentedEvaluator) Evaluate(r model.Reading) (model.Evaluation, error) {
	ev, err := e.inner.Evaluate(r)
	if err != nil {
		e.metrics.failures.Inc()
		return ev, err
	}
	e.metrics.Observe(ev)
	return ev, nil
}

func (e *instrumentedEvaluator) Info() ModelInfo {
	return e.inner.Info()
}
