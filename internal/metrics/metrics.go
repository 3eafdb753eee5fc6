// Package metrics declares the Prometheus collectors exported by the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cbs"

// Prediction outcomes.
const (
	OutcomeModel          = "model"
	OutcomeEmpty          = "fallback_empty"
	OutcomeNoModel        = "fallback_no_model"
	OutcomePredictFailure = "fallback_error"
)

// Retrain results.
const (
	ResultTrained = "trained"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

var (
	// IngestionsTotal counts persisted spending records.
	// Labels: zone (green, red, black)
	IngestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestions_total",
			Help:      "Total number of spending records ingested by zone",
		},
		[]string{"zone"},
	)

	// PredictionsTotal counts category predictions by outcome.
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "category",
			Name:      "predictions_total",
			Help:      "Total number of category predictions by outcome",
		},
		[]string{"outcome"},
	)

	// RetrainRunsTotal counts retraining runs.
	// Labels: result (trained, skipped, failed)
	RetrainRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrain_runs_total",
			Help:      "Total number of category model retraining runs",
		},
		[]string{"result"},
	)

	RetrainDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrain_duration_seconds",
			Help:      "Duration of category model retraining runs in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// ModelSamples is the number of examples the serving model was trained on.
	ModelSamples = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "training_samples",
			Help:      "Number of labeled examples behind the serving category model",
		},
	)

	// HTTPRequestsTotal counts served requests.
	// Labels: method, route (gin full path), status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds by method and route",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		},
		[]string{"method", "route"},
	)

	ModelClasses = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "classes",
			Help:      "Number of categories known to the serving category model",
		},
	)
)

// ObserveModel updates the serving-model gauges.
func ObserveModel(samples, classes int) {
	ModelSamples.Set(float64(samples))
	ModelClasses.Set(float64(classes))
}
