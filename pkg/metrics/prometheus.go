package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions *prometheus.CounterVec
	clamps      *prometheus.CounterVec
	rowsSunk    *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	lastPrice   *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		predictions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coincast_predictions_total",
				Help: "Total predictions served by horizon and direction",
			},
			[]string{"horizon", "direction"},
		),
		clamps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coincast_clamped_predictions_total",
				Help: "Predictions whose raw output exceeded the horizon bound",
			},
			[]string{"horizon"},
		),
		rowsSunk: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coincast_feature_rows_sunk_total",
				Help: "Feature rows written to the dataset backend",
			},
			[]string{"backend"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coincast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "coincast_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coincast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPrediction records one served prediction.
func (r *Recorder) RecordPrediction(horizon, direction string) {
	r.predictions.WithLabelValues(horizon, direction).Inc()
}

// RecordClamp records a prediction that hit the horizon's clamp bound.
func (r *Recorder) RecordClamp(horizon string) {
	r.clamps.WithLabelValues(horizon).Inc()
}

// RecordRowSunk records a feature row written to a backend.
func (r *Recorder) RecordRowSunk(backend string) {
	r.rowsSunk.WithLabelValues(backend).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
