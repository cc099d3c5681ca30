package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	scansTotal   *prometheus.CounterVec
	changesTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastMDL      *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		scansTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regimescan_scans_total",
				Help: "Total number of breakpoint scans performed",
			},
			[]string{"symbol"},
		),
		changesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regimescan_changes_total",
				Help: "Total number of regime changes detected",
			},
			[]string{"symbol", "source"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regimescan_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastMDL: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "regimescan_last_mdl",
				Help: "Last smoothed description length for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "regimescan_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordScan records a completed scan for a symbol.
func (r *Recorder) RecordScan(symbol string) {
	r.scansTotal.WithLabelValues(symbol).Inc()
}

// RecordChange records a detected regime change.
func (r *Recorder) RecordChange(symbol, source string) {
	r.changesTotal.WithLabelValues(symbol, source).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastMDL records the last smoothed description length for a symbol.
func (r *Recorder) RecordLastMDL(symbol string, v float64) {
	r.lastMDL.WithLabelValues(symbol).Set(v)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
