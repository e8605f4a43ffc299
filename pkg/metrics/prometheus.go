package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	analyses  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	fragility *prometheus.GaugeVec
	synthetic *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

// New registers the recorder on the default registry.
func New() *Recorder { return NewWith(prometheus.DefaultRegisterer) }

// NewWith registers the recorder on reg.
func NewWith(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		analyses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coeff_analyses_total",
				Help: "Completed analysis runs by outcome",
			},
			[]string{"outcome"},
		),
		errors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coeff_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		fragility: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "coeff_last_fragility_score",
				Help: "Fragility score of the last completed run per benchmark",
			},
			[]string{"benchmark"},
		),
		synthetic: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coeff_synthetic_series_total",
				Help: "Series served from simulated data",
			},
			[]string{"ticker"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coeff_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordAnalysis counts a finished run.
func (r *Recorder) RecordAnalysis(outcome string) {
	r.analyses.WithLabelValues(outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errors.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordFragility(benchmark string, score int) {
	r.fragility.WithLabelValues(benchmark).Set(float64(score))
}

func (r *Recorder) RecordSynthetic(ticker string) {
	r.synthetic.WithLabelValues(ticker).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards every observation.
type Nop struct{}

func (Nop) RecordAnalysis(string)         {}
func (Nop) RecordError(string)            {}
func (Nop) RecordFragility(string, int)   {}
func (Nop) RecordLatency(string, float64) {}
func (Nop) RecordSynthetic(string)        {}
