package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	analysesTotal *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	riskScore     *prometheus.GaugeVec
	stageLatency  *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		analysesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rugdetector_analyses_total",
				Help: "Total number of contract analyses by risk category",
			},
			[]string{"blockchain", "category"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rugdetector_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		riskScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rugdetector_last_risk_score",
				Help: "Last computed risk score per blockchain",
			},
			[]string{"blockchain"},
		),
		stageLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rugdetector_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
	}
}

// RecordAnalysis records a completed analysis.
func (r *Recorder) RecordAnalysis(blockchain, category string) {
	r.analysesTotal.WithLabelValues(blockchain, category).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordRiskScore records the last computed risk score.
func (r *Recorder) RecordRiskScore(blockchain string, score float64) {
	r.riskScore.WithLabelValues(blockchain).Set(score)
}

// RecordStageLatency records pipeline stage latency in seconds.
func (r *Recorder) RecordStageLatency(stage string, seconds float64) {
	r.stageLatency.WithLabelValues(stage).Observe(seconds)
}
