package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ExplorerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rugdetector",
			Subsystem: "explorer",
			Name:      "latency_seconds",
			Help:      "Latency of block explorer API calls",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	ExplorerErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rugdetector",
			Subsystem: "explorer",
			Name:      "errors_total",
			Help:      "Errors by explorer endpoint",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(ExplorerLatency, ExplorerErrors)
	})
}
