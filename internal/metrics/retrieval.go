package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval pipeline Prometheus metrics.
var (
	RetrievalRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aurora",
			Name:      "retrieval_requests_total",
			Help:      "Total retrieval requests",
		},
		[]string{"mode", "status"}, // mode: "hybrid" / "degraded"
	)

	RetrievalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aurora",
			Name:      "retrieval_duration_seconds",
			Help:      "Retrieval duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"mode"},
	)

	SnapshotDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "aurora",
			Name:      "snapshot_documents",
			Help:      "Documents in the published index snapshot",
		},
	)

	SnapshotRebuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aurora",
			Name:      "snapshot_rebuilds_total",
			Help:      "Snapshot build and refresh attempts",
		},
		[]string{"status"}, // "success" / "error" / "rejected"
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers retrieval metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(RetrievalRequestsTotal)
	prometheus.MustRegister(RetrievalDuration)
	prometheus.MustRegister(SnapshotDocuments)
	prometheus.MustRegister(SnapshotRebuildsTotal)
	retrievalMetricsRegistered = true
}
