package metrics

import "github.com/prometheus/client_golang/prometheus"

// Refresh pipeline Prometheus metrics.
var (
	RefreshCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "streamscout",
			Name:      "refresh_cycles_total",
			Help:      "Total number of refresh cycles",
		},
		[]string{"status"}, // "ok" / "error" / "in_flight"
	)

	RefreshCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "streamscout",
			Name:      "refresh_cycle_duration_seconds",
			Help:      "Refresh cycle duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	StreamsChanged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "streamscout",
			Name:      "streams_changed_total",
			Help:      "Streams detected as new, changed, or ended per cycle",
		},
		[]string{"kind"}, // "new" / "changed" / "ended"
	)

	EnrichmentChunksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "streamscout",
			Name:      "enrichment_chunks_total",
			Help:      "Total enrichment chunks processed",
		},
		[]string{"status"}, // "ok" / "error"
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "streamscout",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding batch requests",
		},
		[]string{"model", "status"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "streamscout",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"model", "type"},
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "streamscout",
			Name:      "notifications_total",
			Help:      "Total subscriber notifications dispatched",
		},
		[]string{"status"}, // "sent" / "error"
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers refresh pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(RefreshCyclesTotal)
	prometheus.MustRegister(RefreshCycleDuration)
	prometheus.MustRegister(StreamsChanged)
	prometheus.MustRegister(EnrichmentChunksTotal)
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingTokensTotal)
	prometheus.MustRegister(NotificationsTotal)
	pipelineMetricsRegistered = true
}
