// Package metrics exposes Prometheus collectors for the answer pipeline and
// an in-process recorder backing the metrics snapshot operation.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics.
var (
	RequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "exhibitqa",
			Name:      "requests_total",
			Help:      "Total requests handled by the core",
		},
	)

	ChatRequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "exhibitqa",
			Name:      "chat_requests_total",
			Help:      "Total answer pipeline invocations",
		},
	)

	RecommenderCallsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "exhibitqa",
			Name:      "recommender_calls_total",
			Help:      "Calls to the semantic recommender service",
		},
	)

	BackendBatchCallsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "exhibitqa",
			Name:      "backend_batch_calls_total",
			Help:      "Batch calls to the exhibit detail provider",
		},
	)

	BackendItemCallsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "exhibitqa",
			Name:      "backend_item_calls_total",
			Help:      "Per-item calls to the exhibit detail provider",
		},
	)

	ErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "exhibitqa",
			Name:      "errors_total",
			Help:      "Upstream and internal errors",
		},
	)

	ChatLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "exhibitqa",
			Name:      "chat_latency_seconds",
			Help:      "Latency of answer pipeline invocations",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.5, 0.75, 1, 2, 5},
		},
	)

	DetailCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "exhibitqa",
			Name:      "detail_cache_total",
			Help:      "Detail cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var registered bool

// Register registers pipeline Prometheus metrics. Must be called once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(ChatRequestsTotal)
	prometheus.MustRegister(RecommenderCallsTotal)
	prometheus.MustRegister(BackendBatchCallsTotal)
	prometheus.MustRegister(BackendItemCallsTotal)
	prometheus.MustRegister(ErrorsTotal)
	prometheus.MustRegister(ChatLatency)
	prometheus.MustRegister(DetailCacheTotal)
	registered = true
}
