// Package metrics 定义 moodkit 的 Prometheus 指标。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 排序流程
	RankDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moodkit_rank_duration_seconds",
			Help:    "Duration of ranking requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mood", "outcome"},
	)

	CandidatesScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodkit_candidates_scored_total",
			Help: "Total number of restaurant candidates scored",
		},
		[]string{"mood"},
	)

	CandidatesExcluded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodkit_candidates_excluded_total",
			Help: "Total number of candidates excluded from ranking",
		},
		[]string{"reason"}, // "contract_violation", "insufficient_evidence"
	)

	// 推理
	InferenceBatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moodkit_inference_batch_duration_seconds",
			Help:    "Duration of classifier batch calls in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"model"},
	)

	InferenceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodkit_inference_errors_total",
			Help: "Total number of classifier failures by type",
		},
		[]string{"model", "error_type"}, // "unavailable", "contract_violation"
	)

	// 结果缓存
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moodkit_cache_hits_total",
		Help: "Total number of ranking cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moodkit_cache_misses_total",
		Help: "Total number of ranking cache misses",
	})

	// 地点发现
	DiscoveryRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodkit_discovery_requests_total",
			Help: "Total number of place discovery API calls",
		},
		[]string{"endpoint", "outcome"},
	)

	// 熔断器
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moodkit_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodkit_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breakers by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moodkit_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveRank 记录一次排序请求耗时。
func ObserveRank(mood string, outcome string, start time.Time) {
	RankDuration.WithLabelValues(mood, outcome).Observe(time.Since(start).Seconds())
}

// ObserveInference 记录一次模型批量调用耗时。
func ObserveInference(model string, start time.Time) {
	InferenceBatchDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
}
