package internal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "eduvision"

var (
	// CacheOperationsTotal tracks cache operations.
	// Labels:
	//   - backend: file, redis
	//   - kind: transcript, summary, questions
	//   - operation: load, save, delete
	//   - status: hit, miss, corrupt, success, error
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_operations_total",
			Help:      "Total number of artifact cache operations",
		},
		[]string{"backend", "kind", "operation", "status"},
	)

	// ProviderCallsTotal tracks calls to external providers.
	// Labels:
	//   - provider: captions, generation, chat
	//   - operation: transcript, summary, questions, answer
	//   - status: success, error
	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "provider_calls_total",
			Help:      "Total number of external provider calls",
		},
		[]string{"provider", "operation", "status"},
	)

	// QuestionAttemptsTotal tracks each attempt of the question retry loop.
	// Labels:
	//   - result: accepted, invalid, provider_error
	QuestionAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "question_attempts_total",
			Help:      "Total number of question generation attempts",
		},
		[]string{"result"},
	)

	// FallbacksTotal tracks degraded results returned instead of generated ones.
	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "fallbacks_total",
			Help:      "Total number of fallback artifacts returned",
		},
		[]string{"kind"},
	)

	// InflightRequestsTotal tracks de-duplication of concurrent work per identity.
	// Labels:
	//   - result: initiated, shared
	InflightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "inflight_requests_total",
			Help:      "Total number of de-duplicated in-flight requests",
		},
		[]string{"result"},
	)

	// OperationDuration observes end-to-end latency of boundary operations.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of boundary operations",
			Buckets:   []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"operation", "status"},
	)
)

// Cache operation constants.
const (
	CacheOpLoad   = "load"
	CacheOpSave   = "save"
	CacheOpDelete = "delete"

	CacheStatusHit     = "hit"
	CacheStatusMiss    = "miss"
	CacheStatusCorrupt = "corrupt"
	CacheStatusSuccess = "success"
	CacheStatusError   = "error"

	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
)

// Provider constants.
const (
	ProviderCaptions   = "captions"
	ProviderGeneration = "generation"
	ProviderChat       = "chat"

	ProviderStatusSuccess = "success"
	ProviderStatusError   = "error"
)

// Question attempt results.
const (
	AttemptAccepted      = "accepted"
	AttemptInvalid       = "invalid"
	AttemptProviderError = "provider_error"
)

// In-flight de-duplication results.
const (
	InflightInitiated = "initiated"
	InflightShared    = "shared"
)

func providerStatus(err error) string {
	if err != nil {
		return ProviderStatusError
	}
	return ProviderStatusSuccess
}
