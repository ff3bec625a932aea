package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Счётчик вызовов методов репозитория
	RepositoryCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repository_calls_total",
			Help: "Total number of repository method calls",
		},
		[]string{"method", "status"},
	)

	// Гистограмма времени выполнения запросов
	RepositoryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repository_duration_seconds",
			Help:    "Duration of repository method calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	PurchaseTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchase_transitions_total",
			Help: "Applied purchase status transitions",
		},
		[]string{"from", "to"},
	)

	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Inbound payment webhook events by kind and transport outcome",
		},
		[]string{"kind", "outcome"},
	)

	registerOnce sync.Once
)

// InitMetrics registers the service collectors with the default registry.
// The /metrics endpoint itself is mounted by the API router.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RepositoryCalls, RepositoryDuration, PurchaseTransitions, WebhookEvents)
	})
}
