// Package metrics exposes Prometheus counters/histograms for the AS-exchange
// client, adapted from dittofs's pkg/metrics registry-toggle pattern: a
// package-level registry that is nil until InitRegistry is called, so
// instrumented call sites pay zero overhead when metrics are disabled.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry

	asExchangeTotal    *prometheus.CounterVec
	asExchangeDuration prometheus.Histogram
	preauthRetryTotal  prometheus.Counter
)

// InitRegistry creates a fresh Prometheus registry and registers this
// package's collectors. Call once at process startup; safe to call again in
// tests to reset state.
func InitRegistry() {
	mu.Lock()
	defer mu.Unlock()

	registry = prometheus.NewRegistry()
	asExchangeTotal = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "kerbeiros_as_exchange_total",
			Help: "Total number of completed AS-exchange attempts by result.",
		},
		[]string{"result"}, // "success", "krb_error", "transport_error", "protocol_error"
	)
	asExchangeDuration = promauto.With(registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kerbeiros_as_exchange_duration_seconds",
			Help:    "Wall-clock duration of a full AS-exchange, including any preauth retry.",
			Buckets: prometheus.DefBuckets,
		},
	)
	preauthRetryTotal = promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "kerbeiros_preauth_retries_total",
			Help: "Total number of AS-exchanges that required a PA-ENC-TIMESTAMP retry.",
		},
	)
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return registry != nil
}

// GetRegistry returns the active registry, or nil if metrics are disabled.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}

// RecordAsExchange records one completed AS-exchange attempt. No-op if
// metrics are disabled.
func RecordAsExchange(result string, retried bool, seconds float64) {
	mu.RLock()
	defer mu.RUnlock()
	if registry == nil {
		return
	}
	asExchangeTotal.WithLabelValues(result).Inc()
	asExchangeDuration.Observe(seconds)
	if retried {
		preauthRetryTotal.Inc()
	}
}
