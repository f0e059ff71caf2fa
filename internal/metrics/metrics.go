// Package metrics exposes Prometheus counters for operation paths and backend
// calls.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "editeur_operations_total",
		Help: "Operations served, by processing path",
	}, []string{"operation", "path"})

	backendFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "editeur_backend_failures_total",
		Help: "Failed backend calls, by failure kind",
	}, []string{"provider", "kind"})

	backendLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "editeur_backend_latency_ms",
		Help:    "Latency of backend calls in milliseconds",
		Buckets: []float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000},
	}, []string{"provider"})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(operations, backendFailures, backendLatency)
	})
}

// IncOperation counts one served operation.
func IncOperation(operation, path string) {
	ensureRegistered()
	operations.WithLabelValues(operation, path).Inc()
}

// IncBackendFailure counts one failed backend call.
func IncBackendFailure(provider, kind string) {
	ensureRegistered()
	backendFailures.WithLabelValues(provider, kind).Inc()
}

// ObserveBackend records the latency of one backend call.
func ObserveBackend(provider string, latency time.Duration) {
	ensureRegistered()
	backendLatency.WithLabelValues(provider).Observe(float64(latency.Milliseconds()))
}

// Handler serves the default registry.
func Handler() http.Handler {
	ensureRegistered()
	return promhttp.Handler()
}
