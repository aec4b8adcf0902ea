// Package metrics exposes KeyVault activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ericfisherdev/keyvault/internal/application"
	"github.com/ericfisherdev/keyvault/internal/domain/model"
)

var _ application.Recorder = (*Recorder)(nil)

// Recorder owns a private registry so tests and multiple servers never collide
// on the global one.
type Recorder struct {
	registry         *prometheus.Registry
	keyRequests      *prometheus.CounterVec
	exchangeDuration *prometheus.HistogramVec
	vaultChanges     *prometheus.CounterVec
}

// New creates a Recorder with the KeyVault metrics plus Go runtime and process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		keyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "keyvault",
			Name:      "key_requests_total",
			Help:      "Key requests by terminal outcome",
		}, []string{"outcome"}),
		exchangeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "keyvault",
			Name:      "key_request_duration_seconds",
			Help:      "Key request latency by terminal outcome",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"outcome"}),
		vaultChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "keyvault",
			Name:      "vault_changes_total",
			Help:      "Vault mutations by operation",
		}, []string{"op"}),
	}

	r.registry.MustRegister(
		r.keyRequests,
		r.exchangeDuration,
		r.vaultChanges,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveKeyRequest counts one key request and its latency.
func (r *Recorder) ObserveKeyRequest(outcome model.KeyExchangeOutcome, elapsed time.Duration) {
	r.keyRequests.WithLabelValues(string(outcome)).Inc()
	r.exchangeDuration.WithLabelValues(string(outcome)).Observe(elapsed.Seconds())
}

// ObserveVaultChange counts one vault mutation.
func (r *Recorder) ObserveVaultChange(op string) {
	r.vaultChanges.WithLabelValues(op).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
