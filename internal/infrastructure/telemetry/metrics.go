// Package telemetry is the "exactly one ChatLog row per logical request"
// sink, plus the process metrics and tracing the dispatcher feeds on
// every attempt. Counters and gauges are real Prometheus collectors, and
// spans run on the actual OpenTelemetry SDK the rest of the ecosystem
// already speaks.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

// Metrics holds the Prometheus collectors the dispatcher and telemetry
// sink update on every attempt and every completed request.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	attemptsTotal   *prometheus.CounterVec
	proxyMs         prometheus.Histogram
	chunkMs         prometheus.Histogram
	firstChunkMs    prometheus.Histogram
	tokensPerSecond prometheus.Histogram
	breakerOpen     *prometheus.GaugeVec
	rateLimited     *prometheus.CounterVec
}

// NewMetrics registers a fresh collector set on its own registry so
// multiple gateway instances in the same test binary never collide on
// the default global registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "llmgw_requests_total",
			Help: "Completed dispatch requests by model and terminal status.",
		}, []string{"model", "status"}),
		attemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "llmgw_dispatch_attempts_total",
			Help: "Dispatch attempts by provider and outcome.",
		}, []string{"provider", "outcome"}),
		proxyMs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "llmgw_proxy_ms",
			Help:    "Dispatcher selection/overhead time, in milliseconds.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		}),
		chunkMs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "llmgw_chunk_ms",
			Help:    "Time spent streaming after the first byte, in milliseconds.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 16),
		}),
		firstChunkMs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "llmgw_first_chunk_ms",
			Help:    "Time to first byte from the eventually-succeeding upstream, in milliseconds.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 16),
		}),
		tokensPerSecond: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "llmgw_tokens_per_second",
			Help:    "Completion tokens per second over the streaming window.",
			Buckets: prometheus.LinearBuckets(0, 10, 20),
		}),
		breakerOpen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "llmgw_breaker_open",
			Help: "1 if the binding's breaker is currently open.",
		}, []string{"binding_id"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "llmgw_rate_limited_total",
			Help: "Attempts skipped because the provider's rpm_limit was exhausted.",
		}, []string{"provider"}),
	}

	reg.MustRegister(
		m.requestsTotal,
		m.attemptsTotal,
		m.proxyMs,
		m.chunkMs,
		m.firstChunkMs,
		m.tokensPerSecond,
		m.breakerOpen,
		m.rateLimited,
	)
	return m
}

// Handler exposes the registry in Prometheus text exposition format for
// mounting at /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(model string, status string) {
	m.requestsTotal.WithLabelValues(model, status).Inc()
}

func (m *Metrics) ObserveAttempt(provider, outcome string) {
	m.attemptsTotal.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) ObserveTiming(proxyMs, firstChunkMs, chunkMs int64, tps float64) {
	m.proxyMs.Observe(float64(proxyMs))
	if firstChunkMs > 0 {
		m.firstChunkMs.Observe(float64(firstChunkMs))
	}
	if chunkMs > 0 {
		m.chunkMs.Observe(float64(chunkMs))
	}
	if tps > 0 {
		m.tokensPerSecond.Observe(tps)
	}
}

func (m *Metrics) SetBreakerOpen(bindingID string, open bool) {
	v := 0.0
	if open {
		v = 1.0
	}
	m.breakerOpen.WithLabelValues(bindingID).Set(v)
}

func (m *Metrics) ObserveRateLimited(provider string) {
	m.rateLimited.WithLabelValues(provider).Inc()
}
