// Package metrics exposes Prometheus instruments for the award engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "contest_awards"

// Manager owns a private registry so tests and multiple app instances never
// collide on the global one. A nil *Manager is a valid no-op recorder.
type Manager struct {
	registry *prometheus.Registry

	submissions       *prometheus.CounterVec
	importRows        *prometheus.CounterVec
	recomputeDuration *prometheus.HistogramVec
	recomputeErrors   prometheus.Counter
	notifications     *prometheus.CounterVec
	circuitState      *prometheus.GaugeVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	cacheLookups      *prometheus.CounterVec
}

func NewManager() *Manager {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	auto := promauto.With(registry)

	return &Manager{
		registry: registry,
		submissions: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Processed contest log submissions by outcome and source.",
		}, []string{"status", "source"}),
		importRows: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_total",
			Help:      "Historical import rows by outcome.",
		}, []string{"outcome"}),
		recomputeDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recompute_duration_seconds",
			Help:      "Time spent recomputing one contest baseline and its points.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		recomputeErrors: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recompute_errors_total",
			Help:      "Contest recomputations that failed.",
		}),
		notifications: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Submission notifications by delivery outcome.",
		}, []string{"outcome"}),
		circuitState: auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_open",
			Help:      "1 while the named circuit breaker is not closed.",
		}, []string{"name"}),
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status_code"}),
		httpDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		cacheLookups: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Read-model cache lookups by result.",
		}, []string{"result"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Manager) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

func (m *Manager) ObserveSubmission(status, source string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(status, source).Inc()
}

func (m *Manager) ObserveImportRow(outcome string) {
	if m == nil {
		return
	}
	m.importRows.WithLabelValues(outcome).Inc()
}

func (m *Manager) ObserveRecompute(method string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.recomputeDuration.WithLabelValues(method).Observe(elapsed.Seconds())
	if err != nil {
		m.recomputeErrors.Inc()
	}
}

func (m *Manager) ObserveNotification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

func (m *Manager) SetCircuitOpen(name string, open bool) {
	if m == nil {
		return
	}
	value := 0.0
	if open {
		value = 1
	}
	m.circuitState.WithLabelValues(name).Set(value)
}

func (m *Manager) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *Manager) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
