// Package telemetry exports Prometheus metrics for the incidents service.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "incidents"

// Metrics holds all service metrics. Each instance owns its registry, so
// several can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	// Portal transport
	PortalRequests *prometheus.CounterVec
	PortalDuration *prometheus.HistogramVec
	RecordsFetched *prometheus.CounterVec

	// Query compilation
	QueriesCompiled *prometheus.CounterVec
	FiltersOmitted  *prometheus.CounterVec

	// Categorization
	Categorized *prometheus.CounterVec

	// Batch tooling
	SnapshotsBuilt prometheus.Counter
	SnapshotCalls  prometheus.Gauge

	// HTTP API
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New registers a fresh set of metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	m := &Metrics{registry: reg}
	initPortalMetrics(f, m)
	initQueryMetrics(f, m)
	initBatchMetrics(f, m)
	initHTTPMetrics(f, m)
	return m
}

func initPortalMetrics(f promauto.Factory, m *Metrics) {
	m.PortalRequests = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "portal_requests_total",
		Help:      "Requests sent to the open data portal by dataset and status code",
	}, []string{"dataset", "status"})

	m.PortalDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "portal_request_duration_seconds",
		Help:      "Latency of open data portal requests",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"dataset"})

	m.RecordsFetched = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_fetched_total",
		Help:      "Records returned by the open data portal",
	}, []string{"dataset"})
}

func initQueryMetrics(f promauto.Factory, m *Metrics) {
	m.QueriesCompiled = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queries_compiled_total",
		Help:      "Queries translated to SoQL by dataset",
	}, []string{"dataset"})

	m.FiltersOmitted = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "filters_omitted_total",
		Help:      "Query filters dropped because the dataset cannot express them",
	}, []string{"dataset", "filter"})

	m.Categorized = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "offenses_categorized_total",
		Help:      "Offense strings categorized, by resulting category",
	}, []string{"category"})
}

func initBatchMetrics(f promauto.Factory, m *Metrics) {
	m.SnapshotsBuilt = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "snapshots_built_total",
		Help:      "Active calls snapshots built",
	})

	m.SnapshotCalls = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "snapshot_active_calls",
		Help:      "Calls in the most recent active calls snapshot",
	})
}

func initHTTPMetrics(f promauto.Factory, m *Metrics) {
	m.HTTPRequests = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "API requests by method, route and status",
	}, []string{"method", "route", "status"})

	m.HTTPDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "API request latency by route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObservePortal records one portal round trip. A nil receiver is a no-op.
func (m *Metrics) ObservePortal(dataset string, status int, elapsed time.Duration, records int) {
	if m == nil {
		return
	}
	m.PortalRequests.WithLabelValues(dataset, strconv.Itoa(status)).Inc()
	m.PortalDuration.WithLabelValues(dataset).Observe(elapsed.Seconds())
	if records > 0 {
		m.RecordsFetched.WithLabelValues(dataset).Add(float64(records))
	}
}

// ObserveCompile records a compiled query and the filters it dropped.
func (m *Metrics) ObserveCompile(dataset string, omitted []string) {
	if m == nil {
		return
	}
	m.QueriesCompiled.WithLabelValues(dataset).Inc()
	for _, f := range omitted {
		m.FiltersOmitted.WithLabelValues(dataset, f).Inc()
	}
}

// ObserveCategory counts one categorization.
func (m *Metrics) ObserveCategory(category string) {
	if m == nil {
		return
	}
	m.Categorized.WithLabelValues(category).Inc()
}

// ObserveSnapshot records a built snapshot.
func (m *Metrics) ObserveSnapshot(calls int) {
	if m == nil {
		return
	}
	m.SnapshotsBuilt.Inc()
	m.SnapshotCalls.Set(float64(calls))
}

// ObserveHTTP records one API request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
