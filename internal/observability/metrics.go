package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quake_explorer"

// Metrics holds the Prometheus counters, histograms, and gauges for the explorer.
type Metrics struct {
	// Prepared-table cache.
	CacheLookups    *prometheus.CounterVec // labels: result={hit,miss}
	Rebuilds        *prometheus.CounterVec // labels: outcome={success,error}
	RebuildDuration prometheus.Histogram
	CatalogRows     prometheus.Gauge

	// Filtered-result cache.
	FilterCache *prometheus.CounterVec // labels: result={hit,miss}

	// Kafka publishing.
	EventsPublished prometheus.Counter
	PublishErrors   prometheus.Counter

	// HTTP API.
	HTTPRequests        *prometheus.CounterVec   // labels: route, status
	HTTPRequestDuration *prometheus.HistogramVec // labels: route
}

// NewMetrics creates and registers all explorer metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Prepared-table cache lookups by result.",
		}, []string{"result"}),
		Rebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebuilds_total",
			Help:      "Load-and-prepare cycles by outcome.",
		}, []string{"outcome"}),
		RebuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rebuild_duration_seconds",
			Help:      "Duration of a complete load-and-prepare cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		CatalogRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_rows",
			Help:      "Number of events in the current prepared table.",
		}),
		FilterCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_cache_total",
			Help:      "Filtered-result cache lookups by result.",
		}, []string{"result"}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total enriched events written to Kafka.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Total failed catalog publish attempts.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP API requests by route and status code.",
		}, []string{"route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP API request duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"route"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.CacheLookups,
		m.Rebuilds,
		m.RebuildDuration,
		m.CatalogRows,
		m.FilterCache,
		m.EventsPublished,
		m.PublishErrors,
		m.HTTPRequests,
		m.HTTPRequestDuration,
	}
}
