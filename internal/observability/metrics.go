package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_globe"

// Metrics holds the Prometheus counters, histograms, and gauges for the globe service.
type Metrics struct {
	Loads          prometheus.Counter
	LoadFailures   *prometheus.CounterVec // labels: kind={fetch,parse}
	LoadDuration   prometheus.Histogram
	RecordsLoaded  prometheus.Gauge
	RowsDropped    prometheus.Counter
	RowParseErrors prometheus.Counter

	Renders        prometheus.Counter
	VisibleMarkers prometheus.Gauge
	MarkerErrors   prometheus.Counter
	DetailViews    prometheus.Counter

	// Source cache and geocoding enrichment.
	SourceCache     *prometheus.CounterVec // labels: result={hit,miss,error}
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeEnabled  prometheus.Gauge

	SurfaceClients prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Loads,
		m.LoadFailures,
		m.LoadDuration,
		m.RecordsLoaded,
		m.RowsDropped,
		m.RowParseErrors,
		m.Renders,
		m.VisibleMarkers,
		m.MarkerErrors,
		m.DetailViews,
		m.SourceCache,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeEnabled,
		m.SurfaceClients,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Loads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Total load attempts of the observation source.",
		}),
		LoadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_failures_total",
			Help:      "Load failures by kind.",
		}, []string{"kind"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Duration of a fetch-parse-classify load.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		RecordsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_loaded",
			Help:      "Records in the current working set.",
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Source rows dropped for missing or invalid coordinates.",
		}),
		RowParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "row_parse_errors_total",
			Help:      "Malformed source rows skipped by the CSV parser.",
		}),
		Renders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Full list and marker rebuilds.",
		}),
		VisibleMarkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "visible_markers",
			Help:      "Markers currently placed on the map surface.",
		}),
		MarkerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "marker_errors_total",
			Help:      "Map surface marker operations that failed.",
		}),
		DetailViews: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detail_views_total",
			Help:      "Detail panels opened.",
		}),
		SourceCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_cache_total",
			Help:      "Source cache lookups by result.",
		}, []string{"result"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when location enrichment is enabled, 0 otherwise.",
		}),
		SurfaceClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "surface_clients",
			Help:      "Connected websocket globe clients.",
		}),
	}
}
