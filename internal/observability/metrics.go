package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the downloader.
type Metrics struct {
	StationsDiscovered prometheus.Counter
	StationsMissing    prometheus.Counter
	RowsParsed         prometheus.Counter
	DownloadRunning    prometheus.Gauge

	// Per-request metrics.
	FetchAttempts *prometheus.CounterVec   // labels: endpoint={inventory,data}
	FetchRetries  *prometheus.CounterVec   // labels: endpoint={inventory,data}
	FetchFailures *prometheus.CounterVec   // labels: endpoint={inventory,data}, kind={transient,permanent}
	FetchDuration *prometheus.HistogramVec // labels: endpoint={inventory,data}

	// Assembly and output metrics.
	IntervalsAssembled prometheus.Counter
	IntervalDuration   prometheus.Histogram
	YearsWritten       prometheus.Counter
	RowsWritten        prometheus.Counter
}

// NewMetrics creates and registers all downloader metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		StationsDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "substorm",
			Name:      "stations_discovered_total",
			Help:      "Total station codes returned by inventory queries.",
		}),
		StationsMissing: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "substorm",
			Name:      "stations_missing_total",
			Help:      "Stations skipped after their data fetch failed.",
		}),
		RowsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "substorm",
			Name:      "rows_parsed_total",
			Help:      "Total CSV sample rows parsed into station records.",
		}),
		DownloadRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "substorm",
			Name:      "download_running",
			Help:      "1 while a download run is active, 0 when finished.",
		}),
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "substorm",
			Name:      "fetch_attempts_total",
			Help:      "HTTP request attempts by endpoint, retries included.",
		}, []string{"endpoint"}),
		FetchRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "substorm",
			Name:      "fetch_retries_total",
			Help:      "Attempts after the first for the same request, by endpoint.",
		}, []string{"endpoint"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "substorm",
			Name:      "fetch_failures_total",
			Help:      "Terminal request failures by endpoint and failure kind.",
		}, []string{"endpoint", "kind"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "substorm",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of successful requests by endpoint.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"endpoint"}),
		IntervalsAssembled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "substorm",
			Name:      "intervals_assembled_total",
			Help:      "Fetch intervals assembled into datasets.",
		}),
		IntervalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "substorm",
			Name:      "interval_assembly_duration_seconds",
			Help:      "Wall time to list and fetch every station of one interval.",
			Buckets:   []float64{1, 5, 15, 60, 120, 300, 600, 1200, 1800},
		}),
		YearsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "substorm",
			Name:      "years_written_total",
			Help:      "Yearly dataset files written out.",
		}),
		RowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "substorm",
			Name:      "rows_written_total",
			Help:      "Total sample rows persisted to yearly dataset files.",
		}),
	}

	prometheus.MustRegister(
		m.StationsDiscovered,
		m.StationsMissing,
		m.RowsParsed,
		m.DownloadRunning,
		m.FetchAttempts,
		m.FetchRetries,
		m.FetchFailures,
		m.FetchDuration,
		m.IntervalsAssembled,
		m.IntervalDuration,
		m.YearsWritten,
		m.RowsWritten,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		StationsDiscovered: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "substorm", Name: "stations_discovered_total"}),
		StationsMissing:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "substorm", Name: "stations_missing_total"}),
		RowsParsed:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "substorm", Name: "rows_parsed_total"}),
		DownloadRunning:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "substorm", Name: "download_running"}),
		FetchAttempts:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "substorm", Name: "fetch_attempts_total"}, []string{"endpoint"}),
		FetchRetries:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "substorm", Name: "fetch_retries_total"}, []string{"endpoint"}),
		FetchFailures:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "substorm", Name: "fetch_failures_total"}, []string{"endpoint", "kind"}),
		FetchDuration:      prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "substorm", Name: "fetch_duration_seconds"}, []string{"endpoint"}),
		IntervalsAssembled: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "substorm", Name: "intervals_assembled_total"}),
		IntervalDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "substorm", Name: "interval_assembly_duration_seconds"}),
		YearsWritten:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "substorm", Name: "years_written_total"}),
		RowsWritten:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "substorm", Name: "rows_written_total"}),
	}
}
