package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// forecast service.
type Metrics struct {
	RefreshesRequested prometheus.Counter
	FetchOutcomes      *prometheus.CounterVec // labels: outcome={success,empty,error}
	FetchDuration      prometheus.Histogram
	ControllerRunning  prometheus.Gauge
	RowsVisible        prometheus.Gauge

	// Storage sync metrics.
	SyncRuns       *prometheus.CounterVec // labels: outcome={success,error}
	SyncRowsStored prometheus.Counter
	SyncDuration   prometheus.Histogram

	// Provider client metrics.
	ProviderRequests *prometheus.CounterVec // labels: outcome={success,error}
	ProviderDuration prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RefreshesRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sunshine",
			Name:      "refreshes_requested_total",
			Help:      "Total display refreshes requested.",
		}),
		FetchOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sunshine",
			Name:      "fetch_outcomes_total",
			Help:      "Completed display fetches by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sunshine",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a complete fetch-and-decode cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		ControllerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sunshine",
			Name:      "controller_running",
			Help:      "1 when the refresh controller is active, 0 when shut down.",
		}),
		RowsVisible: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sunshine",
			Name:      "rows_visible",
			Help:      "Forecast rows currently published to the view.",
		}),
		SyncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sunshine",
			Name:      "sync_runs_total",
			Help:      "Forecast sync runs by outcome.",
		}, []string{"outcome"}),
		SyncRowsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sunshine",
			Name:      "sync_rows_stored_total",
			Help:      "Total forecast rows written to the store.",
		}),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sunshine",
			Name:      "sync_duration_seconds",
			Help:      "Duration of a complete fetch-decode-store sync.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sunshine",
			Name:      "provider_requests_total",
			Help:      "OpenWeatherMap API requests by outcome.",
		}, []string{"outcome"}),
		ProviderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sunshine",
			Name:      "provider_request_duration_seconds",
			Help:      "OpenWeatherMap API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}

	prometheus.MustRegister(
		m.RefreshesRequested,
		m.FetchOutcomes,
		m.FetchDuration,
		m.ControllerRunning,
		m.RowsVisible,
		m.SyncRuns,
		m.SyncRowsStored,
		m.SyncDuration,
		m.ProviderRequests,
		m.ProviderDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RefreshesRequested: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "sunshine", Name: "refreshes_requested_total"}),
		FetchOutcomes:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "sunshine", Name: "fetch_outcomes_total"}, []string{"outcome"}),
		FetchDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "sunshine", Name: "fetch_duration_seconds"}),
		ControllerRunning:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "sunshine", Name: "controller_running"}),
		RowsVisible:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "sunshine", Name: "rows_visible"}),
		SyncRuns:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "sunshine", Name: "sync_runs_total"}, []string{"outcome"}),
		SyncRowsStored:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "sunshine", Name: "sync_rows_stored_total"}),
		SyncDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "sunshine", Name: "sync_duration_seconds"}),
		ProviderRequests:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "sunshine", Name: "provider_requests_total"}, []string{"outcome"}),
		ProviderDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "sunshine", Name: "provider_request_duration_seconds"}),
	}
}
