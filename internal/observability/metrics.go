package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// wallpaper generation pipeline.
type Metrics struct {
	GenerationsTotal   *prometheus.CounterVec // labels: outcome={success,failed,superseded}
	RequestsCoalesced  prometheus.Counter
	GenerationInFlight prometheus.Gauge
	GenerationDuration prometheus.Histogram

	// Tile fetch metrics.
	TilesFetched      *prometheus.CounterVec   // labels: layer={base,satellite,radar}, outcome={success,error}
	TileFetchDuration *prometheus.HistogramVec // labels: layer
	TilesPerLayer     *prometheus.HistogramVec // labels: layer

	// Weather feed metrics.
	FeedFetches    *prometheus.CounterVec // labels: outcome={success,error}
	LayersDegraded *prometheus.CounterVec // labels: layer
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		GenerationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hemisphere",
			Name:      "generations_total",
			Help:      "Completed wallpaper generations by outcome.",
		}, []string{"outcome"}),
		RequestsCoalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hemisphere",
			Name:      "requests_coalesced_total",
			Help:      "Generation requests collapsed into the pending slot while one was in flight.",
		}),
		GenerationInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hemisphere",
			Name:      "generation_in_flight",
			Help:      "1 while a generation pipeline is running, 0 otherwise.",
		}),
		GenerationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hemisphere",
			Name:      "generation_duration_seconds",
			Help:      "Duration of a complete feed-fetch, tile-fetch, composite cycle.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		TilesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hemisphere",
			Name:      "tiles_fetched_total",
			Help:      "Tile downloads by layer and outcome.",
		}, []string{"layer", "outcome"}),
		TileFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hemisphere",
			Name:      "tile_fetch_duration_seconds",
			Help:      "Single tile download and decode duration.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"layer"}),
		TilesPerLayer: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hemisphere",
			Name:      "tiles_per_layer",
			Help:      "Number of tiles requested per layer per generation.",
			Buckets:   []float64{1, 4, 9, 16, 25, 36, 64, 100},
		}, []string{"layer"}),
		FeedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hemisphere",
			Name:      "feed_fetches_total",
			Help:      "Weather feed requests by outcome.",
		}, []string{"outcome"}),
		LayersDegraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hemisphere",
			Name:      "layers_degraded_total",
			Help:      "Generations that completed without a requested overlay layer.",
		}, []string{"layer"}),
	}

	prometheus.MustRegister(
		m.GenerationsTotal,
		m.RequestsCoalesced,
		m.GenerationInFlight,
		m.GenerationDuration,
		m.TilesFetched,
		m.TileFetchDuration,
		m.TilesPerLayer,
		m.FeedFetches,
		m.LayersDegraded,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		GenerationsTotal:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hemisphere", Name: "generations_total"}, []string{"outcome"}),
		RequestsCoalesced:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hemisphere", Name: "requests_coalesced_total"}),
		GenerationInFlight: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "hemisphere", Name: "generation_in_flight"}),
		GenerationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "hemisphere", Name: "generation_duration_seconds"}),
		TilesFetched:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hemisphere", Name: "tiles_fetched_total"}, []string{"layer", "outcome"}),
		TileFetchDuration:  prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "hemisphere", Name: "tile_fetch_duration_seconds"}, []string{"layer"}),
		TilesPerLayer:      prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "hemisphere", Name: "tiles_per_layer"}, []string{"layer"}),
		FeedFetches:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hemisphere", Name: "feed_fetches_total"}, []string{"outcome"}),
		LayersDegraded:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hemisphere", Name: "layers_degraded_total"}, []string{"layer"}),
	}
}
