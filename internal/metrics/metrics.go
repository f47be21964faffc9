package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "panorama"

// Metrics holds all Prometheus collectors of the service.
type Metrics struct {
	tilesWritten       *prometheus.CounterVec
	tilesSkipped       *prometheus.CounterVec
	generationDuration prometheus.Histogram
	generationFailures prometheus.Counter

	sseClients prometheus.Gauge
	sseDropped prometheus.Counter

	providerFetches *prometheus.CounterVec

	tileCacheHits    *prometheus.CounterVec
	tileCacheMisses  prometheus.Counter
	tileCacheLatency *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		tilesWritten: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tiles_written_total",
			Help:      "Tiles encoded and written, by pyramid level",
		}, []string{"level"}),
		tilesSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tiles_skipped_total",
			Help:      "Tiles left untouched because they already existed, by pyramid level",
		}, []string{"level"}),
		generationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tile_generation_seconds",
			Help:      "Duration of tile pyramid generation runs",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		generationFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tile_generation_failures_total",
			Help:      "Tile pyramid generation runs that failed",
		}),
		sseClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "event_clients",
			Help:      "Connected server-sent event clients",
		}),
		sseDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_clients_dropped_total",
			Help:      "Event clients dropped for falling behind",
		}),
		providerFetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_fetches_total",
			Help:      "Weather and air quality provider calls by outcome",
		}, []string{"provider", "outcome"}),
		tileCacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tile_cache_hits_total",
			Help:      "Tile reads served, by cache layer",
		}, []string{"layer"}),
		tileCacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tile_cache_misses_total",
			Help:      "Tile reads no layer could serve",
		}),
		tileCacheLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tile_cache_latency_ms",
			Help:      "Latency of tile cache layer lookups in milliseconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250},
		}, []string{"layer"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		httpLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) TileWritten(level int) {
	m.tilesWritten.WithLabelValues(strconv.Itoa(level)).Inc()
}

func (m *Metrics) TileSkipped(level int) {
	m.tilesSkipped.WithLabelValues(strconv.Itoa(level)).Inc()
}

func (m *Metrics) GenerationFinished(d time.Duration, err error) {
	m.generationDuration.Observe(d.Seconds())
	if err != nil {
		m.generationFailures.Inc()
	}
}

func (m *Metrics) SubscribersChanged(n int) { m.sseClients.Set(float64(n)) }

func (m *Metrics) SubscriberDropped() { m.sseDropped.Inc() }

func (m *Metrics) ProviderFetch(provider, outcome string) {
	m.providerFetches.WithLabelValues(provider, outcome).Inc()
}

// CacheLookup records one layer attempt of a tile read.
func (m *Metrics) CacheLookup(layer string, hit bool, d time.Duration) {
	m.tileCacheLatency.WithLabelValues(layer).Observe(float64(d.Microseconds()) / 1000.0)
	if hit {
		m.tileCacheHits.WithLabelValues(layer).Inc()
	}
}

func (m *Metrics) CacheMiss() { m.tileCacheMisses.Inc() }

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}
