package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "roleboard"

// Metrics groups the pipeline and query collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	refreshes        *prometheus.CounterVec
	refreshDuration  prometheus.Histogram
	fetchFailures    prometheus.Counter
	sanitizeDrops    prometheus.Counter
	syncedCharacters *prometheus.CounterVec
	scoringResults   *prometheus.CounterVec
	limiterInFlight  prometheus.Gauge
	queryDuration    *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
	holdRateRuns     *prometheus.CounterVec
	holdRatePlayers  prometheus.Gauge
}

// Option customises a Metrics instance.
type Option func(*options)

type options struct {
	buckets []float64
}

// WithBuckets overrides the histogram buckets.
func WithBuckets(b []float64) Option {
	return func(o *options) { o.buckets = b }
}

// New registers all collectors on a fresh registry.
func New(opts ...Option) *Metrics {
	o := options{buckets: prometheus.DefBuckets}
	for _, opt := range opts {
		opt(&o)
	}

	reg := prometheus.NewRegistry()
	auto := promauto.With(reg)

	return &Metrics{
		registry: reg,
		refreshes: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "refresh", Name: "total",
			Help: "Refresh runs by outcome",
		}, []string{"outcome"}),
		refreshDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "refresh", Name: "duration_seconds",
			Help: "End-to-end refresh duration", Buckets: o.buckets,
		}),
		fetchFailures: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "fetch", Name: "failures_total",
			Help: "Per-character upstream fetches that failed and were dropped",
		}),
		sanitizeDrops: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sanitize", Name: "dropped_total",
			Help: "Malformed character blobs dropped during sanitation",
		}),
		syncedCharacters: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "store", Name: "characters_total",
			Help: "Characters processed by sync, by action",
		}, []string{"action"}),
		scoringResults: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scoring", Name: "results_total",
			Help: "Scoring results by status",
		}, []string{"status"}),
		limiterInFlight: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "limiter", Name: "in_flight",
			Help: "Upstream calls currently holding a limiter token",
		}),
		queryDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "ranking", Name: "query_duration_seconds",
			Help: "Ranking query duration", Buckets: o.buckets,
		}, []string{"query"}),
		cacheLookups: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "lookups_total",
			Help: "Cache lookups by result",
		}, []string{"result"}),
		holdRateRuns: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "holdrate", Name: "runs_total",
			Help: "Hold-rate recomputations by outcome",
		}, []string{"outcome"}),
		holdRatePlayers: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "holdrate", Name: "active_players",
			Help: "Active population seen by the last hold-rate run",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRefresh(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
	m.refreshDuration.Observe(d.Seconds())
}

func (m *Metrics) FetchFailed() {
	if m == nil {
		return
	}
	m.fetchFailures.Inc()
}

func (m *Metrics) SanitizeDropped() {
	if m == nil {
		return
	}
	m.sanitizeDrops.Inc()
}

func (m *Metrics) CharactersSynced(action string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.syncedCharacters.WithLabelValues(action).Add(float64(n))
}

func (m *Metrics) Scored(status string) {
	if m == nil {
		return
	}
	m.scoringResults.WithLabelValues(status).Inc()
}

func (m *Metrics) LimiterAcquired() {
	if m == nil {
		return
	}
	m.limiterInFlight.Inc()
}

func (m *Metrics) LimiterReleased() {
	if m == nil {
		return
	}
	m.limiterInFlight.Dec()
}

func (m *Metrics) ObserveQuery(query string, d time.Duration) {
	if m == nil {
		return
	}
	m.queryDuration.WithLabelValues(query).Observe(d.Seconds())
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) HoldRateRun(outcome string, players int) {
	if m == nil {
		return
	}
	m.holdRateRuns.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.holdRatePlayers.Set(float64(players))
	}
}
