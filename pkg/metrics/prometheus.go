package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	fetchesTotal  *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastValue     *prometheus.GaugeVec
	cycleDuration prometheus.Histogram
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coincast_provider_fetches_total",
				Help: "Provider fetches by outcome",
			},
			[]string{"provider", "outcome"},
		),
		cacheLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coincast_cache_lookups_total",
				Help: "TTL cache lookups by result",
			},
			[]string{"result"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coincast_errors_total",
				Help: "Errors by taxonomy kind",
			},
			[]string{"kind"},
		),
		lastValue: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "coincast_last_value",
				Help: "Last reading value per source and instrument",
			},
			[]string{"source", "instrument"},
		),
		cycleDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "coincast_cycle_duration_seconds",
				Help:    "Duration of an aggregation cycle in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// RecordFetch records a provider fetch outcome (ok, stale, or an error kind).
func (r *Recorder) RecordFetch(provider, outcome string) {
	r.fetchesTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func (r *Recorder) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// RecordCycleDuration records one aggregation cycle's duration.
func (r *Recorder) RecordCycleDuration(seconds float64) {
	r.cycleDuration.Observe(seconds)
}

// RecordLastValue records the last value seen for an instrument. The gauge is
// float64 as Prometheus requires; the authoritative decimal stays in the
// snapshot.
func (r *Recorder) RecordLastValue(source, instrument string, value float64) {
	r.lastValue.WithLabelValues(source, instrument).Set(value)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
