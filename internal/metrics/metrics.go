package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the service's Prometheus collectors
type Recorder struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	quoteFetches    *prometheus.CounterVec
	quoteLatency    *prometheus.HistogramVec
	computeDuration prometheus.Histogram
	mutations       *prometheus.CounterVec
	breakerState    *prometheus.GaugeVec
	eventsConsumed  *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg uses the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watchlist_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "watchlist_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		quoteFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watchlist_quote_fetches_total",
				Help: "Quote source calls by source, call and outcome",
			},
			[]string{"source", "call", "outcome"},
		),
		quoteLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "watchlist_quote_fetch_duration_seconds",
				Help:    "Quote source latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source", "call"},
		),
		computeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "watchlist_indicator_compute_duration_seconds",
				Help:    "Indicator computation time in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05},
			},
		),
		mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watchlist_mutations_total",
				Help: "Watchlist mutations by operation and result",
			},
			[]string{"op", "result"},
		),
		breakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "watchlist_quote_breaker_state",
				Help: "Circuit breaker state per quote source (0 closed, 1 open, 2 half-open)",
			},
			[]string{"source"},
		),
		eventsConsumed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watchlist_events_consumed_total",
				Help: "Watchlist audit events consumed by result",
			},
			[]string{"result"},
		),
	}
}

// RecordHTTPRequest records one served request
func (r *Recorder) RecordHTTPRequest(route, method string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// RecordQuoteFetch records one call to a quote source
func (r *Recorder) RecordQuoteFetch(source, call, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.quoteFetches.WithLabelValues(source, call, outcome).Inc()
	r.quoteLatency.WithLabelValues(source, call).Observe(d.Seconds())
}

// RecordCompute records indicator computation time
func (r *Recorder) RecordCompute(d time.Duration) {
	if r == nil {
		return
	}
	r.computeDuration.Observe(d.Seconds())
}

// RecordMutation records a watchlist add or remove
func (r *Recorder) RecordMutation(op, result string) {
	if r == nil {
		return
	}
	r.mutations.WithLabelValues(op, result).Inc()
}

// SetBreakerState records the breaker state for a source
func (r *Recorder) SetBreakerState(source string, state int) {
	if r == nil {
		return
	}
	r.breakerState.WithLabelValues(source).Set(float64(state))
}

// RecordEventConsumed records an audit consumer outcome
func (r *Recorder) RecordEventConsumed(result string) {
	if r == nil {
		return
	}
	r.eventsConsumed.WithLabelValues(result).Inc()
}
