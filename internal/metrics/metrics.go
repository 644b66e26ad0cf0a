// Package metrics holds the Prometheus collectors for directory sessions and
// the paged-query server.
//
// A nil *Metrics is valid and records nothing, so packages take one as an
// optional dependency.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "teamdir"

// Load outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeStale = "stale"
)

// Metrics is the set of collectors registered by New.
type Metrics struct {
	loads         *prometheus.CounterVec
	loadDuration  prometheus.Histogram
	backfillPages prometheus.Counter
	slowWarnings  prometheus.Counter
	addressWrites prometheus.Counter
	invalidParams *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	membersServed prometheus.Counter
}

// New registers all collectors with reg. Passing a fresh
// prometheus.NewRegistry() keeps tests independent of each other.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		loads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Record source loads by outcome (ok, error, stale).",
		}, []string{"outcome"}),
		loadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Latency of record source loads.",
			Buckets:   prometheus.DefBuckets,
		}),
		backfillPages: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backfill_pages_total",
			Help:      "Pages merged by backfill chains.",
		}),
		slowWarnings: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slow_request_warnings_total",
			Help:      "Loads still pending after the warning threshold.",
		}),
		addressWrites: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "address_replacements_total",
			Help:      "Address query strings replaced by the propagation phase.",
		}),
		invalidParams: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_address_params_total",
			Help:      "Address parameters discarded during hydration.",
		}, []string{"param"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		membersServed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "members_served_total",
			Help:      "Members returned by the paged-query endpoint.",
		}),
	}
}

// ObserveLoad records one source call.
func (m *Metrics) ObserveLoad(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(outcome).Inc()
	m.loadDuration.Observe(d.Seconds())
}

// BackfillPage records one page merged by a backfill chain.
func (m *Metrics) BackfillPage() {
	if m == nil {
		return
	}
	m.backfillPages.Inc()
}

// SlowRequest records a slow-request warning.
func (m *Metrics) SlowRequest() {
	if m == nil {
		return
	}
	m.slowWarnings.Inc()
}

// AddressReplaced records one address rewrite by the propagation phase.
func (m *Metrics) AddressReplaced() {
	if m == nil {
		return
	}
	m.addressWrites.Inc()
}

// InvalidParam records a discarded address parameter.
func (m *Metrics) InvalidParam(name string) {
	if m == nil {
		return
	}
	m.invalidParams.WithLabelValues(name).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// MembersServed records members returned by the paged-query endpoint.
func (m *Metrics) MembersServed(n int) {
	if m == nil {
		return
	}
	m.membersServed.Add(float64(n))
}
