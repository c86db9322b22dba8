package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "contractmock"

// DefaultBuckets are latency buckets in seconds. They reach past the longest
// stub delays used in practice (10s).
var DefaultBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Registry holds the server's collectors.
type Registry struct {
	reg *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Outcomes        *prometheus.CounterVec
	MatchHits       *prometheus.CounterVec
	MatchMisses     prometheus.Counter
	StubsLoaded     prometheus.Gauge
}

// NewRegistry creates a registry with all collectors registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Registry{
		reg: reg,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "requests_total",
			Help:      "Total number of responses written",
		}, []string{"method", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "request_duration_seconds",
			Help:      "Time from request receipt to final response in seconds",
			Buckets:   DefaultBuckets,
		}, []string{"method"}),
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "exchange_outcomes_total",
			Help:      "Contract interceptor outcomes",
		}, []string{"outcome"}),
		MatchHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "stub_matches_total",
			Help:      "Number of times each stub was matched",
		}, []string{"stub"}),
		MatchMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "stub_misses_total",
			Help:      "Number of requests that did not match any stub",
		}),
		StubsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "stubs_loaded",
			Help:      "Number of stubs in the stub table",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Gatherer returns the underlying gatherer.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObserveRequest records a written response.
func (r *Registry) ObserveRequest(method string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.RequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveOutcome records one contract interceptor outcome.
func (r *Registry) ObserveOutcome(outcome string) {
	if r == nil {
		return
	}
	r.Outcomes.WithLabelValues(outcome).Inc()
}

// RecordMatchHit records a hit for stub id.
func (r *Registry) RecordMatchHit(id string) {
	if r == nil {
		return
	}
	r.MatchHits.WithLabelValues(id).Inc()
}

// RecordMatchMiss records a request no stub matched.
func (r *Registry) RecordMatchMiss() {
	if r == nil {
		return
	}
	r.MatchMisses.Inc()
}

// SetStubsLoaded updates the stub count gauge.
func (r *Registry) SetStubsLoaded(n int) {
	if r == nil {
		return
	}
	r.StubsLoaded.Set(float64(n))
}
