// Package metrics holds the Prometheus collectors of the wallet server.
// Collectors live on a private registry so tests can build as many as needed.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Funding outcomes.
const (
	FundingInitiated = "initiated"
	FundingCredited  = "credited"
	FundingRejected  = "rejected"
	FundingDuplicate = "duplicate"
	FundingError     = "error"
)

// Purchase kinds and outcomes.
const (
	KindAirtime = "airtime"
	KindData    = "data"

	OutcomeSuccess      = "success"
	OutcomeInsufficient = "insufficient_balance"
	OutcomeError        = "error"
)

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	fundingEvents *prometheus.CounterVec
	purchases     *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wallet",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests processed, by route template, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wallet",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		fundingEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wallet",
			Name:      "funding_outcomes_total",
			Help:      "Funding flow outcomes.",
		}, []string{"outcome"}),
		purchases: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wallet",
			Name:      "purchases_total",
			Help:      "Airtime and data purchases, by outcome.",
		}, []string{"kind", "outcome"}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) FundingOutcome(outcome string) {
	if m == nil {
		return
	}
	m.fundingEvents.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Purchase(kind, outcome string) {
	if m == nil {
		return
	}
	m.purchases.WithLabelValues(kind, outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records count and latency per matched route template, so
// unmatched paths never create new label values.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cr := mux.CurrentRoute(r); cr != nil {
			if tpl, err := cr.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
