// Package metrics provides Prometheus metrics collection for the costing
// service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Simplici0/costeo/internal/costing"
)

// Metrics groups the service collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	// HTTPRequestDuration tracks request duration by method, route pattern and status.
	HTTPRequestDuration *prometheus.HistogramVec

	// AllocationsTotal counts cost allocations by resulting warning.
	AllocationsTotal *prometheus.CounterVec

	// RecipesPricedTotal counts recipe totals computations.
	RecipesPricedTotal prometheus.Counter

	// ExportsTotal counts exports by format.
	ExportsTotal *prometheus.CounterVec
}

// New registers the collectors, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "costeo_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		AllocationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "costeo_allocations_total",
				Help: "Total number of ingredient cost allocations",
			},
			[]string{"warning"},
		),
		RecipesPricedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "costeo_recipes_priced_total",
				Help: "Total number of recipe totals computations",
			},
		),
		ExportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "costeo_exports_total",
				Help: "Total number of recipe exports",
			},
			[]string{"format"},
		),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordAllocation counts one allocation outcome.
func (m *Metrics) RecordAllocation(w costing.Warning) {
	m.AllocationsTotal.WithLabelValues(w.String()).Inc()
}

// RecordPricing counts one totals computation.
func (m *Metrics) RecordPricing() {
	m.RecipesPricedTotal.Inc()
}

// RecordExport counts one export in the given format.
func (m *Metrics) RecordExport(format string) {
	m.ExportsTotal.WithLabelValues(format).Inc()
}

// Middleware observes request durations labelled by chi route pattern, so
// that path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
