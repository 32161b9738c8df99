// Package metrics provides Prometheus metrics for the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal        *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
	CompletionsTotal     *prometheus.CounterVec
	StageTransitions     *prometheus.CounterVec
	HistoryAppendsFailed prometheus.Counter
	ErrorsTotal          *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitecoach_requests_total",
				Help: "Total number of HTTP requests by route and status.",
			},
			[]string{"route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sitecoach_request_duration_seconds",
				Help:    "Request processing duration by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		CompletionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitecoach_completions_total",
				Help: "Total number of model completion calls by purpose and status.",
			},
			[]string{"purpose", "status"},
		),
		StageTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitecoach_stage_transitions_total",
				Help: "Total number of stage transitions by target stage.",
			},
			[]string{"stage"},
		),
		HistoryAppendsFailed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sitecoach_history_appends_failed_total",
				Help: "Total number of best-effort history appends that failed.",
			},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitecoach_errors_total",
				Help: "Total errors by component and type.",
			},
			[]string{"component", "type"},
		),
		registry: reg,
	}

	reg.MustRegister(m.RequestsTotal)
	reg.MustRegister(m.RequestDuration)
	reg.MustRegister(m.CompletionsTotal)
	reg.MustRegister(m.StageTransitions)
	reg.MustRegister(m.HistoryAppendsFailed)
	reg.MustRegister(m.ErrorsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest increments the request counter.
func (m *Metrics) RecordRequest(route, status string) {
	m.RequestsTotal.WithLabelValues(route, status).Inc()
}

// RecordCompletion increments the completion counter.
func (m *Metrics) RecordCompletion(purpose, status string) {
	m.CompletionsTotal.WithLabelValues(purpose, status).Inc()
}

// RecordStageTransition increments the transition counter.
func (m *Metrics) RecordStageTransition(stage string) {
	m.StageTransitions.WithLabelValues(stage).Inc()
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(component, errType string) {
	m.ErrorsTotal.WithLabelValues(component, errType).Inc()
}

// ObserveDuration records request duration.
func (m *Metrics) ObserveDuration(route string, seconds float64) {
	m.RequestDuration.WithLabelValues(route).Observe(seconds)
}
