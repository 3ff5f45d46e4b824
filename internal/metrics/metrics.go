// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActiveBuilderSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "builder_sessions_active",
			Help: "Number of builder editing sessions currently held in memory.",
		})

	BuilderSessionLoadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "builder_session_load_total",
			Help: "Cumulative number of builder sessions loaded from the store.",
		})

	BuilderSessionLoadErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "builder_session_load_errors_total",
			Help: "Cumulative number of builder session load errors.",
		})

	BuilderSessionEvictTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "builder_session_evict_total",
			Help: "Cumulative number of builder sessions evicted.",
		})

	BuilderSavesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "builder_saves_total",
			Help: "Builder saves by trigger (auto, manual) and result (ok, error).",
		}, []string{"trigger", "result"})

	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_submissions_total",
			Help: "Public submissions by result (accepted, invalid, rate_limited, closed, spam, error).",
		}, []string{"result"})

	WebhookDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_webhook_deliveries_total",
			Help: "Post-submit webhook attempts by result (ok, error).",
		}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		ActiveBuilderSessions,
		BuilderSessionLoadTotal,
		BuilderSessionLoadErrorsTotal,
		BuilderSessionEvictTotal,
		BuilderSavesTotal,
		SubmissionsTotal,
		WebhookDeliveriesTotal,
	)
}
