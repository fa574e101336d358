// Package metrics holds the Prometheus instruments for the engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	Admissions             *prometheus.CounterVec
	Transitions            *prometheus.CounterVec
	NotificationsPersisted prometheus.Counter
	PushesSent             prometheus.Counter
	PushFailures           prometheus.Counter
	TokensPruned           prometheus.Counter
	FanoutJobsDropped      prometheus.Counter
}

// New creates all metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Admissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "registration_admissions_total",
			Help: "Admission attempts by outcome.",
		}, []string{"outcome"}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "registration_transitions_total",
			Help: "Effective state machine transitions by field and target.",
		}, []string{"field", "target"}),
		NotificationsPersisted: factory.NewCounter(prometheus.CounterOpts{
			Name: "notifications_persisted_total",
			Help: "Durable notification records written.",
		}),
		PushesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "push_deliveries_sent_total",
			Help: "Device tokens that accepted a push delivery.",
		}),
		PushFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "push_deliveries_failed_total",
			Help: "Device tokens that failed a push delivery.",
		}),
		TokensPruned: factory.NewCounter(prometheus.CounterOpts{
			Name: "device_tokens_pruned_total",
			Help: "Unregistered device tokens removed from user token sets.",
		}),
		FanoutJobsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "fanout_jobs_dropped_total",
			Help: "Fan-out jobs dropped because the dispatch queue was full.",
		}),
	}
}
