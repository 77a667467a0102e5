// Package metrics exports flow lifecycle metrics to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/aretw0/formwork/pkg/flow"
	"github.com/aretw0/formwork/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "formwork"

// Metrics holds the flow collectors.
type Metrics struct {
	registry *prometheus.Registry

	Started   *prometheus.CounterVec
	Updated   *prometheus.CounterVec
	Rejected  *prometheus.CounterVec
	Completed *prometheus.CounterVec
	Cancelled prometheus.Counter
	Duration  *prometheus.HistogramVec
	Live      prometheus.Gauge
}

// New creates the collectors on a dedicated registry that also carries the
// Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Started: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flows_started_total",
			Help:      "Flows started, by feature.",
		}, []string{"origin"}),
		Updated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flow_updates_total",
			Help:      "Accepted state updates, by feature.",
		}, []string{"origin"}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flow_updates_rejected_total",
			Help:      "Rejected state updates, by reason.",
		}, []string{"reason"}),
		Completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flows_completed_total",
			Help:      "Completed flows, by feature and outcome.",
		}, []string{"origin", "outcome"}),
		Cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flows_cancelled_total",
			Help:      "Flows removed without completion.",
		}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flow_completion_duration_seconds",
			Help:      "Time spent in completion handlers.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"origin"}),
		Live: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "flows_live",
			Help:      "Flows currently held by the store.",
		}),
	}

	m.registry.MustRegister(
		m.Started, m.Updated, m.Rejected, m.Completed, m.Cancelled, m.Duration, m.Live,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns store hooks that feed the collectors.
func (m *Metrics) Hooks() session.Hooks {
	return session.Hooks{
		OnCreate: func(_ context.Context, e session.Entry) {
			m.Started.WithLabelValues(label(e.Origin)).Inc()
			m.Live.Inc()
		},
		OnUpdate: func(_ context.Context, e session.UpdateEvent) {
			m.Updated.WithLabelValues(label(e.Origin)).Inc()
		},
		OnReject: func(_ context.Context, e session.RejectEvent) {
			m.Rejected.WithLabelValues(Reason(e.Err)).Inc()
		},
		OnComplete: func(_ context.Context, e session.CompleteEvent) {
			outcome := "success"
			if e.Err != nil {
				outcome = "failure"
			}
			origin := label(e.Origin)
			m.Completed.WithLabelValues(origin, outcome).Inc()
			m.Duration.WithLabelValues(origin).Observe(e.Duration.Seconds())
			m.Live.Dec()
		},
		OnRemove: func(context.Context, session.Entry) {
			m.Cancelled.Inc()
			m.Live.Dec()
		},
	}
}

// Reason classifies a rejected update.
func Reason(err error) string {
	switch {
	case errors.Is(err, flow.ErrInvalidField):
		return "invalid_field"
	case errors.Is(err, flow.ErrStale):
		return "stale"
	case errors.Is(err, flow.ErrCompleted):
		return "completed"
	default:
		return "other"
	}
}

func label(origin string) string {
	if origin == "" {
		return "unknown"
	}
	return origin
}
