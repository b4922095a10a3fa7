// Package telemetry holds the service's Prometheus metrics and OpenTelemetry
// tracing setup.
package telemetry

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cliq"

// Metrics counts state transitions. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	invites       *prometheus.CounterVec
	approvals     *prometheus.CounterVec
	provisioned   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	sweeps        prometheus.Counter
}

// NewMetrics registers the counters plus Go and process collectors on a
// fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		invites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invite_transitions_total",
			Help:      "Invite state transitions by resulting status.",
		}, []string{"status"}),
		approvals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "approval_transitions_total",
			Help:      "Parent approval state transitions by resulting status.",
		}, []string{"status"}),
		provisioned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "children_provisioned_total",
			Help:      "Child accounts created, by origin.",
		}, []string{"origin"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Outbound notifications by kind and outcome.",
		}, []string{"kind", "sent"}),
		sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "approvals_swept_total",
			Help:      "Pending approvals expired by the sweep.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.invites, m.approvals, m.provisioned, m.notifications, m.sweeps,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) InviteTransition(status string) {
	if m != nil {
		m.invites.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) ApprovalTransition(status string) {
	if m != nil {
		m.approvals.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) ChildProvisioned(origin string) {
	if m != nil {
		m.provisioned.WithLabelValues(origin).Inc()
	}
}

func (m *Metrics) Notification(kind string, sent bool) {
	if m != nil {
		m.notifications.WithLabelValues(kind, strconv.FormatBool(sent)).Inc()
	}
}

func (m *Metrics) Swept(n int) {
	if m != nil && n > 0 {
		m.sweeps.Add(float64(n))
	}
}
