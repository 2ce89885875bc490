package services

import (
	"github.com/prometheus/client_golang/prometheus"

	"waitlist/internal/domain"
)

const metricsNamespace = "waitlist"

// Metrics counts lifecycle outcomes. A nil *Metrics records nothing.
type Metrics struct {
	transitions   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	verifications *prometheus.CounterVec
}

// NewMetrics creates the service counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "entry",
			Name:      "transitions_total",
			Help:      "Entry status transitions by target status",
		}, []string{"status"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "notification",
			Name:      "dispatch_total",
			Help:      "Notification dispatch attempts by kind and result",
		}, []string{"kind", "result"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "verification",
			Name:      "attempts_total",
			Help:      "Verification token consumption attempts by result",
		}, []string{"result"}),
	}
	reg.MustRegister(m.transitions, m.notifications, m.verifications)
	return m
}

func (m *Metrics) transition(status domain.EntryStatus) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) notification(kind domain.NotificationKind, err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.notifications.WithLabelValues(string(kind), result).Inc()
}

func (m *Metrics) verification(found bool) {
	if m == nil {
		return
	}
	result := "verified"
	if !found {
		result = "not_found"
	}
	m.verifications.WithLabelValues(result).Inc()
}
