// Package metrics exposes Prometheus counters for the nrfs request and notification paths.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ystepanoff/nrfs/protocol"
)

// Metrics groups the counters of one nrfs endpoint. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RequestsSent         *prometheus.CounterVec
	RequestFailures      *prometheus.CounterVec
	NotificationsHandled *prometheus.CounterVec
	Rejects              *prometheus.CounterVec
	MessagesDropped      *prometheus.CounterVec
	RequestsServed       *prometheus.CounterVec
}

// New creates the counters and registers them with reg. A nil reg skips registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nrfs_requests_sent_total",
				Help: "Number of requests handed to the transport backend",
			},
			[]string{"service"},
		),
		RequestFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nrfs_request_failures_total",
				Help: "Number of requests the transport backend refused",
			},
			[]string{"service"},
		),
		NotificationsHandled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nrfs_notifications_handled_total",
				Help: "Number of replies accepted by an initialized service",
			},
			[]string{"service"},
		),
		Rejects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nrfs_rejects_total",
				Help: "Number of accepted replies carrying the filter-error flag",
			},
			[]string{"service"},
		),
		MessagesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nrfs_messages_dropped_total",
				Help: "Number of incoming messages discarded before reaching a handler",
			},
			[]string{"service", "reason"},
		),
		RequestsServed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nrfs_requests_served_total",
				Help: "Number of requests answered by the simulated System Controller",
			},
			[]string{"service", "outcome"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.RequestsSent,
			m.RequestFailures,
			m.NotificationsHandled,
			m.Rejects,
			m.MessagesDropped,
			m.RequestsServed,
		)
	}
	return m
}

func (m *Metrics) RequestSent(s protocol.ServiceID) {
	if m != nil {
		m.RequestsSent.WithLabelValues(s.String()).Inc()
	}
}

func (m *Metrics) RequestFailed(s protocol.ServiceID) {
	if m != nil {
		m.RequestFailures.WithLabelValues(s.String()).Inc()
	}
}

func (m *Metrics) NotificationHandled(s protocol.ServiceID) {
	if m != nil {
		m.NotificationsHandled.WithLabelValues(s.String()).Inc()
	}
}

func (m *Metrics) Rejected(s protocol.ServiceID) {
	if m != nil {
		m.Rejects.WithLabelValues(s.String()).Inc()
	}
}

// MessageDropped implements protocol.DropObserver.
func (m *Metrics) MessageDropped(s protocol.ServiceID, _ protocol.RequestType, reason protocol.DropReason) {
	if m != nil {
		m.MessagesDropped.WithLabelValues(s.String(), string(reason)).Inc()
	}
}

// RequestServed counts a request handled by the System Controller side.
// outcome is "ok" or "rejected".
func (m *Metrics) RequestServed(s protocol.ServiceID, outcome string) {
	if m != nil {
		m.RequestsServed.WithLabelValues(s.String(), outcome).Inc()
	}
}
