package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ystepanoff/nrfs/protocol"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RequestSent(protocol.ServiceDVFS)
	m.RequestSent(protocol.ServiceDVFS)
	m.RequestFailed(protocol.ServiceClock)
	m.NotificationHandled(protocol.ServiceTemp)
	m.Rejected(protocol.ServiceTemp)
	m.MessageDropped(protocol.ServiceID(40), 0, protocol.DropUnknownService)
	m.RequestServed(protocol.ServiceUSB, "rejected")

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"sent", m.RequestsSent.WithLabelValues("dvfs"), 2},
		{"failed", m.RequestFailures.WithLabelValues("clock"), 1},
		{"handled", m.NotificationsHandled.WithLabelValues("temp"), 1},
		{"rejected", m.Rejects.WithLabelValues("temp"), 1},
		{"dropped", m.MessagesDropped.WithLabelValues("unknown", "unknown_service"), 1},
		{"served", m.RequestsServed.WithLabelValues("usb", "rejected"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("counter = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.RequestSent(protocol.ServiceClock)
	m.RequestFailed(protocol.ServiceClock)
	m.NotificationHandled(protocol.ServiceClock)
	m.Rejected(protocol.ServiceClock)
	m.MessageDropped(protocol.ServiceClock, protocol.ClockSubscribe, protocol.DropUninitialized)
}
