package transport

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/ystepanoff/nrfs/metrics"
	proto "github.com/ystepanoff/nrfs/protocol"
)

// Transmitter is the Backend that writes requests to a Link.
type Transmitter struct {
	link    Link
	log     logr.Logger
	metrics *metrics.Metrics
}

// NewTransmitterWithLink returns a Transmitter writing to l.
func NewTransmitterWithLink(l Link, log logr.Logger, m *metrics.Metrics) *Transmitter {
	return &Transmitter{link: l, log: log, metrics: m}
}

// Send copies msg and writes it to the link. Link failures are reported as proto.ErrIPC.
func (t *Transmitter) Send(msg []byte) error {
	hdr, err := proto.HeaderFrom(msg)
	if err != nil {
		return fmt.Errorf("%w: %w", proto.ErrIPC, err)
	}

	buf := make([]byte, len(msg))
	copy(buf, msg)

	if err := t.link.Tx(buf); err != nil {
		t.metrics.RequestFailed(hdr.Service())
		t.log.Error(err, "Transmit failed", "request", hdr.Request().String())
		return fmt.Errorf("%w: %w", proto.ErrIPC, err)
	}

	t.metrics.RequestSent(hdr.Service())
	t.log.V(1).Info("Request sent", "request", hdr.Request().String(), "noResponse", hdr.NoResponse(), "size", len(buf))
	return nil
}
