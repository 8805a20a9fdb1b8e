//go:build tinygo || baremetal

package nrfs

import (
	"context"

	"github.com/ystepanoff/nrfs/driver/nrf"
	"github.com/ystepanoff/nrfs/transport"
)

// Radio is a System whose link to the System Controller is the nRF radio.
type Radio struct {
	*System
	receiver *transport.Receiver
}

// NewRadio configures the radio on channel and builds a System on top of it.
func NewRadio(address uint32, prefix byte, channel uint8, opts ...Option) (*Radio, error) {
	o := buildOptions(opts)
	d := nrf.New()
	if err := d.Configure(address, prefix, channel); err != nil {
		return nil, err
	}
	sys := newSystem(transport.NewTransmitterWithLink(d, o.log, o.metrics), o)
	return &Radio{
		System:   sys,
		receiver: transport.NewReceiverWithLink(d, sys.Notify, o.log),
	}, nil
}

func (r *Radio) Start(ctx context.Context) { r.receiver.Listen(ctx) }
func (r *Radio) Stop()                     { r.receiver.StopListening() }
