//go:build !tinygo && !baremetal

package nrfs

import (
	"context"

	"github.com/ystepanoff/nrfs/driver/stub"
	"github.com/ystepanoff/nrfs/sysctrl"
	"github.com/ystepanoff/nrfs/transport"
)

// Loopback connects a System to a simulated System Controller through an
// in-memory link pair. Messages flow only while it is started.
type Loopback struct {
	*System
	Controller *sysctrl.Controller

	app  *transport.Receiver
	ctrl *transport.Receiver
}

// NewLoopback builds a System configured by opts and a Controller configured by ctrl.
func NewLoopback(ctrl []sysctrl.Option, opts ...Option) *Loopback {
	o := buildOptions(opts)
	appLink, ctrlLink := stub.NewPair()

	sys := newSystem(transport.NewTransmitterWithLink(appLink, o.log.WithName("app"), o.metrics), o)
	c := sysctrl.New(
		transport.NewTransmitterWithLink(ctrlLink, o.log.WithName("sysctrl"), nil),
		append([]sysctrl.Option{sysctrl.WithLogger(o.log.WithName("sysctrl"))}, ctrl...)...,
	)

	return &Loopback{
		System:     sys,
		Controller: c,
		app:        transport.NewReceiverWithLink(appLink, sys.Notify, o.log.WithName("app")),
		ctrl:       transport.NewReceiverWithLink(ctrlLink, c.Handle, o.log.WithName("sysctrl")),
	}
}

// Start begins moving messages in both directions until ctx is done or Stop is called.
func (l *Loopback) Start(ctx context.Context) {
	l.ctrl.Listen(ctx)
	l.app.Listen(ctx)
}

func (l *Loopback) Stop() {
	l.app.StopListening()
	l.ctrl.StopListening()
}
