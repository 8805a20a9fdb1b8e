// Package dispatcher routes messages arriving from the System Controller to the
// service that owns them.
package dispatcher

import (
	"github.com/go-logr/logr"

	"github.com/ystepanoff/nrfs/protocol"
)

// Notifier receives the complete raw message addressed to one service.
type Notifier interface {
	Notify(msg []byte)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg []byte)

func (f NotifierFunc) Notify(msg []byte) { f(msg) }

// UnsolicitedHandler receives the payload of messages sent without a request.
type UnsolicitedHandler func(payload []byte)

// Route binds a service to the notifier that handles its messages.
type Route struct {
	Service  protocol.ServiceID
	Notifier Notifier
}

type disabled struct{}

func (disabled) Notify([]byte) {}

// Disabled marks a table slot whose service is compiled out or switched off.
var Disabled Notifier = disabled{}

// Dispatcher holds a fixed table indexed by service ID. The table is not
// modified after New, so Notify may be called from several goroutines as long
// as the notifiers themselves allow it.
type Dispatcher struct {
	table       [protocol.ServiceCount]Notifier
	unsolicited UnsolicitedHandler
	observer    protocol.DropObserver
	log         logr.Logger
}

type Option func(*Dispatcher)

func WithUnsolicitedHandler(h UnsolicitedHandler) Option {
	return func(d *Dispatcher) {
		if h != nil {
			d.unsolicited = h
		}
	}
}

// WithDropObserver reports every discarded message to o. Without it drops are silent.
func WithDropObserver(o protocol.DropObserver) Option {
	return func(d *Dispatcher) {
		if o != nil {
			d.observer = o
		}
	}
}

func WithLogger(log logr.Logger) Option {
	return func(d *Dispatcher) { d.log = log }
}

// New builds the routing table. Services without a route are Disabled.
func New(routes []Route, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		unsolicited: func([]byte) {},
		observer:    protocol.NopObserver{},
		log:         logr.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}

	for i := range d.table {
		d.table[i] = Disabled
	}
	for _, r := range routes {
		if int(r.Service) >= protocol.ServiceCount {
			d.log.Info("Ignoring route for unknown service", "service", int(r.Service))
			continue
		}
		if r.Notifier == nil {
			continue
		}
		d.table[r.Service] = r.Notifier
	}
	return d
}

// Enabled reports whether a service has a notifier.
func (d *Dispatcher) Enabled(s protocol.ServiceID) bool {
	return int(s) < protocol.ServiceCount && d.table[s] != Disabled
}

// Notify routes one incoming message. It never blocks beyond the handler call
// and never fails; undeliverable messages are reported to the drop observer.
func (d *Dispatcher) Notify(msg []byte) {
	hdr, err := protocol.HeaderFrom(msg)
	if err != nil {
		d.drop(0, 0, protocol.DropShortMessage)
		return
	}

	if hdr.Unsolicited() {
		if len(msg) < protocol.GenericSize {
			d.drop(hdr.Service(), hdr.Request(), protocol.DropShortMessage)
			return
		}
		d.log.V(1).Info("Unsolicited message", "request", hdr.Request().String(), "size", len(msg))
		d.unsolicited(msg[protocol.PayloadOffset:])
		return
	}

	s := hdr.Service()
	if int(s) >= protocol.ServiceCount {
		d.drop(s, hdr.Request(), protocol.DropUnknownService)
		return
	}

	n := d.table[s]
	if n == Disabled {
		d.drop(s, hdr.Request(), protocol.DropDisabledService)
		return
	}

	n.Notify(msg)
}

func (d *Dispatcher) drop(s protocol.ServiceID, req protocol.RequestType, reason protocol.DropReason) {
	d.log.V(1).Info("Message dropped", "service", int(s), "request", req.String(), "reason", string(reason))
	d.observer.MessageDropped(s, req, reason)
}
