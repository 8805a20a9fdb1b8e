package service

import "github.com/ystepanoff/nrfs/protocol"

type ResetEventType uint8

const (
	ResetEventDone ResetEventType = iota
	ResetEventReject
)

type ResetEvent struct {
	Type ResetEventType
}

// ResetEventHandler gets no context: reset requests always carry a zero context.
type ResetEventHandler func(evt ResetEvent)

// Reset asks the System Controller to reset the application core.
type Reset struct {
	cb controlBlock[ResetEventHandler]
}

func NewReset(s Sender, opts ...Option) *Reset {
	r := &Reset{}
	r.cb.setup(protocol.ServiceReset, s, opts)
	return r
}

func (r *Reset) Init(h ResetEventHandler) error { return r.cb.start(h, h != nil) }
func (r *Reset) Uninit()                        { r.cb.stop() }

func (r *Reset) Request() error {
	return r.cb.send(protocol.ResetRequest, 0, false, nil)
}

func (r *Reset) Notify(msg []byte) {
	h, m, ok := r.cb.receive(msg)
	if !ok {
		return
	}
	if m.Header.FilterError() {
		h(ResetEvent{Type: ResetEventReject})
		return
	}

	switch m.Header.Request() {
	case protocol.ResetRequest:
		h(ResetEvent{Type: ResetEventDone})
	default:
		r.cb.drop(m.Header.Request(), protocol.DropUnknownRequest)
	}
}
