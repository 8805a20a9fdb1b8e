package service

import "github.com/ystepanoff/nrfs/protocol"

type MRAMEventType uint8

const (
	MRAMEventApplied MRAMEventType = iota
	MRAMEventRejected
)

type MRAMLatency uint8

const (
	MRAMLatencyAllowed MRAMLatency = iota
	MRAMLatencyNotAllowed
	MRAMLatencyInternalReq
)

type MRAMEvent struct {
	Type MRAMEventType
}

type MRAMEventHandler func(evt MRAMEvent, ctx protocol.Context)

// MRAM controls whether MRAM may enter its low-power, higher-latency state.
type MRAM struct {
	cb controlBlock[MRAMEventHandler]
}

func NewMRAM(s Sender, opts ...Option) *MRAM {
	r := &MRAM{}
	r.cb.setup(protocol.ServiceMRAM, s, opts)
	return r
}

func (r *MRAM) Init(h MRAMEventHandler) error { return r.cb.start(h, h != nil) }
func (r *MRAM) Uninit()                       { r.cb.stop() }

// SetLatency requests a latency mode. The System Controller only replies to MRAMLatencyNotAllowed.
func (r *MRAM) SetLatency(req MRAMLatency, ctx protocol.Context) error {
	return r.cb.send(protocol.MRAMSetLatency, ctx, false, []byte{byte(req)})
}

func (r *MRAM) Notify(msg []byte) {
	h, m, ok := r.cb.receive(msg)
	if !ok {
		return
	}
	if m.Header.FilterError() {
		h(MRAMEvent{Type: MRAMEventRejected}, m.Context)
		return
	}

	switch m.Header.Request() {
	case protocol.MRAMSetLatency:
		h(MRAMEvent{Type: MRAMEventApplied}, m.Context)
	default:
		r.cb.drop(m.Header.Request(), protocol.DropUnknownRequest)
	}
}
