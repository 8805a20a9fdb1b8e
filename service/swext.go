package service

import "github.com/ystepanoff/nrfs/protocol"

type SWEXTEventType uint8

const (
	SWEXTEventEnabled SWEXTEventType = iota
	SWEXTEventOvercurrent
	SWEXTEventRejected
)

type SWEXTPullDownClamp uint8

const (
	SWEXTPullDownClampDisabled SWEXTPullDownClamp = iota
	SWEXTPullDownClampEnabled
)

// SWEXTStatus is the single byte of every SWEXT reply.
type SWEXTStatus uint8

const (
	SWEXTOutputEnabled SWEXTStatus = iota
	SWEXTOvercurrent
)

// SWEXTLoadCurrentStepUA is the resolution of the load current field.
const SWEXTLoadCurrentStepUA = 500

// SWEXTLoadCurrentToRaw converts a load current in µA to the raw request
// value, rounding up to the next 500 µA step.
func SWEXTLoadCurrentToRaw(microamps uint32) uint8 {
	return uint8((microamps + SWEXTLoadCurrentStepUA - 1) / SWEXTLoadCurrentStepUA)
}

type SWEXTEvent struct {
	Type SWEXTEventType
}

type SWEXTEventHandler func(evt SWEXTEvent, ctx protocol.Context)

// SWEXT drives the switchable external power output.
type SWEXT struct {
	cb controlBlock[SWEXTEventHandler]
}

func NewSWEXT(s Sender, opts ...Option) *SWEXT {
	w := &SWEXT{}
	w.cb.setup(protocol.ServiceSWEXT, s, opts)
	return w
}

func (w *SWEXT) Init(h SWEXTEventHandler) error { return w.cb.start(h, h != nil) }
func (w *SWEXT) Uninit()                        { w.cb.stop() }

// PowerUp enables the output. loadCurrent is a raw value, see SWEXTLoadCurrentToRaw.
func (w *SWEXT) PowerUp(loadCurrent uint8, ctx protocol.Context) error {
	return w.cb.send(protocol.SWEXTPowerUp, ctx, false, []byte{loadCurrent})
}

func (w *SWEXT) PowerDown(clamp SWEXTPullDownClamp, ctx protocol.Context) error {
	return w.cb.send(protocol.SWEXTPowerDown, ctx, false, []byte{byte(clamp)})
}

// Notify maps the reply status to an event; the request type is not consulted.
func (w *SWEXT) Notify(msg []byte) {
	h, m, ok := w.cb.receive(msg)
	if !ok {
		return
	}
	if m.Header.FilterError() {
		h(SWEXTEvent{Type: SWEXTEventRejected}, m.Context)
		return
	}

	if len(m.Payload) < 1 {
		w.cb.drop(m.Header.Request(), protocol.DropShortMessage)
		return
	}
	switch SWEXTStatus(m.Payload[0]) {
	case SWEXTOutputEnabled:
		h(SWEXTEvent{Type: SWEXTEventEnabled}, m.Context)
	case SWEXTOvercurrent:
		h(SWEXTEvent{Type: SWEXTEventOvercurrent}, m.Context)
	default:
		w.cb.drop(m.Header.Request(), protocol.DropMalformed)
	}
}
