package service

import "github.com/ystepanoff/nrfs/protocol"

type ClockEventType uint8

const (
	ClockEventApplied ClockEventType = iota
	ClockEventReject
	ClockEventChange
)

// ClockSource selects the LFCLK source.
type ClockSource uint8

const (
	ClockSourceDefault ClockSource = iota
	ClockSourceXODefault
	ClockSourceXODefaultHP
	ClockSourceLFLPRC
	ClockSourceLFRC
	ClockSourceXOPixo
	ClockSourceXOPierce
	ClockSourceXOExtSine
	ClockSourceXOExtSquare
	ClockSourceSynth
	ClockSourceXOPierceHP
	ClockSourceXOExtSineHP
)

type HSFLLMode uint8

const (
	HSFLLModeOpen HSFLLMode = iota
	HSFLLModeClosed
)

// ClockEventReason is a bit set describing what changed.
type ClockEventReason uint8

const (
	ClockReasonAccuracyChanged  ClockEventReason = 1 << 0
	ClockReasonPrecisionChanged ClockEventReason = 1 << 1
	ClockReasonNoChange         ClockEventReason = 1 << 2
	ClockReasonAll              ClockEventReason = 0xFF
)

// ClockResponse is the payload of every clock reply.
// Layout: Reason(1) | Source(1)
type ClockResponse struct {
	Reason ClockEventReason
	Source ClockSource
}

const clockResponseSize = 2

func (r ClockResponse) Encode() []byte {
	return []byte{byte(r.Reason), byte(r.Source)}
}

func DecodeClockResponse(b []byte) (ClockResponse, error) {
	if err := needBytes(b, clockResponseSize); err != nil {
		return ClockResponse{}, err
	}
	return ClockResponse{Reason: ClockEventReason(b[0]), Source: ClockSource(b[1])}, nil
}

type ClockEvent struct {
	Type ClockEventType
	Data ClockResponse
}

type ClockEventHandler func(evt ClockEvent, ctx protocol.Context)

// Clock controls the LFCLK source and HSFLL mode.
type Clock struct {
	cb controlBlock[ClockEventHandler]
}

func NewClock(s Sender, opts ...Option) *Clock {
	c := &Clock{}
	c.cb.setup(protocol.ServiceClock, s, opts)
	return c
}

func (c *Clock) Init(h ClockEventHandler) error { return c.cb.start(h, h != nil) }
func (c *Clock) Uninit()                        { c.cb.stop() }

// Subscribe asks for Change events matching mask.
func (c *Clock) Subscribe(mask ClockEventReason, ctx protocol.Context) error {
	return c.cb.send(protocol.ClockSubscribe, ctx, false, []byte{byte(mask)})
}

// Unsubscribe carries a zero mask so the message keeps the subscribe layout.
func (c *Clock) Unsubscribe() error {
	return c.cb.send(protocol.ClockUnsubscribe, 0, false, []byte{0})
}

func (c *Clock) LFClkSrcSet(src ClockSource, ctx protocol.Context) error {
	return c.cb.send(protocol.ClockLFClkSrc, ctx, false, []byte{byte(src)})
}

func (c *Clock) LFClkSrcSetNoRsp(src ClockSource, ctx protocol.Context) error {
	return c.cb.send(protocol.ClockLFClkSrc, ctx, true, []byte{byte(src)})
}

func (c *Clock) HSFLLModeSet(mode HSFLLMode, ctx protocol.Context) error {
	return c.cb.send(protocol.ClockHSFLLMode, ctx, false, []byte{byte(mode)})
}

func (c *Clock) HSFLLModeSetNoRsp(mode HSFLLMode, ctx protocol.Context) error {
	return c.cb.send(protocol.ClockHSFLLMode, ctx, true, []byte{byte(mode)})
}

func (c *Clock) Notify(msg []byte) {
	h, m, ok := c.cb.receive(msg)
	if !ok {
		return
	}
	if m.Header.FilterError() {
		h(ClockEvent{Type: ClockEventReject}, m.Context)
		return
	}

	var evt ClockEvent
	switch m.Header.Request() {
	case protocol.ClockSubscribe:
		evt.Type = ClockEventChange
	case protocol.ClockLFClkSrc, protocol.ClockHSFLLMode:
		evt.Type = ClockEventApplied
	default:
		c.cb.drop(m.Header.Request(), protocol.DropUnknownRequest)
		return
	}

	data, err := DecodeClockResponse(m.Payload)
	if err != nil {
		c.cb.drop(m.Header.Request(), protocol.DropShortMessage)
		return
	}
	evt.Data = data
	h(evt, m.Context)
}
