package service

import "github.com/ystepanoff/nrfs/protocol"

type TempEventType uint8

const (
	TempEventMeasureDone TempEventType = iota
	TempEventChange
	TempEventReject
)

// TempFromRaw converts a raw reading (quarter degrees) to hundredths of a degree Celsius.
func TempFromRaw(raw int32) int32 { return raw * 100 / 4 }

// TempToRaw converts hundredths of a degree Celsius to a raw value. The
// conversion truncates, so TempFromRaw(TempToRaw(c)) may be lower than c.
func TempToRaw(centiC int32) int32 { return centiC * 4 / 100 }

// TempSubscription is the payload of a subscribe request.
// Layout: MeasureRateMs(2) | LowerThreshold(4) | UpperThreshold(4)
type TempSubscription struct {
	MeasureRateMs  uint16
	LowerThreshold int32
	UpperThreshold int32
}

const tempSubscriptionSize = 10

func (s TempSubscription) Encode() []byte {
	b := make([]byte, tempSubscriptionSize)
	putUint16(b, 0, s.MeasureRateMs)
	putUint32(b, 2, uint32(s.LowerThreshold))
	putUint32(b, 6, uint32(s.UpperThreshold))
	return b
}

func DecodeTempSubscription(b []byte) (TempSubscription, error) {
	if err := needBytes(b, tempSubscriptionSize); err != nil {
		return TempSubscription{}, err
	}
	return TempSubscription{
		MeasureRateMs:  getUint16(b, 0),
		LowerThreshold: int32(getUint32(b, 2)),
		UpperThreshold: int32(getUint32(b, 6)),
	}, nil
}

const tempResponseSize = 4

// EncodeTempResponse builds the payload of a temperature reply.
func EncodeTempResponse(raw int32) []byte {
	b := make([]byte, tempResponseSize)
	putUint32(b, 0, uint32(raw))
	return b
}

func DecodeTempResponse(b []byte) (int32, error) {
	if err := needBytes(b, tempResponseSize); err != nil {
		return 0, err
	}
	return int32(getUint32(b, 0)), nil
}

type TempEvent struct {
	Type    TempEventType
	RawTemp int32
}

type TempEventHandler func(evt TempEvent, ctx protocol.Context)

// Temp reads the die temperature.
type Temp struct {
	cb controlBlock[TempEventHandler]
}

func NewTemp(s Sender, opts ...Option) *Temp {
	t := &Temp{}
	t.cb.setup(protocol.ServiceTemp, s, opts)
	return t
}

func (t *Temp) Init(h TempEventHandler) error { return t.cb.start(h, h != nil) }
func (t *Temp) Uninit()                       { t.cb.stop() }

func (t *Temp) MeasureRequest(ctx protocol.Context) error {
	return t.cb.send(protocol.TempMeasure, ctx, false, nil)
}

// Subscribe asks for a Change event whenever the temperature leaves [lower, upper].
// Thresholds are raw values, see TempToRaw.
func (t *Temp) Subscribe(measureRateMs uint16, lower, upper int32, ctx protocol.Context) error {
	sub := TempSubscription{MeasureRateMs: measureRateMs, LowerThreshold: lower, UpperThreshold: upper}
	return t.cb.send(protocol.TempSubscribe, ctx, false, sub.Encode())
}

// Unsubscribe sends a zeroed subscription.
func (t *Temp) Unsubscribe() error {
	return t.cb.send(protocol.TempUnsubscribe, 0, false, TempSubscription{}.Encode())
}

func (t *Temp) Notify(msg []byte) {
	h, m, ok := t.cb.receive(msg)
	if !ok {
		return
	}
	if m.Header.FilterError() {
		h(TempEvent{Type: TempEventReject}, m.Context)
		return
	}

	var evt TempEvent
	switch m.Header.Request() {
	case protocol.TempMeasure:
		evt.Type = TempEventMeasureDone
	case protocol.TempSubscribe:
		evt.Type = TempEventChange
	default:
		t.cb.drop(m.Header.Request(), protocol.DropUnknownRequest)
		return
	}

	raw, err := DecodeTempResponse(m.Payload)
	if err != nil {
		t.cb.drop(m.Header.Request(), protocol.DropShortMessage)
		return
	}
	evt.RawTemp = raw
	h(evt, m.Context)
}
