package service

import "github.com/ystepanoff/nrfs/protocol"

type AudioPLLEventType uint8

const (
	AudioPLLEventEnabled AudioPLLEventType = iota
	AudioPLLEventDisabled
	AudioPLLEventFreqConfirmed
	AudioPLLEventPrescalerConfirmed
	AudioPLLEventFreqIncConfirmed
	AudioPLLEventReject
)

type AudioPLLPrescaler uint8

const (
	AudioPLLDivDisabled AudioPLLPrescaler = iota
	AudioPLLDiv1
	AudioPLLDiv2
	AudioPLLDiv3
	AudioPLLDiv4
	AudioPLLDiv6
	AudioPLLDiv8
	AudioPLLDiv12
	AudioPLLDiv16
)

// AudioPLLFreqInc is the payload of a frequency increment request.
// Layout: Period(2) | Val(1)
type AudioPLLFreqInc struct {
	Period uint16
	Val    int8
}

const audioPLLFreqIncSize = 3

func (r AudioPLLFreqInc) Encode() []byte {
	b := make([]byte, audioPLLFreqIncSize)
	putUint16(b, 0, r.Period)
	b[2] = byte(r.Val)
	return b
}

func DecodeAudioPLLFreqInc(b []byte) (AudioPLLFreqInc, error) {
	if err := needBytes(b, audioPLLFreqIncSize); err != nil {
		return AudioPLLFreqInc{}, err
	}
	return AudioPLLFreqInc{Period: getUint16(b, 0), Val: int8(b[2])}, nil
}

type AudioPLLEvent struct {
	Type AudioPLLEventType
}

type AudioPLLEventHandler func(evt AudioPLLEvent, ctx protocol.Context)

// AudioPLL controls the audio PLL.
type AudioPLL struct {
	cb controlBlock[AudioPLLEventHandler]
}

func NewAudioPLL(s Sender, opts ...Option) *AudioPLL {
	a := &AudioPLL{}
	a.cb.setup(protocol.ServiceAudioPLL, s, opts)
	return a
}

func (a *AudioPLL) Init(h AudioPLLEventHandler) error { return a.cb.start(h, h != nil) }
func (a *AudioPLL) Uninit()                           { a.cb.stop() }

func (a *AudioPLL) EnableRequest(ctx protocol.Context) error {
	return a.cb.send(protocol.AudioPLLEnable, ctx, false, nil)
}

func (a *AudioPLL) DisableRequest(ctx protocol.Context) error {
	return a.cb.send(protocol.AudioPLLDisable, ctx, false, nil)
}

func (a *AudioPLL) RequestFreq(fraction uint16, ctx protocol.Context) error {
	b := make([]byte, 2)
	putUint16(b, 0, fraction)
	return a.cb.send(protocol.AudioPLLFreq, ctx, false, b)
}

func (a *AudioPLL) RequestPrescaler(div AudioPLLPrescaler, ctx protocol.Context) error {
	return a.cb.send(protocol.AudioPLLPrescaler, ctx, false, []byte{byte(div)})
}

// RequestFreqInc makes the PLL step its frequency by val every period.
func (a *AudioPLL) RequestFreqInc(val int8, period uint16, ctx protocol.Context) error {
	return a.cb.send(protocol.AudioPLLFreqInc, ctx, false, AudioPLLFreqInc{Period: period, Val: val}.Encode())
}

func (a *AudioPLL) Notify(msg []byte) {
	h, m, ok := a.cb.receive(msg)
	if !ok {
		return
	}
	if m.Header.FilterError() {
		h(AudioPLLEvent{Type: AudioPLLEventReject}, m.Context)
		return
	}

	var evt AudioPLLEvent
	switch m.Header.Request() {
	case protocol.AudioPLLEnable:
		evt.Type = AudioPLLEventEnabled
	case protocol.AudioPLLDisable:
		evt.Type = AudioPLLEventDisabled
	case protocol.AudioPLLFreq:
		evt.Type = AudioPLLEventFreqConfirmed
	case protocol.AudioPLLPrescaler:
		evt.Type = AudioPLLEventPrescalerConfirmed
	case protocol.AudioPLLFreqInc:
		evt.Type = AudioPLLEventFreqIncConfirmed
	default:
		a.cb.drop(m.Header.Request(), protocol.DropUnknownRequest)
		return
	}
	h(evt, m.Context)
}
