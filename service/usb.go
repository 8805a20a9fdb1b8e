package service

import "github.com/ystepanoff/nrfs/protocol"

type USBEventType uint8

const (
	USBEventVBUSStatusChange USBEventType = iota
	USBEventReject
)

// USBStatus is the payload of a USB enable reply.
// Layout: PLLOk(1) | VRegOk(1) | VBUSDetected(1)
type USBStatus struct {
	PLLOk        bool
	VRegOk       bool
	VBUSDetected bool
}

const usbStatusSize = 3

func (s USBStatus) Encode() []byte {
	return []byte{boolByte(s.PLLOk), boolByte(s.VRegOk), boolByte(s.VBUSDetected)}
}

func DecodeUSBStatus(b []byte) (USBStatus, error) {
	if err := needBytes(b, usbStatusSize); err != nil {
		return USBStatus{}, err
	}
	return USBStatus{PLLOk: b[0] != 0, VRegOk: b[1] != 0, VBUSDetected: b[2] != 0}, nil
}

type USBEvent struct {
	Type   USBEventType
	Status USBStatus
}

type USBEventHandler func(evt USBEvent, ctx protocol.Context)

// USB powers the USB PHY and reports VBUS state.
type USB struct {
	cb controlBlock[USBEventHandler]
}

func NewUSB(s Sender, opts ...Option) *USB {
	u := &USB{}
	u.cb.setup(protocol.ServiceUSB, s, opts)
	return u
}

func (u *USB) Init(h USBEventHandler) error { return u.cb.start(h, h != nil) }
func (u *USB) Uninit()                      { u.cb.stop() }

func (u *USB) EnableRequest(ctx protocol.Context) error {
	return u.cb.send(protocol.USBEnable, ctx, false, nil)
}

func (u *USB) DisableRequest(ctx protocol.Context) error {
	return u.cb.send(protocol.USBDisable, ctx, false, nil)
}

// DPlusPullupEnable and DPlusPullupDisable never get a reply.
func (u *USB) DPlusPullupEnable(ctx protocol.Context) error {
	return u.cb.send(protocol.USBDPlusPullupEnable, ctx, true, nil)
}

func (u *USB) DPlusPullupDisable(ctx protocol.Context) error {
	return u.cb.send(protocol.USBDPlusPullupDisable, ctx, true, nil)
}

func (u *USB) Notify(msg []byte) {
	h, m, ok := u.cb.receive(msg)
	if !ok {
		return
	}
	if m.Header.FilterError() {
		h(USBEvent{Type: USBEventReject}, m.Context)
		return
	}

	switch m.Header.Request() {
	case protocol.USBEnable:
		st, err := DecodeUSBStatus(m.Payload)
		if err != nil {
			u.cb.drop(m.Header.Request(), protocol.DropShortMessage)
			return
		}
		h(USBEvent{Type: USBEventVBUSStatusChange, Status: st}, m.Context)
	default:
		u.cb.drop(m.Header.Request(), protocol.DropUnknownRequest)
	}
}
