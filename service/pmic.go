package service

import "github.com/ystepanoff/nrfs/protocol"

type PMICEventType uint8

const (
	PMICEventApplied PMICEventType = iota
	PMICEventReject
	PMICEventTestIFResponse
	PMICEventInfoResponse
)

type PMICSIM uint8

const (
	PMICSIM1 PMICSIM = 1
	PMICSIM2 PMICSIM = 2
)

// BLETxPower is the radio TX power the PMIC must be able to supply, from +10 dBm down to -70 dBm.
type BLETxPower uint8

const (
	BLETxPowerPos10dBm BLETxPower = iota
	BLETxPowerPos9dBm
	BLETxPowerPos8dBm
	BLETxPowerPos7dBm
	BLETxPowerPos6dBm
	BLETxPowerPos5dBm
	BLETxPowerPos4dBm
	BLETxPowerPos3dBm
	BLETxPowerPos2dBm
	BLETxPowerPos1dBm
	BLETxPower0dBm
	BLETxPowerNeg1dBm
	BLETxPowerNeg2dBm
	BLETxPowerNeg4dBm
	BLETxPowerNeg8dBm
	BLETxPowerNeg12dBm
	BLETxPowerNeg16dBm
	BLETxPowerNeg20dBm
	BLETxPowerNeg30dBm
	BLETxPowerNeg40dBm
	BLETxPowerNeg70dBm
)

// RegAccess is the register access type used by the PMIC test interface and Diag.
type RegAccess uint8

const (
	RegRead RegAccess = iota
	RegWrite
	RegInvalid
)

type PMICAvailability uint8

const (
	PMICNotAvailable PMICAvailability = iota
	PMICAvailable
)

// PMICTestIFRequest is the payload of a test interface access.
// Layout: Access(1) | Addr(2) | Val(1)
type PMICTestIFRequest struct {
	Access RegAccess
	Addr   uint16
	Val    uint8
}

const pmicTestIFRequestSize = 4

func (r PMICTestIFRequest) Encode() []byte {
	b := make([]byte, pmicTestIFRequestSize)
	b[0] = byte(r.Access)
	putUint16(b, 1, r.Addr)
	b[3] = r.Val
	return b
}

func DecodePMICTestIFRequest(b []byte) (PMICTestIFRequest, error) {
	if err := needBytes(b, pmicTestIFRequestSize); err != nil {
		return PMICTestIFRequest{}, err
	}
	return PMICTestIFRequest{Access: RegAccess(b[0]), Addr: getUint16(b, 1), Val: b[3]}, nil
}

// PMICTestIFResponse is the payload of a test interface reply.
// Layout: Access(1) | Val(1)
type PMICTestIFResponse struct {
	Access RegAccess
	Val    uint8
}

const pmicTestIFResponseSize = 2

func (r PMICTestIFResponse) Encode() []byte { return []byte{byte(r.Access), r.Val} }

func DecodePMICTestIFResponse(b []byte) (PMICTestIFResponse, error) {
	if err := needBytes(b, pmicTestIFResponseSize); err != nil {
		return PMICTestIFResponse{}, err
	}
	return PMICTestIFResponse{Access: RegAccess(b[0]), Val: b[1]}, nil
}

// PMICEvent carries the test interface result for TestIFResponse and the
// availability for InfoResponse. Other event types carry no data.
type PMICEvent struct {
	Type   PMICEventType
	Access RegAccess
	Val    uint8
	Info   PMICAvailability
}

type PMICEventHandler func(evt PMICEvent, ctx protocol.Context)

// PMIC configures the power management IC. Every request except the test
// interface and info reads has a NoRsp variant, sent with a zero context.
type PMIC struct {
	cb controlBlock[PMICEventHandler]
}

func NewPMIC(s Sender, opts ...Option) *PMIC {
	p := &PMIC{}
	p.cb.setup(protocol.ServicePMIC, s, opts)
	return p
}

func (p *PMIC) Init(h PMICEventHandler) error { return p.cb.start(h, h != nil) }
func (p *PMIC) Uninit()                       { p.cb.stop() }

func (p *PMIC) RFFEOn(ctx protocol.Context) error {
	return p.cb.send(protocol.PMICRFFEOn, ctx, false, nil)
}

func (p *PMIC) RFFEOnNoRsp() error { return p.cb.send(protocol.PMICRFFEOn, 0, true, nil) }

func (p *PMIC) RFFEOff(ctx protocol.Context) error {
	return p.cb.send(protocol.PMICRFFEOff, ctx, false, nil)
}

func (p *PMIC) RFFEOffNoRsp() error { return p.cb.send(protocol.PMICRFFEOff, 0, true, nil) }

func (p *PMIC) SIMOn(sim PMICSIM, ctx protocol.Context) error {
	return p.cb.send(protocol.PMICSIMOn, ctx, false, []byte{byte(sim)})
}

func (p *PMIC) SIMOnNoRsp(sim PMICSIM) error {
	return p.cb.send(protocol.PMICSIMOn, 0, true, []byte{byte(sim)})
}

func (p *PMIC) SIMOff(sim PMICSIM, ctx protocol.Context) error {
	return p.cb.send(protocol.PMICSIMOff, ctx, false, []byte{byte(sim)})
}

func (p *PMIC) SIMOffNoRsp(sim PMICSIM) error {
	return p.cb.send(protocol.PMICSIMOff, 0, true, []byte{byte(sim)})
}

func (p *PMIC) BLERadioOn(txpower BLETxPower, ctx protocol.Context) error {
	return p.cb.send(protocol.PMICBLERadioOn, ctx, false, []byte{byte(txpower)})
}

func (p *PMIC) BLERadioOnNoRsp(txpower BLETxPower) error {
	return p.cb.send(protocol.PMICBLERadioOn, 0, true, []byte{byte(txpower)})
}

func (p *PMIC) BLERadioOff(ctx protocol.Context) error {
	return p.cb.send(protocol.PMICBLERadioOff, ctx, false, nil)
}

func (p *PMIC) BLERadioOffNoRsp() error { return p.cb.send(protocol.PMICBLERadioOff, 0, true, nil) }

func (p *PMIC) PWMDefaultSet(ctx protocol.Context) error {
	return p.cb.send(protocol.PMICPWMDefault, ctx, false, nil)
}

func (p *PMIC) PWMDefaultSetNoRsp() error { return p.cb.send(protocol.PMICPWMDefault, 0, true, nil) }

func (p *PMIC) PWMGhostAvoidSet(ctx protocol.Context) error {
	return p.cb.send(protocol.PMICPWMGhostAvoid, ctx, false, nil)
}

func (p *PMIC) PWMGhostAvoidSetNoRsp() error {
	return p.cb.send(protocol.PMICPWMGhostAvoid, 0, true, nil)
}

func (p *PMIC) TestIFRead(addr uint16, ctx protocol.Context) error {
	req := PMICTestIFRequest{Access: RegRead, Addr: addr}
	return p.cb.send(protocol.PMICTestIF, ctx, false, req.Encode())
}

func (p *PMIC) TestIFWrite(addr uint16, val uint8, ctx protocol.Context) error {
	req := PMICTestIFRequest{Access: RegWrite, Addr: addr, Val: val}
	return p.cb.send(protocol.PMICTestIF, ctx, false, req.Encode())
}

func (p *PMIC) InfoRead(ctx protocol.Context) error {
	return p.cb.send(protocol.PMICInfo, ctx, false, nil)
}

func (p *PMIC) Notify(msg []byte) {
	h, m, ok := p.cb.receive(msg)
	if !ok {
		return
	}
	if m.Header.FilterError() {
		h(PMICEvent{Type: PMICEventReject}, m.Context)
		return
	}

	req := m.Header.Request()
	switch req {
	case protocol.PMICRFFEOn, protocol.PMICRFFEOff,
		protocol.PMICSIMOn, protocol.PMICSIMOff,
		protocol.PMICBLERadioOn, protocol.PMICBLERadioOff,
		protocol.PMICPWMDefault, protocol.PMICPWMGhostAvoid:
		h(PMICEvent{Type: PMICEventApplied}, m.Context)
	case protocol.PMICTestIF:
		rsp, err := DecodePMICTestIFResponse(m.Payload)
		if err != nil {
			p.cb.drop(req, protocol.DropShortMessage)
			return
		}
		h(PMICEvent{Type: PMICEventTestIFResponse, Access: rsp.Access, Val: rsp.Val}, m.Context)
	case protocol.PMICInfo:
		if len(m.Payload) < 1 {
			p.cb.drop(req, protocol.DropShortMessage)
			return
		}
		h(PMICEvent{Type: PMICEventInfoResponse, Info: PMICAvailability(m.Payload[0])}, m.Context)
	default:
		p.cb.drop(req, protocol.DropUnknownRequest)
	}
}
