package service

import "github.com/ystepanoff/nrfs/protocol"

type DiagEventType uint8

const (
	DiagEventApplied DiagEventType = iota
	DiagEventReject
	DiagEventRegResponse
)

// DiagReg is the payload of a register access, both request and reply.
// Layout: Access(1) | Addr(4) | Val(4)
type DiagReg struct {
	Access RegAccess
	Addr   uint32
	Val    uint32
}

const diagRegSize = 9

func (r DiagReg) Encode() []byte {
	b := make([]byte, diagRegSize)
	b[0] = byte(r.Access)
	putUint32(b, 1, r.Addr)
	putUint32(b, 5, r.Val)
	return b
}

func DecodeDiagReg(b []byte) (DiagReg, error) {
	if err := needBytes(b, diagRegSize); err != nil {
		return DiagReg{}, err
	}
	return DiagReg{Access: RegAccess(b[0]), Addr: getUint32(b, 1), Val: getUint32(b, 5)}, nil
}

type DiagEvent struct {
	Type DiagEventType
	Reg  DiagReg
}

type DiagEventHandler func(evt DiagEvent, ctx protocol.Context)

// Diag gives debug access to System Controller registers.
type Diag struct {
	cb controlBlock[DiagEventHandler]
}

func NewDiag(s Sender, opts ...Option) *Diag {
	d := &Diag{}
	d.cb.setup(protocol.ServiceDiag, s, opts)
	return d
}

func (d *Diag) Init(h DiagEventHandler) error { return d.cb.start(h, h != nil) }
func (d *Diag) Uninit()                       { d.cb.stop() }

func (d *Diag) RegRead(addr uint32, ctx protocol.Context) error {
	return d.cb.send(protocol.DiagReg, ctx, false, DiagReg{Access: RegRead, Addr: addr}.Encode())
}

func (d *Diag) RegWrite(addr, val uint32, ctx protocol.Context) error {
	return d.cb.send(protocol.DiagReg, ctx, false, DiagReg{Access: RegWrite, Addr: addr, Val: val}.Encode())
}

func (d *Diag) Notify(msg []byte) {
	h, m, ok := d.cb.receive(msg)
	if !ok {
		return
	}
	if m.Header.FilterError() {
		h(DiagEvent{Type: DiagEventReject}, m.Context)
		return
	}

	switch m.Header.Request() {
	case protocol.DiagReg:
		reg, err := DecodeDiagReg(m.Payload)
		if err != nil {
			d.cb.drop(m.Header.Request(), protocol.DropShortMessage)
			return
		}
		h(DiagEvent{Type: DiagEventRegResponse, Reg: reg}, m.Context)
	default:
		d.cb.drop(m.Header.Request(), protocol.DropUnknownRequest)
	}
}
