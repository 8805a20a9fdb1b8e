package service

import "github.com/ystepanoff/nrfs/protocol"

type GDPWREventType uint8

const (
	GDPWREventApplied GDPWREventType = iota
	GDPWREventRejected
)

type PowerDomain uint8

const (
	PowerDomainFastActive0 PowerDomain = iota
	PowerDomainFastActive1
	PowerDomainFastMain
	PowerDomainSlowActive
	PowerDomainSlowMain
)

type PowerRequestType uint8

const (
	PowerRequestClear PowerRequestType = iota
	PowerRequestSet
)

// GDPWRRequest is the payload of a power request.
// Layout: Domain(1) | Type(1)
type GDPWRRequest struct {
	Domain PowerDomain
	Type   PowerRequestType
}

const gdpwrRequestSize = 2

func (r GDPWRRequest) Encode() []byte {
	return []byte{byte(r.Domain), byte(r.Type)}
}

func DecodeGDPWRRequest(b []byte) (GDPWRRequest, error) {
	if err := needBytes(b, gdpwrRequestSize); err != nil {
		return GDPWRRequest{}, err
	}
	return GDPWRRequest{Domain: PowerDomain(b[0]), Type: PowerRequestType(b[1])}, nil
}

type GDPWREvent struct {
	Type GDPWREventType
}

type GDPWREventHandler func(evt GDPWREvent, ctx protocol.Context)

// GDPWR keeps global power domains powered or releases them.
type GDPWR struct {
	cb controlBlock[GDPWREventHandler]
}

func NewGDPWR(s Sender, opts ...Option) *GDPWR {
	g := &GDPWR{}
	g.cb.setup(protocol.ServiceGDPWR, s, opts)
	return g
}

func (g *GDPWR) Init(h GDPWREventHandler) error { return g.cb.start(h, h != nil) }
func (g *GDPWR) Uninit()                        { g.cb.stop() }

func (g *GDPWR) PowerRequest(domain PowerDomain, typ PowerRequestType, ctx protocol.Context) error {
	return g.cb.send(protocol.GDPWRSetPowerRequest, ctx, false, GDPWRRequest{Domain: domain, Type: typ}.Encode())
}

// Notify reports Applied for every accepted power request, set or clear alike.
func (g *GDPWR) Notify(msg []byte) {
	h, m, ok := g.cb.receive(msg)
	if !ok {
		return
	}
	if m.Header.FilterError() {
		h(GDPWREvent{Type: GDPWREventRejected}, m.Context)
		return
	}

	switch m.Header.Request() {
	case protocol.GDPWRSetPowerRequest:
		h(GDPWREvent{Type: GDPWREventApplied}, m.Context)
	default:
		g.cb.drop(m.Header.Request(), protocol.DropUnknownRequest)
	}
}
