package service

import "github.com/ystepanoff/nrfs/protocol"

type GDFSEventType uint8

const (
	GDFSEventReject GDFSEventType = iota
	GDFSEventFreqConfirmed
)

// GDFSFrequency is a global domain frequency setting.
type GDFSFrequency uint8

const (
	GDFSFreqHigh GDFSFrequency = iota
	GDFSFreqMedHigh
	GDFSFreqMedLow
	GDFSFreqLow
)

type GDFSEvent struct {
	Type GDFSEventType
}

type GDFSEventHandler func(evt GDFSEvent, ctx protocol.Context)

// GDFS scales the frequency of the global domain.
type GDFS struct {
	cb controlBlock[GDFSEventHandler]
}

func NewGDFS(s Sender, opts ...Option) *GDFS {
	g := &GDFS{}
	g.cb.setup(protocol.ServiceGDFS, s, opts)
	return g
}

func (g *GDFS) Init(h GDFSEventHandler) error { return g.cb.start(h, h != nil) }
func (g *GDFS) Uninit()                       { g.cb.stop() }

func (g *GDFS) RequestFreq(target GDFSFrequency, ctx protocol.Context) error {
	return g.cb.send(protocol.GDFSFreq, ctx, false, []byte{byte(target)})
}

func (g *GDFS) RequestFreqNoRsp(target GDFSFrequency, ctx protocol.Context) error {
	return g.cb.send(protocol.GDFSFreq, ctx, true, []byte{byte(target)})
}

func (g *GDFS) Notify(msg []byte) {
	h, m, ok := g.cb.receive(msg)
	if !ok {
		return
	}
	if m.Header.FilterError() {
		h(GDFSEvent{Type: GDFSEventReject}, m.Context)
		return
	}

	switch m.Header.Request() {
	case protocol.GDFSFreq:
		h(GDFSEvent{Type: GDFSEventFreqConfirmed}, m.Context)
	default:
		g.cb.drop(m.Header.Request(), protocol.DropUnknownRequest)
	}
}
