// Package sysctrl is a host-side model of the System Controller core. It
// answers requests with the same message layouts the real firmware uses and is
// used by tests and by nrfsctl to run without hardware.
package sysctrl

import (
	"sync"

	"github.com/go-logr/logr"

	"github.com/ystepanoff/nrfs/metrics"
	"github.com/ystepanoff/nrfs/protocol"
	"github.com/ystepanoff/nrfs/service"
)

type clockSubscription struct {
	mask service.ClockEventReason
	ctx  protocol.Context
}

type tempSubscription struct {
	service.TempSubscription
	ctx protocol.Context
}

// Controller answers nrfs requests. Replies go out through tx.
type Controller struct {
	tx      service.Sender
	log     logr.Logger
	metrics *metrics.Metrics

	scalingOnNoResponse bool
	rejected            map[protocol.ServiceID]bool
	swextLimit          uint8

	mu             sync.Mutex
	oppoint        service.DVFSFrequency
	pendingOppoint *service.DVFSFrequency
	lfclk          service.ClockSource
	hsfll          service.HSFLLMode
	clockSub       *clockSubscription
	tempRaw        int32
	tempSub        *tempSubscription
	diagRegs       map[uint32]uint32
	pmicRegs       map[uint16]uint8
	usb            service.USBStatus
	usbEnabled     bool
	powerDomains   map[service.PowerDomain]bool
	gdfs           service.GDFSFrequency
	mramLatency    service.MRAMLatency
	audioPLL       bool
	audioFreq      uint16
	audioDiv       service.AudioPLLPrescaler
	resets         int
}

type Option func(*Controller)

func WithLogger(log logr.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithMetrics counts served requests per service and outcome.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithScalingOnNoResponse makes a no-response oppoint request that changes the
// voltage still answer with a scaling-prepare notification. Without it such a
// request is applied silently.
func WithScalingOnNoResponse(v bool) Option {
	return func(c *Controller) { c.scalingOnNoResponse = v }
}

// WithRejectedServices answers every request of the given services with the filter-error flag.
func WithRejectedServices(ids ...protocol.ServiceID) Option {
	return func(c *Controller) {
		for _, id := range ids {
			c.rejected[id] = true
		}
	}
}

func WithInitialOppoint(f service.DVFSFrequency) Option {
	return func(c *Controller) { c.oppoint = f }
}

func WithTemperature(raw int32) Option {
	return func(c *Controller) { c.tempRaw = raw }
}

// WithSWEXTCurrentLimit reports overcurrent for power-up requests above limit (raw units).
func WithSWEXTCurrentLimit(limit uint8) Option {
	return func(c *Controller) { c.swextLimit = limit }
}

func WithVBUS(detected bool) Option {
	return func(c *Controller) { c.usb.VBUSDetected = detected }
}

func New(tx service.Sender, opts ...Option) *Controller {
	c := &Controller{
		tx:           tx,
		log:          logr.Discard(),
		rejected:     make(map[protocol.ServiceID]bool),
		oppoint:      service.DVFSFreqHigh,
		tempRaw:      service.TempToRaw(2500),
		diagRegs:     make(map[uint32]uint32),
		pmicRegs:     make(map[uint16]uint8),
		powerDomains: make(map[service.PowerDomain]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Handle processes one request. It is safe for concurrent use.
func (c *Controller) Handle(msg []byte) {
	m, err := protocol.DecodeMessage(msg)
	if err != nil {
		c.log.Error(err, "Malformed request", "size", len(msg))
		return
	}
	hdr := m.Header
	if hdr.FilterError() || hdr.Unsolicited() {
		c.log.Info("Ignoring message that is not a request", "header", uint16(hdr))
		return
	}

	c.log.V(1).Info("Request received", "request", hdr.Request().String(), "context", uint32(m.Context), "noResponse", hdr.NoResponse())

	s := hdr.Service()
	if c.rejected[s] {
		c.metrics.RequestServed(s, "rejected")
		if !hdr.NoResponse() {
			c.flush([]reply{{req: hdr.Request(), ctx: m.Context, reject: true}})
		}
		return
	}

	handle, ok := c.handlers()[s]
	if !ok {
		c.log.Info("Request for unknown service", "service", int(s))
		return
	}

	c.mu.Lock()
	out := handle(m)
	c.mu.Unlock()

	outcome := "ok"
	for _, r := range out {
		if r.reject {
			outcome = "rejected"
		}
	}
	c.metrics.RequestServed(s, outcome)
	c.flush(out)
}

// reply is one outgoing message. Replies are built under the lock and sent
// after it is released so a reply may trigger a new request synchronously.
type reply struct {
	req     protocol.RequestType
	ctx     protocol.Context
	payload []byte
	reject  bool
}

func (c *Controller) handlers() map[protocol.ServiceID]func(*protocol.Message) []reply {
	return map[protocol.ServiceID]func(*protocol.Message) []reply{
		protocol.ServiceClock:    c.handleClock,
		protocol.ServiceDiag:     c.handleDiag,
		protocol.ServiceDVFS:     c.handleDVFS,
		protocol.ServiceGDPWR:    c.handleGDPWR,
		protocol.ServiceMRAM:     c.handleMRAM,
		protocol.ServicePMIC:     c.handlePMIC,
		protocol.ServiceReset:    c.handleReset,
		protocol.ServiceTemp:     c.handleTemp,
		protocol.ServiceUSB:      c.handleUSB,
		protocol.ServiceGDFS:     c.handleGDFS,
		protocol.ServiceSWEXT:    c.handleSWEXT,
		protocol.ServiceAudioPLL: c.handleAudioPLL,
	}
}

func (c *Controller) flush(out []reply) {
	for _, r := range out {
		rsp := &protocol.Message{Context: r.ctx, Payload: r.payload}
		rsp.Header.Fill(r.req)
		if r.reject {
			rsp.Header.SetFilterError()
		}
		if err := c.tx.Send(protocol.EncodeMessage(rsp)); err != nil {
			c.log.Error(err, "Reply failed", "request", r.req.String())
		}
	}
}

// respond answers m unless it asked for no response.
func respond(m *protocol.Message, payload []byte) []reply {
	if m.Header.NoResponse() {
		return nil
	}
	return []reply{{req: m.Header.Request(), ctx: m.Context, payload: payload}}
}

func (c *Controller) malformed(m *protocol.Message) []reply {
	c.log.Info("Malformed payload", "request", m.Header.Request().String(), "size", len(m.Payload))
	if m.Header.NoResponse() {
		return nil
	}
	return []reply{{req: m.Header.Request(), ctx: m.Context, reject: true}}
}

func firstByte(m *protocol.Message) (byte, bool) {
	if len(m.Payload) < 1 {
		return 0, false
	}
	return m.Payload[0], true
}
