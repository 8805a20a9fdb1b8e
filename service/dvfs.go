package service

import "github.com/ystepanoff/nrfs/protocol"

type DVFSEventType uint8

const (
	DVFSEventReject DVFSEventType = iota
	DVFSEventInitPreparation
	DVFSEventInitDone
	DVFSEventOppointReqConfirmed
	DVFSEventOppointScalingPrepare
	DVFSEventOppointScalingDone
)

// DVFSFrequency is a DVFS frequency setting. Lower settings run at a lower voltage.
type DVFSFrequency uint8

const (
	DVFSFreqHigh DVFSFrequency = iota
	DVFSFreqMedLow
	DVFSFreqLow

	DVFSFreqCount = int(iota)
)

func (f DVFSFrequency) String() string {
	switch f {
	case DVFSFreqHigh:
		return "high"
	case DVFSFreqMedLow:
		return "medlow"
	case DVFSFreqLow:
		return "low"
	}
	return "unknown"
}

// DVFSResponse is the payload of every DVFS reply.
// Layout: ScalingPrepare(1) | Freq(1)
type DVFSResponse struct {
	ScalingPrepare bool
	Freq           DVFSFrequency
}

const dvfsResponseSize = 2

func (r DVFSResponse) Encode() []byte {
	return []byte{boolByte(r.ScalingPrepare), byte(r.Freq)}
}

func DecodeDVFSResponse(b []byte) (DVFSResponse, error) {
	if err := needBytes(b, dvfsResponseSize); err != nil {
		return DVFSResponse{}, err
	}
	return DVFSResponse{ScalingPrepare: b[0] != 0, Freq: DVFSFrequency(b[1])}, nil
}

type DVFSEvent struct {
	Type DVFSEventType
	Freq DVFSFrequency
}

type DVFSEventHandler func(evt DVFSEvent, ctx protocol.Context)

// NoResponsePolicy decides what OppointRequestNoRsp does. Without a reply the
// application core cannot learn that the System Controller wants it to prepare
// for a voltage change.
type NoResponsePolicy uint8

const (
	// NoResponseAllow sends the request with the no-response flag set.
	NoResponseAllow NoResponsePolicy = iota
	// NoResponseDeny refuses the request with protocol.ErrNoResponseUnsafe.
	NoResponseDeny
)

// DVFSPhase is the last known step of the DVFS negotiation. It is tracked for
// diagnostics only; requests are never refused because of it.
type DVFSPhase uint8

const (
	DVFSPhaseUninitialized DVFSPhase = iota
	DVFSPhaseIdle
	DVFSPhaseAwaitInitPreparation
	DVFSPhasePreparing
	DVFSPhaseAwaitInitDone
	DVFSPhaseReady
	DVFSPhaseAwaitOppoint
	DVFSPhaseScalingPrepare
	DVFSPhaseAwaitScalingDone
)

var dvfsPhaseNames = map[DVFSPhase]string{
	DVFSPhaseUninitialized:        "uninitialized",
	DVFSPhaseIdle:                 "idle",
	DVFSPhaseAwaitInitPreparation: "await-init-preparation",
	DVFSPhasePreparing:            "preparing",
	DVFSPhaseAwaitInitDone:        "await-init-done",
	DVFSPhaseReady:                "ready",
	DVFSPhaseAwaitOppoint:         "await-oppoint",
	DVFSPhaseScalingPrepare:       "scaling-prepare",
	DVFSPhaseAwaitScalingDone:     "await-scaling-done",
}

func (p DVFSPhase) String() string { return dvfsPhaseNames[p] }

// DVFS negotiates voltage and frequency changes with the System Controller.
//
// Init sequence: InitPrepareRequest, wait for InitPreparation, do the local
// preparation, InitCompleteRequest, wait for InitDone.
//
// Oppoint change: OppointRequest. The reply is either OppointReqConfirmed, or
// OppointScalingPrepare, in which case the caller prepares for the new voltage,
// calls ReadyToScale and waits for OppointScalingDone.
type DVFS struct {
	cb     controlBlock[DVFSEventHandler]
	policy NoResponsePolicy

	// guarded by cb.mu
	phase    DVFSPhase
	initDone bool
}

// WithNoResponsePolicy sets how DVFS handles OppointRequestNoRsp. Other services ignore it.
func WithNoResponsePolicy(p NoResponsePolicy) Option {
	return func(o *options) { o.noResponsePolicy = p }
}

func NewDVFS(s Sender, opts ...Option) *DVFS {
	d := &DVFS{}
	o := d.cb.setup(protocol.ServiceDVFS, s, opts)
	d.policy = o.noResponsePolicy
	return d
}

func (d *DVFS) Init(h DVFSEventHandler) error {
	if err := d.cb.start(h, h != nil); err != nil {
		return err
	}
	d.setPhase(DVFSPhaseIdle)
	return nil
}

func (d *DVFS) Uninit() {
	d.cb.stop()
	d.cb.mu.Lock()
	d.phase = DVFSPhaseUninitialized
	d.initDone = false
	d.cb.mu.Unlock()
}

// Phase returns the last known negotiation step.
func (d *DVFS) Phase() DVFSPhase {
	d.cb.mu.Lock()
	defer d.cb.mu.Unlock()
	return d.phase
}

func (d *DVFS) setPhase(p DVFSPhase) {
	d.cb.mu.Lock()
	d.phase = p
	d.cb.mu.Unlock()
}

// request moves to next before sending, since the reply may be delivered
// before Send returns. The previous phase is restored if sending fails.
func (d *DVFS) request(req protocol.RequestType, ctx protocol.Context, noRsp bool, payload []byte, next DVFSPhase) error {
	d.cb.mu.Lock()
	prev := d.phase
	d.phase = next
	d.cb.mu.Unlock()

	if err := d.cb.send(req, ctx, noRsp, payload); err != nil {
		d.setPhase(prev)
		return err
	}
	return nil
}

func (d *DVFS) InitPrepareRequest(ctx protocol.Context) error {
	return d.request(protocol.DVFSInitPrepare, ctx, false, nil, DVFSPhaseAwaitInitPreparation)
}

func (d *DVFS) InitCompleteRequest(ctx protocol.Context) error {
	return d.request(protocol.DVFSInitComplete, ctx, false, nil, DVFSPhaseAwaitInitDone)
}

func (d *DVFS) OppointRequest(target DVFSFrequency, ctx protocol.Context) error {
	return d.request(protocol.DVFSOppoint, ctx, false, []byte{byte(target)}, DVFSPhaseAwaitOppoint)
}

// OppointRequestNoRsp requests an oppoint without asking for a reply. See NoResponsePolicy.
func (d *DVFS) OppointRequestNoRsp(target DVFSFrequency, ctx protocol.Context) error {
	if !d.cb.isInitialized() {
		return protocol.ErrInvalidState
	}
	if d.policy == NoResponseDeny {
		return protocol.ErrNoResponseUnsafe
	}
	d.cb.log.V(1).Info("Oppoint requested without response", "target", target.String())
	return d.request(protocol.DVFSOppoint, ctx, true, []byte{byte(target)}, d.Phase())
}

// ReadyToScale tells the System Controller the local side is prepared for the new voltage.
func (d *DVFS) ReadyToScale(ctx protocol.Context) error {
	return d.request(protocol.DVFSReadyToScale, ctx, false, nil, DVFSPhaseAwaitScalingDone)
}

func (d *DVFS) Notify(msg []byte) {
	h, m, ok := d.cb.receive(msg)
	if !ok {
		return
	}
	if m.Header.FilterError() {
		d.cb.mu.Lock()
		if d.initDone {
			d.phase = DVFSPhaseReady
		} else {
			d.phase = DVFSPhaseIdle
		}
		d.cb.mu.Unlock()
		h(DVFSEvent{Type: DVFSEventReject}, m.Context)
		return
	}

	req := m.Header.Request()
	switch req {
	case protocol.DVFSInitPrepare, protocol.DVFSInitComplete,
		protocol.DVFSOppoint, protocol.DVFSReadyToScale:
	default:
		d.cb.drop(req, protocol.DropUnknownRequest)
		return
	}

	rsp, err := DecodeDVFSResponse(m.Payload)
	if err != nil {
		d.cb.drop(req, protocol.DropShortMessage)
		return
	}

	evt := DVFSEvent{Freq: rsp.Freq}
	var next DVFSPhase
	switch req {
	case protocol.DVFSInitPrepare:
		evt.Type, next = DVFSEventInitPreparation, DVFSPhasePreparing
	case protocol.DVFSInitComplete:
		evt.Type, next = DVFSEventInitDone, DVFSPhaseReady
	case protocol.DVFSOppoint:
		if rsp.ScalingPrepare {
			evt.Type, next = DVFSEventOppointScalingPrepare, DVFSPhaseScalingPrepare
		} else {
			evt.Type, next = DVFSEventOppointReqConfirmed, DVFSPhaseReady
		}
	case protocol.DVFSReadyToScale:
		evt.Type, next = DVFSEventOppointScalingDone, DVFSPhaseReady
	}

	d.cb.mu.Lock()
	d.phase = next
	if evt.Type == DVFSEventInitDone {
		d.initDone = true
	}
	d.cb.mu.Unlock()

	h(evt, m.Context)
}
