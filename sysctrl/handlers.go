package sysctrl

import (
	"encoding/binary"

	"github.com/ystepanoff/nrfs/protocol"
	"github.com/ystepanoff/nrfs/service"
)

// All handle* methods run with c.mu held.

func (c *Controller) handleClock(m *protocol.Message) []reply {
	switch m.Header.Request() {
	case protocol.ClockSubscribe:
		mask, ok := firstByte(m)
		if !ok {
			return c.malformed(m)
		}
		c.clockSub = &clockSubscription{mask: service.ClockEventReason(mask), ctx: m.Context}
		return nil
	case protocol.ClockUnsubscribe:
		c.clockSub = nil
		return nil
	case protocol.ClockLFClkSrc:
		b, ok := firstByte(m)
		if !ok {
			return c.malformed(m)
		}
		src := service.ClockSource(b)
		reason := service.ClockReasonAccuracyChanged
		if src == c.lfclk {
			reason = service.ClockReasonNoChange
		}
		c.lfclk = src
		rsp := service.ClockResponse{Reason: reason, Source: src}.Encode()
		out := respond(m, rsp)
		if sub := c.clockSub; sub != nil && sub.mask&reason != 0 {
			out = append(out, reply{req: protocol.ClockSubscribe, ctx: sub.ctx, payload: rsp})
		}
		return out
	case protocol.ClockHSFLLMode:
		b, ok := firstByte(m)
		if !ok {
			return c.malformed(m)
		}
		c.hsfll = service.HSFLLMode(b)
		return respond(m, service.ClockResponse{Reason: service.ClockReasonNoChange, Source: c.lfclk}.Encode())
	}
	return c.malformed(m)
}

func (c *Controller) handleDiag(m *protocol.Message) []reply {
	if m.Header.Request() != protocol.DiagReg {
		return c.malformed(m)
	}
	reg, err := service.DecodeDiagReg(m.Payload)
	if err != nil {
		return c.malformed(m)
	}
	switch reg.Access {
	case service.RegRead:
		reg.Val = c.diagRegs[reg.Addr]
	case service.RegWrite:
		c.diagRegs[reg.Addr] = reg.Val
	default:
		return c.malformed(m)
	}
	return respond(m, reg.Encode())
}

func (c *Controller) handleDVFS(m *protocol.Message) []reply {
	switch m.Header.Request() {
	case protocol.DVFSInitPrepare, protocol.DVFSInitComplete:
		return respond(m, service.DVFSResponse{Freq: c.oppoint}.Encode())
	case protocol.DVFSOppoint:
		b, ok := firstByte(m)
		if !ok || int(b) >= service.DVFSFreqCount {
			return c.malformed(m)
		}
		target := service.DVFSFrequency(b)
		if !service.NeedsScaling(c.oppoint, target) {
			c.oppoint = target
			c.pendingOppoint = nil
			return respond(m, service.DVFSResponse{Freq: target}.Encode())
		}
		if m.Header.NoResponse() && !c.scalingOnNoResponse {
			c.log.V(1).Info("Applying oppoint without handshake", "from", c.oppoint.String(), "to", target.String())
			c.oppoint = target
			c.pendingOppoint = nil
			return nil
		}
		c.pendingOppoint = &target
		return []reply{{
			req:     protocol.DVFSOppoint,
			ctx:     m.Context,
			payload: service.DVFSResponse{ScalingPrepare: true, Freq: target}.Encode(),
		}}
	case protocol.DVFSReadyToScale:
		if c.pendingOppoint == nil {
			return c.malformed(m)
		}
		c.oppoint = *c.pendingOppoint
		c.pendingOppoint = nil
		return respond(m, service.DVFSResponse{Freq: c.oppoint}.Encode())
	}
	return c.malformed(m)
}

func (c *Controller) handleGDPWR(m *protocol.Message) []reply {
	if m.Header.Request() != protocol.GDPWRSetPowerRequest {
		return c.malformed(m)
	}
	req, err := service.DecodeGDPWRRequest(m.Payload)
	if err != nil {
		return c.malformed(m)
	}
	c.powerDomains[req.Domain] = req.Type == service.PowerRequestSet
	return respond(m, nil)
}

func (c *Controller) handleMRAM(m *protocol.Message) []reply {
	b, ok := firstByte(m)
	if m.Header.Request() != protocol.MRAMSetLatency || !ok {
		return c.malformed(m)
	}
	c.mramLatency = service.MRAMLatency(b)
	if c.mramLatency != service.MRAMLatencyNotAllowed {
		return nil
	}
	return respond(m, nil)
}

func (c *Controller) handlePMIC(m *protocol.Message) []reply {
	switch m.Header.Request() {
	case protocol.PMICRFFEOn, protocol.PMICRFFEOff,
		protocol.PMICBLERadioOff,
		protocol.PMICPWMDefault, protocol.PMICPWMGhostAvoid:
		return respond(m, nil)
	case protocol.PMICSIMOn, protocol.PMICSIMOff:
		if _, ok := firstByte(m); !ok {
			return c.malformed(m)
		}
		return respond(m, nil)
	case protocol.PMICBLERadioOn:
		b, ok := firstByte(m)
		if !ok || b > byte(service.BLETxPowerNeg70dBm) {
			return c.malformed(m)
		}
		return respond(m, nil)
	case protocol.PMICTestIF:
		req, err := service.DecodePMICTestIFRequest(m.Payload)
		if err != nil {
			return c.malformed(m)
		}
		rsp := service.PMICTestIFResponse{Access: req.Access}
		switch req.Access {
		case service.RegRead:
			rsp.Val = c.pmicRegs[req.Addr]
		case service.RegWrite:
			c.pmicRegs[req.Addr] = req.Val
			rsp.Val = req.Val
		default:
			return c.malformed(m)
		}
		return respond(m, rsp.Encode())
	case protocol.PMICInfo:
		return respond(m, []byte{byte(service.PMICAvailable)})
	}
	return c.malformed(m)
}

func (c *Controller) handleReset(m *protocol.Message) []reply {
	if m.Header.Request() != protocol.ResetRequest {
		return c.malformed(m)
	}
	c.resets++
	return respond(m, nil)
}

func (c *Controller) handleTemp(m *protocol.Message) []reply {
	switch m.Header.Request() {
	case protocol.TempMeasure:
		return respond(m, service.EncodeTempResponse(c.tempRaw))
	case protocol.TempSubscribe:
		sub, err := service.DecodeTempSubscription(m.Payload)
		if err != nil {
			return c.malformed(m)
		}
		c.tempSub = &tempSubscription{TempSubscription: sub, ctx: m.Context}
		return nil
	case protocol.TempUnsubscribe:
		c.tempSub = nil
		return nil
	}
	return c.malformed(m)
}

func (c *Controller) handleUSB(m *protocol.Message) []reply {
	switch m.Header.Request() {
	case protocol.USBEnable:
		c.usbEnabled = true
		c.usb.PLLOk = true
		c.usb.VRegOk = true
		return respond(m, c.usb.Encode())
	case protocol.USBDisable:
		c.usbEnabled = false
		c.usb.PLLOk = false
		c.usb.VRegOk = false
		return nil
	case protocol.USBDPlusPullupEnable, protocol.USBDPlusPullupDisable:
		return nil
	}
	return c.malformed(m)
}

func (c *Controller) handleGDFS(m *protocol.Message) []reply {
	b, ok := firstByte(m)
	if m.Header.Request() != protocol.GDFSFreq || !ok || service.GDFSFrequency(b) > service.GDFSFreqLow {
		return c.malformed(m)
	}
	c.gdfs = service.GDFSFrequency(b)
	return respond(m, nil)
}

func (c *Controller) handleSWEXT(m *protocol.Message) []reply {
	if _, ok := firstByte(m); !ok {
		return c.malformed(m)
	}
	switch m.Header.Request() {
	case protocol.SWEXTPowerUp:
		status := service.SWEXTOutputEnabled
		if c.swextLimit > 0 && m.Payload[0] > c.swextLimit {
			status = service.SWEXTOvercurrent
		}
		return respond(m, []byte{byte(status)})
	case protocol.SWEXTPowerDown:
		return nil
	}
	return c.malformed(m)
}

func (c *Controller) handleAudioPLL(m *protocol.Message) []reply {
	switch m.Header.Request() {
	case protocol.AudioPLLEnable:
		c.audioPLL = true
	case protocol.AudioPLLDisable:
		c.audioPLL = false
	case protocol.AudioPLLFreq:
		if len(m.Payload) < 2 {
			return c.malformed(m)
		}
		c.audioFreq = binary.LittleEndian.Uint16(m.Payload)
	case protocol.AudioPLLPrescaler:
		b, ok := firstByte(m)
		if !ok {
			return c.malformed(m)
		}
		c.audioDiv = service.AudioPLLPrescaler(b)
	case protocol.AudioPLLFreqInc:
		if _, err := service.DecodeAudioPLLFreqInc(m.Payload); err != nil {
			return c.malformed(m)
		}
	default:
		return c.malformed(m)
	}
	return respond(m, nil)
}

// SetTemperature updates the measured temperature. A subscriber is notified
// when the new value lies outside its thresholds.
func (c *Controller) SetTemperature(raw int32) {
	c.mu.Lock()
	c.tempRaw = raw
	var out []reply
	if sub := c.tempSub; sub != nil && (raw < sub.LowerThreshold || raw > sub.UpperThreshold) {
		out = append(out, reply{req: protocol.TempSubscribe, ctx: sub.ctx, payload: service.EncodeTempResponse(raw)})
	}
	c.mu.Unlock()

	c.flush(out)
}

// SetVBUS changes the VBUS detection state and notifies the host while USB is enabled.
func (c *Controller) SetVBUS(detected bool) {
	c.mu.Lock()
	c.usb.VBUSDetected = detected
	var out []reply
	if c.usbEnabled {
		out = append(out, reply{req: protocol.USBEnable, payload: c.usb.Encode()})
	}
	c.mu.Unlock()

	c.flush(out)
}

// State is a snapshot of the simulated System Controller.
type State struct {
	Oppoint         service.DVFSFrequency `json:"oppoint" yaml:"oppoint"`
	ScalingPending  bool                  `json:"scalingPending" yaml:"scalingPending"`
	LFClkSource     service.ClockSource   `json:"lfclkSource" yaml:"lfclkSource"`
	HSFLLMode       service.HSFLLMode     `json:"hsfllMode" yaml:"hsfllMode"`
	ClockSubscribed bool                  `json:"clockSubscribed" yaml:"clockSubscribed"`
	TempRaw         int32                 `json:"tempRaw" yaml:"tempRaw"`
	TempSubscribed  bool                  `json:"tempSubscribed" yaml:"tempSubscribed"`
	USBEnabled      bool                  `json:"usbEnabled" yaml:"usbEnabled"`
	GDFS            service.GDFSFrequency `json:"gdfs" yaml:"gdfs"`
	MRAMLatency     service.MRAMLatency   `json:"mramLatency" yaml:"mramLatency"`
	AudioPLL        bool                  `json:"audioPLL" yaml:"audioPLL"`
	Resets          int                   `json:"resets" yaml:"resets"`
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Oppoint:         c.oppoint,
		ScalingPending:  c.pendingOppoint != nil,
		LFClkSource:     c.lfclk,
		HSFLLMode:       c.hsfll,
		ClockSubscribed: c.clockSub != nil,
		TempRaw:         c.tempRaw,
		TempSubscribed:  c.tempSub != nil,
		USBEnabled:      c.usbEnabled,
		GDFS:            c.gdfs,
		MRAMLatency:     c.mramLatency,
		AudioPLL:        c.audioPLL,
		Resets:          c.resets,
	}
}

// PowerDomainRequested reports whether the domain has an active power request.
func (c *Controller) PowerDomainRequested(d service.PowerDomain) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.powerDomains[d]
}
