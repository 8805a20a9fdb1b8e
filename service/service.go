// Package service implements the application-core side of the System
// Controller services. Every service follows the same life cycle: Init with an
// event handler, issue requests, receive replies through Notify, Uninit.
//
// Requests never wait for their reply. The reply arrives later through the
// dispatcher and is reported to the handler together with the context token
// that was passed to the request.
package service

import (
	"encoding/binary"
	"sync"

	"github.com/go-logr/logr"

	"github.com/ystepanoff/nrfs/metrics"
	"github.com/ystepanoff/nrfs/protocol"
)

// Sender delivers an encoded request to the System Controller.
type Sender interface {
	Send(msg []byte) error
}

type options struct {
	log              logr.Logger
	observer         protocol.DropObserver
	metrics          *metrics.Metrics
	noResponsePolicy NoResponsePolicy
}

// Option configures a service.
type Option func(*options)

func WithLogger(log logr.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithDropObserver reports replies the service discards. Drops are silent by default.
func WithDropObserver(obs protocol.DropObserver) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithMetrics counts the replies that reach the service handler.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// controlBlock holds the state shared by every service. The lock is never held
// while the handler runs, so handlers may issue requests.
type controlBlock[H any] struct {
	id       protocol.ServiceID
	sender   Sender
	log      logr.Logger
	observer protocol.DropObserver
	metrics  *metrics.Metrics

	mu          sync.Mutex
	handler     H
	hasHandler  bool
	initialized bool
}

func (cb *controlBlock[H]) setup(id protocol.ServiceID, s Sender, opts []Option) options {
	o := options{log: logr.Discard(), observer: protocol.NopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	cb.id = id
	cb.sender = s
	cb.log = o.log.WithValues("service", id.String())
	cb.observer = o.observer
	cb.metrics = o.metrics
	return o
}

// start registers the handler. A second call fails and keeps the first handler.
func (cb *controlBlock[H]) start(h H, present bool) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.initialized {
		return protocol.ErrInvalidState
	}
	cb.handler = h
	cb.hasHandler = present
	cb.initialized = true
	cb.log.V(1).Info("Service initialized")
	return nil
}

func (cb *controlBlock[H]) stop() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.initialized {
		cb.log.V(1).Info("Service uninitialized")
	}
	cb.initialized = false
}

func (cb *controlBlock[H]) isInitialized() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.initialized
}

// send encodes and hands over one request. The backend's result is returned as is.
func (cb *controlBlock[H]) send(req protocol.RequestType, ctx protocol.Context, noRsp bool, payload []byte) error {
	if !cb.isInitialized() {
		return protocol.ErrInvalidState
	}
	return cb.sender.Send(protocol.NewRequest(req, ctx, noRsp, payload))
}

// receive runs the checks common to every reply and returns the handler to call.
func (cb *controlBlock[H]) receive(msg []byte) (H, *protocol.Message, bool) {
	var zero H

	cb.mu.Lock()
	h, ok := cb.handler, cb.hasHandler && cb.initialized
	cb.mu.Unlock()

	if !ok {
		cb.dropRaw(msg, protocol.DropUninitialized)
		return zero, nil, false
	}

	m, err := protocol.DecodeMessage(msg)
	if err != nil {
		cb.dropRaw(msg, protocol.DropShortMessage)
		return zero, nil, false
	}
	cb.metrics.NotificationHandled(cb.id)
	if m.Header.FilterError() {
		cb.metrics.Rejected(cb.id)
	}
	return h, m, true
}

func (cb *controlBlock[H]) drop(req protocol.RequestType, reason protocol.DropReason) {
	cb.log.V(1).Info("Reply dropped", "request", req.String(), "reason", string(reason))
	cb.observer.MessageDropped(cb.id, req, reason)
}

func (cb *controlBlock[H]) dropRaw(msg []byte, reason protocol.DropReason) {
	hdr, _ := protocol.HeaderFrom(msg)
	cb.drop(hdr.Request(), reason)
}

// Helpers for packed little-endian payloads.

func needBytes(b []byte, n int) error {
	if len(b) < n {
		return protocol.ErrShortMessage
	}
	return nil
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

func putUint16(b []byte, off int, v uint16) { binary.LittleEndian.PutUint16(b[off:], v) }
func putUint32(b []byte, off int, v uint32) { binary.LittleEndian.PutUint32(b[off:], v) }
func getUint16(b []byte, off int) uint16    { return binary.LittleEndian.Uint16(b[off:]) }
func getUint32(b []byte, off int) uint32    { return binary.LittleEndian.Uint32(b[off:]) }
