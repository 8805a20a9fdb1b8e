package protocol

import (
	"encoding/binary"
	"fmt"
)

// RequestType is the service ID and request ID pair carried in a header.
type RequestType uint16

// NewRequestType builds a request type from its two components.
func NewRequestType(service ServiceID, id uint8) RequestType {
	return RequestType(uint16(service)<<serviceIDShift&serviceIDMask | uint16(id)&requestIDMask)
}

// Service returns the service ID part of the request type.
func (r RequestType) Service() ServiceID {
	return ServiceID((uint16(r) & serviceIDMask) >> serviceIDShift)
}

// ID returns the per-service request number.
func (r RequestType) ID() uint8 { return uint8(uint16(r) & requestIDMask) }

func (r RequestType) String() string {
	if name, ok := RequestNames[r]; ok {
		return name
	}
	return fmt.Sprintf("%s/0x%02x", r.Service(), r.ID())
}

// Header is the 16-bit message header.
// Layout: RequestID [0..6] | NoResponse [7] | ServiceID [8..13] | FilterError [14] | Unsolicited [15]
type Header uint16

// Fill sets the request type and clears every flag.
func (h *Header) Fill(req RequestType) {
	*h = Header(uint16(req) & (requestIDMask | serviceIDMask))
}

func (h *Header) SetNoResponse()    { *h |= Header(noResponseMask) }
func (h Header) NoResponse() bool   { return uint16(h)&noResponseMask != 0 }
func (h *Header) SetFilterError()   { *h |= Header(filterErrorMask) }
func (h Header) FilterError() bool  { return uint16(h)&filterErrorMask != 0 }
func (h *Header) SetUnsolicited()   { *h |= Header(unsolicitedMask) }
func (h Header) Unsolicited() bool  { return uint16(h)&unsolicitedMask != 0 }
func (h Header) Service() ServiceID { return RequestType(h).Service() }

// Request returns the request type with all flags masked out.
func (h Header) Request() RequestType {
	return RequestType(uint16(h) & (requestIDMask | serviceIDMask))
}

// HeaderFrom reads the header of a raw message.
func HeaderFrom(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return 0, ErrShortMessage
	}
	return Header(binary.LittleEndian.Uint16(data[HeaderOffset:])), nil
}
