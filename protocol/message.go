package protocol

import "encoding/binary"

// Context is the opaque token echoed back in the reply to a request.
type Context uint32

// Message is the generic message: every request and notification starts with it.
type Message struct {
	Header  Header
	Context Context
	Payload []byte
}

// EncodeMessage serialises a message into its wire form.
func EncodeMessage(m *Message) []byte {
	if m == nil {
		return make([]byte, 0)
	}
	data := make([]byte, GenericSize+len(m.Payload))
	binary.LittleEndian.PutUint16(data[HeaderOffset:], uint16(m.Header))
	binary.LittleEndian.PutUint32(data[ContextOffset:], uint32(m.Context))
	copy(data[PayloadOffset:], m.Payload)
	return data
}

// DecodeMessage parses the generic part of a message. The payload aliases data.
func DecodeMessage(data []byte) (*Message, error) {
	if len(data) < GenericSize {
		return nil, ErrShortMessage
	}
	return &Message{
		Header:  Header(binary.LittleEndian.Uint16(data[HeaderOffset:])),
		Context: Context(binary.LittleEndian.Uint32(data[ContextOffset:])),
		Payload: data[PayloadOffset:],
	}, nil
}

// NewRequest builds the wire form of a request.
func NewRequest(req RequestType, ctx Context, noResponse bool, payload []byte) []byte {
	m := &Message{Context: ctx, Payload: payload}
	m.Header.Fill(req)
	if noResponse {
		m.Header.SetNoResponse()
	}
	return EncodeMessage(m)
}
