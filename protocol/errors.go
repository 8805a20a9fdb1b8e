package protocol

import "errors"

var (
	// ErrInvalidState is returned when a service is used before Init or initialised twice.
	ErrInvalidState = errors.New("nrfs: invalid state")
	// ErrIPC is returned when the transport backend refuses a message.
	ErrIPC = errors.New("nrfs: ipc error")
	// ErrShortMessage is returned when a buffer is shorter than the layout it claims.
	ErrShortMessage = errors.New("nrfs: message too short")
	// ErrNoResponseUnsafe is returned when a no-response oppoint request is refused by policy.
	ErrNoResponseUnsafe = errors.New("nrfs: no-response request refused by policy")
)
