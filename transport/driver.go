package transport

import (
	"errors"
	"time"
)

// ErrTimeout is returned by Link.Rx when nothing arrived within the timeout.
var ErrTimeout = errors.New("transport: receive timed out")

// Link is the byte pipe between the application core and the System Controller.
type Link interface {
	Tx(data []byte) error
	Rx(timeout time.Duration) ([]byte, error)
}

// Backend hands a complete request to the remote core. The buffer must be
// transmitted or copied before Send returns.
type Backend interface {
	Send(msg []byte) error
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(msg []byte) error

func (f BackendFunc) Send(msg []byte) error { return f(msg) }
