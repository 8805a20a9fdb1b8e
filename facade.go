// Package nrfs is the application-core side of the nrfs protocol used to talk
// to the System Controller core. A System bundles the twelve services and the
// dispatcher that routes replies to them.
package nrfs

import (
	"github.com/ystepanoff/nrfs/protocol"
	"github.com/ystepanoff/nrfs/transport"
)

// The constructors that pick a link are split by build tag:
// - constructors_host.go - in-memory loopback (//go:build !tinygo && !baremetal)
// - constructors_nrf.go - radio link on nRF hardware (//go:build tinygo || baremetal)

type (
	Context     = protocol.Context
	ServiceID   = protocol.ServiceID
	RequestType = protocol.RequestType
	DropReason  = protocol.DropReason
	Backend     = transport.Backend
	BackendFunc = transport.BackendFunc
)

var (
	ErrInvalidState     = protocol.ErrInvalidState
	ErrIPC              = protocol.ErrIPC
	ErrShortMessage     = protocol.ErrShortMessage
	ErrNoResponseUnsafe = protocol.ErrNoResponseUnsafe
)

const (
	ServiceClock    = protocol.ServiceClock
	ServiceDiag     = protocol.ServiceDiag
	ServiceDVFS     = protocol.ServiceDVFS
	ServiceGDPWR    = protocol.ServiceGDPWR
	ServiceMRAM     = protocol.ServiceMRAM
	ServicePMIC     = protocol.ServicePMIC
	ServiceReset    = protocol.ServiceReset
	ServiceTemp     = protocol.ServiceTemp
	ServiceUSB      = protocol.ServiceUSB
	ServiceGDFS     = protocol.ServiceGDFS
	ServiceSWEXT    = protocol.ServiceSWEXT
	ServiceAudioPLL = protocol.ServiceAudioPLL
)
