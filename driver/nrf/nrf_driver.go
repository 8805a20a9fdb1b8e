//go:build tinygo || baremetal

// Package nrf carries nrfs messages over the nRF 2.4 GHz radio. It lets a
// development kit running the System Controller model answer a second kit
// over the air when the cores are on different chips.
package nrf

import (
	"errors"
	"sync"
	"time"
	"unsafe"

	"github.com/ystepanoff/nrfs/transport"

	"device/nrf"
)

// MaxMessageSize is the largest nrfs message one radio frame can hold.
const MaxMessageSize = 254

var (
	ErrInvalidChannel = errors.New("nrf: channel out of range")
	ErrTooLarge       = errors.New("nrf: message exceeds one radio frame")
)

// Driver is a Link backed by the RADIO peripheral registers. Each frame is a
// length byte followed by one complete message. The radio is half duplex, so
// Tx waits for a pending Rx window to close.
type Driver struct {
	mu     sync.Mutex
	buffer [MaxMessageSize + 1]byte
}

var _ transport.Link = (*Driver)(nil)

func New() *Driver { return &Driver{} }

// Configure starts the HF clock and programs the radio for address, prefix and channel.
func (d *Driver) Configure(address uint32, prefix byte, channel uint8) error {
	StartHFCLK()
	return ConfigureRadio(address, prefix, channel)
}

func (d *Driver) SetChannel(channel uint8) error {
	if channel > 125 {
		return ErrInvalidChannel
	}
	nrf.RADIO.FREQUENCY.Set(uint32(channel))
	return nil
}

func (d *Driver) Tx(data []byte) error {
	if len(data) > MaxMessageSize {
		return ErrTooLarge
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buffer[0] = byte(len(data))
	copy(d.buffer[1:], data)

	nrf.RADIO.PACKETPTR.Set(uint32(uintptr(unsafe.Pointer(&d.buffer[0]))))
	nrf.RADIO.EVENTS_READY.Set(0)
	nrf.RADIO.EVENTS_END.Set(0)
	nrf.RADIO.TASKS_TXEN.Set(1)
	for nrf.RADIO.EVENTS_READY.Get() == 0 {
	}
	nrf.RADIO.TASKS_START.Set(1)
	for nrf.RADIO.EVENTS_END.Get() == 0 {
	}
	disable()
	return nil
}

func (d *Driver) Rx(timeout time.Duration) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	nrf.RADIO.PACKETPTR.Set(uint32(uintptr(unsafe.Pointer(&d.buffer[0]))))
	nrf.RADIO.EVENTS_READY.Set(0)
	nrf.RADIO.EVENTS_END.Set(0)
	nrf.RADIO.TASKS_RXEN.Set(1)
	for nrf.RADIO.EVENTS_READY.Get() == 0 {
	}
	nrf.RADIO.TASKS_START.Set(1)
	start := time.Now()
	for nrf.RADIO.EVENTS_END.Get() == 0 {
		if time.Since(start) > timeout {
			disable()
			return nil, transport.ErrTimeout
		}
	}
	disable()

	// frames with a bad CRC are treated like silence
	if nrf.RADIO.CRCSTATUS.Get() == 0 {
		return nil, transport.ErrTimeout
	}
	n := int(d.buffer[0])
	if n > MaxMessageSize {
		n = MaxMessageSize
	}
	out := make([]byte, n)
	copy(out, d.buffer[1:1+n])
	return out, nil
}

func disable() {
	nrf.RADIO.TASKS_DISABLE.Set(1)
	for nrf.RADIO.STATE.Get() != nrf.RADIO_STATE_STATE_Disabled {
	}
}
