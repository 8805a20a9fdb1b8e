//go:build !tinygo && !baremetal

// Package stub provides an in-memory Link for host-side runs and tests.
package stub

import (
	"sync"
	"time"

	"github.com/ystepanoff/nrfs/transport"
)

// Driver is an in-memory Link. Transmitted messages are logged and, when the
// driver is one end of a pair, queued on the peer's receive buffer.
type Driver struct {
	mu    sync.Mutex
	rxBuf ringBuffer
	txBuf ringBuffer
	peer  *Driver
}

func New() *Driver { return &Driver{} }

// NewPair returns two drivers wired back to back.
func NewPair() (*Driver, *Driver) {
	a, b := &Driver{}, &Driver{}
	a.peer, b.peer = b, a
	return a, b
}

var _ transport.Link = (*Driver)(nil)

func (d *Driver) Tx(data []byte) error {
	msg := make([]byte, len(data))
	copy(msg, data)

	d.mu.Lock()
	d.txBuf.push(msg)
	peer := d.peer
	d.mu.Unlock()

	if peer != nil {
		peer.InjectRx(msg)
	}
	return nil
}

func (d *Driver) Rx(timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	for {
		d.mu.Lock()
		msg, ok := d.rxBuf.pop()
		d.mu.Unlock()
		if ok {
			out := make([]byte, len(msg))
			copy(out, msg)
			return out, nil
		}

		if time.Now().After(deadline) {
			return nil, transport.ErrTimeout
		}
		time.Sleep(1 * time.Millisecond)
	}
}

func (d *Driver) InjectRx(data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	msg := make([]byte, len(data))
	copy(msg, data)
	d.rxBuf.push(msg)
}

func (d *Driver) GetTxLog() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.txBuf.snapshot()
}

func (d *Driver) ClearTxLog() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.txBuf = ringBuffer{}
}

const ringCapacity = 64

type ringBuffer struct {
	data       [ringCapacity][]byte
	head, tail int // head = next pop, tail = next push
	count      int
}

func (rb *ringBuffer) push(msg []byte) {
	if rb.count == ringCapacity {
		// drop the oldest message when full
		rb.data[rb.tail] = nil
		rb.head = (rb.head + 1) % ringCapacity
		rb.count--
	}
	rb.data[rb.tail] = msg
	rb.tail = (rb.tail + 1) % ringCapacity
	rb.count++
}

func (rb *ringBuffer) pop() ([]byte, bool) {
	if rb.count == 0 {
		return nil, false
	}
	msg := rb.data[rb.head]
	rb.data[rb.head] = nil
	rb.head = (rb.head + 1) % ringCapacity
	rb.count--
	return msg, true
}

func (rb *ringBuffer) snapshot() [][]byte {
	out := make([][]byte, rb.count)
	idx := 0
	i := rb.head
	for c := 0; c < rb.count; c++ {
		p := rb.data[i]
		cp := make([]byte, len(p))
		copy(cp, p)
		out[idx] = cp
		idx++
		i = (i + 1) % ringCapacity
	}
	return out
}
