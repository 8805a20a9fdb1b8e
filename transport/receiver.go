package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// DeliverFunc consumes one complete incoming message.
type DeliverFunc func(msg []byte)

// Receiver pulls messages from a Link and delivers them one at a time.
type Receiver struct {
	link    Link
	deliver DeliverFunc
	log     logr.Logger

	mu          sync.Mutex
	isListening bool
	cancel      context.CancelFunc
	done        chan struct{}
}

// PollInterval bounds how long a single Rx call blocks inside Listen.
const PollInterval = 100 * time.Millisecond

func NewReceiverWithLink(l Link, deliver DeliverFunc, log logr.Logger) *Receiver {
	return &Receiver{link: l, deliver: deliver, log: log}
}

// ProcessMessage delivers one message synchronously.
func (r *Receiver) ProcessMessage(msg []byte) {
	if len(msg) == 0 {
		return
	}
	r.deliver(msg)
}

// ReceiveMessage waits up to timeout for the next message.
func (r *Receiver) ReceiveMessage(timeout time.Duration) ([]byte, error) {
	return r.link.Rx(timeout)
}

// Listen starts delivering messages on a new goroutine until ctx is done or
// StopListening is called. Calling Listen twice has no effect.
func (r *Receiver) Listen(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isListening {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	r.isListening = true

	go func(done chan struct{}) {
		defer close(done)
		for ctx.Err() == nil {
			msg, err := r.link.Rx(PollInterval)
			if err != nil {
				if !errors.Is(err, ErrTimeout) {
					r.log.Error(err, "Receive failed")
					// avoid spinning on a broken link
					select {
					case <-ctx.Done():
					case <-time.After(PollInterval):
					}
				}
				continue
			}
			r.ProcessMessage(msg)
		}
	}(r.done)
}

// StopListening stops the listen loop and waits for it to exit.
func (r *Receiver) StopListening() {
	r.mu.Lock()
	if !r.isListening {
		r.mu.Unlock()
		return
	}
	r.isListening = false
	r.cancel()
	done := r.done
	r.mu.Unlock()
	<-done
}
