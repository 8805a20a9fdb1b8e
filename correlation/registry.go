// Package correlation maps caller data to the 32-bit context tokens carried on
// the wire. Only the token crosses to the System Controller; the data stays in
// a local table until the reply is handled.
package correlation

import (
	"sync"

	"github.com/ystepanoff/nrfs/protocol"
)

// Registry is a side table of in-flight request data keyed by context token.
// Entries live until taken or released; there is no expiry.
type Registry struct {
	mu      sync.Mutex
	next    uint32
	entries map[protocol.Context]any
}

func New() *Registry {
	return &Registry{
		next:    uint32(protocol.RandomContext()),
		entries: make(map[protocol.Context]any),
	}
}

// Put stores v and returns a fresh non-zero token for it.
func (r *Registry) Put(v any) protocol.Context {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		r.next++
		tok := protocol.Context(r.next)
		if tok == 0 {
			continue
		}
		if _, used := r.entries[tok]; used {
			continue
		}
		r.entries[tok] = v
		return tok
	}
}

func (r *Registry) Get(tok protocol.Context) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.entries[tok]
	return v, ok
}

// Take returns the data for tok and removes it.
func (r *Registry) Take(tok protocol.Context) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.entries[tok]
	if ok {
		delete(r.entries, tok)
	}
	return v, ok
}

func (r *Registry) Release(tok protocol.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, tok)
}

// Len returns the number of tokens in flight.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
