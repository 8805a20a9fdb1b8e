package protocol

import (
	crand "crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"sync"
	"time"
)

var (
	fallbackMu  sync.Mutex
	fallbackRng *mrand.Rand
)

// RandomContext returns a random non-zero context token. It reads crypto/rand
// and only falls back to a time-seeded generator when that fails.
func RandomContext() Context {
	for {
		if v := randomUint32(); v != 0 {
			return Context(v)
		}
	}
}

func randomUint32() uint32 {
	var b [ContextSize]byte
	if _, err := crand.Read(b[:]); err == nil {
		return binary.LittleEndian.Uint32(b[:])
	}

	fallbackMu.Lock()
	defer fallbackMu.Unlock()
	if fallbackRng == nil {
		fallbackRng = mrand.New(mrand.NewSource(time.Now().UnixNano()))
	}
	return fallbackRng.Uint32()
}
