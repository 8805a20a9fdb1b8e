package transport

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"

	proto "github.com/ystepanoff/nrfs/protocol"
)

// MockLink implements the Link interface for testing
type MockLink struct {
	mutex  sync.Mutex
	txLog  [][]byte
	rxData [][]byte
	txErr  error
}

func NewMockLink() *MockLink {
	return &MockLink{
		txLog:  make([][]byte, 0),
		rxData: make([][]byte, 0),
	}
}

func (l *MockLink) Tx(data []byte) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.txErr != nil {
		return l.txErr
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	l.txLog = append(l.txLog, dataCopy)
	return nil
}

func (l *MockLink) Rx(timeout time.Duration) ([]byte, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if len(l.rxData) == 0 {
		l.mutex.Unlock()
		time.Sleep(time.Millisecond)
		l.mutex.Lock()
		return nil, ErrTimeout
	}

	data := l.rxData[0]
	l.rxData = l.rxData[1:]
	return data, nil
}

func (l *MockLink) GetTxLog() [][]byte {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	result := make([][]byte, len(l.txLog))
	for i, data := range l.txLog {
		result[i] = append([]byte(nil), data...)
	}
	return result
}

func (l *MockLink) InjectRx(data []byte) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.rxData = append(l.rxData, append([]byte(nil), data...))
}

func TestTransmitter_Send(t *testing.T) {
	link := NewMockLink()
	tx := NewTransmitterWithLink(link, logr.Discard(), nil)

	tests := []struct {
		name    string
		req     proto.RequestType
		ctx     proto.Context
		noRsp   bool
		payload []byte
	}{
		{
			name: "header only",
			req:  proto.ResetRequest,
		},
		{
			name:    "with payload",
			req:     proto.ClockLFClkSrc,
			ctx:     0x1234,
			payload: []byte{6},
		},
		{
			name:    "no response",
			req:     proto.DVFSOppoint,
			ctx:     7,
			noRsp:   true,
			payload: []byte{2},
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := proto.NewRequest(tt.req, tt.ctx, tt.noRsp, tt.payload)
			if err := tx.Send(msg); err != nil {
				t.Fatalf("Send() error = %v", err)
			}

			txLog := link.GetTxLog()
			if len(txLog) != i+1 {
				t.Fatalf("transmitted %d messages, want %d", len(txLog), i+1)
			}
			if !bytes.Equal(txLog[i], msg) {
				t.Errorf("transmitted % x, want % x", txLog[i], msg)
			}
		})
	}
}

func TestTransmitter_SendCopiesBuffer(t *testing.T) {
	link := NewMockLink()
	tx := NewTransmitterWithLink(link, logr.Discard(), nil)

	msg := proto.NewRequest(proto.GDFSFreq, 1, false, []byte{0})
	if err := tx.Send(msg); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	msg[proto.PayloadOffset] = 3

	if got := link.GetTxLog()[0][proto.PayloadOffset]; got != 0 {
		t.Errorf("transmitted payload changed to %d after Send returned", got)
	}
}

func TestTransmitter_LinkFailure(t *testing.T) {
	linkErr := errors.New("mailbox full")
	link := NewMockLink()
	link.txErr = linkErr
	tx := NewTransmitterWithLink(link, logr.Discard(), nil)

	err := tx.Send(proto.NewRequest(proto.USBEnable, 1, false, nil))
	if !errors.Is(err, proto.ErrIPC) {
		t.Errorf("Send() error = %v, want ErrIPC", err)
	}
	if !errors.Is(err, linkErr) {
		t.Errorf("Send() error = %v, want it to wrap %v", err, linkErr)
	}

	if err := tx.Send([]byte{1}); !errors.Is(err, proto.ErrIPC) {
		t.Errorf("Send(short) error = %v, want ErrIPC", err)
	}
}

func TestReceiver_Listen(t *testing.T) {
	link := NewMockLink()
	delivered := make(chan []byte, 4)
	rx := NewReceiverWithLink(link, func(msg []byte) { delivered <- msg }, logr.Discard())

	rx.Listen(context.Background())
	rx.Listen(context.Background())
	defer rx.StopListening()

	want := [][]byte{
		proto.NewRequest(proto.ClockLFClkSrc, 1, false, []byte{0, 6}),
		proto.NewRequest(proto.DVFSOppoint, 2, false, []byte{1, 2}),
	}
	for _, m := range want {
		link.InjectRx(m)
	}

	for i, w := range want {
		select {
		case got := <-delivered:
			if !bytes.Equal(got, w) {
				t.Errorf("message %d = % x, want % x", i, got, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("message %d not delivered", i)
		}
	}
}

func TestReceiver_StopListening(t *testing.T) {
	link := NewMockLink()
	count := 0
	rx := NewReceiverWithLink(link, func([]byte) { count++ }, logr.Discard())

	rx.StopListening()
	rx.Listen(context.Background())
	rx.StopListening()

	link.InjectRx(proto.NewRequest(proto.ResetRequest, 0, false, nil))
	time.Sleep(2 * PollInterval)
	if count != 0 {
		t.Errorf("delivered %d messages after StopListening", count)
	}
}

func TestReceiver_ProcessMessage(t *testing.T) {
	var got [][]byte
	rx := NewReceiverWithLink(NewMockLink(), func(msg []byte) { got = append(got, msg) }, logr.Discard())

	rx.ProcessMessage(nil)
	rx.ProcessMessage([]byte{0x01, 0x06, 0, 0, 0, 0})
	if len(got) != 1 {
		t.Errorf("delivered %d messages, want 1", len(got))
	}
}
