package service

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ystepanoff/nrfs/protocol"
)

func TestClockLFClkSrcApplied(t *testing.T) {
	s := &fakeSender{}
	clock := NewClock(s)

	var events []ClockEvent
	var ctxs []protocol.Context
	if err := clock.Init(func(evt ClockEvent, ctx protocol.Context) {
		events = append(events, evt)
		ctxs = append(ctxs, ctx)
	}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if err := clock.LFClkSrcSet(ClockSourceXOPierce, 0x1234); err != nil {
		t.Fatalf("LFClkSrcSet() error = %v", err)
	}
	sent := s.last(t)
	if sent.Header.Request() != protocol.ClockLFClkSrc || sent.Header.NoResponse() {
		t.Errorf("header = 0x%04x", uint16(sent.Header))
	}
	if sent.Context != 0x1234 || !bytes.Equal(sent.Payload, []byte{byte(ClockSourceXOPierce)}) {
		t.Errorf("request = %+v", sent)
	}

	rsp := ClockResponse{Reason: ClockReasonAccuracyChanged, Source: ClockSourceXOPierce}
	clock.Notify(reply(protocol.ClockLFClkSrc, 0x1234, rsp.Encode()))

	want := []ClockEvent{{Type: ClockEventApplied, Data: rsp}}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if len(ctxs) != 1 || ctxs[0] != 0x1234 {
		t.Errorf("contexts = %v", ctxs)
	}
}

func TestClockNotify(t *testing.T) {
	rsp := ClockResponse{Reason: ClockReasonPrecisionChanged | ClockReasonAccuracyChanged, Source: ClockSourceSynth}

	tests := []struct {
		name      string
		msg       []byte
		want      []ClockEvent
		wantDrops []protocol.DropReason
	}{
		{
			name: "subscription change",
			msg:  reply(protocol.ClockSubscribe, 2, rsp.Encode()),
			want: []ClockEvent{{Type: ClockEventChange, Data: rsp}},
		},
		{
			name: "hsfll mode applied",
			msg:  reply(protocol.ClockHSFLLMode, 3, rsp.Encode()),
			want: []ClockEvent{{Type: ClockEventApplied, Data: rsp}},
		},
		{
			name:      "unsubscribe has no reply event",
			msg:       reply(protocol.ClockUnsubscribe, 0, rsp.Encode()),
			wantDrops: []protocol.DropReason{protocol.DropUnknownRequest},
		},
		{
			name:      "short payload",
			msg:       reply(protocol.ClockLFClkSrc, 4, []byte{1}),
			wantDrops: []protocol.DropReason{protocol.DropShortMessage},
		},
		{
			name:      "short generic header",
			msg:       []byte{0x03, 0x00, 0x01},
			wantDrops: []protocol.DropReason{protocol.DropShortMessage},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &dropRecorder{}
			clock := NewClock(&fakeSender{}, WithDropObserver(rec))
			var got []ClockEvent
			if err := clock.Init(func(evt ClockEvent, _ protocol.Context) { got = append(got, evt) }); err != nil {
				t.Fatalf("Init() error = %v", err)
			}

			clock.Notify(tt.msg)

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("events mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantDrops, rec.reasons); diff != "" {
				t.Errorf("drops mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClockRequestEncoding(t *testing.T) {
	s := &fakeSender{}
	clock := NewClock(s)
	if err := clock.Init(nil); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	tests := []struct {
		name    string
		send    func() error
		req     protocol.RequestType
		ctx     protocol.Context
		noRsp   bool
		payload []byte
	}{
		{"subscribe", func() error { return clock.Subscribe(ClockReasonAll, 9) }, protocol.ClockSubscribe, 9, false, []byte{0xFF}},
		{"unsubscribe", clock.Unsubscribe, protocol.ClockUnsubscribe, 0, false, []byte{0}},
		{"lfclk no rsp", func() error { return clock.LFClkSrcSetNoRsp(ClockSourceLFRC, 4) }, protocol.ClockLFClkSrc, 4, true, []byte{4}},
		{"hsfll", func() error { return clock.HSFLLModeSet(HSFLLModeClosed, 5) }, protocol.ClockHSFLLMode, 5, false, []byte{1}},
		{"hsfll no rsp", func() error { return clock.HSFLLModeSetNoRsp(HSFLLModeOpen, 6) }, protocol.ClockHSFLLMode, 6, true, []byte{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.send(); err != nil {
				t.Fatalf("send error = %v", err)
			}
			m := s.last(t)
			if m.Header.Request() != tt.req || m.Header.NoResponse() != tt.noRsp || m.Context != tt.ctx {
				t.Errorf("sent header 0x%04x context %d", uint16(m.Header), m.Context)
			}
			if !bytes.Equal(m.Payload, tt.payload) {
				t.Errorf("payload = % x, want % x", m.Payload, tt.payload)
			}
		})
	}
}
