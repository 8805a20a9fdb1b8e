package service

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ystepanoff/nrfs/protocol"
)

func TestGDFS(t *testing.T) {
	s := &fakeSender{}
	gdfs := NewGDFS(s)
	var got []GDFSEvent
	if err := gdfs.Init(func(evt GDFSEvent, _ protocol.Context) { got = append(got, evt) }); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if err := gdfs.RequestFreqNoRsp(GDFSFreqMedHigh, 8); err != nil {
		t.Fatalf("RequestFreqNoRsp() error = %v", err)
	}
	if m := s.last(t); !m.Header.NoResponse() || m.Context != 8 || m.Payload[0] != 1 {
		t.Errorf("sent %+v", m)
	}

	gdfs.Notify(reply(protocol.GDFSFreq, 8, nil))
	if diff := cmp.Diff([]GDFSEvent{{Type: GDFSEventFreqConfirmed}}, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestGDPWR(t *testing.T) {
	s := &fakeSender{}
	rec := &dropRecorder{}
	gdpwr := NewGDPWR(s, WithDropObserver(rec))
	var got []GDPWREvent
	if err := gdpwr.Init(func(evt GDPWREvent, _ protocol.Context) { got = append(got, evt) }); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	for _, typ := range []PowerRequestType{PowerRequestSet, PowerRequestClear} {
		if err := gdpwr.PowerRequest(PowerDomainFastActive1, typ, 2); err != nil {
			t.Fatalf("PowerRequest() error = %v", err)
		}
		req, err := DecodeGDPWRRequest(s.last(t).Payload)
		if err != nil || req != (GDPWRRequest{Domain: PowerDomainFastActive1, Type: typ}) {
			t.Errorf("DecodeGDPWRRequest() = %+v, %v", req, err)
		}
		gdpwr.Notify(reply(protocol.GDPWRSetPowerRequest, 2, nil))
	}

	gdpwr.Notify(reply(protocol.NewRequestType(protocol.ServiceGDPWR, 2), 3, nil))

	want := []GDPWREvent{{Type: GDPWREventApplied}, {Type: GDPWREventApplied}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]protocol.DropReason{protocol.DropUnknownRequest}, rec.reasons); diff != "" {
		t.Errorf("drops mismatch (-want +got):\n%s", diff)
	}
}

func TestMRAM(t *testing.T) {
	s := &fakeSender{}
	mram := NewMRAM(s)
	var got []MRAMEvent
	if err := mram.Init(func(evt MRAMEvent, _ protocol.Context) { got = append(got, evt) }); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if err := mram.SetLatency(MRAMLatencyNotAllowed, 4); err != nil {
		t.Fatalf("SetLatency() error = %v", err)
	}
	if m := s.last(t); m.Payload[0] != byte(MRAMLatencyNotAllowed) {
		t.Errorf("payload = % x", m.Payload)
	}
	mram.Notify(reply(protocol.MRAMSetLatency, 4, nil))
	mram.Notify(reject(protocol.MRAMSetLatency, 5))

	want := []MRAMEvent{{Type: MRAMEventApplied}, {Type: MRAMEventRejected}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestResetHasNoContext(t *testing.T) {
	s := &fakeSender{}
	reset := NewReset(s)
	var got []ResetEvent
	if err := reset.Init(func(evt ResetEvent) { got = append(got, evt) }); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := reset.Request(); err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if m := s.last(t); m.Context != 0 || len(m.Payload) != 0 {
		t.Errorf("reset request = %+v", m)
	}
	reset.Notify(reply(protocol.ResetRequest, 0, nil))
	if diff := cmp.Diff([]ResetEvent{{Type: ResetEventDone}}, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}
