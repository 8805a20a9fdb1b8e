package service

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ystepanoff/nrfs/protocol"
)

func TestTempConversion(t *testing.T) {
	tests := []struct {
		centiC  int32
		raw     int32
		backToC int32
	}{
		{2575, 103, 2575},
		{2574, 102, 2550},
		{0, 0, 0},
		{-1000, -40, -1000},
		{-1010, -40, -1000},
	}

	for _, tt := range tests {
		raw := TempToRaw(tt.centiC)
		if raw != tt.raw {
			t.Errorf("TempToRaw(%d) = %d, want %d", tt.centiC, raw, tt.raw)
		}
		if got := TempFromRaw(raw); got != tt.backToC {
			t.Errorf("TempFromRaw(%d) = %d, want %d", raw, got, tt.backToC)
		}
	}
}

func TestTempSubscriptionEncoding(t *testing.T) {
	s := &fakeSender{}
	temp := NewTemp(s)
	if err := temp.Init(nil); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if err := temp.Subscribe(1000, TempToRaw(-2000), TempToRaw(8500), 11); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	m := s.last(t)
	if m.Header.Request() != protocol.TempSubscribe || m.Context != 11 {
		t.Fatalf("header = 0x%04x ctx %d", uint16(m.Header), m.Context)
	}
	want := []byte{0xE8, 0x03, 0xB0, 0xFF, 0xFF, 0xFF, 0x54, 0x01, 0x00, 0x00}
	if diff := cmp.Diff(want, m.Payload); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}

	sub, err := DecodeTempSubscription(m.Payload)
	if err != nil {
		t.Fatalf("DecodeTempSubscription() error = %v", err)
	}
	if diff := cmp.Diff(TempSubscription{MeasureRateMs: 1000, LowerThreshold: -80, UpperThreshold: 340}, sub); diff != "" {
		t.Errorf("subscription mismatch (-want +got):\n%s", diff)
	}

	if err := temp.Unsubscribe(); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	m = s.last(t)
	if m.Header.Request() != protocol.TempUnsubscribe || m.Context != 0 {
		t.Errorf("unsubscribe = %+v", m)
	}
	if diff := cmp.Diff(make([]byte, tempSubscriptionSize), m.Payload); diff != "" {
		t.Errorf("unsubscribe payload mismatch (-want +got):\n%s", diff)
	}
}

func TestTempNotify(t *testing.T) {
	rec := &dropRecorder{}
	temp := NewTemp(&fakeSender{}, WithDropObserver(rec))
	var got []TempEvent
	if err := temp.Init(func(evt TempEvent, _ protocol.Context) { got = append(got, evt) }); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	temp.Notify(reply(protocol.TempMeasure, 1, EncodeTempResponse(103)))
	temp.Notify(reply(protocol.TempSubscribe, 2, EncodeTempResponse(-12)))
	temp.Notify(reply(protocol.TempMeasure, 3, []byte{1, 2}))
	temp.Notify(reply(protocol.TempUnsubscribe, 4, EncodeTempResponse(0)))

	want := []TempEvent{
		{Type: TempEventMeasureDone, RawTemp: 103},
		{Type: TempEventChange, RawTemp: -12},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	wantDrops := []protocol.DropReason{protocol.DropShortMessage, protocol.DropUnknownRequest}
	if diff := cmp.Diff(wantDrops, rec.reasons); diff != "" {
		t.Errorf("drops mismatch (-want +got):\n%s", diff)
	}
}
