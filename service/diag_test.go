package service

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ystepanoff/nrfs/protocol"
)

func TestDiagRegisterAccess(t *testing.T) {
	s := &fakeSender{}
	diag := NewDiag(s)
	var got []DiagEvent
	if err := diag.Init(func(evt DiagEvent, _ protocol.Context) { got = append(got, evt) }); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if err := diag.RegRead(0x5000_0400, 1); err != nil {
		t.Fatalf("RegRead() error = %v", err)
	}
	read, err := DecodeDiagReg(s.last(t).Payload)
	if err != nil {
		t.Fatalf("DecodeDiagReg() error = %v", err)
	}
	if diff := cmp.Diff(DiagReg{Access: RegRead, Addr: 0x5000_0400}, read); diff != "" {
		t.Errorf("read request mismatch (-want +got):\n%s", diff)
	}

	if err := diag.RegWrite(0x5000_0404, 0xA5A5, 2); err != nil {
		t.Fatalf("RegWrite() error = %v", err)
	}
	wantBytes := []byte{1, 0x04, 0x04, 0x00, 0x50, 0xA5, 0xA5, 0x00, 0x00}
	if diff := cmp.Diff(wantBytes, s.last(t).Payload); diff != "" {
		t.Errorf("write payload mismatch (-want +got):\n%s", diff)
	}

	rsp := DiagReg{Access: RegRead, Addr: 0x5000_0400, Val: 0x1234}
	diag.Notify(reply(protocol.DiagReg, 1, rsp.Encode()))
	if diff := cmp.Diff([]DiagEvent{{Type: DiagEventRegResponse, Reg: rsp}}, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}
