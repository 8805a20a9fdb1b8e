package service

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ystepanoff/nrfs/protocol"
)

func TestPMICRequests(t *testing.T) {
	s := &fakeSender{}
	pmic := NewPMIC(s)
	if err := pmic.Init(nil); err != nil {
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
		{"rffe on", func() error { return pmic.RFFEOn(1) }, protocol.PMICRFFEOn, 1, false, nil},
		{"rffe on no rsp", pmic.RFFEOnNoRsp, protocol.PMICRFFEOn, 0, true, nil},
		{"rffe off", func() error { return pmic.RFFEOff(2) }, protocol.PMICRFFEOff, 2, false, nil},
		{"rffe off no rsp", pmic.RFFEOffNoRsp, protocol.PMICRFFEOff, 0, true, nil},
		{"sim on", func() error { return pmic.SIMOn(PMICSIM2, 3) }, protocol.PMICSIMOn, 3, false, []byte{2}},
		{"sim on no rsp", func() error { return pmic.SIMOnNoRsp(PMICSIM1) }, protocol.PMICSIMOn, 0, true, []byte{1}},
		{"sim off", func() error { return pmic.SIMOff(PMICSIM1, 4) }, protocol.PMICSIMOff, 4, false, []byte{1}},
		{"sim off no rsp", func() error { return pmic.SIMOffNoRsp(PMICSIM2) }, protocol.PMICSIMOff, 0, true, []byte{2}},
		{"ble on", func() error { return pmic.BLERadioOn(BLETxPowerNeg70dBm, 5) }, protocol.PMICBLERadioOn, 5, false, []byte{20}},
		{"ble on no rsp", func() error { return pmic.BLERadioOnNoRsp(BLETxPower0dBm) }, protocol.PMICBLERadioOn, 0, true, []byte{10}},
		{"ble off", func() error { return pmic.BLERadioOff(6) }, protocol.PMICBLERadioOff, 6, false, nil},
		{"ble off no rsp", pmic.BLERadioOffNoRsp, protocol.PMICBLERadioOff, 0, true, nil},
		{"pwm default", func() error { return pmic.PWMDefaultSet(7) }, protocol.PMICPWMDefault, 7, false, nil},
		{"pwm default no rsp", pmic.PWMDefaultSetNoRsp, protocol.PMICPWMDefault, 0, true, nil},
		{"pwm ghost", func() error { return pmic.PWMGhostAvoidSet(8) }, protocol.PMICPWMGhostAvoid, 8, false, nil},
		{"pwm ghost no rsp", pmic.PWMGhostAvoidSetNoRsp, protocol.PMICPWMGhostAvoid, 0, true, nil},
		{"test if read", func() error { return pmic.TestIFRead(0x0102, 9) }, protocol.PMICTestIF, 9, false, []byte{0, 0x02, 0x01, 0}},
		{"test if write", func() error { return pmic.TestIFWrite(0x0A0B, 0x5A, 10) }, protocol.PMICTestIF, 10, false, []byte{1, 0x0B, 0x0A, 0x5A}},
		{"info", func() error { return pmic.InfoRead(11) }, protocol.PMICInfo, 11, false, nil},
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

func TestPMICNotify(t *testing.T) {
	pmic := NewPMIC(&fakeSender{})
	var got []PMICEvent
	if err := pmic.Init(func(evt PMICEvent, _ protocol.Context) { got = append(got, evt) }); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	pmic.Notify(reply(protocol.PMICSIMOn, 1, nil))
	pmic.Notify(reply(protocol.PMICTestIF, 2, PMICTestIFResponse{Access: RegRead, Val: 0x42}.Encode()))
	pmic.Notify(reply(protocol.PMICInfo, 3, []byte{byte(PMICAvailable)}))
	pmic.Notify(reply(protocol.PMICInfo, 4, nil))

	want := []PMICEvent{
		{Type: PMICEventApplied},
		{Type: PMICEventTestIFResponse, Access: RegRead, Val: 0x42},
		{Type: PMICEventInfoResponse, Info: PMICAvailable},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}
