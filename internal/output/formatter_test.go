package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type row struct {
	Service string `json:"service" yaml:"service"`
	Count   int    `json:"count" yaml:"count"`
	hidden  bool
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	if err := New("table").Write(&buf, []row{{Service: "clock", Count: 2}, {Service: "dvfs", Count: 10}}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		"SERVICE  COUNT",
		"clock    2",
		"dvfs     10",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestTableStruct(t *testing.T) {
	var buf bytes.Buffer
	if err := New("").Write(&buf, &row{Service: "temp", Count: 1}); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); !strings.Contains(got, "SERVICE:  temp") || strings.Contains(got, "HIDDEN") {
		t.Errorf("struct table = %q", got)
	}
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	_ = New("table").Write(&buf, []row{})
	if strings.TrimSpace(buf.String()) != "(none)" {
		t.Errorf("empty = %q", buf.String())
	}
}

func TestJSONAndYAML(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"json", "{\n  \"service\": \"usb\",\n  \"count\": 3\n}\n"},
		{"YAML", "service: usb\ncount: 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := New(tt.format).Write(&buf, row{Service: "usb", Count: 3}); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, buf.String()); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
