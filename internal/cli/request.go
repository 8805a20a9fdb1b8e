package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/ystepanoff/nrfs"
	"github.com/ystepanoff/nrfs/driver/natslink"
	"github.com/ystepanoff/nrfs/protocol"
	"github.com/ystepanoff/nrfs/service"
	"github.com/ystepanoff/nrfs/transport"
)

// Result is one event reported by a service handler.
type Result struct {
	Service string `json:"service" yaml:"service"`
	Context uint32 `json:"context" yaml:"context"`
	Event   string `json:"event" yaml:"event"`

	final bool
}

type param struct {
	name   string
	bits   int
	signed bool
	names  map[string]int64
}

type operation struct {
	params []param
	expect func(v []int64) bool
	run    func(sys *nrfs.System, v []int64, ctx protocol.Context) error
}

func always([]int64) bool { return true }
func never([]int64) bool  { return false }

func u8(name string) param  { return param{name: name, bits: 8} }
func u16(name string) param { return param{name: name, bits: 16} }
func u32(name string) param { return param{name: name, bits: 32} }

var dvfsFreqNames = map[string]int64{
	service.DVFSFreqHigh.String():   int64(service.DVFSFreqHigh),
	service.DVFSFreqMedLow.String(): int64(service.DVFSFreqMedLow),
	service.DVFSFreqLow.String():    int64(service.DVFSFreqLow),
}

var operations = map[protocol.ServiceID]map[string]operation{
	protocol.ServiceClock: {
		"lfclk": {params: []param{u8("source")}, expect: always, run: func(s *nrfs.System, v []int64, ctx protocol.Context) error {
			return s.Clock.LFClkSrcSet(service.ClockSource(v[0]), ctx)
		}},
		"hsfll": {params: []param{u8("mode")}, expect: always, run: func(s *nrfs.System, v []int64, ctx protocol.Context) error {
			return s.Clock.HSFLLModeSet(service.HSFLLMode(v[0]), ctx)
		}},
	},
	protocol.ServiceDiag: {
		"read": {params: []param{u32("addr")}, expect: always, run: func(s *nrfs.System, v []int64, ctx protocol.Context) error {
			return s.Diag.RegRead(uint32(v[0]), ctx)
		}},
		"write": {params: []param{u32("addr"), u32("value")}, expect: always, run: func(s *nrfs.System, v []int64, ctx protocol.Context) error {
			return s.Diag.RegWrite(uint32(v[0]), uint32(v[1]), ctx)
		}},
	},
	protocol.ServiceDVFS: {
		"init-prepare": {expect: always, run: func(s *nrfs.System, _ []int64, ctx protocol.Context) error {
			return s.DVFS.InitPrepareRequest(ctx)
		}},
		"init-complete": {expect: always, run: func(s *nrfs.System, _ []int64, ctx protocol.Context) error {
			return s.DVFS.InitCompleteRequest(ctx)
		}},
		"oppoint": {params: []param{{name: "freq", bits: 8, names: dvfsFreqNames}}, expect: always, run: func(s *nrfs.System, v []int64, ctx protocol.Context) error {
			return s.DVFS.OppointRequest(service.DVFSFrequency(v[0]), ctx)
		}},
	},
	protocol.ServiceGDFS: {
		"freq": {params: []param{u8("freq")}, expect: always, run: func(s *nrfs.System, v []int64, ctx protocol.Context) error {
			return s.GDFS.RequestFreq(service.GDFSFrequency(v[0]), ctx)
		}},
	},
	protocol.ServiceGDPWR: {
		"request": {params: []param{u8("domain"), u8("set")}, expect: always, run: func(s *nrfs.System, v []int64, ctx protocol.Context) error {
			return s.GDPWR.PowerRequest(service.PowerDomain(v[0]), service.PowerRequestType(v[1]), ctx)
		}},
	},
	protocol.ServiceMRAM: {
		"latency": {
			params: []param{u8("latency")},
			expect: func(v []int64) bool { return service.MRAMLatency(v[0]) == service.MRAMLatencyNotAllowed },
			run: func(s *nrfs.System, v []int64, ctx protocol.Context) error {
				return s.MRAM.SetLatency(service.MRAMLatency(v[0]), ctx)
			},
		},
	},
	protocol.ServicePMIC: {
		"rffe-on":  {expect: always, run: func(s *nrfs.System, _ []int64, ctx protocol.Context) error { return s.PMIC.RFFEOn(ctx) }},
		"rffe-off": {expect: always, run: func(s *nrfs.System, _ []int64, ctx protocol.Context) error { return s.PMIC.RFFEOff(ctx) }},
		"sim-on": {params: []param{u8("sim")}, expect: always, run: func(s *nrfs.System, v []int64, ctx protocol.Context) error {
			return s.PMIC.SIMOn(service.PMICSIM(v[0]), ctx)
		}},
		"sim-off": {params: []param{u8("sim")}, expect: always, run: func(s *nrfs.System, v []int64, ctx protocol.Context) error {
			return s.PMIC.SIMOff(service.PMICSIM(v[0]), ctx)
		}},
		"ble-on": {params: []param{u8("txpower")}, expect: always, run: func(s *nrfs.System, v []int64, ctx protocol.Context) error {
			return s.PMIC.BLERadioOn(service.BLETxPower(v[0]), ctx)
		}},
		"ble-off": {expect: always, run: func(s *nrfs.System, _ []int64, ctx protocol.Context) error { return s.PMIC.BLERadioOff(ctx) }},
		"pwm-default": {expect: always, run: func(s *nrfs.System, _ []int64, ctx protocol.Context) error {
			return s.PMIC.PWMDefaultSet(ctx)
		}},
		"pwm-ghost-avoid": {expect: always, run: func(s *nrfs.System, _ []int64, ctx protocol.Context) error {
			return s.PMIC.PWMGhostAvoidSet(ctx)
		}},
		"info": {expect: always, run: func(s *nrfs.System, _ []int64, ctx protocol.Context) error { return s.PMIC.InfoRead(ctx) }},
		"read": {params: []param{u16("addr")}, expect: always, run: func(s *nrfs.System, v []int64, ctx protocol.Context) error {
			return s.PMIC.TestIFRead(uint16(v[0]), ctx)
		}},
		"write": {params: []param{u16("addr"), u8("value")}, expect: always, run: func(s *nrfs.System, v []int64, ctx protocol.Context) error {
			return s.PMIC.TestIFWrite(uint16(v[0]), uint8(v[1]), ctx)
		}},
	},
	protocol.ServiceReset: {
		"request": {expect: always, run: func(s *nrfs.System, _ []int64, _ protocol.Context) error { return s.Reset.Request() }},
	},
	protocol.ServiceTemp: {
		"measure": {expect: always, run: func(s *nrfs.System, _ []int64, ctx protocol.Context) error { return s.Temp.MeasureRequest(ctx) }},
	},
	protocol.ServiceUSB: {
		"enable":  {expect: always, run: func(s *nrfs.System, _ []int64, ctx protocol.Context) error { return s.USB.EnableRequest(ctx) }},
		"disable": {expect: never, run: func(s *nrfs.System, _ []int64, ctx protocol.Context) error { return s.USB.DisableRequest(ctx) }},
		"pullup-enable": {expect: never, run: func(s *nrfs.System, _ []int64, ctx protocol.Context) error {
			return s.USB.DPlusPullupEnable(ctx)
		}},
		"pullup-disable": {expect: never, run: func(s *nrfs.System, _ []int64, ctx protocol.Context) error {
			return s.USB.DPlusPullupDisable(ctx)
		}},
	},
	protocol.ServiceSWEXT: {
		"up": {params: []param{u32("microamps")}, expect: always, run: func(s *nrfs.System, v []int64, ctx protocol.Context) error {
			return s.SWEXT.PowerUp(service.SWEXTLoadCurrentToRaw(uint32(v[0])), ctx)
		}},
		"down": {params: []param{u8("clamp")}, expect: never, run: func(s *nrfs.System, v []int64, ctx protocol.Context) error {
			return s.SWEXT.PowerDown(service.SWEXTPullDownClamp(v[0]), ctx)
		}},
	},
	protocol.ServiceAudioPLL: {
		"enable": {expect: always, run: func(s *nrfs.System, _ []int64, ctx protocol.Context) error { return s.AudioPLL.EnableRequest(ctx) }},
		"disable": {expect: always, run: func(s *nrfs.System, _ []int64, ctx protocol.Context) error {
			return s.AudioPLL.DisableRequest(ctx)
		}},
		"freq": {params: []param{u16("fraction")}, expect: always, run: func(s *nrfs.System, v []int64, ctx protocol.Context) error {
			return s.AudioPLL.RequestFreq(uint16(v[0]), ctx)
		}},
		"prescaler": {params: []param{u8("div")}, expect: always, run: func(s *nrfs.System, v []int64, ctx protocol.Context) error {
			return s.AudioPLL.RequestPrescaler(service.AudioPLLPrescaler(v[0]), ctx)
		}},
		"freq-inc": {params: []param{{name: "step", bits: 8, signed: true}, u16("period")}, expect: always, run: func(s *nrfs.System, v []int64, ctx protocol.Context) error {
			return s.AudioPLL.RequestFreqInc(int8(v[0]), uint16(v[1]), ctx)
		}},
	},
}

func (p param) parse(arg string) (int64, error) {
	if v, ok := p.names[strings.ToLower(arg)]; ok {
		return v, nil
	}
	if p.signed {
		v, err := strconv.ParseInt(arg, 0, p.bits)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q: %w", p.name, arg, err)
		}
		return v, nil
	}
	v, err := strconv.ParseUint(arg, 0, p.bits)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", p.name, arg, err)
	}
	return int64(v), nil
}

func lookup(svcName, opName string, args []string) (protocol.ServiceID, operation, []int64, error) {
	id, ok := protocol.ParseServiceID(strings.ToLower(svcName))
	if !ok {
		return 0, operation{}, nil, fmt.Errorf("unknown service %q", svcName)
	}
	op, ok := operations[id][opName]
	if !ok {
		return 0, operation{}, nil, fmt.Errorf("unknown %s operation %q, want one of: %s", id, opName, strings.Join(opNames(id), ", "))
	}
	if len(args) != len(op.params) {
		return 0, operation{}, nil, fmt.Errorf("%s %s takes %d argument(s), got %d", id, opName, len(op.params), len(args))
	}
	vals := make([]int64, len(args))
	for i, p := range op.params {
		v, err := p.parse(args[i])
		if err != nil {
			return 0, operation{}, nil, err
		}
		vals[i] = v
	}
	return id, op, vals, nil
}

func opNames(id protocol.ServiceID) []string {
	var names []string
	for n := range operations[id] {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func newRequestCmd(st *state) *cobra.Command {
	var (
		token   uint32
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "request <service> <operation> [args...]",
		Short: "Send one request and print the resulting events",
		Long: `Send one request to the System Controller and wait for its reply.
Numbers may be given in decimal or with a 0x prefix. DVFS frequencies may be
given by name (high, medlow, low).`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, op, vals, err := lookup(args[0], args[1], args[2:])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("context") {
				token = uint32(protocol.RandomContext())
			}

			link, release, err := st.dial(st.cfg, natslink.RoleApp, st.log)
			if err != nil {
				return err
			}
			defer release()

			results := make(chan Result, 16)
			sys := newSystem(st, transport.NewTransmitterWithLink(link, st.log, nil))
			if err := initAll(sys, results, st.log); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			rx := transport.NewReceiverWithLink(link, sys.Notify, st.log)
			rx.Listen(ctx)
			defer rx.StopListening()

			if err := op.run(sys, vals, protocol.Context(token)); err != nil {
				return fmt.Errorf("%s %s: %w", id, args[1], err)
			}
			if !op.expect(vals) {
				return st.formatter.Write(cmd.OutOrStdout(), []Result{{Service: id.String(), Context: token, Event: "sent"}})
			}

			collected, err := wait(ctx, results)
			if err != nil {
				return fmt.Errorf("%s %s: no reply within %s", id, args[1], timeout)
			}
			return st.formatter.Write(cmd.OutOrStdout(), collected)
		},
	}
	cmd.Flags().Uint32Var(&token, "context", 0, "context token (default random)")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Second, "how long to wait for the reply")
	return cmd
}

// wait collects results until a final one arrives or ctx is done.
func wait(ctx context.Context, results <-chan Result) ([]Result, error) {
	var out []Result
	for {
		select {
		case r := <-results:
			out = append(out, r)
			if r.final {
				return out, nil
			}
		case <-ctx.Done():
			return out, ctx.Err()
		}
	}
}

func newSystem(st *state, b transport.Backend) *nrfs.System {
	opts := []nrfs.Option{
		nrfs.WithServices(st.cfg.Services...),
		nrfs.WithLogger(st.log),
		nrfs.WithNoResponsePolicy(st.cfg.NoResponsePolicy),
	}
	if st.cfg.ReportDrops {
		log := st.log
		opts = append(opts, nrfs.WithDropObserver(protocol.DropObserverFunc(
			func(s protocol.ServiceID, req protocol.RequestType, reason protocol.DropReason) {
				log.Info("Message dropped", "service", s.String(), "request", req.String(), "reason", string(reason))
			})))
	}
	return nrfs.New(b, opts...)
}

func report[E any](id protocol.ServiceID, out chan<- Result, log logr.Logger) func(E, protocol.Context) {
	return func(evt E, ctx protocol.Context) {
		send(out, Result{Service: id.String(), Context: uint32(ctx), Event: fmt.Sprintf("%+v", evt), final: true}, log)
	}
}

func send(out chan<- Result, r Result, log logr.Logger) {
	select {
	case out <- r:
	default:
		log.Info("Result dropped, nobody is waiting", "service", r.Service, "event", r.Event)
	}
}

// initAll registers a reporting handler on every service. The DVFS handler
// also completes a scaling handshake.
func initAll(sys *nrfs.System, out chan<- Result, log logr.Logger) error {
	dvfs := func(evt service.DVFSEvent, ctx protocol.Context) {
		r := Result{Service: protocol.ServiceDVFS.String(), Context: uint32(ctx), Event: fmt.Sprintf("%+v", evt), final: true}
		if evt.Type == service.DVFSEventOppointScalingPrepare {
			r.final = false
			if err := sys.DVFS.ReadyToScale(ctx); err != nil {
				log.Error(err, "ReadyToScale failed")
				r.final = true
			}
		}
		send(out, r, log)
	}
	reset := func(evt service.ResetEvent) {
		send(out, Result{Service: protocol.ServiceReset.String(), Event: fmt.Sprintf("%+v", evt), final: true}, log)
	}

	for _, err := range []error{
		sys.Clock.Init(report[service.ClockEvent](protocol.ServiceClock, out, log)),
		sys.Diag.Init(report[service.DiagEvent](protocol.ServiceDiag, out, log)),
		sys.DVFS.Init(dvfs),
		sys.GDPWR.Init(report[service.GDPWREvent](protocol.ServiceGDPWR, out, log)),
		sys.MRAM.Init(report[service.MRAMEvent](protocol.ServiceMRAM, out, log)),
		sys.PMIC.Init(report[service.PMICEvent](protocol.ServicePMIC, out, log)),
		sys.Reset.Init(reset),
		sys.Temp.Init(report[service.TempEvent](protocol.ServiceTemp, out, log)),
		sys.USB.Init(report[service.USBEvent](protocol.ServiceUSB, out, log)),
		sys.GDFS.Init(report[service.GDFSEvent](protocol.ServiceGDFS, out, log)),
		sys.SWEXT.Init(report[service.SWEXTEvent](protocol.ServiceSWEXT, out, log)),
		sys.AudioPLL.Init(report[service.AudioPLLEvent](protocol.ServiceAudioPLL, out, log)),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}
