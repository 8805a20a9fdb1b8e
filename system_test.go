package nrfs_test

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ystepanoff/nrfs"
	"github.com/ystepanoff/nrfs/metrics"
	"github.com/ystepanoff/nrfs/protocol"
	"github.com/ystepanoff/nrfs/service"
	"github.com/ystepanoff/nrfs/sysctrl"
)

type events[T any] struct {
	mu  sync.Mutex
	got []T
}

func (e *events[T]) add(v T) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.got = append(e.got, v)
}

func (e *events[T]) list() []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]T(nil), e.got...)
}

type clockCall struct {
	Evt service.ClockEvent
	Ctx protocol.Context
}

type dvfsCall struct {
	Evt service.DVFSEvent
	Ctx protocol.Context
}

type drop struct {
	Service protocol.ServiceID
	Reason  protocol.DropReason
}

var _ = Describe("Loopback", func() {
	var (
		lb     *nrfs.Loopback
		cancel context.CancelFunc
		drops  *events[drop]
		ctrl   []sysctrl.Option
		opts   []nrfs.Option
	)

	BeforeEach(func() {
		drops = &events[drop]{}
		ctrl = nil
		opts = []nrfs.Option{
			nrfs.WithLogger(testLog),
			nrfs.WithDropObserver(protocol.DropObserverFunc(func(s protocol.ServiceID, _ protocol.RequestType, r protocol.DropReason) {
				drops.add(drop{s, r})
			})),
		}
	})

	JustBeforeEach(func() {
		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		lb = nrfs.NewLoopback(ctrl, opts...)
		lb.Start(ctx)
	})

	AfterEach(func() {
		lb.Stop()
		cancel()
	})

	It("applies an LFCLK source change", func() {
		calls := &events[clockCall]{}
		Expect(lb.Clock.Init(func(evt service.ClockEvent, ctx protocol.Context) {
			calls.add(clockCall{evt, ctx})
		})).To(Succeed())

		Expect(lb.Clock.LFClkSrcSet(service.ClockSourceXOPierce, 0x1234)).To(Succeed())

		Eventually(calls.list).Should(ConsistOf(clockCall{
			Evt: service.ClockEvent{
				Type: service.ClockEventApplied,
				Data: service.ClockResponse{Reason: service.ClockReasonAccuracyChanged, Source: service.ClockSourceXOPierce},
			},
			Ctx: 0x1234,
		}))
		Expect(lb.Controller.State().LFClkSource).To(Equal(service.ClockSourceXOPierce))
	})

	It("negotiates a DVFS oppoint change", func() {
		calls := &events[dvfsCall]{}
		Expect(lb.DVFS.Init(func(evt service.DVFSEvent, ctx protocol.Context) {
			defer GinkgoRecover()
			calls.add(dvfsCall{evt, ctx})
			if evt.Type == service.DVFSEventOppointScalingPrepare {
				Expect(lb.DVFS.ReadyToScale(ctx)).To(Succeed())
			}
		})).To(Succeed())

		Expect(lb.DVFS.OppointRequest(service.DVFSFreqLow, 7)).To(Succeed())

		Eventually(calls.list).Should(Equal([]dvfsCall{
			{service.DVFSEvent{Type: service.DVFSEventOppointScalingPrepare, Freq: service.DVFSFreqLow}, 7},
			{service.DVFSEvent{Type: service.DVFSEventOppointScalingDone, Freq: service.DVFSFreqLow}, 7},
		}))
		Expect(lb.DVFS.Phase()).To(Equal(service.DVFSPhaseReady))
		Expect(lb.Controller.State().Oppoint).To(Equal(service.DVFSFreqLow))
	})

	It("refuses a reset before Init", func() {
		Expect(lb.Reset.Request()).To(MatchError(protocol.ErrInvalidState))
		Consistently(func() int { return lb.Controller.State().Resets }, "50ms").Should(BeZero())
	})

	It("hands caller state through the token registry", func() {
		type job struct{ name string }
		got := &events[string]{}
		Expect(lb.Temp.Init(func(evt service.TempEvent, ctx protocol.Context) {
			if v, ok := lb.Tokens.Take(ctx); ok {
				got.add(v.(*job).name)
			}
		})).To(Succeed())

		tok := lb.Tokens.Put(&job{name: "thermal-poll"})
		Expect(lb.Temp.MeasureRequest(tok)).To(Succeed())

		Eventually(got.list).Should(ConsistOf("thermal-poll"))
		Expect(lb.Tokens.Len()).To(BeZero())
	})

	Context("with a rejecting System Controller", func() {
		BeforeEach(func() {
			ctrl = []sysctrl.Option{sysctrl.WithRejectedServices(protocol.ServiceUSB)}
		})

		It("reports a reject with the request context", func() {
			calls := &events[service.USBEvent]{}
			ctxs := &events[protocol.Context]{}
			Expect(lb.USB.Init(func(evt service.USBEvent, ctx protocol.Context) {
				calls.add(evt)
				ctxs.add(ctx)
			})).To(Succeed())

			Expect(lb.USB.EnableRequest(0xDEADBEEF)).To(Succeed())

			Eventually(calls.list).Should(ConsistOf(service.USBEvent{Type: service.USBEventReject}))
			Expect(ctxs.list()).To(ConsistOf(protocol.Context(0xDEADBEEF)))
		})
	})

	Context("with only some services enabled", func() {
		BeforeEach(func() {
			opts = append(opts, nrfs.WithServices(protocol.ServiceClock))
		})

		It("drops replies for disabled services", func() {
			Expect(lb.Enabled(protocol.ServiceClock)).To(BeTrue())
			Expect(lb.Enabled(protocol.ServiceTemp)).To(BeFalse())

			handled := &events[service.TempEvent]{}
			Expect(lb.Temp.Init(func(evt service.TempEvent, _ protocol.Context) { handled.add(evt) })).To(Succeed())
			Expect(lb.Temp.MeasureRequest(1)).To(Succeed())

			Eventually(drops.list).Should(ContainElement(drop{protocol.ServiceTemp, protocol.DropDisabledService}))
			Expect(handled.list()).To(BeEmpty())
		})
	})

	Context("with metrics", func() {
		var m *metrics.Metrics

		BeforeEach(func() {
			m = metrics.New(prometheus.NewRegistry())
			opts = append(opts, nrfs.WithMetrics(m))
		})

		It("counts requests and replies per service", func() {
			done := &events[service.GDFSEvent]{}
			Expect(lb.GDFS.Init(func(evt service.GDFSEvent, _ protocol.Context) { done.add(evt) })).To(Succeed())

			Expect(lb.GDFS.RequestFreq(service.GDFSFreqMedLow, 3)).To(Succeed())
			Eventually(done.list).Should(HaveLen(1))

			Expect(testutil.ToFloat64(m.RequestsSent.WithLabelValues("gdfs"))).To(Equal(1.0))
			Expect(testutil.ToFloat64(m.NotificationsHandled.WithLabelValues("gdfs"))).To(Equal(1.0))
		})
	})
})

var _ = Describe("System", func() {
	It("routes unsolicited payloads to the handler", func() {
		got := &events[[]byte]{}
		sys := nrfs.New(nrfs.BackendFunc(func([]byte) error { return nil }),
			nrfs.WithUnsolicitedHandler(func(p []byte) { got.add(append([]byte(nil), p...)) }))

		m := &protocol.Message{Payload: []byte{0xAA, 0xBB}}
		m.Header.SetUnsolicited()
		sys.Notify(protocol.EncodeMessage(m))

		Expect(got.list()).To(Equal([][]byte{{0xAA, 0xBB}}))
	})

	It("refuses unsafe no-response oppoints when told to", func() {
		sys := nrfs.New(nrfs.BackendFunc(func([]byte) error { return nil }), nrfs.WithNoResponsePolicy(service.NoResponseDeny))
		Expect(sys.DVFS.Init(func(service.DVFSEvent, protocol.Context) {})).To(Succeed())
		Expect(sys.DVFS.OppointRequestNoRsp(service.DVFSFreqLow, 0)).To(MatchError(protocol.ErrNoResponseUnsafe))
	})

	It("uninitializes every service", func() {
		sys := nrfs.New(nrfs.BackendFunc(func([]byte) error { return nil }))
		Expect(sys.Clock.Init(func(service.ClockEvent, protocol.Context) {})).To(Succeed())
		sys.Uninit()
		Expect(sys.Clock.Unsubscribe()).To(MatchError(protocol.ErrInvalidState))
	})
})
