package nrfs

import (
	"github.com/go-logr/logr"

	"github.com/ystepanoff/nrfs/correlation"
	"github.com/ystepanoff/nrfs/dispatcher"
	"github.com/ystepanoff/nrfs/metrics"
	"github.com/ystepanoff/nrfs/protocol"
	"github.com/ystepanoff/nrfs/service"
	"github.com/ystepanoff/nrfs/transport"
)

// System owns one instance of every service, all sharing a single backend,
// and the dispatcher that routes replies back to them. Services that are not
// enabled still exist but their replies are dropped as disabled.
type System struct {
	Clock    *service.Clock
	Diag     *service.Diag
	DVFS     *service.DVFS
	GDPWR    *service.GDPWR
	MRAM     *service.MRAM
	PMIC     *service.PMIC
	Reset    *service.Reset
	Temp     *service.Temp
	USB      *service.USB
	GDFS     *service.GDFS
	SWEXT    *service.SWEXT
	AudioPLL *service.AudioPLL

	// Tokens may be used to allocate context tokens that map back to caller state.
	Tokens *correlation.Registry

	dispatcher *dispatcher.Dispatcher
	log        logr.Logger
}

type options struct {
	services    []protocol.ServiceID
	log         logr.Logger
	observer    protocol.DropObserver
	unsolicited dispatcher.UnsolicitedHandler
	metrics     *metrics.Metrics
	policy      service.NoResponsePolicy
}

type Option func(*options)

// WithServices enables only the listed services. All services are enabled by default.
func WithServices(ids ...protocol.ServiceID) Option {
	return func(o *options) { o.services = ids }
}

func WithLogger(log logr.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithDropObserver reports every discarded reply, whether the dispatcher or a
// service dropped it.
func WithDropObserver(obs protocol.DropObserver) Option {
	return func(o *options) { o.observer = obs }
}

func WithUnsolicitedHandler(h dispatcher.UnsolicitedHandler) Option {
	return func(o *options) { o.unsolicited = h }
}

// WithMetrics counts requests and replies. Drops are counted as well.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithNoResponsePolicy(p service.NoResponsePolicy) Option {
	return func(o *options) { o.policy = p }
}

func buildOptions(opts []Option) options {
	o := options{services: protocol.AllServices(), log: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New builds a System that sends every request through b.
func New(b transport.Backend, opts ...Option) *System {
	return newSystem(b, buildOptions(opts))
}

func newSystem(b transport.Backend, o options) *System {
	var observers protocol.DropObservers
	if o.observer != nil {
		observers = append(observers, o.observer)
	}
	if o.metrics != nil {
		observers = append(observers, o.metrics)
	}
	var obs protocol.DropObserver = protocol.NopObserver{}
	if len(observers) > 0 {
		obs = observers
	}

	svcOpts := []service.Option{
		service.WithLogger(o.log),
		service.WithDropObserver(obs),
		service.WithMetrics(o.metrics),
	}
	s := &System{
		Clock:    service.NewClock(b, svcOpts...),
		Diag:     service.NewDiag(b, svcOpts...),
		DVFS:     service.NewDVFS(b, append(svcOpts, service.WithNoResponsePolicy(o.policy))...),
		GDPWR:    service.NewGDPWR(b, svcOpts...),
		MRAM:     service.NewMRAM(b, svcOpts...),
		PMIC:     service.NewPMIC(b, svcOpts...),
		Reset:    service.NewReset(b, svcOpts...),
		Temp:     service.NewTemp(b, svcOpts...),
		USB:      service.NewUSB(b, svcOpts...),
		GDFS:     service.NewGDFS(b, svcOpts...),
		SWEXT:    service.NewSWEXT(b, svcOpts...),
		AudioPLL: service.NewAudioPLL(b, svcOpts...),
		Tokens:   correlation.New(),
		log:      o.log,
	}

	notifiers := s.notifiers()
	routes := make([]dispatcher.Route, 0, len(o.services))
	for _, id := range o.services {
		if int(id) >= protocol.ServiceCount {
			continue
		}
		routes = append(routes, dispatcher.Route{Service: id, Notifier: notifiers[id]})
	}

	dopts := []dispatcher.Option{
		dispatcher.WithLogger(o.log),
		dispatcher.WithDropObserver(obs),
	}
	if o.unsolicited != nil {
		dopts = append(dopts, dispatcher.WithUnsolicitedHandler(o.unsolicited))
	}
	s.dispatcher = dispatcher.New(routes, dopts...)
	return s
}

func (s *System) notifiers() [protocol.ServiceCount]dispatcher.Notifier {
	return [protocol.ServiceCount]dispatcher.Notifier{
		protocol.ServiceClock:    s.Clock,
		protocol.ServiceDiag:     s.Diag,
		protocol.ServiceDVFS:     s.DVFS,
		protocol.ServiceGDPWR:    s.GDPWR,
		protocol.ServiceMRAM:     s.MRAM,
		protocol.ServicePMIC:     s.PMIC,
		protocol.ServiceReset:    s.Reset,
		protocol.ServiceTemp:     s.Temp,
		protocol.ServiceUSB:      s.USB,
		protocol.ServiceGDFS:     s.GDFS,
		protocol.ServiceSWEXT:    s.SWEXT,
		protocol.ServiceAudioPLL: s.AudioPLL,
	}
}

// Notify hands one message from the System Controller to the dispatcher.
func (s *System) Notify(msg []byte) {
	s.dispatcher.Notify(msg)
}

func (s *System) Enabled(id protocol.ServiceID) bool {
	return s.dispatcher.Enabled(id)
}

// Uninit uninitializes every service.
func (s *System) Uninit() {
	s.Clock.Uninit()
	s.Diag.Uninit()
	s.DVFS.Uninit()
	s.GDPWR.Uninit()
	s.MRAM.Uninit()
	s.PMIC.Uninit()
	s.Reset.Uninit()
	s.Temp.Uninit()
	s.USB.Uninit()
	s.GDFS.Uninit()
	s.SWEXT.Uninit()
	s.AudioPLL.Uninit()
}
