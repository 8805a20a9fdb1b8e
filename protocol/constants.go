package protocol

// Generic message layout: Header(2) | Context(4) | Payload(n).
// All multi-byte fields are little-endian and structures are packed.
const (
	HeaderOffset  = 0
	HeaderSize    = 2
	ContextOffset = HeaderOffset + HeaderSize
	ContextSize   = 4
	PayloadOffset = ContextOffset + ContextSize

	// GenericSize is the size of a message carrying no payload.
	GenericSize = PayloadOffset
)

// Header bit layout.
const (
	requestIDMask   uint16 = 0x007F
	noResponseMask  uint16 = 0x0080
	serviceIDMask   uint16 = 0x3F00
	filterErrorMask uint16 = 0x4000
	unsolicitedMask uint16 = 0x8000

	serviceIDShift = 8

	// MaxServiceID is the largest value the 6-bit service field can carry.
	MaxServiceID = ServiceID(serviceIDMask >> serviceIDShift)
)

// ServiceID identifies one System Controller service.
type ServiceID uint8

const (
	ServiceClock ServiceID = iota
	ServiceDiag
	ServiceDVFS
	ServiceGDPWR
	ServiceMRAM
	ServicePMIC
	ServiceReset
	ServiceTemp
	ServiceUSB
	ServiceGDFS
	ServiceSWEXT
	ServiceAudioPLL

	// ServiceCount is the number of services known to this build.
	ServiceCount = int(iota)
)

var serviceNames = [ServiceCount]string{
	ServiceClock:    "clock",
	ServiceDiag:     "diag",
	ServiceDVFS:     "dvfs",
	ServiceGDPWR:    "gdpwr",
	ServiceMRAM:     "mram",
	ServicePMIC:     "pmic",
	ServiceReset:    "reset",
	ServiceTemp:     "temp",
	ServiceUSB:      "usb",
	ServiceGDFS:     "gdfs",
	ServiceSWEXT:    "swext",
	ServiceAudioPLL: "audiopll",
}

func (s ServiceID) String() string {
	if int(s) < ServiceCount {
		return serviceNames[s]
	}
	return "unknown"
}

// ParseServiceID resolves a service by its lower-case name.
func ParseServiceID(name string) (ServiceID, bool) {
	for i, n := range serviceNames {
		if n == name {
			return ServiceID(i), true
		}
	}
	return 0, false
}

// AllServices lists every known service in ID order.
func AllServices() []ServiceID {
	ids := make([]ServiceID, ServiceCount)
	for i := range ids {
		ids[i] = ServiceID(i)
	}
	return ids
}
