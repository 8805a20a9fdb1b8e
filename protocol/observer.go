package protocol

// DropReason tells why an incoming message was not delivered to a handler.
type DropReason string

const (
	DropUnknownService  DropReason = "unknown_service"
	DropDisabledService DropReason = "disabled_service"
	DropUninitialized   DropReason = "uninitialized"
	DropUnknownRequest  DropReason = "unknown_request"
	DropShortMessage    DropReason = "short_message"
	DropMalformed       DropReason = "malformed_payload"
)

// DropObserver is told about every message that is discarded on the receive path.
type DropObserver interface {
	MessageDropped(service ServiceID, req RequestType, reason DropReason)
}

// NopObserver discards drop reports.
type NopObserver struct{}

func (NopObserver) MessageDropped(ServiceID, RequestType, DropReason) {}

// DropObserverFunc adapts a function to DropObserver.
type DropObserverFunc func(service ServiceID, req RequestType, reason DropReason)

func (f DropObserverFunc) MessageDropped(service ServiceID, req RequestType, reason DropReason) {
	f(service, req, reason)
}

// DropObservers fans a report out to several observers.
type DropObservers []DropObserver

func (o DropObservers) MessageDropped(service ServiceID, req RequestType, reason DropReason) {
	for _, obs := range o {
		obs.MessageDropped(service, req, reason)
	}
}
