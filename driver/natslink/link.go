// Package natslink carries nrfs messages between two processes over NATS.
// The application side publishes requests on <prefix>.<domain>.req and reads
// replies from <prefix>.<domain>.rsp; the System Controller side is the mirror
// image.
package natslink

import (
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/ystepanoff/nrfs/transport"
)

type Role int

const (
	RoleApp Role = iota
	RoleSysCtrl
)

const rxBuffer = 256

// Subjects returns the request and reply subjects of a domain.
func Subjects(prefix, domain string) (req, rsp string) {
	return prefix + "." + domain + ".req", prefix + "." + domain + ".rsp"
}

type Link struct {
	nc   *nats.Conn
	sub  *nats.Subscription
	rx   chan *nats.Msg
	txTo string
	log  logr.Logger
}

var _ transport.Link = (*Link)(nil)

// Dial connects to the server at url and subscribes to the inbound subject for role.
func Dial(url, prefix, domain string, role Role, log logr.Logger) (*Link, error) {
	name := fmt.Sprintf("nrfs-%s-%s", domain, uuid.NewString())
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.RetryOnFailedConnect(true),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Info("Disconnected", "reason", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("Reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.V(1).Info("Connection closed", "reason", nc.LastError())
		}))
	if err != nil {
		return nil, fmt.Errorf("natslink: connecting to %s: %w", url, err)
	}
	l, err := newLink(nc, prefix, domain, role, log.WithValues("connection", name))
	if err != nil {
		nc.Close()
		return nil, err
	}
	return l, nil
}

func newLink(nc *nats.Conn, prefix, domain string, role Role, log logr.Logger) (*Link, error) {
	req, rsp := Subjects(prefix, domain)
	in, out := rsp, req
	if role == RoleSysCtrl {
		in, out = req, rsp
	}

	l := &Link{nc: nc, rx: make(chan *nats.Msg, rxBuffer), txTo: out, log: log}
	sub, err := nc.ChanSubscribe(in, l.rx)
	if err != nil {
		return nil, fmt.Errorf("natslink: subscribing to %s: %w", in, err)
	}
	l.sub = sub
	l.log.V(1).Info("Link ready", "rx", in, "tx", out)
	return l, nil
}

func (l *Link) Tx(data []byte) error {
	if err := l.nc.Publish(l.txTo, data); err != nil {
		return fmt.Errorf("natslink: publish to %s: %w", l.txTo, err)
	}
	return nil
}

// Rx waits up to timeout for the next inbound message.
func (l *Link) Rx(timeout time.Duration) ([]byte, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case m := <-l.rx:
		return m.Data, nil
	case <-t.C:
		return nil, transport.ErrTimeout
	}
}

// Flush waits until the server has processed everything published so far.
func (l *Link) Flush() error {
	return l.nc.Flush()
}

func (l *Link) Close() error {
	if err := l.sub.Unsubscribe(); err != nil && err != nats.ErrConnectionClosed {
		l.log.Error(err, "Unsubscribe failed")
	}
	l.nc.Close()
	return nil
}
