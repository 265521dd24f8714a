package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// Logical channels. Each station role subscribes to exactly one subject;
// role membership is enforced at connection time by the NATS credentials
// handed out per station, so a kitchen display never sees cashier payloads.
const (
	ChannelKitchen = "pos.kitchen"
	ChannelBar     = "pos.bar"
	ChannelCashier = "pos.cashier"
	ChannelAdmin   = "pos.admin"
	ChannelWaiter  = "pos.waiter"
)

// Envelope is the wire shape of every fabric message: an event name plus
// its payload. Stations switch on Event.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Publisher delivers role-scoped events to connected stations. Delivery is
// best-effort and at-most-once per connected subscriber; there is no
// per-subscriber backlog. Stations reconcile via their pull endpoints on
// (re)connect.
type Publisher interface {
	Publish(ctx context.Context, channel, event string, data interface{}) error
	Close() error
}

// NATSPublisher publishes fabric events over a core NATS connection. Core
// NATS pub/sub matches the fabric contract exactly: fan-out to currently
// connected subscribers, nothing queued for absent ones.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, channel, event string, data interface{}) error {
	msg, err := encodeEnvelope(event, data)
	if err != nil {
		return err
	}
	return p.conn.Publish(channel, msg)
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

func encodeEnvelope(event string, data interface{}) ([]byte, error) {
	msg, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", event, err)
	}
	return msg, nil
}
