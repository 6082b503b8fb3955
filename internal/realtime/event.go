package realtime

import (
	"context"
	"time"
)

type EventType string

const (
	EventComandaOpened      EventType = "comanda.opened"
	EventComandaItemAdded   EventType = "comanda.item_added"
	EventComandaStatus      EventType = "comanda.status"
	EventWaiterCalled       EventType = "waiter.called"
	EventWaiterAcknowledged EventType = "waiter.acknowledged"
	EventOnlineOrderCreated EventType = "online_order.created"
	EventOnlineOrderStatus  EventType = "online_order.status"
)

// Event is what the desktop panels receive.
type Event struct {
	Type        EventType `json:"type"`
	ComandaID   uint      `json:"comanda_id,omitempty"`
	TableNumber int       `json:"table_number,omitempty"`
	OrderID     uint      `json:"order_id,omitempty"`
	WaiterID    uint      `json:"waiter_id,omitempty"`
	Status      string    `json:"status,omitempty"`
	At          time.Time `json:"at"`
}

// Publisher delivers events best effort; a failed delivery never fails the request.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) {}

// Nop drops every event.
var Nop Publisher = nopPublisher{}

type multi []Publisher

func (m multi) Publish(ctx context.Context, e Event) {
	for _, p := range m {
		p.Publish(ctx, e)
	}
}

// Multi fans an event out to every non-nil publisher.
func Multi(pubs ...Publisher) Publisher {
	out := make(multi, 0, len(pubs))
	for _, p := range pubs {
		if p != nil {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return Nop
	}
	return out
}

func stamp(e Event) Event {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	return e
}
