// Package events carries routing, booking and payout notifications between
// modules inside one process. Delivery across processes goes through the
// task queue instead.
package events

import (
	"context"
	"time"
)

// Event is anything published on the bus. EventName is the subscription
// key ("routing.lead.assigned", "bookings.booking.claimed", ...).
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent is embedded by every domain event to carry its timestamp.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent stamps an event with the wall clock.
func NewBaseEvent() BaseEvent { return NewBaseEventAt(time.Now()) }

// NewBaseEventAt stamps an event with at, so services with an injected
// clock publish deterministic timestamps.
func NewBaseEventAt(at time.Time) BaseEvent { return BaseEvent{Timestamp: at} }

// Handler reacts to one event. A returned error is logged for Publish and
// returned to the caller of PublishSync.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a plain function subscribe.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error { return f(ctx, event) }

// Bus fans events out to the handlers subscribed to their name.
//
// Publish is fire-and-forget: lead assignments use it so intake never waits
// on email or webhook delivery. PublishSync runs every handler before
// returning and joins their errors; booking claims and policy decisions use
// it to report whether the notification email went out.
type Bus interface {
	Publish(ctx context.Context, event Event)
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}
